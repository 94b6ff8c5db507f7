package qa

import (
	"fmt"
	"sort"
	"strings"

	"github.com/forPelevin/presserdigest/internal/types"
)

const (
	minVideoSeconds = 60
	maxVideoSeconds = 600
	minVideoMB      = 1
	maxVideoMB      = 500
	minVideoHeight  = 480

	minHeadlineChars = 5
	maxHeadlineChars = 60
	minClipSeconds   = 10
	maxClipSeconds   = 90
	minClipScore     = 5
)

// Check is one named QA check. Blocking checks turn their findings into
// errors; the rest only warn.
type Check struct {
	Name     string   `json:"name"`
	Passed   bool     `json:"passed"`
	Blocking bool     `json:"blocking"`
	Findings []string `json:"findings,omitempty"`
}

type Results struct {
	AllPassed bool     `json:"all_passed"`
	Checks    []Check  `json:"checks"`
	Warnings  []string `json:"warnings"`
	Errors    []string `json:"errors"`
	Clips     int      `json:"total_clips"`
}

// Video is what QA needs to know about the compiled digest. Skip it (nil)
// when no video was produced, e.g. on a dry run.
type Video struct {
	Info types.MediaInfo
	Err  error
}

// Run applies every check to the rendered clips and, when given, the compiled
// video.
func Run(clips []types.RenderedClip, video *Video) Results {
	var checks []Check
	if video != nil {
		checks = append(checks, videoQuality(*video))
	}
	checks = append(checks,
		clipAccuracy(clips),
		diversity(clips),
		timestamps(clips),
		attribution(clips),
	)

	res := Results{AllPassed: true, Checks: checks, Clips: len(clips), Warnings: []string{}, Errors: []string{}}
	for _, c := range checks {
		if c.Blocking && !c.Passed {
			res.AllPassed = false
			res.Errors = append(res.Errors, c.Findings...)
			continue
		}
		res.Warnings = append(res.Warnings, c.Findings...)
	}
	return res
}

func videoQuality(v Video) Check {
	c := Check{Name: "video_quality", Blocking: true, Passed: true}
	if v.Err != nil {
		c.Passed = false
		c.Findings = []string{"video check failed: " + v.Err.Error()}
		return c
	}
	// Out-of-range values warn only; the video exists and probes.
	d := v.Info.DurationSeconds
	if d < minVideoSeconds {
		c.Findings = append(c.Findings, fmt.Sprintf("video very short: %.0fs (expected >%ds)", d, minVideoSeconds))
	}
	if d > maxVideoSeconds {
		c.Findings = append(c.Findings, fmt.Sprintf("video very long: %.0fs (expected <%ds)", d, maxVideoSeconds))
	}
	mb := float64(v.Info.SizeBytes) / (1024 * 1024)
	if mb < minVideoMB {
		c.Findings = append(c.Findings, fmt.Sprintf("file size very small: %.1fMB", mb))
	}
	if mb > maxVideoMB {
		c.Findings = append(c.Findings, fmt.Sprintf("file size very large: %.1fMB", mb))
	}
	if v.Info.Height > 0 && v.Info.Height < minVideoHeight {
		c.Findings = append(c.Findings, fmt.Sprintf("low resolution: %dx%d", v.Info.Width, v.Info.Height))
	}
	return c
}

func clipAccuracy(clips []types.RenderedClip) Check {
	c := Check{Name: "clip_accuracy"}
	for i, cl := range clips {
		n := i + 1
		hl := len([]rune(strings.TrimSpace(cl.Headline)))
		if hl > maxHeadlineChars {
			c.Findings = append(c.Findings, fmt.Sprintf("clip %d: headline too long (%d chars)", n, hl))
		}
		if hl < minHeadlineChars {
			c.Findings = append(c.Findings, fmt.Sprintf("clip %d: headline too short", n))
		}
		d := cl.DurationSeconds
		if d < minClipSeconds {
			c.Findings = append(c.Findings, fmt.Sprintf("clip %d: very short (%ds)", n, d))
		}
		if d > maxClipSeconds {
			c.Findings = append(c.Findings, fmt.Sprintf("clip %d: very long (%ds)", n, d))
		}
		if cl.NewsworthinessScore < minClipScore {
			c.Findings = append(c.Findings, fmt.Sprintf("clip %d: low score (%g/10)", n, cl.NewsworthinessScore))
		}
		for _, f := range []struct{ name, v string }{
			{"video_id", cl.SourceVideoID},
			{"team", cl.Team},
			{"headline", cl.Headline},
			{"source_url", cl.SourceURL},
		} {
			if strings.TrimSpace(f.v) == "" {
				c.Findings = append(c.Findings, fmt.Sprintf("clip %d: missing %s", n, f.name))
			}
		}
	}
	c.Passed = len(c.Findings) == 0
	return c
}

func diversity(clips []types.RenderedClip) Check {
	c := Check{Name: "content_diversity"}
	counts := map[string]int{}
	for _, cl := range clips {
		team := cl.Team
		if team == "" {
			team = "Unknown"
		}
		counts[team]++
	}
	teams := make([]string, 0, len(counts))
	for t := range counts {
		teams = append(teams, t)
	}
	sort.Strings(teams)

	total := len(clips)
	for _, t := range teams {
		if total > 3 && counts[t]*2 > total {
			c.Findings = append(c.Findings, fmt.Sprintf("over-represented: %s (%d/%d clips)", t, counts[t], total))
		}
	}
	if total > 5 && len(counts) < 3 {
		c.Findings = append(c.Findings, fmt.Sprintf("low diversity: only %d teams in %d clips", len(counts), total))
	}
	c.Passed = len(c.Findings) == 0
	return c
}

func timestamps(clips []types.RenderedClip) Check {
	c := Check{Name: "timestamps", Blocking: true}
	for i, cl := range clips {
		if cl.StartSeconds >= cl.EndSeconds {
			c.Findings = append(c.Findings, fmt.Sprintf("clip %d: invalid timestamps (start >= end)", i+1))
		}
		if cl.StartSeconds < 0 {
			c.Findings = append(c.Findings, fmt.Sprintf("clip %d: negative start time", i+1))
		}
	}
	c.Passed = len(c.Findings) == 0
	return c
}

func attribution(clips []types.RenderedClip) Check {
	c := Check{Name: "attribution", Blocking: true}
	for i, cl := range clips {
		if strings.TrimSpace(cl.Team) == "" {
			c.Findings = append(c.Findings, fmt.Sprintf("clip %d: missing team attribution", i+1))
		}
		if strings.TrimSpace(cl.SourceURL) == "" {
			c.Findings = append(c.Findings, fmt.Sprintf("clip %d: missing source URL", i+1))
		}
	}
	c.Passed = len(c.Findings) == 0
	return c
}
