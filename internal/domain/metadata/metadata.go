package metadata

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/forPelevin/presserdigest/internal/types"
)

const watchURL = "https://www.youtube.com/watch?v="

var DefaultTags = []string{"NBA", "basketball", "press conference", "highlights", "sports news"}

// Metadata is the publishing copy for one digest. Nothing is uploaded; the
// operator reviews and posts it by hand.
type Metadata struct {
	Title                  string    `json:"title"`
	Description            string    `json:"description"`
	TweetText              string    `json:"twitter_text"`
	Timestamps             []string  `json:"timestamps"`
	Tags                   []string  `json:"tags"`
	TotalDurationSeconds   float64   `json:"total_duration_seconds"`
	TotalDurationFormatted string    `json:"total_duration_formatted"`
	ClipCount              int       `json:"clip_count"`
	Date                   time.Time `json:"date"`
	DateDisplay            string    `json:"date_display"`
	Thumbnail              Thumbnail `json:"thumbnail"`
}

type Thumbnail struct {
	PrimaryHeadline   string   `json:"primary_headline"`
	SecondaryHeadline string   `json:"secondary_headline,omitempty"`
	PrimaryTeam       string   `json:"primary_team"`
	SecondaryTeam     string   `json:"secondary_team,omitempty"`
	Ideas             []string `json:"ideas"`
}

// ClipSeconds is the measured clip length, or the planned one when the clip
// was never probed.
func ClipSeconds(c types.RenderedClip) float64 {
	if c.ActualDuration > 0 {
		return c.ActualDuration
	}
	return float64(c.DurationSeconds)
}

// Generate builds the copy for clips in playback order.
func Generate(clips []types.RenderedClip, date time.Time) Metadata {
	dateShort := date.Format("Jan 02")
	dateFull := date.Format("January 02, 2006")

	hook := "Daily Digest"
	if top, ok := topScored(clips); ok && headline(top) != "" {
		hook = headline(top)
	}

	var (
		stamps []string
		cursor float64
	)
	for _, c := range clips {
		stamps = append(stamps, fmt.Sprintf("%s - %s (%s)", clock(cursor), headline(c), orDefault(c.Team, "NBA")))
		cursor += ClipSeconds(c)
	}

	desc := []string{
		"NBA Press Conference Digest - " + dateFull,
		"",
		"Today's top moments:",
		"",
	}
	desc = append(desc, stamps...)
	desc = append(desc, "", "---", "Sources (clips used under fair use for news commentary):")
	seen := map[string]bool{}
	addSource := func(team, url string) {
		if url == "" || seen[url] {
			return
		}
		seen[url] = true
		desc = append(desc, fmt.Sprintf("- %s: %s", team, url))
	}
	for _, c := range clips {
		addSource(c.Team, c.SourceURL)
		// the same story from other pressers, merged by dedup
		for _, alt := range c.AlternateSources {
			if alt.VideoID != "" {
				addSource(alt.Team, watchURL+alt.VideoID)
			}
		}
	}
	desc = append(desc, "", "#NBA #Basketball #PressConference #NBAnews")

	var tweet strings.Builder
	fmt.Fprintf(&tweet, "NBA Pressers Digest (%s):\n\n", dateShort)
	for i, c := range clips {
		if i == 4 {
			break
		}
		mark := "-"
		if c.NewsworthinessScore >= 8 {
			mark = "*"
		}
		fmt.Fprintf(&tweet, "%s %s\n", mark, headline(c))
	}
	tweet.WriteString("\nFull breakdown below")

	return Metadata{
		Title:                  fmt.Sprintf("%s + More | NBA Pressers %s", hook, dateShort),
		Description:            strings.Join(desc, "\n"),
		TweetText:              tweet.String(),
		Timestamps:             stamps,
		Tags:                   append([]string(nil), DefaultTags...),
		TotalDurationSeconds:   cursor,
		TotalDurationFormatted: clock(cursor),
		ClipCount:              len(clips),
		Date:                   date,
		DateDisplay:            dateFull,
		Thumbnail:              thumbnail(clips),
	}
}

func thumbnail(clips []types.RenderedClip) Thumbnail {
	if len(clips) == 0 {
		return Thumbnail{PrimaryHeadline: "NBA Pressers", Ideas: []string{"Daily Digest"}}
	}
	ranked := append([]types.RenderedClip(nil), clips...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].NewsworthinessScore > ranked[j].NewsworthinessScore
	})
	t := Thumbnail{PrimaryHeadline: headline(ranked[0]), PrimaryTeam: ranked[0].Team}
	if len(ranked) > 1 {
		t.SecondaryHeadline, t.SecondaryTeam = headline(ranked[1]), ranked[1].Team
	}
	idea := t.PrimaryHeadline
	if r := []rune(idea); len(r) > 20 {
		idea = string(r[:20]) + "..."
	}
	t.Ideas = []string{idea}
	if len(clips) > 1 {
		t.Ideas = append(t.Ideas, fmt.Sprintf("+ %d MORE", len(clips)-1))
	}
	return t
}

func topScored(clips []types.RenderedClip) (types.RenderedClip, bool) {
	if len(clips) == 0 {
		return types.RenderedClip{}, false
	}
	best := clips[0]
	for _, c := range clips[1:] {
		if c.NewsworthinessScore > best.NewsworthinessScore {
			best = c
		}
	}
	return best, true
}

// headline falls back to the topic summary for moments scored without one.
func headline(c types.RenderedClip) string {
	if h := strings.TrimSpace(c.Headline); h != "" {
		return h
	}
	return strings.TrimSpace(c.TopicSummary)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func clock(sec float64) string {
	s := int(sec)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
