//go:build integration

package itest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/presserdigest/internal/types"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestE2E_ReplayOffline(t *testing.T) {
	repoRoot := mustRepoRoot(t)
	runDir := t.TempDir()

	var segs []types.TranscriptSegment
	for i := 0; i < 30; i++ {
		segs = append(segs, types.TranscriptSegment{StartSeconds: float64(i * 5), EndSeconds: float64(i*5 + 5), Text: "line"})
	}
	writeJSON(t, filepath.Join(runDir, "transcripts.json"), []types.Transcript{
		{Video: types.Video{ID: "den001", Team: "Denver Nuggets"}, Segments: segs},
		{Video: types.Video{ID: "mia001", Team: "Miami Heat"}, Segments: segs},
	})
	writeJSON(t, filepath.Join(runDir, "candidates.json"), []types.MomentCandidate{
		{SourceVideoID: "den001", Team: "Denver Nuggets", StartSeconds: 10, EndSeconds: 40, QuoteText: "we were locked in", TopicSummary: "defense travels on the road", Headline: "Locked in on defense", NewsworthinessScore: 8},
		{SourceVideoID: "mia001", Team: "Miami Heat", StartSeconds: 20, EndSeconds: 50, QuoteText: "I feel great", TopicSummary: "injury return timeline", Headline: "Return is close", NewsworthinessScore: 9},
		{SourceVideoID: "mia001", Team: "Miami Heat", StartSeconds: 30, EndSeconds: 60, QuoteText: "overlapping take", TopicSummary: "other", NewsworthinessScore: 4},
		{SourceVideoID: "den001", Team: "Denver Nuggets", StartSeconds: 100, EndSeconds: 200, QuoteText: "too long", TopicSummary: "long", NewsworthinessScore: 10},
	})

	res := runCLI(t, repoRoot, []string{"replay", runDir}, map[string]string{"OPENROUTER_API_KEY": ""})
	if res.exitCode != 0 {
		t.Fatalf("replay exited %d\noutput:\n%s", res.exitCode, res.output)
	}
	for _, want := range []string{"2 validated", "2 rejected", "Return is close", "Locked in on defense"} {
		if !strings.Contains(res.output, want) {
			t.Fatalf("expected %q in output:\n%s", want, res.output)
		}
	}
}

// TestE2E_Live runs the whole pipeline against the real feeds and model. It
// needs network access, yt-dlp, ffmpeg and an API key.
func TestE2E_Live(t *testing.T) {
	if os.Getenv("PRESSERDIGEST_LIVE") == "" {
		t.Skip("set PRESSERDIGEST_LIVE=1 to run against live services")
	}
	if os.Getenv("OPENROUTER_API_KEY") == "" {
		t.Fatalf("OPENROUTER_API_KEY is required for the live test")
	}
	repoRoot := mustRepoRoot(t)
	outDir := filepath.Join(t.TempDir(), "out")

	res := runCLIWithTimeout(t, repoRoot, []string{"--hours", "72", "--max-clips", "3", "--out", outDir}, nil, 30*time.Minute)
	if res.exitCode != 0 {
		t.Fatalf("run exited %d\noutput:\n%s", res.exitCode, res.output)
	}

	digests, _ := filepath.Glob(filepath.Join(outDir, "*", "digest.mp4"))
	if len(digests) == 0 {
		summaries, _ := filepath.Glob(filepath.Join(outDir, "*", "review_summary.json"))
		if len(summaries) == 0 {
			t.Fatalf("no run artifacts in %s", outDir)
		}
		t.Skip("no press conferences in the window; empty digest")
	}
	sec, err := probeDurationSeconds(digests[0])
	if err != nil {
		t.Fatalf("probe digest: %v", err)
	}
	if sec <= 0 {
		t.Fatalf("digest has no duration")
	}
}
