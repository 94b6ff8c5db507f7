package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"github.com/forPelevin/presserdigest/internal/config"
	"github.com/forPelevin/presserdigest/internal/domain/moments"
	"github.com/forPelevin/presserdigest/internal/domain/qa"
	"github.com/forPelevin/presserdigest/internal/logger"
	"github.com/forPelevin/presserdigest/internal/types"
	"github.com/forPelevin/presserdigest/internal/usecase"
)

func TestBuildRunOutDir(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 1234, time.UTC)
	got := buildRunOutDir("out", "NBA Pressers", now, "run-1")
	base := filepath.Base(got)
	if filepath.Dir(got) != "out" {
		t.Fatalf("unexpected parent dir: %s", got)
	}
	if !strings.HasPrefix(base, "nba-pressers-20260212-103045Z-") {
		t.Fatalf("unexpected run dir format: %s", base)
	}
	if len(base) != len("nba-pressers-20260212-103045Z-")+6 {
		t.Fatalf("unexpected run dir suffix length: %s", base)
	}
	if other := buildRunOutDir("out", "NBA Pressers", now, "run-2"); other == got {
		t.Fatalf("expected distinct dirs per seed, got %s twice", got)
	}
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := normalizePathSegment(in); got != want {
				t.Fatalf("normalizePathSegment(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

type stubFeed struct{ videos []types.Video }

func (s stubFeed) Recent(context.Context, time.Time) ([]types.Video, error) { return s.videos, nil }

type stubCaptions struct{}

func (stubCaptions) Captions(_ context.Context, v types.Video, _ string) ([]types.TranscriptSegment, error) {
	var out []types.TranscriptSegment
	for i := 0; i < 10; i++ {
		out = append(out, types.TranscriptSegment{StartSeconds: float64(i * 10), EndSeconds: float64(i*10 + 10), Text: v.Team + " says something"})
	}
	return out, nil
}

type stubScorer struct{}

func (stubScorer) ScoreBatch(_ context.Context, b types.Batch) ([]types.MomentCandidate, error) {
	var out []types.MomentCandidate
	for i, bv := range b.Videos {
		out = append(out, types.MomentCandidate{
			SourceVideoID:       bv.Video.ID,
			StartSeconds:        10,
			EndSeconds:          40,
			QuoteText:           "quote number " + bv.Video.ID,
			TopicSummary:        []string{"trade rumors swirl", "injury update on the ankle"}[i%2],
			Headline:            "Headline " + bv.Video.ID,
			NewsworthinessScore: float64(9 - i),
		})
		// out of bounds, rejected
		out = append(out, types.MomentCandidate{
			SourceVideoID:       bv.Video.ID,
			StartSeconds:        50,
			EndSeconds:          55,
			QuoteText:           "too short",
			TopicSummary:        "short",
			NewsworthinessScore: 3,
		})
	}
	return out, nil
}

func testApp(t *testing.T) *config.Config {
	t.Helper()
	tmp := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutDir = filepath.Join(tmp, "out")
	cfg.Paths.WorkDir = filepath.Join(tmp, "work")
	cfg.Cache.Backend = config.CacheNone
	return &cfg
}

func testDeps() usecase.Deps {
	return usecase.Deps{
		Feed: stubFeed{videos: []types.Video{
			{ID: "aaa111", Team: "Denver Nuggets", Title: "Postgame press conference"},
			{ID: "bbb222", Team: "Miami Heat", Title: "Postgame press conference"},
		}},
		Captions: stubCaptions{},
		Scorer:   stubScorer{},
	}
}

func TestRun_DryRunWritesArtifacts(t *testing.T) {
	app := testApp(t)
	var out bytes.Buffer

	sum, err := run(context.Background(), Config{App: app, DryRun: true, Out: &out}, testDeps())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.RunID == "" || !strings.HasPrefix(filepath.Base(sum.Dir), "pressers-") {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	for _, name := range []string{"policy", "videos", "transcripts", "candidates", "validated", "rejections", "dedup_groups", "plan", "review_summary"} {
		if _, err := os.Stat(filepath.Join(sum.Dir, name+".json")); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(sum.Dir, "qa_report.txt")); !os.IsNotExist(err) {
		t.Fatalf("dry run must not write a qa report")
	}

	b, err := os.ReadFile(filepath.Join(sum.Dir, "review_summary.json"))
	if err != nil {
		t.Fatal(err)
	}
	var review reviewSummary
	if err := json.Unmarshal(b, &review); err != nil {
		t.Fatalf("decode review: %v", err)
	}
	if review.RunID != sum.RunID || !review.DryRun || review.PlanID == "" || review.Report.Selected != 2 {
		t.Fatalf("unexpected review summary: %+v", review)
	}
	if review.Report.Rejected[types.RejectDurationOutOfBounds] != 2 {
		t.Fatalf("expected 2 duration rejections, got %v", review.Report.Rejected)
	}
	if !strings.Contains(out.String(), "Headline aaa111") || !strings.Contains(out.String(), sum.Dir) {
		t.Fatalf("report output missing plan:\n%s", out.String())
	}
}

func TestReplay_ReproducesPlan(t *testing.T) {
	app := testApp(t)
	sum, err := run(context.Background(), Config{App: app, DryRun: true}, testDeps())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var out bytes.Buffer
	res, err := Replay(sum.Dir, app.Policy(), &out)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res.Plan.ID != sum.Result.Outcome.Plan.ID {
		t.Fatalf("replayed plan %q differs from run plan %q", res.Plan.ID, sum.Result.Outcome.Plan.ID)
	}
	if !strings.Contains(out.String(), "2 rejected") {
		t.Fatalf("unexpected replay output:\n%s", out.String())
	}
}

func TestReplay_MissingArtifacts(t *testing.T) {
	cfg := config.Default()
	if _, err := Replay(t.TempDir(), cfg.Policy(), nil); err == nil {
		t.Fatalf("expected error for an empty run dir")
	}
}

func TestReplay_UsesRunPolicy(t *testing.T) {
	app := testApp(t)
	app.Digest.MaxClips = 1
	sum, err := run(context.Background(), Config{App: app, DryRun: true}, testDeps())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := len(sum.Result.Outcome.Plan.Entries); n != 1 {
		t.Fatalf("expected 1 planned clip, got %d", n)
	}

	defaults := config.Default()
	p, err := ReplayPolicy(sum.Dir, defaults.Policy())
	if err != nil {
		t.Fatalf("replay policy: %v", err)
	}
	if p.MaxClips != 1 {
		t.Fatalf("expected saved max clips 1, got %d", p.MaxClips)
	}
	res, err := Replay(sum.Dir, p, nil)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res.Plan.ID != sum.Result.Outcome.Plan.ID || len(res.Plan.Entries) != 1 {
		t.Fatalf("replay did not reproduce the run's plan: run %s, replay %s with %d entries",
			sum.Result.Outcome.Plan.ID, res.Plan.ID, len(res.Plan.Entries))
	}

	// an explicit override still wins over the saved value
	p.MaxClips = 2
	res, err = Replay(sum.Dir, p, nil)
	if err != nil {
		t.Fatalf("replay with override: %v", err)
	}
	if len(res.Plan.Entries) != 2 {
		t.Fatalf("expected override to select 2 clips, got %d", len(res.Plan.Entries))
	}
}

func TestReplayPolicy_FallsBackWithoutSavedPolicy(t *testing.T) {
	fallback := moments.DefaultPolicy()
	fallback.MaxClips = 5
	p, err := ReplayPolicy(t.TempDir(), fallback)
	if err != nil {
		t.Fatalf("replay policy: %v", err)
	}
	if p != fallback {
		t.Fatalf("expected fallback policy, got %+v", p)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "policy.json"), []byte(`{"max_clips": 0}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReplayPolicy(dir, fallback); err == nil {
		t.Fatalf("expected an invalid saved policy to be rejected")
	}
}

func TestRun_LockHeld(t *testing.T) {
	app := testApp(t)
	if err := os.MkdirAll(app.Paths.WorkDir, 0o755); err != nil {
		t.Fatal(err)
	}
	held := flock.New(filepath.Join(app.Paths.WorkDir, lockName))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("take lock: %v %v", ok, err)
	}
	defer held.Unlock()

	_, err = run(context.Background(), Config{App: app, DryRun: true}, testDeps())
	if err == nil || !strings.Contains(err.Error(), "already in progress") {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestOpenCache(t *testing.T) {
	app := testApp(t)
	c, err := openCache(context.Background(), app, time.Now(), logger.Nop())
	if err != nil || c != nil {
		t.Fatalf("expected no cache for backend none, got %v %v", c, err)
	}

	app.Cache.Backend = config.CacheSQLite
	app.Cache.SQLitePath = filepath.Join(t.TempDir(), "cache", "transcripts.db")
	c, err = openCache(context.Background(), app, time.Now(), logger.Nop())
	if err != nil {
		t.Fatalf("open sqlite cache: %v", err)
	}
	defer c.Close()
	tr := types.Transcript{Video: types.Video{ID: "vid1", Team: "Utah Jazz"}, Segments: []types.TranscriptSegment{{EndSeconds: 3, Text: "hello"}}}
	if err := c.Put(context.Background(), tr); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := c.Get(context.Background(), "vid1")
	if err != nil || !ok || got.Video.Team != "Utah Jazz" {
		t.Fatalf("get: %+v %v %v", got, ok, err)
	}
}

func TestRenderQAReport(t *testing.T) {
	res := qa.Results{
		AllPassed: false,
		Clips:     1,
		Checks: []qa.Check{
			{Name: "timestamps", Blocking: true, Passed: true},
			{Name: "attribution", Blocking: true, Passed: false, Findings: []string{"clip 1: missing team"}},
		},
		Errors: []string{"clip 1: missing team"},
	}
	txt := renderQAReport(res, nil)
	if !strings.Contains(txt, "NEEDS REVIEW") || !strings.Contains(txt, "attribution") || !strings.Contains(txt, "missing team") {
		t.Fatalf("unexpected report:\n%s", txt)
	}
}
