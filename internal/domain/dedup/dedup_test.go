package dedup

import (
	"testing"

	"github.com/forPelevin/presserdigest/internal/types"
)

func vm(video string, start int, score float64, topic string) types.ValidatedMoment {
	return types.ValidatedMoment{
		MomentCandidate: types.MomentCandidate{
			SourceVideoID:       video,
			Team:                "Team " + video,
			StartSeconds:        start,
			EndSeconds:          start + 30,
			QuoteText:           "quote",
			TopicSummary:        topic,
			NewsworthinessScore: score,
		},
		DurationSeconds: 30,
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"The Trade Rumors!":          "rumor trade",
		"  Dončić   trade rumor ":    "doncic rumor trade",
		"Injury update on the knee.": "injury knee update",
		"":                           "",
		"Celtics' loss vs. Heat":     "celtic heat loss vs",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTokenJaccard(t *testing.T) {
	if got := TokenJaccard("Trade rumors", "the trade rumor"); got != 1 {
		t.Fatalf("expected identical normalized topics to score 1, got %v", got)
	}
	if got := TokenJaccard("", ""); got != 0 {
		t.Fatalf("expected empty topics to never match, got %v", got)
	}
	got := TokenJaccard("knee injury update", "ankle injury update")
	if got != 0.5 {
		t.Fatalf("expected 2/4 overlap, got %v", got)
	}
}

func TestGroup_TieBreakEarliestStart(t *testing.T) {
	d := New(0.6, nil)
	groups := d.Group([]types.ValidatedMoment{
		vm("vidB", 200, 7, "trade deadline rumors"),
		vm("vidA", 100, 7, "trade deadline rumors"),
	})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	rep := groups[0].Representative
	if rep.StartSeconds != 100 {
		t.Fatalf("expected start=100 kept, got %d", rep.StartSeconds)
	}
	if len(rep.AlternateSources) != 1 || rep.AlternateSources[0].VideoID != "vidB" {
		t.Fatalf("expected vidB as alternate source, got %+v", rep.AlternateSources)
	}
	if len(groups[0].Dropped) != 1 || groups[0].Dropped[0].GroupID != groups[0].ID {
		t.Fatalf("expected dropped member tagged with group id")
	}
}

func TestGroup_TieBreakVideoID(t *testing.T) {
	d := New(0.6, nil)
	groups := d.Group([]types.ValidatedMoment{
		vm("zzz", 100, 7, "rookie debut"),
		vm("aaa", 100, 7, "rookie debut"),
	})
	if got := groups[0].Representative.SourceVideoID; got != "aaa" {
		t.Fatalf("expected lexically first video kept, got %s", got)
	}
}

func TestGroup_HighestScoreWins(t *testing.T) {
	d := New(0.6, nil)
	groups := d.Group([]types.ValidatedMoment{
		vm("a", 10, 6, "LeBron retirement hint"),
		vm("b", 500, 9, "lebron hints retirement"),
		vm("c", 50, 8, "coach on defense"),
	})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Representative.SourceVideoID != "b" {
		t.Fatalf("expected score-9 moment to lead, got %s", groups[0].Representative.SourceVideoID)
	}
	reps := Representatives(groups)
	if len(reps) != 2 || reps[1].SourceVideoID != "c" {
		t.Fatalf("unexpected representatives: %+v", reps)
	}
}

func TestGroup_SameVideoNotAlternateSource(t *testing.T) {
	d := New(0.6, nil)
	groups := d.Group([]types.ValidatedMoment{
		vm("a", 10, 9, "minutes restriction"),
		vm("a", 100, 5, "minutes restriction"),
	})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Representative.AlternateSources) != 0 {
		t.Fatalf("same-video member must not be an alternate source")
	}
}

func TestGroup_Deterministic(t *testing.T) {
	in := []types.ValidatedMoment{
		vm("c", 30, 5, "x y z"),
		vm("a", 10, 5, "x y z"),
		vm("b", 20, 8, "p q"),
	}
	rev := []types.ValidatedMoment{in[2], in[1], in[0]}
	g1 := New(0.6, nil).Group(in)
	g2 := New(0.6, nil).Group(rev)
	if len(g1) != len(g2) {
		t.Fatalf("group count differs: %d vs %d", len(g1), len(g2))
	}
	for i := range g1 {
		if g1[i].ID != g2[i].ID || g1[i].Representative.SourceVideoID != g2[i].Representative.SourceVideoID {
			t.Fatalf("group %d differs: %+v vs %+v", i, g1[i], g2[i])
		}
	}
}

func TestGroup_CustomSimilarity(t *testing.T) {
	exact := func(a, b string) float64 {
		if a == b {
			return 1
		}
		return 0
	}
	groups := New(1, exact).Group([]types.ValidatedMoment{
		vm("a", 10, 5, "Trade"),
		vm("b", 10, 5, "trade"),
	})
	if len(groups) != 2 {
		t.Fatalf("expected case-sensitive exact match to keep 2 groups, got %d", len(groups))
	}
}
