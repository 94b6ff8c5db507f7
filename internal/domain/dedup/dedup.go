package dedup

import (
	"fmt"
	"sort"

	"github.com/forPelevin/presserdigest/internal/types"
)

type Deduplicator struct {
	threshold float64
	sim       Similarity
}

// New returns a deduplicator that puts two moments in one group when
// sim(topicA, topicB) >= threshold. A nil sim means TokenJaccard.
func New(threshold float64, sim Similarity) Deduplicator {
	if sim == nil {
		sim = TokenJaccard
	}
	return Deduplicator{threshold: threshold, sim: sim}
}

// Group partitions moments into groups of the same story.
//
// Moments are visited in representative order (score desc, start asc, video
// id asc) and each joins the first existing group whose leader it matches, so
// the leader is always the group's best member. Matching is against the
// leader only, which keeps groups from drifting through chains of loosely
// related topics.
func (d Deduplicator) Group(ms []types.ValidatedMoment) []types.DedupGroup {
	ordered := make([]types.ValidatedMoment, len(ms))
	copy(ordered, ms)
	sort.SliceStable(ordered, func(i, j int) bool { return Better(ordered[i], ordered[j]) })

	var groups []types.DedupGroup
	for _, m := range ordered {
		m.AlternateSources = nil
		joined := false
		for gi := range groups {
			g := &groups[gi]
			if d.sim(g.Representative.TopicSummary, m.TopicSummary) < d.threshold {
				continue
			}
			m.GroupID = g.ID
			g.Dropped = append(g.Dropped, m)
			addSource(&g.Representative, types.SourceRef{VideoID: m.SourceVideoID, Team: m.Team})
			joined = true
			break
		}
		if joined {
			continue
		}
		m.GroupID = fmt.Sprintf("g%03d", len(groups)+1)
		groups = append(groups, types.DedupGroup{ID: m.GroupID, Representative: m})
	}
	return groups
}

// Representatives returns one moment per group, in group order.
func Representatives(groups []types.DedupGroup) []types.ValidatedMoment {
	out := make([]types.ValidatedMoment, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Representative)
	}
	return out
}

// Better orders moments for representative choice: higher score, then earlier
// start, then lexically smaller video id.
func Better(a, b types.ValidatedMoment) bool {
	if a.NewsworthinessScore != b.NewsworthinessScore {
		return a.NewsworthinessScore > b.NewsworthinessScore
	}
	if a.StartSeconds != b.StartSeconds {
		return a.StartSeconds < b.StartSeconds
	}
	if a.SourceVideoID != b.SourceVideoID {
		return a.SourceVideoID < b.SourceVideoID
	}
	if a.EndSeconds != b.EndSeconds {
		return a.EndSeconds < b.EndSeconds
	}
	return a.QuoteText < b.QuoteText
}

func addSource(rep *types.ValidatedMoment, src types.SourceRef) {
	if src.VideoID == rep.SourceVideoID {
		return
	}
	for _, s := range rep.AlternateSources {
		if s.VideoID == src.VideoID {
			return
		}
	}
	rep.AlternateSources = append(rep.AlternateSources, src)
}
