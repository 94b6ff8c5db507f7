package selection

import (
	"sort"

	"github.com/forPelevin/presserdigest/internal/types"
)

// Select picks up to maxClips moments whose summed duration stays within
// ceilingSeconds.
//
// Candidates are scanned by score (ties: earlier start, then video id). A
// candidate that would overflow the ceiling is skipped and the scan goes on,
// so a shorter moment further down can still fit. This is greedy by
// priority, not an optimal knapsack; the result is reproducible.
//
// The returned entries are in broadcast order (start ascending) and Rank keeps
// the selection order.
func Select(reps []types.ValidatedMoment, maxClips, ceilingSeconds int) []types.PlanEntry {
	ordered := make([]types.ValidatedMoment, len(reps))
	copy(ordered, reps)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.NewsworthinessScore != b.NewsworthinessScore {
			return a.NewsworthinessScore > b.NewsworthinessScore
		}
		if a.StartSeconds != b.StartSeconds {
			return a.StartSeconds < b.StartSeconds
		}
		return a.SourceVideoID < b.SourceVideoID
	})

	var (
		out   []types.PlanEntry
		total int
	)
	for _, m := range ordered {
		if len(out) >= maxClips {
			break
		}
		if total+m.DurationSeconds > ceilingSeconds {
			continue
		}
		total += m.DurationSeconds
		out = append(out, types.PlanEntry{Rank: len(out) + 1, ValidatedMoment: m})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartSeconds != out[j].StartSeconds {
			return out[i].StartSeconds < out[j].StartSeconds
		}
		return out[i].Rank < out[j].Rank
	})
	return out
}
