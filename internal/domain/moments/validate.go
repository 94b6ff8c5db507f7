package moments

import (
	"sort"
	"strings"

	"github.com/forPelevin/presserdigest/internal/domain/transcripts"
	"github.com/forPelevin/presserdigest/internal/types"
)

type Validator struct {
	policy Policy
	spans  map[string]transcripts.Span
}

// NewValidator checks candidates against the policy and the known caption
// span of each source video.
func NewValidator(p Policy, spans map[string]transcripts.Span) Validator {
	return Validator{policy: p, spans: spans}
}

// Validate applies the per-candidate rules in order; the first failure wins.
// Durations outside the bounds are rejected, never truncated.
func (v Validator) Validate(c types.MomentCandidate) (types.ValidatedMoment, types.RejectReason, bool) {
	if c.EndSeconds <= c.StartSeconds {
		return types.ValidatedMoment{}, types.RejectNegativeOrZeroDuration, false
	}
	d := c.EndSeconds - c.StartSeconds
	if d < v.policy.MinClipSeconds || d > v.policy.MaxClipSeconds {
		return types.ValidatedMoment{}, types.RejectDurationOutOfBounds, false
	}
	sp, ok := v.spans[c.SourceVideoID]
	if !ok || c.StartSeconds < 0 || !sp.Contains(c.StartSeconds, c.EndSeconds) {
		return types.ValidatedMoment{}, types.RejectTimestampOutOfRange, false
	}
	if strings.TrimSpace(c.QuoteText) == "" {
		return types.ValidatedMoment{}, types.RejectEmptyQuote, false
	}
	return types.ValidatedMoment{MomentCandidate: c, DurationSeconds: d}, "", true
}

type Result struct {
	Validated []types.ValidatedMoment
	Rejected  []types.Rejection
}

// RejectedByReason counts rejections per reason code.
func (r Result) RejectedByReason() map[types.RejectReason]int {
	out := map[types.RejectReason]int{}
	for _, rj := range r.Rejected {
		out[rj.Reason]++
	}
	return out
}

// ValidateAll validates every candidate, then resolves same-video overlaps.
// Output is ordered by video id, then start; the input is not modified.
func (v Validator) ValidateAll(cands []types.MomentCandidate) Result {
	var res Result
	byVideo := map[string][]types.ValidatedMoment{}
	for _, c := range cands {
		vm, reason, ok := v.Validate(c)
		if !ok {
			res.Rejected = append(res.Rejected, types.Rejection{Candidate: c, Reason: reason})
			continue
		}
		byVideo[c.SourceVideoID] = append(byVideo[c.SourceVideoID], vm)
	}

	ids := make([]string, 0, len(byVideo))
	for id := range byVideo {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		kept, evicted := resolveOverlaps(byVideo[id])
		res.Validated = append(res.Validated, kept...)
		for _, e := range evicted {
			res.Rejected = append(res.Rejected, types.Rejection{Candidate: e.MomentCandidate, Reason: types.RejectOverlapsHigherScored})
		}
	}
	return res
}

// resolveOverlaps sweeps one video's moments in start order. When the next
// moment overlaps the last kept one, the lower score is evicted; on a tie the
// earlier moment stays.
func resolveOverlaps(in []types.ValidatedMoment) (kept, evicted []types.ValidatedMoment) {
	ms := make([]types.ValidatedMoment, len(in))
	copy(ms, in)
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if a.StartSeconds != b.StartSeconds {
			return a.StartSeconds < b.StartSeconds
		}
		if a.NewsworthinessScore != b.NewsworthinessScore {
			return a.NewsworthinessScore > b.NewsworthinessScore
		}
		if a.EndSeconds != b.EndSeconds {
			return a.EndSeconds < b.EndSeconds
		}
		return a.QuoteText < b.QuoteText
	})

	for _, m := range ms {
		if len(kept) == 0 {
			kept = append(kept, m)
			continue
		}
		last := kept[len(kept)-1]
		if m.StartSeconds >= last.EndSeconds {
			kept = append(kept, m)
			continue
		}
		if m.NewsworthinessScore > last.NewsworthinessScore {
			evicted = append(evicted, last)
			kept[len(kept)-1] = m
			continue
		}
		evicted = append(evicted, m)
	}
	return kept, evicted
}
