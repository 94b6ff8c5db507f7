package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/forPelevin/presserdigest/internal/domain/dedup"
	"github.com/forPelevin/presserdigest/internal/domain/moments"
	"github.com/forPelevin/presserdigest/internal/domain/selection"
	"github.com/forPelevin/presserdigest/internal/domain/transcripts"
	"github.com/forPelevin/presserdigest/internal/types"
)

// InvariantError lists every plan invariant that failed. It signals a defect
// upstream and must stop the run.
type InvariantError struct {
	Violations []string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("digest plan invalid (%d violations): %s", len(e.Violations), strings.Join(e.Violations, "; "))
}

// Outcome carries every intermediate list so each stage can be persisted or
// replayed on its own.
type Outcome struct {
	Validation moments.Result
	Groups     []types.DedupGroup
	Plan       types.DigestPlan
}

// Build runs validation, dedup, selection and assembly over a candidate list.
// It performs no I/O.
func Build(p moments.Policy, spans map[string]transcripts.Span, cands []types.MomentCandidate, sim dedup.Similarity) (Outcome, error) {
	var out Outcome
	out.Validation = moments.NewValidator(p, spans).ValidateAll(cands)
	out.Groups = dedup.New(p.SimilarityThreshold, sim).Group(out.Validation.Validated)
	entries := selection.Select(dedup.Representatives(out.Groups), p.MaxClips, p.RuntimeCeilingSeconds)
	plan, err := Assemble(p, entries)
	if err != nil {
		return out, err
	}
	out.Plan = plan
	return out, nil
}

// Assemble wraps selected entries into a plan and checks every invariant.
// A violation is returned as *InvariantError; nothing is repaired.
func Assemble(p moments.Policy, entries []types.PlanEntry) (types.DigestPlan, error) {
	es := make([]types.PlanEntry, len(entries))
	copy(es, entries)
	plan := types.DigestPlan{
		MaxClips:              p.MaxClips,
		RuntimeCeilingSeconds: p.RuntimeCeilingSeconds,
		Entries:               es,
	}
	for _, e := range es {
		plan.TotalSeconds += e.DurationSeconds
	}
	if v := Check(p, plan); len(v) > 0 {
		return types.DigestPlan{}, &InvariantError{Violations: v}
	}
	plan.ID = planID(plan)
	return plan, nil
}

// Check returns the invariant violations of a plan, if any.
func Check(p moments.Policy, plan types.DigestPlan) []string {
	var v []string
	if len(plan.Entries) > p.MaxClips {
		v = append(v, fmt.Sprintf("%d entries exceed max clips %d", len(plan.Entries), p.MaxClips))
	}
	total := 0
	groups := map[string]int{}
	ranks := map[int]bool{}
	for i, e := range plan.Entries {
		total += e.DurationSeconds
		if e.DurationSeconds != e.EndSeconds-e.StartSeconds {
			v = append(v, fmt.Sprintf("entry %d: duration %d does not match range %d-%d", i, e.DurationSeconds, e.StartSeconds, e.EndSeconds))
		}
		if e.DurationSeconds < p.MinClipSeconds || e.DurationSeconds > p.MaxClipSeconds {
			v = append(v, fmt.Sprintf("entry %d: duration %d outside [%d, %d]", i, e.DurationSeconds, p.MinClipSeconds, p.MaxClipSeconds))
		}
		if strings.TrimSpace(e.SourceVideoID) == "" || strings.TrimSpace(e.Team) == "" {
			v = append(v, fmt.Sprintf("entry %d: missing source attribution", i))
		}
		if e.GroupID != "" {
			if j, dup := groups[e.GroupID]; dup {
				v = append(v, fmt.Sprintf("entries %d and %d share dedup group %s", j, i, e.GroupID))
			}
			groups[e.GroupID] = i
		}
		if ranks[e.Rank] || e.Rank < 1 {
			v = append(v, fmt.Sprintf("entry %d: invalid or repeated rank %d", i, e.Rank))
		}
		ranks[e.Rank] = true
		for j := 0; j < i; j++ {
			o := plan.Entries[j]
			if o.SourceVideoID == e.SourceVideoID && e.StartSeconds < o.EndSeconds && o.StartSeconds < e.EndSeconds {
				v = append(v, fmt.Sprintf("entries %d and %d overlap in video %s", j, i, e.SourceVideoID))
			}
		}
	}
	if total > p.RuntimeCeilingSeconds {
		v = append(v, fmt.Sprintf("total %ds exceeds runtime ceiling %ds", total, p.RuntimeCeilingSeconds))
	}
	if total != plan.TotalSeconds {
		v = append(v, fmt.Sprintf("total %ds does not match recorded %ds", total, plan.TotalSeconds))
	}
	return v
}

// planID is a content hash, so identical input yields an identical plan.
func planID(plan types.DigestPlan) string {
	b, err := json.Marshal(plan.Entries)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:12]
}
