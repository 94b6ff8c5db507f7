package usecase

import (
	"github.com/forPelevin/presserdigest/internal/domain/digest"
	"github.com/forPelevin/presserdigest/internal/domain/moments"
	"github.com/forPelevin/presserdigest/internal/domain/transcripts"
	"github.com/forPelevin/presserdigest/internal/types"
)

// Replay rebuilds a plan from saved transcripts and candidates without
// calling any collaborator. The same inputs always give the same plan.
func Replay(p moments.Policy, trs []types.Transcript, cands []types.MomentCandidate) (digest.Outcome, error) {
	store, err := transcripts.FromTranscripts(trs)
	if err != nil {
		return digest.Outcome{}, err
	}
	return Plan(p, store, cands)
}
