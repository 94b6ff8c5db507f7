package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/forPelevin/presserdigest/internal/domain/digest"
	"github.com/forPelevin/presserdigest/internal/domain/moments"
	"github.com/forPelevin/presserdigest/internal/types"
	"github.com/forPelevin/presserdigest/internal/usecase"
)

const policyArtifact = "policy"

// ReplayPolicy returns the policy the run in runDir was planned with. Run
// directories written before policy.json existed fall back to p.
func ReplayPolicy(runDir string, fallback moments.Policy) (moments.Policy, error) {
	var p moments.Policy
	err := readJSON(filepath.Join(runDir, policyArtifact+".json"), &p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fallback, nil
	case err != nil:
		return moments.Policy{}, err
	}
	if err := p.Validate(); err != nil {
		return moments.Policy{}, fmt.Errorf("saved policy in %s: %w", runDir, err)
	}
	return p, nil
}

// Replay rebuilds the digest plan of a finished run from its transcripts.json
// and candidates.json using p, normally the one ReplayPolicy returns. Nothing
// is fetched; the result goes to out.
func Replay(runDir string, p moments.Policy, out io.Writer) (digest.Outcome, error) {
	var trs []types.Transcript
	if err := readJSON(filepath.Join(runDir, "transcripts.json"), &trs); err != nil {
		return digest.Outcome{}, err
	}
	var cands []types.MomentCandidate
	if err := readJSON(filepath.Join(runDir, "candidates.json"), &cands); err != nil {
		return digest.Outcome{}, err
	}

	res, err := usecase.Replay(p, trs, cands)
	if err != nil {
		return res, fmt.Errorf("replay %s: %w", runDir, err)
	}
	if out != nil {
		fmt.Fprintf(out, "replayed %d candidates from %d transcripts: %d validated, %d rejected, %d groups\n",
			len(cands), len(trs), len(res.Validation.Validated), len(res.Validation.Rejected), len(res.Groups))
		if len(res.Plan.Entries) == 0 {
			fmt.Fprintln(out, "no moments selected")
		} else {
			fmt.Fprintln(out, renderPlan(res.Plan))
		}
	}
	return res, nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
