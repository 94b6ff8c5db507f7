package candidates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/presserdigest/internal/domain/transcripts"
	"github.com/forPelevin/presserdigest/internal/logger"
	"github.com/forPelevin/presserdigest/internal/types"
)

const (
	defaultConcurrency = 4
	defaultCallTimeout = 90 * time.Second
	defaultMaxRetries  = 2
	defaultBackoff     = 2 * time.Second
)

// Scorer proposes moments for one batch of transcripts.
type Scorer interface {
	ScoreBatch(ctx context.Context, b types.Batch) ([]types.MomentCandidate, error)
}

type Options struct {
	BatchSize       int
	BatchCharBudget int
	Concurrency     int
	CallTimeout     time.Duration
	MaxRetries      int
	Backoff         time.Duration
	// Sleep waits between retries; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

type Generator struct {
	scorer Scorer
	opts   Options
	log    *logger.Logger
}

func New(scorer Scorer, opts Options, log *logger.Logger) *Generator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{scorer: scorer, opts: opts, log: log}
}

type BatchFailure struct {
	Batch    int      `json:"batch"`
	VideoIDs []string `json:"video_ids"`
	Attempts int      `json:"attempts"`
	Err      string   `json:"error"`
}

type Result struct {
	Candidates []types.MomentCandidate
	Batches    int
	Failures   []BatchFailure
}

// Generate scores every transcript in the store and returns the proposals.
//
// Batches run concurrently and are independent; a batch that still fails
// after its retries is dropped and recorded in Result.Failures. Candidates
// are merged in batch order regardless of completion order. Only
// cancellation of ctx is returned as an error.
func (g *Generator) Generate(ctx context.Context, store *transcripts.Store, target int) (Result, error) {
	batches := transcripts.BuildBatches(store, g.opts.BatchSize, g.opts.BatchCharBudget, target)
	res := Result{Batches: len(batches)}
	if len(batches) == 0 {
		return res, nil
	}

	perBatch := make([][]types.MomentCandidate, len(batches))
	failures := make([]*BatchFailure, len(batches))

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for i, b := range batches {
		i, b := i, b
		eg.Go(func() error {
			cands, attempts, err := g.scoreWithRetry(ectx, b)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				g.log.Warn("scoring batch dropped", "batch", b.Index, "videos", len(b.Videos), "attempts", attempts, "error", err)
				failures[i] = &BatchFailure{Batch: b.Index, VideoIDs: videoIDs(b), Attempts: attempts, Err: err.Error()}
				return nil
			}
			perBatch[i] = attribute(store, b, cands, g.log)
			g.log.Debug("scoring batch done", "batch", b.Index, "candidates", len(perBatch[i]))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, fmt.Errorf("generate candidates: %w", err)
	}

	for i := range batches {
		res.Candidates = append(res.Candidates, perBatch[i]...)
		if failures[i] != nil {
			res.Failures = append(res.Failures, *failures[i])
		}
	}
	return res, nil
}

func (g *Generator) scoreWithRetry(ctx context.Context, b types.Batch) ([]types.MomentCandidate, int, error) {
	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= g.opts.MaxRetries; attempt++ {
		attempts++
		cands, err := g.callOnce(ctx, b)
		if err == nil {
			return cands, attempts, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) || attempt == g.opts.MaxRetries {
			break
		}
		g.log.Debug("scoring batch retry", "batch", b.Index, "attempt", attempts, "error", err)
		if err := g.opts.Sleep(ctx, g.opts.Backoff*time.Duration(1<<attempt)); err != nil {
			return nil, attempts, err
		}
	}
	return nil, attempts, lastErr
}

func (g *Generator) callOnce(ctx context.Context, b types.Batch) ([]types.MomentCandidate, error) {
	cctx, cancel := context.WithTimeout(ctx, g.opts.CallTimeout)
	defer cancel()
	cands, err := g.scorer.ScoreBatch(cctx, b)
	if err != nil && ctx.Err() == nil && errors.Is(cctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("scoring call timed out after %s: %w", g.opts.CallTimeout, types.ErrTransient)
	}
	return cands, err
}

func retryable(err error) bool {
	return errors.Is(err, types.ErrTransient) && !errors.Is(err, types.ErrMalformedResponse)
}

// attribute fills the team from the transcript store and drops proposals
// pointing at videos outside the batch.
func attribute(store *transcripts.Store, b types.Batch, cands []types.MomentCandidate, log *logger.Logger) []types.MomentCandidate {
	inBatch := make(map[string]bool, len(b.Videos))
	for _, v := range b.Videos {
		inBatch[v.Video.ID] = true
	}
	out := make([]types.MomentCandidate, 0, len(cands))
	for _, c := range cands {
		c.SourceVideoID = strings.TrimSpace(c.SourceVideoID)
		if !inBatch[c.SourceVideoID] {
			log.Warn("proposal for unknown video ignored", "batch", b.Index, "video_id", c.SourceVideoID)
			continue
		}
		if v, ok := store.Video(c.SourceVideoID); ok {
			c.Team = v.Team
		}
		out = append(out, c)
	}
	return out
}

func videoIDs(b types.Batch) []string {
	ids := make([]string, 0, len(b.Videos))
	for _, v := range b.Videos {
		ids = append(ids, v.Video.ID)
	}
	sort.Strings(ids)
	return ids
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
