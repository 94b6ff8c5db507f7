package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/forPelevin/presserdigest/internal/domain/candidates"
	"github.com/forPelevin/presserdigest/internal/domain/digest"
	"github.com/forPelevin/presserdigest/internal/domain/metadata"
	"github.com/forPelevin/presserdigest/internal/domain/moments"
	"github.com/forPelevin/presserdigest/internal/domain/qa"
	"github.com/forPelevin/presserdigest/internal/domain/transcripts"
	"github.com/forPelevin/presserdigest/internal/logger"
	"github.com/forPelevin/presserdigest/internal/ports"
	"github.com/forPelevin/presserdigest/internal/types"
)

// Deps are the collaborators of a run. Cache and ASR may be nil.
type Deps struct {
	Feed       ports.VideoFeed
	Captions   ports.CaptionSource
	Cache      ports.TranscriptCache
	ASR        ports.ASR
	Scorer     ports.MomentScorer
	Downloader ports.Downloader
	Video      ports.VideoTool
	Log        *logger.Logger
	Now        func() time.Time
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return Usecase{d: d}
}

// Sink receives each stage's output as soon as the stage finishes.
type Sink interface {
	Write(name string, v any) error
}

type Input struct {
	Policy          moments.Policy
	HoursBack       int
	MomentsPerVideo int
	Scoring         candidates.Options
	// TranscriptParallel bounds concurrent caption fetches.
	TranscriptParallel int

	WorkDir string
	OutDir  string
	DryRun  bool
	Sink    Sink
}

// Report counts what every stage did. It is logged and persisted with the
// run artifacts.
type Report struct {
	VideosFound        int                        `json:"videos_found"`
	TranscriptsOK      int                        `json:"transcripts_ok"`
	TranscriptsCached  int                        `json:"transcripts_cached"`
	TranscriptsASR     int                        `json:"transcripts_asr"`
	NoCaptions         int                        `json:"no_captions"`
	TranscriptFailures int                        `json:"transcript_failures"`
	Batches            int                        `json:"batches"`
	FailedBatches      int                        `json:"failed_batches"`
	Candidates         int                        `json:"candidates"`
	Rejected           map[types.RejectReason]int `json:"rejected"`
	Validated          int                        `json:"validated"`
	DedupGroups        int                        `json:"dedup_groups"`
	Deduplicated       int                        `json:"deduplicated"`
	Selected           int                        `json:"selected"`
	PlannedSeconds     int                        `json:"planned_seconds"`
	ClipsRendered      int                        `json:"clips_rendered"`
	ClipsFailed        int                        `json:"clips_failed"`
}

type ClipFailure struct {
	Rank    int    `json:"rank"`
	VideoID string `json:"video_id"`
	Err     string `json:"error"`
}

type Result struct {
	Videos      []types.Video
	Transcripts []types.Transcript
	Generation  candidates.Result
	Outcome     digest.Outcome
	Clips       []types.RenderedClip
	ClipErrors  []ClipFailure
	DigestFile  string
	Metadata    *metadata.Metadata
	QA          *qa.Results
	Report      Report
	// Empty is set when no moment survived selection. It is a valid outcome,
	// not an error.
	Empty bool
}

// Run discovers videos, scores their transcripts, builds the digest plan and,
// unless DryRun is set, renders and compiles the clips.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	var res Result
	log := u.d.Log
	sink := in.Sink
	if sink == nil {
		sink = nopSink{}
	}

	since := u.d.Now().UTC().Add(-time.Duration(in.HoursBack) * time.Hour)
	videos, err := u.d.Feed.Recent(ctx, since)
	if err != nil {
		return res, err
	}
	res.Videos = videos
	res.Report.VideosFound = len(videos)
	log.Info("videos discovered", "count", len(videos), "since", since.Format(time.RFC3339))
	if err := sink.Write("videos", videos); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	store, err := u.fetchTranscripts(ctx, in, videos, &res)
	if err != nil {
		return res, err
	}
	if err := sink.Write("transcripts", res.Transcripts); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	opts := in.Scoring
	opts.BatchSize, opts.BatchCharBudget = in.Policy.BatchSize, in.Policy.BatchCharBudget
	gen, err := candidates.New(u.d.Scorer, opts, log).Generate(ctx, store, in.MomentsPerVideo)
	if err != nil {
		return res, err
	}
	res.Generation = gen
	res.Report.Batches, res.Report.FailedBatches, res.Report.Candidates = gen.Batches, len(gen.Failures), len(gen.Candidates)
	log.Info("candidates generated", "batches", gen.Batches, "failed_batches", len(gen.Failures), "candidates", len(gen.Candidates))
	if err := sink.Write("candidates", gen.Candidates); err != nil {
		return res, err
	}
	if len(gen.Failures) > 0 {
		if err := sink.Write("batch_failures", gen.Failures); err != nil {
			return res, err
		}
	}

	out, err := Plan(in.Policy, store, gen.Candidates)
	res.Outcome = out
	fillPlanReport(&res.Report, out)
	if werr := writeOutcome(sink, out, err == nil); werr != nil && err == nil {
		err = werr
	}
	if err != nil {
		var ie *digest.InvariantError
		if errors.As(err, &ie) {
			log.Error("digest plan rejected", "violations", len(ie.Violations), "error", err)
		}
		return res, err
	}
	log.Info("digest planned",
		"validated", res.Report.Validated,
		"rejected", len(out.Validation.Rejected),
		"groups", res.Report.DedupGroups,
		"selected", res.Report.Selected,
		"seconds", res.Report.PlannedSeconds,
	)

	if len(out.Plan.Entries) == 0 {
		res.Empty = true
		log.Warn("no moments selected; digest is empty")
		return res, nil
	}
	if in.DryRun {
		log.Info("dry run: skipping clip rendering")
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if err := u.render(ctx, in, store, &res); err != nil {
		return res, err
	}

	md := metadata.Generate(res.Clips, u.d.Now())
	res.Metadata = &md
	if err := sink.Write("metadata", md); err != nil {
		return res, err
	}
	var video *qa.Video
	if res.DigestFile != "" {
		info, perr := u.d.Video.Probe(ctx, res.DigestFile)
		video = &qa.Video{Info: info, Err: perr}
	}
	qr := qa.Run(res.Clips, video)
	res.QA = &qr
	if err := sink.Write("qa_results", qr); err != nil {
		return res, err
	}
	if !qr.AllPassed {
		log.Warn("qa checks need review", "errors", len(qr.Errors), "warnings", len(qr.Warnings))
	}
	return res, nil
}

// Plan runs the pure selection core over a transcript store and candidates.
func Plan(p moments.Policy, store *transcripts.Store, cands []types.MomentCandidate) (digest.Outcome, error) {
	return digest.Build(p, store.Spans(), cands, nil)
}

func fillPlanReport(r *Report, out digest.Outcome) {
	r.Rejected = out.Validation.RejectedByReason()
	r.Validated = len(out.Validation.Validated)
	r.DedupGroups = len(out.Groups)
	for _, g := range out.Groups {
		r.Deduplicated += len(g.Dropped)
	}
	r.Selected = len(out.Plan.Entries)
	r.PlannedSeconds = out.Plan.TotalSeconds
}

func writeOutcome(sink Sink, out digest.Outcome, withPlan bool) error {
	if err := sink.Write("validated", out.Validation.Validated); err != nil {
		return err
	}
	if err := sink.Write("rejections", out.Validation.Rejected); err != nil {
		return err
	}
	if err := sink.Write("dedup_groups", out.Groups); err != nil {
		return err
	}
	if !withPlan {
		return nil
	}
	return sink.Write("plan", out.Plan)
}

type nopSink struct{}

func (nopSink) Write(string, any) error { return nil }
