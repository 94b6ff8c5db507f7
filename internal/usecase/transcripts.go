package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/presserdigest/internal/domain/transcripts"
	"github.com/forPelevin/presserdigest/internal/types"
)

type fetchOutcome struct {
	tr     types.Transcript
	cached bool
	asr    bool
	err    error
}

// fetchTranscripts loads captions for every video: cache first, then the
// caption source, then ASR when configured. A video that yields nothing is
// skipped and counted; only cancellation aborts.
func (u Usecase) fetchTranscripts(ctx context.Context, in Input, videos []types.Video, res *Result) (*transcripts.Store, error) {
	outs := make([]fetchOutcome, len(videos))
	limit := in.TranscriptParallel
	if limit <= 0 {
		limit = 4
	}

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, v := range videos {
		i, v := i, v
		eg.Go(func() error {
			outs[i] = u.fetchOne(ectx, in.WorkDir, v)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	store := transcripts.NewStore()
	for i, o := range outs {
		v := videos[i]
		if o.err == nil {
			o.err = store.Add(v, o.tr.Segments)
		}
		switch {
		case o.err == nil:
			res.Report.TranscriptsOK++
			if o.cached {
				res.Report.TranscriptsCached++
			}
			if o.asr {
				res.Report.TranscriptsASR++
			}
			res.Transcripts = append(res.Transcripts, types.Transcript{Video: v, Segments: store.Segments(v.ID)})
		case errors.Is(o.err, types.ErrNoCaptions):
			res.Report.NoCaptions++
			u.d.Log.Warn("video skipped: no captions", "video_id", v.ID, "team", v.Team)
		default:
			res.Report.TranscriptFailures++
			u.d.Log.Warn("video skipped: transcript failed", "video_id", v.ID, "team", v.Team, "error", o.err)
		}
	}
	u.d.Log.Info("transcripts ready", "ok", res.Report.TranscriptsOK, "cached", res.Report.TranscriptsCached,
		"no_captions", res.Report.NoCaptions, "failed", res.Report.TranscriptFailures)
	return store, nil
}

func (u Usecase) fetchOne(ctx context.Context, workDir string, v types.Video) fetchOutcome {
	if u.d.Cache != nil {
		tr, ok, err := u.d.Cache.Get(ctx, v.ID)
		switch {
		case err != nil:
			u.d.Log.Warn("transcript cache read failed", "video_id", v.ID, "error", err)
		case ok && len(tr.Segments) > 0:
			return fetchOutcome{tr: tr, cached: true}
		}
	}

	dir := filepath.Join(workDir, "videos", v.ID)
	segs, err := u.d.Captions.Captions(ctx, v, dir)
	asr := false
	if errors.Is(err, types.ErrNoCaptions) && u.d.ASR != nil {
		u.d.Log.Info("no captions, transcribing audio", "video_id", v.ID)
		segs, err = u.transcribe(ctx, dir, v)
		asr = err == nil
	}
	if err != nil {
		return fetchOutcome{err: err}
	}

	tr := types.Transcript{Video: v, Segments: segs}
	if u.d.Cache != nil && len(segs) > 0 {
		if perr := u.d.Cache.Put(ctx, tr); perr != nil {
			u.d.Log.Warn("transcript cache write failed", "video_id", v.ID, "error", perr)
		}
	}
	return fetchOutcome{tr: tr, asr: asr}
}

func (u Usecase) transcribe(ctx context.Context, dir string, v types.Video) ([]types.TranscriptSegment, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	audio := filepath.Join(dir, "audio.m4a")
	if err := u.d.Downloader.DownloadAudio(ctx, v.ID, audio); err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}
	wav := filepath.Join(dir, "audio.wav")
	if err := u.d.Video.ExtractAudioMono16k(ctx, audio, wav); err != nil {
		return nil, err
	}
	segs, err := u.d.ASR.Transcribe(ctx, wav, dir)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("asr produced no text: %w", types.ErrNoCaptions)
	}
	return segs, nil
}
