package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/forPelevin/presserdigest/internal/domain/overlay"
	"github.com/forPelevin/presserdigest/internal/domain/transcripts"
	"github.com/forPelevin/presserdigest/internal/types"
)

// render downloads, overlays and encodes every plan entry in plan order, then
// concatenates the clips that made it into the digest. A clip that fails is
// recorded and skipped.
func (u Usecase) render(ctx context.Context, in Input, store *transcripts.Store, res *Result) error {
	for _, dir := range []string{
		filepath.Join(in.OutDir, "clips"),
		filepath.Join(in.OutDir, "overlays"),
		filepath.Join(in.WorkDir, "sections"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	var files []string
	for _, e := range res.Outcome.Plan.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		clip, err := u.renderOne(ctx, in, store, e)
		if err != nil {
			res.Report.ClipsFailed++
			res.ClipErrors = append(res.ClipErrors, ClipFailure{Rank: e.Rank, VideoID: e.SourceVideoID, Err: err.Error()})
			u.d.Log.Warn("clip skipped", "rank", e.Rank, "video_id", e.SourceVideoID, "error", err)
			continue
		}
		res.Clips = append(res.Clips, clip)
		files = append(files, filepath.Join(in.OutDir, clip.File))
		res.Report.ClipsRendered++
		u.d.Log.Info("clip rendered", "rank", e.Rank, "team", e.Team, "seconds", clip.ActualDuration)
	}
	if len(files) == 0 {
		return fmt.Errorf("render: all %d clips failed", len(res.Outcome.Plan.Entries))
	}

	digest := filepath.Join(in.OutDir, "digest.mp4")
	list := filepath.Join(in.WorkDir, "sections", "concat.txt")
	if err := u.d.Video.Concat(ctx, files, list, digest); err != nil {
		return fmt.Errorf("compile digest: %w", err)
	}
	res.DigestFile = digest
	return nil
}

func (u Usecase) renderOne(ctx context.Context, in Input, store *transcripts.Store, e types.PlanEntry) (types.RenderedClip, error) {
	id := fmt.Sprintf("%03d", e.Rank)
	section := filepath.Join(in.WorkDir, "sections", fmt.Sprintf("%s_%d_%d.mp4", e.SourceVideoID, e.StartSeconds, e.EndSeconds))
	clipRel := filepath.Join("clips", id+".mp4")
	assRel := filepath.Join("overlays", id+".ass")

	if err := u.d.Downloader.DownloadSection(ctx, e.SourceVideoID, e.StartSeconds, e.EndSeconds, section); err != nil {
		return types.RenderedClip{}, fmt.Errorf("download section: %w", err)
	}

	ass := overlay.Render(overlay.Spec{
		Team:      e.Team,
		Headline:  firstNonEmpty(e.Headline, e.TopicSummary),
		Duration:  time.Duration(e.DurationSeconds) * time.Second,
		Captions:  store.Segments(e.SourceVideoID),
		ClipStart: time.Duration(e.StartSeconds) * time.Second,
	})
	assPath := filepath.Join(in.OutDir, assRel)
	if err := os.WriteFile(assPath, []byte(ass), 0o644); err != nil {
		return types.RenderedClip{}, err
	}

	clipPath := filepath.Join(in.OutDir, clipRel)
	if err := u.d.Video.RenderClip(ctx, section, clipPath, assPath); err != nil {
		return types.RenderedClip{}, err
	}

	clip := types.RenderedClip{
		PlanEntry: e,
		File:      filepath.ToSlash(clipRel),
		Overlay:   filepath.ToSlash(assRel),
	}
	if v, ok := store.Video(e.SourceVideoID); ok {
		clip.SourceURL = v.URL
	}
	if clip.SourceURL == "" {
		clip.SourceURL = "https://www.youtube.com/watch?v=" + e.SourceVideoID
	}
	info, err := u.d.Video.Probe(ctx, clipPath)
	if err != nil {
		u.d.Log.Warn("probe clip failed", "rank", e.Rank, "error", err)
	} else {
		clip.ActualDuration = info.DurationSeconds
	}
	return clip, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
