package ports

import (
	"context"
	"time"

	"github.com/forPelevin/presserdigest/internal/types"
)

// VideoFeed lists press-conference videos published since a cutoff.
type VideoFeed interface {
	Recent(ctx context.Context, since time.Time) ([]types.Video, error)
}

// CaptionSource returns caption lines for a video or types.ErrNoCaptions.
type CaptionSource interface {
	Captions(ctx context.Context, v types.Video, workDir string) ([]types.TranscriptSegment, error)
}

// TranscriptCache persists transcripts across runs.
type TranscriptCache interface {
	Get(ctx context.Context, videoID string) (types.Transcript, bool, error)
	Put(ctx context.Context, tr types.Transcript) error
	Close() error
}

// ASR transcribes a mono 16 kHz wav when no captions exist.
type ASR interface {
	Transcribe(ctx context.Context, wavPath, workDir string) ([]types.TranscriptSegment, error)
}

// MomentScorer asks a language model for moment proposals over one batch.
type MomentScorer interface {
	ScoreBatch(ctx context.Context, b types.Batch) ([]types.MomentCandidate, error)
}

// Downloader fetches media from the video host.
type Downloader interface {
	DownloadSection(ctx context.Context, videoID string, startSec, endSec int, outMP4 string) error
	DownloadAudio(ctx context.Context, videoID, outPath string) error
}

type VideoTool interface {
	ExtractAudioMono16k(ctx context.Context, in, outWav string) error
	RenderClip(ctx context.Context, in, outMP4, burnASS string) error
	Concat(ctx context.Context, clips []string, listPath, outMP4 string) error
	Probe(ctx context.Context, path string) (types.MediaInfo, error)
}
