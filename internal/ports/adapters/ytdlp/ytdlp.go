package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/forPelevin/presserdigest/internal/types"
)

type Adapter struct {
	bin       string
	maxHeight int
}

func New(binPath string, maxHeight int) *Adapter {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	if maxHeight <= 0 {
		maxHeight = 1080
	}
	return &Adapter{bin: binPath, maxHeight: maxHeight}
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// Captions fetches English captions (manual or automatic) in json3 format.
// A video without any caption track yields types.ErrNoCaptions.
func (a *Adapter) Captions(ctx context.Context, v types.Video, workDir string) ([]types.TranscriptSegment, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, err
	}
	args := []string{
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", "en.*,en",
		"--sub-format", "json3",
		"--no-playlist",
		"--quiet",
		"-o", filepath.Join(workDir, "%(id)s.%(ext)s"),
		watchURL(v.ID),
	}
	b, err := exec.CommandContext(ctx, a.bin, args...).CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("yt-dlp captions %s: %w\n%s", v.ID, err, string(b))
	}

	files, _ := filepath.Glob(filepath.Join(workDir, v.ID+"*.json3"))
	if len(files) == 0 {
		return nil, fmt.Errorf("video %s: %w", v.ID, types.ErrNoCaptions)
	}
	sort.Strings(files)
	jb, err := os.ReadFile(pickTrack(files))
	if err != nil {
		return nil, err
	}
	segs, err := parseJSON3(jb)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", v.ID, err)
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("video %s: empty caption track: %w", v.ID, types.ErrNoCaptions)
	}
	return segs, nil
}

// pickTrack prefers a plain "en" track over regional variants.
func pickTrack(files []string) string {
	for _, f := range files {
		if strings.HasSuffix(f, ".en.json3") {
			return f
		}
	}
	return files[0]
}

type json3 struct {
	Events []struct {
		StartMs    int64 `json:"tStartMs"`
		DurationMs int64 `json:"dDurationMs"`
		Segs       []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func parseJSON3(b []byte) ([]types.TranscriptSegment, error) {
	var doc json3
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse json3 captions: %w", err)
	}
	out := make([]types.TranscriptSegment, 0, len(doc.Events))
	for _, ev := range doc.Events {
		var sb strings.Builder
		for _, s := range ev.Segs {
			sb.WriteString(s.UTF8)
		}
		text := strings.Join(strings.Fields(sb.String()), " ")
		if text == "" {
			continue
		}
		out = append(out, types.TranscriptSegment{
			StartSeconds: float64(ev.StartMs) / 1000,
			EndSeconds:   float64(ev.StartMs+ev.DurationMs) / 1000,
			Text:         text,
		})
	}
	return out, nil
}

// DownloadSection fetches [startSec, endSec] of a video as mp4, cutting on
// keyframes forced at the boundaries.
func (a *Adapter) DownloadSection(ctx context.Context, videoID string, startSec, endSec int, outMP4 string) error {
	args := []string{
		"-f", fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", a.maxHeight, a.maxHeight),
		"--download-sections", fmt.Sprintf("*%s-%s", hms(startSec), hms(endSec)),
		"--force-keyframes-at-cuts",
		"--merge-output-format", "mp4",
		"--no-playlist",
		"--quiet",
		"-o", outMP4,
		watchURL(videoID),
	}
	b, err := exec.CommandContext(ctx, a.bin, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("yt-dlp section %s [%d-%d]: %w\n%s", videoID, startSec, endSec, err, string(b))
	}
	if _, err := os.Stat(outMP4); err != nil {
		return fmt.Errorf("yt-dlp section %s: output missing: %w", videoID, err)
	}
	return nil
}

// DownloadAudio fetches the best audio stream for ASR.
func (a *Adapter) DownloadAudio(ctx context.Context, videoID, outPath string) error {
	args := []string{
		"-f", "bestaudio/best",
		"--no-playlist",
		"--quiet",
		"-o", outPath,
		watchURL(videoID),
	}
	b, err := exec.CommandContext(ctx, a.bin, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("yt-dlp audio %s: %w\n%s", videoID, err, string(b))
	}
	return nil
}

func hms(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}
