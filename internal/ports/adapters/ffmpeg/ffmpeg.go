package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/forPelevin/presserdigest/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, in, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", in,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

// RenderClip re-encodes a downloaded section to 1080p30 H.264/AAC, burning
// the ASS overlay when one is given.
func (a *Adapter) RenderClip(ctx context.Context, in, outMP4, burnASS string) error {
	vf := "scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2,fps=30"
	if burnASS != "" {
		vf += ",subtitles=" + escapeFilterPath(burnASS)
	}
	args := []string{
		"-y",
		"-i", in,
		"-vf", vf,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "20",
		"-c:a", "aac",
		"-b:a", "192k",
		"-ar", "48000",
		"-movflags", "+faststart",
		outMP4,
	}
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render clip: %w\n%s", err, string(b))
	}
	return nil
}

// Concat joins clips with the concat demuxer. Stream copy is tried first and
// a full re-encode is used if the inputs do not line up.
func (a *Adapter) Concat(ctx context.Context, clips []string, listPath, outMP4 string) error {
	if len(clips) == 0 {
		return errors.New("ffmpeg concat: no clips")
	}
	var sb strings.Builder
	for _, c := range clips {
		sb.WriteString("file '")
		sb.WriteString(strings.ReplaceAll(c, "'", `'\''`))
		sb.WriteString("'\n")
	}
	if err := os.WriteFile(listPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	base := []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath}
	copyArgs := append(append([]string{}, base...), "-c", "copy", "-movflags", "+faststart", outMP4)
	b, err := exec.CommandContext(ctx, a.ffmpeg, copyArgs...).CombinedOutput()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	encArgs := append(append([]string{}, base...),
		"-c:v", "libx264", "-preset", "veryfast", "-crf", "20",
		"-c:a", "aac", "-b:a", "192k",
		"-movflags", "+faststart",
		outMP4,
	)
	if b2, err2 := exec.CommandContext(ctx, a.ffmpeg, encArgs...).CombinedOutput(); err2 != nil {
		return fmt.Errorf("ffmpeg concat: %w\n%s\n(copy attempt: %s)", err2, string(b2), strings.TrimSpace(string(b)))
	}
	return nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func (a *Adapter) Probe(ctx context.Context, path string) (types.MediaInfo, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration,size:stream=codec_type,codec_name,width,height",
		"-of", "json",
		path,
	)
	b, err := cmd.Output()
	if err != nil {
		return types.MediaInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbe(b)
}

func parseProbe(b []byte) (types.MediaInfo, error) {
	var po probeOutput
	if err := json.Unmarshal(b, &po); err != nil {
		return types.MediaInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	var info types.MediaInfo
	if s := strings.TrimSpace(po.Format.Duration); s != "" {
		d, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return types.MediaInfo{}, fmt.Errorf("parse duration %q: %w", s, err)
		}
		info.DurationSeconds = d
	}
	if s := strings.TrimSpace(po.Format.Size); s != "" {
		info.SizeBytes, _ = strconv.ParseInt(s, 10, 64)
	}
	for _, st := range po.Streams {
		if st.CodecType == "video" {
			info.Width, info.Height, info.VideoCodec = st.Width, st.Height, st.CodecName
			break
		}
	}
	return info, nil
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	return p
}
