package whispercpp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/presserdigest/internal/types"
)

type Adapter struct {
	bin   string
	model string
}

func New(binPath, modelPath string) *Adapter {
	return &Adapter{bin: binPath, model: modelPath}
}

// Enabled reports whether both the binary and the model are configured.
func (a *Adapter) Enabled() bool {
	return a != nil && a.bin != "" && a.model != ""
}

func (a *Adapter) Transcribe(ctx context.Context, wavPath, workDir string) ([]types.TranscriptSegment, error) {
	if !a.Enabled() {
		return nil, errors.New("whisper.cpp not configured")
	}
	outPrefix := filepath.Join(workDir, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, err
	}
	return parseOutput(jb)
}

type output struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// parseOutput converts whisper.cpp -oj output (millisecond offsets) into
// caption lines.
func parseOutput(b []byte) ([]types.TranscriptSegment, error) {
	var o output
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, fmt.Errorf("parse whisper json: %w", err)
	}
	out := make([]types.TranscriptSegment, 0, len(o.Transcription))
	for _, t := range o.Transcription {
		text := strings.TrimSpace(t.Text)
		if text == "" || text == "[BLANK_AUDIO]" {
			continue
		}
		out = append(out, types.TranscriptSegment{
			StartSeconds: float64(t.Offsets.From) / 1000,
			EndSeconds:   float64(t.Offsets.To) / 1000,
			Text:         text,
		})
	}
	return out, nil
}
