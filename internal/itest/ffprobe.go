//go:build integration

package itest

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// probeDurationSeconds reads the container duration of a rendered file.
// FFPROBE overrides the binary.
func probeDurationSeconds(path string) (float64, error) {
	bin := os.Getenv("FFPROBE")
	if bin == "" {
		bin = "ffprobe"
	}
	b, err := exec.Command(bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w\n%s", path, err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}
