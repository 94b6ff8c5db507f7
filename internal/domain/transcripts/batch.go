package transcripts

import (
	"fmt"
	"strings"

	"github.com/forPelevin/presserdigest/internal/types"
)

// Format renders segments as timestamped lines, one per caption:
//
//	[2:34] we have to be better on the glass
func Format(segs []types.TranscriptSegment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString("[")
		b.WriteString(Clock(int(s.StartSeconds)))
		b.WriteString("] ")
		b.WriteString(s.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// Clock formats whole seconds as M:SS, or H:MM:SS past the hour.
func Clock(sec int) string {
	if sec < 0 {
		sec = 0
	}
	h, m, s := sec/3600, (sec%3600)/60, sec%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// BuildBatches packs transcripts into scoring batches in video id order. A
// batch holds at most size videos and at most charBudget transcript
// characters; a single transcript over budget is cut at a line boundary and
// sent alone.
func BuildBatches(s *Store, size, charBudget, target int) []types.Batch {
	if size <= 0 || charBudget <= 0 {
		return nil
	}
	var (
		out  []types.Batch
		cur  []types.BatchVideo
		used int
	)
	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, types.Batch{Index: len(out), Target: target, Videos: cur})
		cur, used = nil, 0
	}
	for _, id := range s.IDs() {
		v, _ := s.Video(id)
		text := truncateLines(Format(s.Segments(id)), charBudget)
		n := len([]rune(text))
		if len(cur) >= size || (len(cur) > 0 && used+n > charBudget) {
			flush()
		}
		cur = append(cur, types.BatchVideo{Video: v, Transcript: text})
		used += n
	}
	flush()
	return out
}

func truncateLines(s string, budget int) string {
	r := []rune(s)
	if len(r) <= budget {
		return s
	}
	cut := string(r[:budget])
	if i := strings.LastIndex(cut, "\n"); i > 0 {
		return cut[:i+1]
	}
	return cut
}
