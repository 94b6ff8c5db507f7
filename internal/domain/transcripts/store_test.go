package transcripts

import (
	"errors"
	"strings"
	"testing"

	"github.com/forPelevin/presserdigest/internal/types"
)

func seg(start, end float64, text string) types.TranscriptSegment {
	return types.TranscriptSegment{StartSeconds: start, EndSeconds: end, Text: text}
}

func TestStoreAdd_StampsAndSorts(t *testing.T) {
	s := NewStore()
	v := types.Video{ID: "vid1", Team: "Boston Celtics"}
	err := s.Add(v, []types.TranscriptSegment{
		seg(10, 12, "second"),
		seg(0, 4.5, " first "),
		seg(20, 21, "   "),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	got := s.Segments("vid1")
	if len(got) != 2 {
		t.Fatalf("expected blank line dropped, got %d segments", len(got))
	}
	if got[0].Text != "first" || got[0].VideoID != "vid1" || got[0].Team != "Boston Celtics" {
		t.Fatalf("unexpected first segment: %+v", got[0])
	}
	sp, ok := s.Span("vid1")
	if !ok || sp.StartSeconds != 0 || sp.EndSeconds != 12 {
		t.Fatalf("unexpected span: %+v ok=%v", sp, ok)
	}
}

func TestStoreAdd_RejectsEmptyAndDuplicate(t *testing.T) {
	s := NewStore()
	if err := s.Add(types.Video{ID: "a"}, nil); !errors.Is(err, types.ErrNoCaptions) {
		t.Fatalf("expected ErrNoCaptions, got %v", err)
	}
	if err := s.Add(types.Video{ID: "b"}, []types.TranscriptSegment{seg(0, 1, "x")}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(types.Video{ID: "b"}, []types.TranscriptSegment{seg(0, 1, "x")}); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestStoreSegments_ReturnsCopy(t *testing.T) {
	s := NewStore()
	_ = s.Add(types.Video{ID: "a"}, []types.TranscriptSegment{seg(0, 1, "x")})
	got := s.Segments("a")
	got[0].Text = "mutated"
	if s.Segments("a")[0].Text != "x" {
		t.Fatalf("store was mutated through returned slice")
	}
}

func TestSpanContains(t *testing.T) {
	sp := Span{StartSeconds: 1.4, EndSeconds: 99.2}
	tests := []struct {
		start, end int
		want       bool
	}{
		{1, 30, true},
		{0, 30, false},
		{60, 100, true},
		{60, 101, false},
	}
	for _, tt := range tests {
		if got := sp.Contains(tt.start, tt.end); got != tt.want {
			t.Fatalf("Contains(%d, %d) = %v, want %v", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestClock(t *testing.T) {
	tests := map[int]string{0: "0:00", 65: "1:05", 3725: "1:02:05", -3: "0:00"}
	for in, want := range tests {
		if got := Clock(in); got != want {
			t.Fatalf("Clock(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildBatches_RespectsSizeAndBudget(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"c", "a", "b", "d"} {
		_ = s.Add(types.Video{ID: id, Team: "T"}, []types.TranscriptSegment{seg(0, 5, strings.Repeat("w", 40))})
	}

	batches := BuildBatches(s, 3, 10000, 4)
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	if got := batches[0].Videos[0].Video.ID; got != "a" {
		t.Fatalf("expected id order, first video %q", got)
	}
	if len(batches[0].Videos) != 3 || len(batches[1].Videos) != 1 {
		t.Fatalf("unexpected batch sizes: %d, %d", len(batches[0].Videos), len(batches[1].Videos))
	}
	if batches[1].Index != 1 || batches[1].Target != 4 {
		t.Fatalf("unexpected batch header: %+v", batches[1])
	}

	tight := BuildBatches(s, 3, 60, 4)
	if len(tight) != 4 {
		t.Fatalf("expected char budget to split every video, got %d batches", len(tight))
	}
}

func TestBuildBatches_TruncatesOversizedTranscript(t *testing.T) {
	s := NewStore()
	var segs []types.TranscriptSegment
	for i := 0; i < 50; i++ {
		segs = append(segs, seg(float64(i*5), float64(i*5+5), "line of caption text"))
	}
	_ = s.Add(types.Video{ID: "long"}, segs)

	batches := BuildBatches(s, 2, 200, 1)
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	text := batches[0].Videos[0].Transcript
	if len([]rune(text)) > 200 {
		t.Fatalf("transcript not truncated: %d runes", len([]rune(text)))
	}
	if !strings.HasSuffix(text, "\n") {
		t.Fatalf("expected cut at line boundary, got %q", text[len(text)-10:])
	}
}
