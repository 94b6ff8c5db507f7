package transcripts

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/forPelevin/presserdigest/internal/types"
)

// Span is the time range covered by a video's captions.
type Span struct {
	StartSeconds float64
	EndSeconds   float64
}

// Contains reports whether [start, end] lies inside the span at whole-second
// granularity.
func (s Span) Contains(start, end int) bool {
	return float64(start) >= math.Floor(s.StartSeconds) && float64(end) <= math.Ceil(s.EndSeconds)
}

// Store holds per-video transcripts keyed by video id. Segments are copied in
// and out; callers never share slices with the store.
type Store struct {
	videos   map[string]types.Video
	segments map[string][]types.TranscriptSegment
}

func NewStore() *Store {
	return &Store{
		videos:   map[string]types.Video{},
		segments: map[string][]types.TranscriptSegment{},
	}
}

// FromTranscripts rebuilds a store from persisted transcripts.
func FromTranscripts(trs []types.Transcript) (*Store, error) {
	s := NewStore()
	for _, tr := range trs {
		if err := s.Add(tr.Video, tr.Segments); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers a video's captions. Blank lines are dropped and the rest are
// stamped with the video id and team. A video with no usable lines is an error.
func (s *Store) Add(v types.Video, segs []types.TranscriptSegment) error {
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("transcript store: empty video id")
	}
	if _, ok := s.videos[v.ID]; ok {
		return fmt.Errorf("transcript store: duplicate video %s", v.ID)
	}
	out := make([]types.TranscriptSegment, 0, len(segs))
	for _, seg := range segs {
		text := strings.TrimSpace(seg.Text)
		if text == "" || seg.EndSeconds < seg.StartSeconds {
			continue
		}
		out = append(out, types.TranscriptSegment{
			VideoID:      v.ID,
			Team:         v.Team,
			StartSeconds: seg.StartSeconds,
			EndSeconds:   seg.EndSeconds,
			Text:         text,
		})
	}
	if len(out) == 0 {
		return fmt.Errorf("transcript store: video %s: %w", v.ID, types.ErrNoCaptions)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartSeconds < out[j].StartSeconds })
	s.videos[v.ID] = v
	s.segments[v.ID] = out
	return nil
}

func (s *Store) Len() int { return len(s.videos) }

// IDs returns video ids in lexical order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.videos))
	for id := range s.videos {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) Video(id string) (types.Video, bool) {
	v, ok := s.videos[id]
	return v, ok
}

func (s *Store) Segments(id string) []types.TranscriptSegment {
	segs := s.segments[id]
	out := make([]types.TranscriptSegment, len(segs))
	copy(out, segs)
	return out
}

func (s *Store) Span(id string) (Span, bool) {
	segs := s.segments[id]
	if len(segs) == 0 {
		return Span{}, false
	}
	sp := Span{StartSeconds: segs[0].StartSeconds, EndSeconds: segs[0].EndSeconds}
	for _, seg := range segs[1:] {
		sp.EndSeconds = math.Max(sp.EndSeconds, seg.EndSeconds)
	}
	return sp, true
}

// Spans returns the span of every stored video.
func (s *Store) Spans() map[string]Span {
	out := make(map[string]Span, len(s.segments))
	for id := range s.segments {
		if sp, ok := s.Span(id); ok {
			out[id] = sp
		}
	}
	return out
}

// Transcripts returns the persisted form, ordered by video id.
func (s *Store) Transcripts() []types.Transcript {
	ids := s.IDs()
	out := make([]types.Transcript, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.Transcript{Video: s.videos[id], Segments: s.Segments(id)})
	}
	return out
}
