package overlay

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/presserdigest/internal/types"
)

// HeadlineDuration is how long the lower-third headline stays on screen.
const HeadlineDuration = 5 * time.Second

// Spec describes the overlay burned into one clip.
type Spec struct {
	Team     string
	Headline string
	Duration time.Duration
	// Captions, when set, are caption lines from the source transcript. Their
	// offsets are absolute; ClipStart shifts them to clip-local time.
	Captions  []types.TranscriptSegment
	ClipStart time.Duration
}

// Render returns an ASS script with the team attribution pinned top-left
// for the whole clip and the headline as a lower third for the first five
// seconds. Caption lines, if any, start once the headline is gone.
func Render(s Spec) string {
	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	if team := sanitizeASS(s.Team); team != "" && s.Duration > 0 {
		dialogue(&b, 1, 0, s.Duration, "Attribution", team)
	}
	headlineEnd := HeadlineDuration
	if headlineEnd > s.Duration {
		headlineEnd = s.Duration
	}
	if h := sanitizeASS(s.Headline); h != "" && headlineEnd > 0 {
		dialogue(&b, 2, 0, headlineEnd, "Headline", h)
	}
	for _, ln := range packCaptions(s.Captions, s.ClipStart, s.Duration) {
		if ln.End <= headlineEnd {
			continue
		}
		if ln.Start < headlineEnd {
			ln.Start = headlineEnd
		}
		dialogue(&b, 0, ln.Start, ln.End, "Caption", ln.Text)
	}
	return b.String()
}

func dialogue(b *strings.Builder, layer int, start, end time.Duration, style, text string) {
	fmt.Fprintf(b, "Dialogue: %d,%s,%s,%s,,0,0,0,,%s\n", layer, assTime(start), assTime(end), style, text)
}

type line struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

const (
	captionCharBudget = 48
	captionWordBudget = 10
)

// packCaptions cuts caption text inside the clip window into short lines,
// spreading each segment's time evenly over its words.
func packCaptions(segs []types.TranscriptSegment, clipStart, clipDur time.Duration) []line {
	type word struct {
		start, end time.Duration
		text       string
	}
	var words []word
	clipEnd := clipStart + clipDur
	for _, s := range segs {
		ss, se := dur(s.StartSeconds), dur(s.EndSeconds)
		if se <= clipStart || ss >= clipEnd {
			continue
		}
		fields := strings.Fields(sanitizeASS(s.Text))
		if len(fields) == 0 {
			continue
		}
		step := (se - ss) / time.Duration(len(fields))
		for i, f := range fields {
			ws, we := ss+time.Duration(i)*step, ss+time.Duration(i+1)*step
			if we <= clipStart || ws >= clipEnd {
				continue
			}
			if ws < clipStart {
				ws = clipStart
			}
			if we > clipEnd {
				we = clipEnd
			}
			words = append(words, word{start: ws - clipStart, end: we - clipStart, text: f})
		}
	}
	if len(words) == 0 {
		return nil
	}

	var (
		out   []line
		cur   []string
		start = words[0].start
		n     int
	)
	for i, w := range words {
		next := n + len([]rune(w.text))
		if n > 0 {
			next++
		}
		if len(cur) > 0 && (len(cur) >= captionWordBudget || next > captionCharBudget) {
			out = append(out, line{Start: start, End: words[i-1].end, Text: strings.Join(cur, " ")})
			cur, start, n = nil, w.start, 0
			next = len([]rune(w.text))
		}
		cur = append(cur, w.text)
		n = next
	}
	out = append(out, line{Start: start, End: words[len(words)-1].end, Text: strings.Join(cur, " ")})
	return out
}

func assHeader() string {
	return strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1920
PlayResY: 1080
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Attribution, Inter, 36, &H00FFFFFF, &H00FFFFFF, &H00000000, &H00000000, 1,0,0,0,100,100,0,0,1,3,0,7, 30,30,30,1
Style: Headline, Inter, 54, &H00FFFFFF, &H00FFFFFF, &H00000000, &H4D000000, 1,0,0,0,100,100,0,0,3,12,0,2, 80,80,70,1
Style: Caption, Inter, 48, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 0,0,0,0,100,100,0,0,1,4,1,2, 120,120,60,1
`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
