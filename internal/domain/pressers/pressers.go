package pressers

import (
	"regexp"
	"strings"
)

var DefaultKeywords = []string{
	"press conference",
	"postgame",
	"post-game",
	"post game",
	"pregame",
	"pre-game",
	"pre game",
	"media availability",
	"interview",
	"presser",
	"talks",
	"speaks",
	"reacts",
	"discusses",
	"on the",
	"addresses",
	"comments on",
}

var DefaultExcludes = []string{
	"highlights",
	"full game",
	"game recap",
	"top plays",
	"best plays",
	"dunk",
	"buzzer beater",
	"all-access",
	"behind the scenes",
	"practice",
	"workout",
}

// Classifier decides from a video title whether it is a press conference.
type Classifier struct {
	keywords []string
	excludes []string
}

// NewClassifier lowercases the phrase lists; empty lists fall back to the
// defaults.
func NewClassifier(keywords, excludes []string) Classifier {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	if len(excludes) == 0 {
		excludes = DefaultExcludes
	}
	return Classifier{keywords: lowerAll(keywords), excludes: lowerAll(excludes)}
}

// IsPresser reports whether title names a press conference. Exclusions win.
func (c Classifier) IsPresser(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return false
	}
	for _, k := range c.excludes {
		if strings.Contains(t, k) {
			return false
		}
	}
	for _, k := range c.keywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

var reSpeakerSuffix = regexp.MustCompile(`(?i)\b(press conference|postgame|post-game|pregame|pre-game|interview|talks|speaks|on|discusses|addresses|reacts)\b.*$`)

// Person guesses the speaker from titles such as
// "Anthony Davis Talks Injury Update". At most three words are kept.
func Person(title string) string {
	clean := strings.TrimSpace(reSpeakerSuffix.ReplaceAllString(title, ""))
	clean = strings.TrimRight(clean, " |-:,")
	words := strings.Fields(clean)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
