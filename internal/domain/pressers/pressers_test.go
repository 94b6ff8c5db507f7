package pressers

import "testing"

func TestIsPresser(t *testing.T) {
	c := NewClassifier(nil, nil)
	tests := []struct {
		title string
		want  bool
	}{
		{"Joe Mazzulla Postgame Press Conference", true},
		{"Jayson Tatum talks win over Nets", true},
		{"Coach Spoelstra on the comeback", true},
		{"Celtics vs Nets Full Game Highlights", false},
		{"Postgame dunk reel", false},
		{"Practice report: Jaylen Brown speaks", false},
		{"Hype video", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := c.IsPresser(tt.title); got != tt.want {
				t.Fatalf("IsPresser(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestIsPresser_CustomLists(t *testing.T) {
	c := NewClassifier([]string{" Media Day "}, []string{"mic'd up"})
	if !c.IsPresser("Media Day 2026") {
		t.Fatalf("expected custom keyword to match")
	}
	if c.IsPresser("Postgame press conference") {
		t.Fatalf("custom keywords replace the defaults")
	}
	if c.IsPresser("Mic'd Up at Media Day") {
		t.Fatalf("expected custom exclude to win")
	}
}

func TestPerson(t *testing.T) {
	tests := []struct{ in, want string }{
		{"LeBron James Postgame Press Conference", "LeBron James"},
		{"Anthony Davis Talks Injury Update", "Anthony Davis"},
		{"Jonathan Kuminga on his role", "Jonathan Kuminga"},
		{"Shai Gilgeous-Alexander Jr. III speaks", "Shai Gilgeous-Alexander Jr."},
		{"Karl-Anthony Towns Sr Something Else Reacts", "Karl-Anthony Towns Sr"},
		{"Postgame Press Conference", ""},
		{"Erik Spoelstra | Postgame", "Erik Spoelstra"},
	}
	for _, tt := range tests {
		if got := Person(tt.in); got != tt.want {
			t.Fatalf("Person(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
