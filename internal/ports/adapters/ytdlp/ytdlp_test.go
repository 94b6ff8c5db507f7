package ytdlp

import "testing"

func TestParseJSON3(t *testing.T) {
	in := []byte(`{"events":[
		{"tStartMs":0,"dDurationMs":2000,"segs":[{"utf8":"We"},{"utf8":" played"},{"utf8":" hard"}]},
		{"tStartMs":2000,"dDurationMs":10,"segs":[{"utf8":"\n"}]},
		{"tStartMs":2010,"dDurationMs":3490},
		{"tStartMs":5500,"dDurationMs":1500,"segs":[{"utf8":"  tonight. "}]}
	]}`)
	segs, err := parseJSON3(in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(segs), segs)
	}
	if segs[0].Text != "We played hard" || segs[0].StartSeconds != 0 || segs[0].EndSeconds != 2 {
		t.Fatalf("unexpected first segment: %+v", segs[0])
	}
	if segs[1].Text != "tonight." || segs[1].StartSeconds != 5.5 || segs[1].EndSeconds != 7 {
		t.Fatalf("unexpected second segment: %+v", segs[1])
	}
}

func TestParseJSON3_Invalid(t *testing.T) {
	if _, err := parseJSON3([]byte("<xml/>")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPickTrack(t *testing.T) {
	got := pickTrack([]string{"/w/abc.en-US.json3", "/w/abc.en.json3"})
	if got != "/w/abc.en.json3" {
		t.Fatalf("expected plain en track, got %s", got)
	}
	if got := pickTrack([]string{"/w/abc.en-GB.json3"}); got != "/w/abc.en-GB.json3" {
		t.Fatalf("expected fallback to first track, got %s", got)
	}
}

func TestHMS(t *testing.T) {
	tests := map[int]string{0: "00:00:00", 75: "00:01:15", 3723: "01:02:03", -4: "00:00:00"}
	for in, want := range tests {
		if got := hms(in); got != want {
			t.Fatalf("hms(%d) = %s, want %s", in, got, want)
		}
	}
}
