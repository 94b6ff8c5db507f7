package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forPelevin/presserdigest/internal/domain/pressers"
	"github.com/forPelevin/presserdigest/internal/types"
)

const feedTmpl = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
 <title>%s</title>
 <entry>
  <id>yt:video:AAAAAAAAAAA</id>
  <yt:videoId>AAAAAAAAAAA</yt:videoId>
  <title>Joe Mazzulla Postgame Press Conference</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=AAAAAAAAAAA"/>
  <published>2026-10-18T22:00:00+00:00</published>
 </entry>
 <entry>
  <id>yt:video:BBBBBBBBBBB</id>
  <yt:videoId>BBBBBBBBBBB</yt:videoId>
  <title>Full Game Highlights</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=BBBBBBBBBBB"/>
  <published>2026-10-18T23:00:00+00:00</published>
 </entry>
 <entry>
  <id>yt:video:CCCCCCCCCCC</id>
  <title>Jaylen Brown talks the road trip</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=CCCCCCCCCCC"/>
  <published>2026-10-10T12:00:00+00:00</published>
 </entry>
 <entry>
  <id>yt:video:DDDDDDDDDDD</id>
  <title>Jaylen Brown speaks after the win</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=DDDDDDDDDDD"/>
  <published>2026-10-19T01:00:00+00:00</published>
 </entry>
</feed>`

func TestRecent_FiltersAndSorts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("channel_id") {
		case "good":
			w.Header().Set("Content-Type", "application/atom+xml")
			fmt.Fprintf(w, feedTmpl, "Celtics")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := New(map[string]string{"Boston Celtics": "good", "Broken Team": "missing"},
		pressers.NewClassifier(nil, nil), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	since := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	vids, err := f.Recent(context.Background(), since)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(vids) != 2 {
		t.Fatalf("expected 2 videos, got %d: %+v", len(vids), vids)
	}
	if vids[0].ID != "DDDDDDDDDDD" || vids[1].ID != "AAAAAAAAAAA" {
		t.Fatalf("expected newest first, got %s, %s", vids[0].ID, vids[1].ID)
	}
	if vids[0].Person != "Jaylen Brown" || vids[0].Team != "Boston Celtics" || vids[0].ChannelID != "good" {
		t.Fatalf("unexpected video: %+v", vids[0])
	}
}

func TestDedupe_KeepsFirst(t *testing.T) {
	in := []types.Video{{ID: "a", Team: "Nets"}, {ID: "b"}, {ID: "a", Team: "Knicks"}}
	got := dedupe(in)
	if len(got) != 2 || got[0].Team != "Nets" || got[1].ID != "b" {
		t.Fatalf("unexpected dedupe result: %+v", got)
	}
}
