package youtube

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/presserdigest/internal/domain/pressers"
	"github.com/forPelevin/presserdigest/internal/logger"
	"github.com/forPelevin/presserdigest/internal/types"
)

const defaultFeedBase = "https://www.youtube.com/feeds/videos.xml"

// Feed polls the public channel feeds of every configured team.
type Feed struct {
	channels   map[string]string
	classifier pressers.Classifier
	base       string
	client     *http.Client
	parallel   int
	log        *logger.Logger
}

type Option func(*Feed)

func WithBaseURL(u string) Option {
	return func(f *Feed) {
		if u != "" {
			f.base = u
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(f *Feed) {
		if c != nil {
			f.client = c
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(f *Feed) {
		if l != nil {
			f.log = l
		}
	}
}

// New builds a feed over channels (team name -> channel id).
func New(channels map[string]string, classifier pressers.Classifier, opts ...Option) *Feed {
	f := &Feed{
		channels:   channels,
		classifier: classifier,
		base:       defaultFeedBase,
		client:     &http.Client{Timeout: 30 * time.Second},
		parallel:   6,
		log:        logger.Nop(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Recent returns press-conference videos published at or after since,
// newest first. A channel whose feed cannot be fetched is logged and skipped.
func (f *Feed) Recent(ctx context.Context, since time.Time) ([]types.Video, error) {
	teams := make([]string, 0, len(f.channels))
	for team := range f.channels {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	var (
		mu  sync.Mutex
		out []types.Video
	)
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(f.parallel)
	for _, team := range teams {
		team, channelID := team, f.channels[team]
		eg.Go(func() error {
			vids, err := f.channel(ectx, team, channelID, since)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				f.log.Warn("channel feed skipped", "team", team, "channel_id", channelID, "error", err)
				return nil
			}
			if len(vids) > 0 {
				f.log.Debug("channel feed", "team", team, "videos", len(vids))
			}
			mu.Lock()
			out = append(out, vids...)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Published.Equal(out[j].Published) {
			return out[i].Published.After(out[j].Published)
		}
		return out[i].ID < out[j].ID
	})
	return dedupe(out), nil
}

func (f *Feed) channel(ctx context.Context, team, channelID string, since time.Time) ([]types.Video, error) {
	fp := gofeed.NewParser()
	fp.Client = f.client
	feed, err := fp.ParseURLWithContext(f.base+"?channel_id="+url.QueryEscape(channelID), ctx)
	if err != nil {
		return nil, err
	}
	var out []types.Video
	for _, it := range feed.Items {
		if it == nil || it.PublishedParsed == nil {
			continue
		}
		published := it.PublishedParsed.UTC()
		if published.Before(since) {
			continue
		}
		if !f.classifier.IsPresser(it.Title) {
			continue
		}
		id := videoID(it)
		if id == "" {
			continue
		}
		out = append(out, types.Video{
			ID:        id,
			Team:      team,
			Title:     strings.TrimSpace(it.Title),
			URL:       it.Link,
			ChannelID: channelID,
			Person:    pressers.Person(it.Title),
			Published: published,
		})
	}
	return out, nil
}

var reWatchID = regexp.MustCompile(`v=([A-Za-z0-9_-]{11})`)

func videoID(it *gofeed.Item) string {
	if yt, ok := it.Extensions["yt"]; ok {
		if ids := yt["videoId"]; len(ids) > 0 && strings.TrimSpace(ids[0].Value) != "" {
			return strings.TrimSpace(ids[0].Value)
		}
	}
	if m := reWatchID.FindStringSubmatch(it.Link); len(m) == 2 {
		return m[1]
	}
	return ""
}

// dedupe drops repeated ids; the same upload can appear on two team channels.
func dedupe(in []types.Video) []types.Video {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, v := range in {
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	return out
}
