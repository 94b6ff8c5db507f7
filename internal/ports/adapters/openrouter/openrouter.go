package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/presserdigest/internal/types"
)

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

type Option func(*Adapter)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = c
		}
	}
}

func New(apiKey, model, baseURL string, opts ...Option) *Adapter {
	if model == "" {
		model = DefaultModel
	}
	a := &Adapter{key: apiKey, model: model, baseURL: normalizeBaseURL(baseURL), client: &http.Client{Timeout: 5 * time.Minute}}
	for _, o := range opts {
		o(a)
	}
	return a
}

var categories = []string{"breaking_news", "controversy", "emotion", "soundbite", "insight", "humor"}

// ScoreBatch sends one batch of transcripts and parses the proposals.
// Rate limits, 5xx and network errors wrap types.ErrTransient; unparsable
// content or a proposal missing a required field wraps
// types.ErrMalformedResponse and fails the whole batch.
func (a *Adapter) ScoreBatch(ctx context.Context, b types.Batch) ([]types.MomentCandidate, error) {
	if len(b.Videos) == 0 {
		return nil, nil
	}

	type video struct {
		VideoID    string `json:"video_id"`
		Team       string `json:"team"`
		Person     string `json:"person"`
		Title      string `json:"title"`
		Transcript string `json:"transcript"`
	}
	arr := make([]video, 0, len(b.Videos))
	for _, v := range b.Videos {
		arr = append(arr, video{VideoID: v.Video.ID, Team: v.Video.Team, Person: v.Video.Person, Title: v.Video.Title, Transcript: v.Transcript})
	}
	pb, err := json.Marshal(map[string]any{
		"momentsPerVideo": b.Target,
		"videos":          arr,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal prompt: %w", err)
	}

	payload := map[string]any{
		"model":       a.model,
		"stream":      false,
		"temperature": 0.3,
		"messages": []map[string]any{
			{"role": "user", "content": buildPrompt(pb)},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "presser_moments",
				"schema": momentsSchema(),
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("openrouter request (model=%s): %s: %w", a.model, redactSecrets(err.Error(), a.key), types.ErrTransient)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := fmt.Sprintf("openrouter status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
		if transientStatus(resp.StatusCode) {
			return nil, fmt.Errorf("%s: %w", msg, types.ErrTransient)
		}
		return nil, errors.New(msg)
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode completion: %v: %w", err, types.ErrMalformedResponse)
	}
	if len(raw.Choices) == 0 {
		return nil, fmt.Errorf("openrouter: no choices: %w", types.ErrMalformedResponse)
	}
	content, err := messageContentToString(raw.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, types.ErrMalformedResponse)
	}
	return parseMoments(content)
}

func transientStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func buildPrompt(videosJSON []byte) string {
	return "You review NBA press conference transcripts and pick the most newsworthy moments " +
		"(injury news, trade hints, lineup changes, controversy, emotion, quotable soundbites). " +
		"For each video propose up to momentsPerVideo moments. " +
		"Use timestamps exactly as they appear in the transcript lines; each moment should run 15 to 45 seconds. " +
		"quote must be the verbatim words spoken. topic_summary is 3 to 6 lowercase words naming the underlying story " +
		"so the same story told by different teams gets the same summary. " +
		"score is 1 to 10 (10 = must include). category is one of " + strings.Join(categories, ", ") + ". " +
		"Return strictly valid JSON (no markdown, no code fences) matching the provided schema. " +
		"Return an empty moments list when nothing is worth clipping." +
		"\n\nVideos JSON:\n" + string(videosJSON)
}

func momentsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"moments": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"video_id":       map[string]any{"type": "string"},
						"start_time":     map[string]any{"type": "string"},
						"end_time":       map[string]any{"type": "string"},
						"quote":          map[string]any{"type": "string"},
						"topic_summary":  map[string]any{"type": "string"},
						"headline":       map[string]any{"type": "string"},
						"why_it_matters": map[string]any{"type": "string"},
						"category":       map[string]any{"type": "string", "enum": categories},
						"score":          map[string]any{"type": "number"},
					},
					"required": []string{"video_id", "start_time", "end_time", "quote", "topic_summary", "headline", "score"},
				},
			},
		},
		"required": []string{"moments"},
	}
}

type wireMoment struct {
	VideoID      *string  `json:"video_id"`
	Start        *offset  `json:"start_time"`
	End          *offset  `json:"end_time"`
	Quote        *string  `json:"quote"`
	TopicSummary *string  `json:"topic_summary"`
	Headline     string   `json:"headline"`
	WhyItMatters string   `json:"why_it_matters"`
	Category     string   `json:"category"`
	Score        *float64 `json:"score"`
}

func parseMoments(content string) ([]types.MomentCandidate, error) {
	clean, err := extractJSON(content)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, types.ErrMalformedResponse)
	}

	var list []wireMoment
	if strings.HasPrefix(clean, "[") {
		err = json.Unmarshal([]byte(clean), &list)
	} else {
		var obj struct {
			Moments *[]wireMoment `json:"moments"`
		}
		err = json.Unmarshal([]byte(clean), &obj)
		if err == nil && obj.Moments == nil {
			err = errors.New(`missing "moments"`)
		}
		if obj.Moments != nil {
			list = *obj.Moments
		}
	}
	if err != nil {
		return nil, fmt.Errorf("openrouter: parse moments: %v: %w", err, types.ErrMalformedResponse)
	}

	out := make([]types.MomentCandidate, 0, len(list))
	for i, m := range list {
		if missing := m.missingFields(); len(missing) > 0 {
			return nil, fmt.Errorf("openrouter: moment %d missing %s: %w", i, strings.Join(missing, ", "), types.ErrMalformedResponse)
		}
		if *m.Score < 1 || *m.Score > 10 || math.IsNaN(*m.Score) {
			return nil, fmt.Errorf("openrouter: moment %d score %v outside 1..10: %w", i, *m.Score, types.ErrMalformedResponse)
		}
		topic := strings.TrimSpace(*m.TopicSummary)
		if topic == "" {
			topic = strings.TrimSpace(m.Headline)
		}
		out = append(out, types.MomentCandidate{
			SourceVideoID:       strings.TrimSpace(*m.VideoID),
			StartSeconds:        int(*m.Start),
			EndSeconds:          int(*m.End),
			QuoteText:           strings.TrimSpace(*m.Quote),
			TopicSummary:        topic,
			NewsworthinessScore: *m.Score,
			Headline:            strings.TrimSpace(m.Headline),
			WhyItMatters:        strings.TrimSpace(m.WhyItMatters),
			Category:            strings.TrimSpace(m.Category),
		})
	}
	return out, nil
}

func (m wireMoment) missingFields() []string {
	var out []string
	if m.VideoID == nil || strings.TrimSpace(*m.VideoID) == "" {
		out = append(out, "video_id")
	}
	if m.Start == nil {
		out = append(out, "start_time")
	}
	if m.End == nil {
		out = append(out, "end_time")
	}
	if m.Quote == nil {
		out = append(out, "quote")
	}
	if m.TopicSummary == nil {
		out = append(out, "topic_summary")
	}
	if m.Score == nil {
		out = append(out, "score")
	}
	return out
}

// offset is a timestamp in whole seconds. It decodes from a JSON number or a
// "M:SS" / "H:MM:SS" string and rounds to the nearest second.
type offset int

func (o *offset) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return errors.New("null timestamp")
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	sec, err := parseClock(s)
	if err != nil {
		return err
	}
	*o = offset(math.Round(sec))
	return nil
}

func parseClock(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty timestamp")
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("bad timestamp %q", s)
	}
	var total float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("bad timestamp %q", s)
		}
		if i < len(parts)-1 && v != math.Trunc(v) {
			return 0, fmt.Errorf("bad timestamp %q", s)
		}
		total = total*60 + v
	}
	return total, nil
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("openrouter: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("openrouter: unexpected content type %T", v)
	}
}

// extractJSON strips code fences and prose around the first JSON object or
// array in s.
func extractJSON(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("openrouter: empty content")
	}

	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	obj, arr := strings.Index(t, "{"), strings.Index(t, "[")
	if arr >= 0 && (obj < 0 || arr < obj) {
		if end := strings.LastIndex(t, "]"); end > arr {
			return t[arr : end+1], nil
		}
	}
	if obj >= 0 {
		if end := strings.LastIndex(t, "}"); end > obj {
			return t[obj : end+1], nil
		}
	}
	return "", fmt.Errorf("openrouter: could not locate JSON in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
