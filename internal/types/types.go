package types

import (
	"errors"
	"time"
)

var (
	// ErrNoCaptions reports that a video has no usable captions. The video is
	// skipped, not the run.
	ErrNoCaptions = errors.New("no captions available")
	// ErrTransient marks collaborator failures worth retrying (rate limits,
	// 5xx, network timeouts).
	ErrTransient = errors.New("transient collaborator failure")
	// ErrMalformedResponse marks a scoring response that could not be parsed
	// or lacked required fields.
	ErrMalformedResponse = errors.New("malformed scoring response")
)

type Video struct {
	ID        string    `json:"video_id"`
	Team      string    `json:"team"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	ChannelID string    `json:"channel_id"`
	Person    string    `json:"person"`
	Published time.Time `json:"published"`
}

// TranscriptSegment is one caption line. Offsets are seconds from video start.
type TranscriptSegment struct {
	VideoID      string  `json:"video_id"`
	Team         string  `json:"team"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
	Text         string  `json:"text"`
}

// Transcript is the persisted form of one video's captions.
type Transcript struct {
	Video    Video               `json:"video"`
	Segments []TranscriptSegment `json:"segments"`
}

type MomentCandidate struct {
	SourceVideoID       string  `json:"source_video_id"`
	Team                string  `json:"team"`
	StartSeconds        int     `json:"start_seconds"`
	EndSeconds          int     `json:"end_seconds"`
	QuoteText           string  `json:"quote_text"`
	TopicSummary        string  `json:"topic_summary"`
	NewsworthinessScore float64 `json:"newsworthiness_score"`

	Headline     string `json:"headline,omitempty"`
	WhyItMatters string `json:"why_it_matters,omitempty"`
	Category     string `json:"category,omitempty"`
}

// SourceRef attributes a moment to a video.
type SourceRef struct {
	VideoID string `json:"video_id"`
	Team    string `json:"team"`
}

type ValidatedMoment struct {
	MomentCandidate
	DurationSeconds int `json:"duration_seconds"`

	// GroupID is assigned by deduplication. AlternateSources lists the other
	// videos that carried the same story.
	GroupID          string      `json:"group_id,omitempty"`
	AlternateSources []SourceRef `json:"alternate_sources,omitempty"`
}

type RejectReason string

const (
	RejectNegativeOrZeroDuration RejectReason = "NEGATIVE_OR_ZERO_DURATION"
	RejectDurationOutOfBounds    RejectReason = "DURATION_OUT_OF_BOUNDS"
	RejectTimestampOutOfRange    RejectReason = "TIMESTAMP_OUT_OF_RANGE"
	RejectEmptyQuote             RejectReason = "EMPTY_QUOTE"
	RejectOverlapsHigherScored   RejectReason = "OVERLAPS_HIGHER_SCORED"
)

type Rejection struct {
	Candidate MomentCandidate `json:"candidate"`
	Reason    RejectReason    `json:"reason"`
}

type DedupGroup struct {
	ID             string            `json:"group_id"`
	Representative ValidatedMoment   `json:"representative"`
	Dropped        []ValidatedMoment `json:"dropped,omitempty"`
}

type PlanEntry struct {
	Rank int `json:"rank"`
	ValidatedMoment
}

// DigestPlan is the terminal artifact handed to clip extraction. It is built
// only by digest.Assemble, which checks every plan invariant.
type DigestPlan struct {
	ID                    string      `json:"plan_id"`
	MaxClips              int         `json:"max_clips"`
	RuntimeCeilingSeconds int         `json:"runtime_ceiling_seconds"`
	TotalSeconds          int         `json:"total_seconds"`
	Entries               []PlanEntry `json:"entries"`
}

// Batch is one scoring request: several transcripts sent together.
type Batch struct {
	Index  int          `json:"batch"`
	Target int          `json:"target"`
	Videos []BatchVideo `json:"videos"`
}

type BatchVideo struct {
	Video      Video  `json:"video"`
	Transcript string `json:"transcript"`
}

type MediaInfo struct {
	DurationSeconds float64 `json:"duration_seconds"`
	SizeBytes       int64   `json:"size_bytes"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	VideoCodec      string  `json:"video_codec"`
}

// RenderedClip is a plan entry after download and overlay rendering.
type RenderedClip struct {
	PlanEntry
	SourceURL      string  `json:"source_url"`
	File           string  `json:"file"`
	Overlay        string  `json:"overlay"`
	ActualDuration float64 `json:"actual_duration"`
}
