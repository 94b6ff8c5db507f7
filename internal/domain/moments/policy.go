package moments

import (
	"errors"
	"fmt"
)

const (
	DefaultMinClipSeconds        = 15
	DefaultMaxClipSeconds        = 45
	DefaultMaxClips              = 12
	DefaultRuntimeCeilingSeconds = 8 * 60
	DefaultSimilarityThreshold   = 0.6
	DefaultBatchSize             = 3
	DefaultBatchCharBudget       = 15000
)

// Policy is the configuration every core stage receives explicitly.
type Policy struct {
	MinClipSeconds        int     `json:"min_clip_seconds"`
	MaxClipSeconds        int     `json:"max_clip_seconds"`
	MaxClips              int     `json:"max_clips"`
	RuntimeCeilingSeconds int     `json:"runtime_ceiling_seconds"`
	SimilarityThreshold   float64 `json:"similarity_threshold"`
	BatchSize             int     `json:"batch_size"`
	BatchCharBudget       int     `json:"batch_char_budget"`
}

func DefaultPolicy() Policy {
	return Policy{
		MinClipSeconds:        DefaultMinClipSeconds,
		MaxClipSeconds:        DefaultMaxClipSeconds,
		MaxClips:              DefaultMaxClips,
		RuntimeCeilingSeconds: DefaultRuntimeCeilingSeconds,
		SimilarityThreshold:   DefaultSimilarityThreshold,
		BatchSize:             DefaultBatchSize,
		BatchCharBudget:       DefaultBatchCharBudget,
	}
}

func (p Policy) Validate() error {
	var errs []error
	if p.MinClipSeconds <= 0 {
		errs = append(errs, errors.New("min clip seconds must be > 0"))
	}
	if p.MaxClipSeconds < p.MinClipSeconds {
		errs = append(errs, fmt.Errorf("max clip seconds (%d) must be >= min clip seconds (%d)", p.MaxClipSeconds, p.MinClipSeconds))
	}
	if p.MaxClips <= 0 {
		errs = append(errs, errors.New("max clips must be > 0"))
	}
	if p.RuntimeCeilingSeconds <= 0 {
		errs = append(errs, errors.New("runtime ceiling must be > 0"))
	}
	if p.SimilarityThreshold <= 0 || p.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("similarity threshold must be in (0, 1], got %v", p.SimilarityThreshold))
	}
	if p.BatchSize <= 0 {
		errs = append(errs, errors.New("batch size must be > 0"))
	}
	if p.BatchCharBudget <= 0 {
		errs = append(errs, errors.New("batch char budget must be > 0"))
	}
	return errors.Join(errs...)
}
