package config

import (
	"errors"
	"fmt"

	"github.com/forPelevin/presserdigest/internal/ports/adapters/openrouter"
)

// Validate ensures the configuration is usable. Every problem is reported.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Policy().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("digest: %w", err))
	}
	if c.Digest.HoursBack <= 0 {
		errs = append(errs, errors.New("digest.hours_back must be > 0"))
	}
	if c.Digest.MomentsPerVideo <= 0 {
		errs = append(errs, errors.New("digest.moments_per_video must be > 0"))
	}
	errs = append(errs, c.validateLLM()...)
	if len(c.Feed.Channels) == 0 {
		errs = append(errs, errors.New("feed.channels must list at least one channel"))
	}
	errs = append(errs, c.validateCache()...)
	switch c.Logging.Mode {
	case "", "auto", "dev", "prod":
	default:
		errs = append(errs, fmt.Errorf("logging.mode %q must be auto, dev or prod", c.Logging.Mode))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level))
	}
	return errors.Join(errs...)
}

func (c *Config) validateLLM() []error {
	var errs []error
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if err := openrouter.ValidateBaseURL(c.LLM.BaseURL, c.LLM.AllowedHosts); err != nil {
		errs = append(errs, err)
	}
	if c.LLM.Concurrency <= 0 {
		errs = append(errs, errors.New("llm.concurrency must be > 0"))
	}
	if c.LLM.CallTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("llm.call_timeout_seconds must be > 0"))
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, errors.New("llm.max_retries must be >= 0"))
	}
	if c.LLM.BackoffSeconds <= 0 {
		errs = append(errs, errors.New("llm.backoff_seconds must be > 0"))
	}
	return errs
}

func (c *Config) validateCache() []error {
	switch c.Cache.Backend {
	case CacheNone, CacheSQLite:
		return nil
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return []error{errors.New("cache.redis_url (or REDIS_URL) is required for the redis backend")}
		}
		if c.Cache.TTLHours < 0 {
			return []error{errors.New("cache.ttl_hours must be >= 0")}
		}
		return nil
	default:
		return []error{fmt.Errorf("cache.backend %q must be none, sqlite or redis", c.Cache.Backend)}
	}
}

// RequireAPIKey reports a missing OPENROUTER_API_KEY. Replay runs do not
// call the scorer and skip this check.
func (c *Config) RequireAPIKey() error {
	if c.LLM.APIKey == "" {
		return errors.New("OPENROUTER_API_KEY is required (set it in the environment or .env)")
	}
	return nil
}
