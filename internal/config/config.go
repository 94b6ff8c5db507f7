package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/forPelevin/presserdigest/internal/domain/moments"
)

const projectConfigName = "presserdigest.toml"

type Digest struct {
	HoursBack             int     `toml:"hours_back"`
	MomentsPerVideo       int     `toml:"moments_per_video"`
	MinClipSeconds        int     `toml:"min_clip_seconds"`
	MaxClipSeconds        int     `toml:"max_clip_seconds"`
	MaxClips              int     `toml:"max_clips"`
	RuntimeCeilingSeconds int     `toml:"runtime_ceiling_seconds"`
	SimilarityThreshold   float64 `toml:"similarity_threshold"`
}

type LLM struct {
	// APIKey comes from OPENROUTER_API_KEY only.
	APIKey             string   `toml:"-"`
	Model              string   `toml:"model"`
	BaseURL            string   `toml:"base_url"`
	AllowedHosts       []string `toml:"allowed_hosts"`
	BatchSize          int      `toml:"batch_size"`
	BatchCharBudget    int      `toml:"batch_char_budget"`
	Concurrency        int      `toml:"concurrency"`
	CallTimeoutSeconds int      `toml:"call_timeout_seconds"`
	MaxRetries         int      `toml:"max_retries"`
	BackoffSeconds     int      `toml:"backoff_seconds"`
}

type Feed struct {
	Channels map[string]string `toml:"channels"`
	Keywords []string          `toml:"keywords"`
	Excludes []string          `toml:"excludes"`
}

type Paths struct {
	OutDir  string `toml:"out_dir"`
	WorkDir string `toml:"work_dir"`
}

type Tools struct {
	FFmpeg       string `toml:"ffmpeg"`
	FFprobe      string `toml:"ffprobe"`
	YtDlp        string `toml:"yt_dlp"`
	WhisperBin   string `toml:"whisper_bin"`
	WhisperModel string `toml:"whisper_model"`
	MaxHeight    int    `toml:"max_height"`
}

const (
	CacheNone   = "none"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

type Cache struct {
	Backend    string `toml:"backend"`
	SQLitePath string `toml:"sqlite_path"`
	RedisURL   string `toml:"redis_url"`
	TTLHours   int    `toml:"ttl_hours"`
}

type Logging struct {
	Mode  string `toml:"mode"`
	Level string `toml:"level"`
}

type Config struct {
	Digest  Digest  `toml:"digest"`
	LLM     LLM     `toml:"llm"`
	Feed    Feed    `toml:"feed"`
	Paths   Paths   `toml:"paths"`
	Tools   Tools   `toml:"tools"`
	Cache   Cache   `toml:"cache"`
	Logging Logging `toml:"logging"`
}

// Load reads path (or ./presserdigest.toml when path is empty) over the
// defaults, applies environment overrides and validates the result. A missing
// file is not an error; the returned bool reports whether one was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		dec := toml.NewDecoder(file)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) == "" {
		path = projectConfigName
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config %s is a directory", expanded)
	}
	return expanded, true, nil
}

// Policy is the selection configuration handed to the core.
func (c *Config) Policy() moments.Policy {
	return moments.Policy{
		MinClipSeconds:        c.Digest.MinClipSeconds,
		MaxClipSeconds:        c.Digest.MaxClipSeconds,
		MaxClips:              c.Digest.MaxClips,
		RuntimeCeilingSeconds: c.Digest.RuntimeCeilingSeconds,
		SimilarityThreshold:   c.Digest.SimilarityThreshold,
		BatchSize:             c.LLM.BatchSize,
		BatchCharBudget:       c.LLM.BatchCharBudget,
	}
}

func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.LLM.CallTimeoutSeconds) * time.Second
}

func (c *Config) Backoff() time.Duration {
	return time.Duration(c.LLM.BackoffSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// ExpandPath resolves ~ and makes the path absolute.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// Sample renders the defaults as TOML, for `presserdigest config init`.
func Sample() ([]byte, error) {
	cfg := Default()
	return toml.Marshal(cfg)
}
