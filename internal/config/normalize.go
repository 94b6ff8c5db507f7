package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Normalize applies environment overrides, trims values and expands paths.
func (c *Config) Normalize() error {
	c.normalizeLLM()
	c.normalizeFeed()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	return c.normalizeCache()
}

func (c *Config) normalizeLLM() {
	if v, ok := lookupEnv("OPENROUTER_API_KEY"); ok {
		c.LLM.APIKey = v
	}
	if v, ok := lookupEnv("OPENROUTER_BASE_URL"); ok {
		c.LLM.BaseURL = v
	}
	if v, ok := lookupEnv("OPENROUTER_MODEL"); ok {
		c.LLM.Model = v
	}
	if v, ok := lookupEnv("OPENROUTER_ALLOWED_HOSTS"); ok {
		c.LLM.AllowedHosts = splitList(v)
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(c.LLM.BaseURL), "/")
}

func (c *Config) normalizeFeed() {
	clean := make(map[string]string, len(c.Feed.Channels))
	for team, id := range c.Feed.Channels {
		team, id = strings.TrimSpace(team), strings.TrimSpace(id)
		if team != "" && id != "" {
			clean[team] = id
		}
	}
	c.Feed.Channels = clean
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutDir) == "" {
		c.Paths.OutDir = defaultOutDir
	}
	if c.Paths.OutDir, err = ExpandPath(c.Paths.OutDir); err != nil {
		return fmt.Errorf("paths.out_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = ExpandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Tools.WhisperModel != "" {
		if c.Tools.WhisperModel, err = ExpandPath(c.Tools.WhisperModel); err != nil {
			return fmt.Errorf("tools.whisper_model: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeCache() error {
	if v, ok := lookupEnv("REDIS_URL"); ok {
		c.Cache.RedisURL = v
	}
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheSQLite
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = filepath.Join(c.Paths.WorkDir, "transcripts.db")
	}
	var err error
	if c.Cache.SQLitePath, err = ExpandPath(c.Cache.SQLitePath); err != nil {
		return fmt.Errorf("cache.sqlite_path: %w", err)
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
