package config

import (
	"github.com/forPelevin/presserdigest/internal/domain/moments"
	"github.com/forPelevin/presserdigest/internal/domain/pressers"
	"github.com/forPelevin/presserdigest/internal/ports/adapters/openrouter"
)

const (
	defaultHoursBack       = 24
	defaultMomentsPerVideo = 3
	defaultConcurrency     = 4
	defaultCallTimeout     = 90
	defaultMaxRetries      = 2
	defaultBackoff         = 2
	defaultOutDir          = "out"
	defaultWorkDir         = ".cache"
	defaultCacheTTLHours   = 24 * 7
	defaultMaxHeight       = 1080
)

// DefaultChannels maps team names to their YouTube channel ids.
var DefaultChannels = map[string]string{
	"Boston Celtics":         "UCOVTNeLQpTY8awYaKq5N0PA",
	"Brooklyn Nets":          "UC5E8Dz6fRh5k9N6HGNQVP5w",
	"New York Knicks":        "UCqkmXLMFVhZ3T5GPK3Sfzgg",
	"Philadelphia 76ers":     "UC_NHLsOVZQjq8IwCzHg3b3Q",
	"Toronto Raptors":        "UCLpuZNEVlf4kKjmHJbE5HUw",
	"Chicago Bulls":          "UCVEi5gK6BOSpRvTdqCjZ3RA",
	"Cleveland Cavaliers":    "UCQV2nk7DPD51_W6S1ORMPqw",
	"Detroit Pistons":        "UCmI3LrCqXnL2SLqf5AhHH4g",
	"Indiana Pacers":         "UC7v7WhN-_HQP10bPr6VhFMQ",
	"Milwaukee Bucks":        "UCqkmXLMFVhZ3T5GPK3Sfzgq",
	"Atlanta Hawks":          "UCOXCZGWYxj7gV3TxPLEKqLg",
	"Charlotte Hornets":      "UCLY32xN2kPJwHH_4WTP2ywQ",
	"Miami Heat":             "UC0Ev6VvjjQtRWaUhNXHMSmg",
	"Orlando Magic":          "UCHdDZmNHOJvYqmHQFpWP2FA",
	"Washington Wizards":     "UCKrwNNfrZnZEGhDFEXYWcMg",
	"Denver Nuggets":         "UC4oN5G9L3HDVIL11vCRjQ0w",
	"Minnesota Timberwolves": "UCJh2ZLuVmKt-pSA3wPFO3LQ",
	"Oklahoma City Thunder":  "UC9BLsYvNT3Kd0yI9KAqxMig",
	"Portland Trail Blazers": "UCKH_g5NHtq_x7UstbQBpD_A",
	"Utah Jazz":              "UCqkdOPwLT_eWpT6rP--2-Tw",
	"Golden State Warriors":  "UCQGKXeHNW-v1wJn-hHJhmcg",
	"LA Clippers":            "UCnLdLHJXwO7GDSQKpN9WMCQ",
	"Los Angeles Lakers":     "UCvjPfBKz0T1ZR_XJl8V_8Qw",
	"Phoenix Suns":           "UCKdLISl-7suZAU3oeL2WFTw",
	"Sacramento Kings":       "UC-3cIZT_-Y1BvNQ2fHj8uLQ",
	"Dallas Mavericks":       "UC9QyG4Cp8xsw_cVXGPITCAQ",
	"Houston Rockets":        "UCmP4F7vIPRYrINJu-d_04EQ",
	"Memphis Grizzlies":      "UC4QJKC9ZfXk8BbJq1_bTLag",
	"New Orleans Pelicans":   "UC_HJA1fN7BjlBpkLPjCNGLA",
	"San Antonio Spurs":      "UC_Q7aYKBpzWCzRQzq6D5uFQ",
}

// Default returns the configuration used when no file is present.
func Default() Config {
	channels := make(map[string]string, len(DefaultChannels))
	for k, v := range DefaultChannels {
		channels[k] = v
	}
	return Config{
		Digest: Digest{
			HoursBack:             defaultHoursBack,
			MomentsPerVideo:       defaultMomentsPerVideo,
			MinClipSeconds:        moments.DefaultMinClipSeconds,
			MaxClipSeconds:        moments.DefaultMaxClipSeconds,
			MaxClips:              moments.DefaultMaxClips,
			RuntimeCeilingSeconds: moments.DefaultRuntimeCeilingSeconds,
			SimilarityThreshold:   moments.DefaultSimilarityThreshold,
		},
		LLM: LLM{
			Model:              openrouter.DefaultModel,
			BaseURL:            openrouter.DefaultBaseURL,
			BatchSize:          moments.DefaultBatchSize,
			BatchCharBudget:    moments.DefaultBatchCharBudget,
			Concurrency:        defaultConcurrency,
			CallTimeoutSeconds: defaultCallTimeout,
			MaxRetries:         defaultMaxRetries,
			BackoffSeconds:     defaultBackoff,
		},
		Feed: Feed{
			Channels: channels,
			Keywords: append([]string(nil), pressers.DefaultKeywords...),
			Excludes: append([]string(nil), pressers.DefaultExcludes...),
		},
		Paths: Paths{
			OutDir:  defaultOutDir,
			WorkDir: defaultWorkDir,
		},
		Tools: Tools{
			FFmpeg:    "ffmpeg",
			FFprobe:   "ffprobe",
			YtDlp:     "yt-dlp",
			MaxHeight: defaultMaxHeight,
		},
		Cache: Cache{
			Backend:  CacheSQLite,
			TTLHours: defaultCacheTTLHours,
		},
		Logging: Logging{Mode: "auto", Level: "info"},
	}
}
