package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/forPelevin/presserdigest/internal/config"
	"github.com/forPelevin/presserdigest/internal/domain/candidates"
	"github.com/forPelevin/presserdigest/internal/domain/pressers"
	"github.com/forPelevin/presserdigest/internal/logger"
	"github.com/forPelevin/presserdigest/internal/ports"
	"github.com/forPelevin/presserdigest/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/presserdigest/internal/ports/adapters/openrouter"
	"github.com/forPelevin/presserdigest/internal/ports/adapters/rediscache"
	"github.com/forPelevin/presserdigest/internal/ports/adapters/sqlitecache"
	"github.com/forPelevin/presserdigest/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/presserdigest/internal/ports/adapters/youtube"
	"github.com/forPelevin/presserdigest/internal/ports/adapters/ytdlp"
	"github.com/forPelevin/presserdigest/internal/usecase"
)

const lockName = "presserdigest.lock"

type Config struct {
	App    *config.Config
	DryRun bool
	Log    *logger.Logger
	// Out receives the human-readable run report. Nil discards it.
	Out    io.Writer
	Now    func() time.Time
}

func (c Config) Validate() error {
	if c.App == nil {
		return errors.New("config is nil")
	}
	if err := c.App.Validate(); err != nil {
		return err
	}
	return c.App.RequireAPIKey()
}

// Summary is what a finished run leaves behind.
type Summary struct {
	RunID  string
	Dir    string
	Result usecase.Result
}

// Run wires the real adapters and executes one digest run.
func Run(ctx context.Context, cfg Config) (Summary, error) {
	cfg = withDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return Summary{}, fmt.Errorf("config: %w", err)
	}
	app := cfg.App

	cache, err := openCache(ctx, app, cfg.Now(), cfg.Log)
	if err != nil {
		return Summary{}, err
	}
	if cache != nil {
		defer cache.Close()
	}

	yt := ytdlp.New(app.Tools.YtDlp, app.Tools.MaxHeight)
	deps := usecase.Deps{
		Feed: youtube.New(app.Feed.Channels,
			pressers.NewClassifier(app.Feed.Keywords, app.Feed.Excludes),
			youtube.WithLogger(cfg.Log)),
		Captions:   yt,
		Scorer:     openrouter.New(app.LLM.APIKey, app.LLM.Model, app.LLM.BaseURL),
		Downloader: yt,
		Video:      ffmpeg.New(app.Tools.FFmpeg, app.Tools.FFprobe),
		Log:        cfg.Log,
		Now:        cfg.Now,
	}
	if cache != nil {
		deps.Cache = cache
	}
	if w := whispercpp.New(app.Tools.WhisperBin, app.Tools.WhisperModel); w.Enabled() {
		deps.ASR = w
	}
	return run(ctx, cfg, deps)
}

// run executes the usecase under the work-dir lock and persists every
// artifact into a fresh run directory.
func run(ctx context.Context, cfg Config, deps usecase.Deps) (Summary, error) {
	cfg = withDefaults(cfg)
	app := cfg.App
	log := cfg.Log

	if err := os.MkdirAll(app.Paths.WorkDir, 0o755); err != nil {
		return Summary{}, err
	}
	lock := flock.New(filepath.Join(app.Paths.WorkDir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return Summary{}, errors.New("another presserdigest run is already in progress")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("failed to release run lock", "error", err)
		}
	}()

	started := cfg.Now().UTC()
	sum := Summary{RunID: uuid.NewString()}
	sum.Dir = buildRunOutDir(app.Paths.OutDir, "pressers", started, sum.RunID)
	if err := os.MkdirAll(sum.Dir, 0o755); err != nil {
		return sum, err
	}
	log = log.With("run_id", sum.RunID)
	log.Info("run started", "dir", sum.Dir, "dry_run", cfg.DryRun)

	deps.Log = log
	sink := &jsonSink{dir: sum.Dir}
	policy := app.Policy()
	if err := sink.Write(policyArtifact, policy); err != nil {
		return sum, err
	}
	res, runErr := usecase.New(deps).Run(ctx, usecase.Input{
		Policy:          policy,
		HoursBack:       app.Digest.HoursBack,
		MomentsPerVideo: app.Digest.MomentsPerVideo,
		Scoring: candidates.Options{
			Concurrency: app.LLM.Concurrency,
			CallTimeout: app.CallTimeout(),
			MaxRetries:  app.LLM.MaxRetries,
			Backoff:     app.Backoff(),
		},
		TranscriptParallel: app.LLM.Concurrency,
		WorkDir:            app.Paths.WorkDir,
		OutDir:             sum.Dir,
		DryRun:             cfg.DryRun,
		Sink:               sink,
	})
	sum.Result = res

	review := newReviewSummary(sum, started, cfg.Now().UTC(), cfg.DryRun, runErr)
	if err := sink.Write("review_summary", review); err != nil && runErr == nil {
		runErr = err
	}
	if res.QA != nil {
		report := renderQAReport(*res.QA, res.Metadata)
		if err := os.WriteFile(filepath.Join(sum.Dir, "qa_report.txt"), []byte(report), 0o644); err != nil && runErr == nil {
			runErr = err
		}
	}
	if cfg.Out != nil {
		fmt.Fprintln(cfg.Out, renderRunReport(res.Report))
		if len(res.Outcome.Plan.Entries) > 0 {
			fmt.Fprintln(cfg.Out, renderPlan(res.Outcome.Plan))
		}
		fmt.Fprintf(cfg.Out, "run dir: %s\n", sum.Dir)
	}
	if runErr != nil {
		log.Error("run failed", "error", runErr)
		return sum, runErr
	}
	if res.Empty {
		log.Warn("run finished with an empty digest")
	} else {
		log.Info("run finished", "selected", res.Report.Selected, "clips", res.Report.ClipsRendered, "digest", res.DigestFile)
	}
	return sum, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return cfg
}

// openCache returns nil when caching is disabled. The sqlite cache is pruned
// of entries older than the TTL on open.
func openCache(ctx context.Context, app *config.Config, now time.Time, log *logger.Logger) (ports.TranscriptCache, error) {
	switch app.Cache.Backend {
	case config.CacheSQLite:
		c, err := sqlitecache.Open(ctx, app.Cache.SQLitePath)
		if err != nil {
			return nil, err
		}
		if ttl := app.CacheTTL(); ttl > 0 {
			n, err := c.Prune(ctx, now.Add(-ttl))
			if err != nil {
				log.Warn("transcript cache prune failed", "error", err)
			} else if n > 0 {
				log.Debug("transcript cache pruned", "rows", n)
			}
		}
		return c, nil
	case config.CacheRedis:
		c, err := rediscache.Open(ctx, app.Cache.RedisURL, "", app.CacheTTL())
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, nil
	}
}

type jsonSink struct{ dir string }

func (s *jsonSink) Write(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return os.WriteFile(filepath.Join(s.dir, name+".json"), b, 0o644)
}

type reviewSummary struct {
	RunID      string                `json:"run_id"`
	PlanID     string                `json:"plan_id,omitempty"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	DryRun     bool                  `json:"dry_run"`
	Empty      bool                  `json:"empty"`
	Report     usecase.Report        `json:"report"`
	ClipErrors []usecase.ClipFailure `json:"clip_errors,omitempty"`
	DigestFile string                `json:"digest_file,omitempty"`
	Title      string                `json:"title,omitempty"`
	QAPassed   *bool                 `json:"qa_passed,omitempty"`
	Error      string                `json:"error,omitempty"`
}

func newReviewSummary(s Summary, started, finished time.Time, dryRun bool, err error) reviewSummary {
	res := s.Result
	r := reviewSummary{
		RunID:      s.RunID,
		PlanID:     res.Outcome.Plan.ID,
		StartedAt:  started,
		FinishedAt: finished,
		DryRun:     dryRun,
		Empty:      res.Empty,
		Report:     res.Report,
		ClipErrors: res.ClipErrors,
		DigestFile: res.DigestFile,
	}
	if res.Metadata != nil {
		r.Title = res.Metadata.Title
	}
	if res.QA != nil {
		passed := res.QA.AllPassed
		r.QAPassed = &passed
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func buildRunOutDir(outRoot, label string, now time.Time, seed string) string {
	name := normalizePathSegment(label)
	if name == "" {
		name = "run"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", seed, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoFeed = (*youtube.Feed)(nil)
var _ ports.CaptionSource = (*ytdlp.Adapter)(nil)
var _ ports.Downloader = (*ytdlp.Adapter)(nil)
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.ASR = (*whispercpp.Adapter)(nil)
var _ ports.MomentScorer = (*openrouter.Adapter)(nil)
var _ ports.TranscriptCache = (*sqlitecache.Cache)(nil)
var _ ports.TranscriptCache = (*rediscache.Cache)(nil)
