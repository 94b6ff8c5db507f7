package sqlitecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/forPelevin/presserdigest/internal/types"
)

// cachedAtLayout is fixed width so cached_at compares correctly as text.
const cachedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Cache stores fetched transcripts in a local SQLite file so reruns skip
// caption downloads.
type Cache struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var migrations = []struct {
	version string
	sql     string
}{
	{"001_transcripts", `CREATE TABLE IF NOT EXISTS transcripts (
		video_id      TEXT PRIMARY KEY,
		video_json    TEXT NOT NULL,
		segments_json TEXT NOT NULL,
		cached_at     TEXT NOT NULL
	)`},
}

// Open creates or opens the cache database at path and applies migrations.
func Open(ctx context.Context, path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	c := &Cache{db: db, path: path, now: time.Now}
	if err := c.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) migrate(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	for _, m := range migrations {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", m.version).Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

func (c *Cache) Get(ctx context.Context, videoID string) (types.Transcript, bool, error) {
	var videoJSON, segsJSON string
	err := c.db.QueryRowContext(ctx,
		"SELECT video_json, segments_json FROM transcripts WHERE video_id = ?", videoID,
	).Scan(&videoJSON, &segsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Transcript{}, false, nil
	}
	if err != nil {
		return types.Transcript{}, false, fmt.Errorf("get transcript %s: %w", videoID, err)
	}

	var tr types.Transcript
	if err := json.Unmarshal([]byte(videoJSON), &tr.Video); err != nil {
		return types.Transcript{}, false, fmt.Errorf("decode cached video %s: %w", videoID, err)
	}
	if err := json.Unmarshal([]byte(segsJSON), &tr.Segments); err != nil {
		return types.Transcript{}, false, fmt.Errorf("decode cached segments %s: %w", videoID, err)
	}
	return tr, true, nil
}

func (c *Cache) Put(ctx context.Context, tr types.Transcript) error {
	if tr.Video.ID == "" {
		return errors.New("put transcript: empty video id")
	}
	vb, err := json.Marshal(tr.Video)
	if err != nil {
		return fmt.Errorf("encode video: %w", err)
	}
	sb, err := json.Marshal(tr.Segments)
	if err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO transcripts (video_id, video_json, segments_json, cached_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(video_id) DO UPDATE SET
		   video_json = excluded.video_json,
		   segments_json = excluded.segments_json,
		   cached_at = excluded.cached_at`,
		tr.Video.ID, string(vb), string(sb), c.now().UTC().Format(cachedAtLayout),
	)
	if err != nil {
		return fmt.Errorf("put transcript %s: %w", tr.Video.ID, err)
	}
	return nil
}

// Prune deletes entries cached before cutoff and returns how many went.
func (c *Cache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM transcripts WHERE cached_at < ?", cutoff.UTC().Format(cachedAtLayout))
	if err != nil {
		return 0, fmt.Errorf("prune transcripts: %w", err)
	}
	return res.RowsAffected()
}

func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
