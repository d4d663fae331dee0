package clipstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes. Older caches are
// recreated by 'signframes cache clear' (see ResetCache).
const schemaVersion = 1

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// ErrSchemaMismatch indicates the cache database was written by another version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Entry is a cached clip lookup result.
type Entry struct {
	Token     string
	Data      []byte
	Missing   bool
	FetchedAt time.Time
}

// Stats summarizes cache contents.
type Stats struct {
	Path    string
	Clips   int64
	Missing int64
	Bytes   int64
	Oldest  time.Time
	Newest  time.Time
}

// Cache persists fetched clips in SQLite. Present clips live for ttl; known
// missing tokens live for negativeTTL.
type Cache struct {
	db          *sql.DB
	path        string
	ttl         time.Duration
	negativeTTL time.Duration
	now         func() time.Time
}

// OpenCache initializes or connects to the clip cache at path.
func OpenCache(path string, ttl, negativeTTL time.Duration) (*Cache, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("clip cache path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
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
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	cache := &Cache{db: db, path: path, ttl: ttl, negativeTTL: negativeTTL, now: time.Now}
	if err := cache.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// ResetCache drops every cache table at path, whatever schema version wrote
// them, so the next OpenCache starts from an empty current schema.
func ResetCache(ctx context.Context, path string) error {
	ctx = ensureContext(ctx)
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("clip cache path required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	defer db.Close()

	err = retryOnBusy(ctx, func() error {
		_, execErr := db.ExecContext(ctx, "DROP TABLE IF EXISTS clips; DROP TABLE IF EXISTS schema_version")
		return execErr
	})
	if err != nil {
		return fmt.Errorf("reset clip cache: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the database file location.
func (c *Cache) Path() string {
	return c.path
}

// Lookup returns the live entry for token. Expired entries are reported as
// absent.
func (c *Cache) Lookup(ctx context.Context, token string) (Entry, bool, error) {
	ctx = ensureContext(ctx)
	var (
		data      []byte
		missing   int
		fetchedAt int64
	)
	err := retryOnBusy(ctx, func() error {
		return c.db.QueryRowContext(ctx,
			"SELECT data, missing, fetched_at FROM clips WHERE token = ?", token,
		).Scan(&data, &missing, &fetchedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("lookup clip %q: %w", token, err)
	}

	entry := Entry{Token: token, Data: data, Missing: missing != 0, FetchedAt: time.UnixMilli(fetchedAt)}
	if c.expired(entry) {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Store records clip bytes for token.
func (c *Cache) Store(ctx context.Context, token string, data []byte) error {
	return c.upsert(ctx, token, data, false)
}

// StoreMissing records that the clip store has no clip for token.
func (c *Cache) StoreMissing(ctx context.Context, token string) error {
	return c.upsert(ctx, token, nil, true)
}

func (c *Cache) upsert(ctx context.Context, token string, data []byte, missing bool) error {
	ctx = ensureContext(ctx)
	flag := 0
	if missing {
		flag = 1
	}
	err := retryOnBusy(ctx, func() error {
		_, execErr := c.db.ExecContext(ctx,
			`INSERT INTO clips (token, data, missing, fetched_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(token) DO UPDATE SET data = excluded.data, missing = excluded.missing, fetched_at = excluded.fetched_at`,
			token, data, flag, c.now().UnixMilli(),
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("store clip %q: %w", token, err)
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	now := c.now()
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := c.db.ExecContext(ctx,
			`DELETE FROM clips
			 WHERE (missing = 0 AND fetched_at < ?)
			    OR (missing = 1 AND fetched_at < ?)`,
			cutoff(now, c.ttl), cutoff(now, c.negativeTTL),
		)
		if execErr != nil {
			return execErr
		}
		removed, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("prune clip cache: %w", err)
	}
	return removed, nil
}

// Clear deletes every entry and returns how many were removed.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := c.db.ExecContext(ctx, "DELETE FROM clips")
		if execErr != nil {
			return execErr
		}
		removed, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("clear clip cache: %w", err)
	}
	return removed, nil
}

// Stats reports entry counts, stored bytes, and the age range of entries.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{Path: c.path}
	var oldest, newest sql.NullInt64
	err := c.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN missing = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(missing), 0),
			COALESCE(SUM(LENGTH(data)), 0),
			MIN(fetched_at),
			MAX(fetched_at)
		 FROM clips`,
	).Scan(&stats.Clips, &stats.Missing, &stats.Bytes, &oldest, &newest)
	if err != nil {
		return Stats{}, fmt.Errorf("clip cache stats: %w", err)
	}
	if oldest.Valid {
		stats.Oldest = time.UnixMilli(oldest.Int64)
	}
	if newest.Valid {
		stats.Newest = time.UnixMilli(newest.Int64)
	}
	return stats, nil
}

// cutoff returns the fetched_at bound below which entries expire. A
// non-positive ttl keeps entries forever.
func cutoff(now time.Time, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return now.Add(-ttl).UnixMilli()
}

func (c *Cache) expired(entry Entry) bool {
	ttl := c.ttl
	if entry.Missing {
		ttl = c.negativeTTL
	}
	if ttl <= 0 {
		return false
	}
	return c.now().Sub(entry.FetchedAt) > ttl
}

func (c *Cache) initSchema(ctx context.Context) error {
	var tableExists int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return c.createSchema(ctx)
	}

	var version int
	if err := c.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'signframes cache clear' to recreate %s)",
			ErrSchemaMismatch, version, schemaVersion, c.path)
	}
	return nil
}

func (c *Cache) createSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
