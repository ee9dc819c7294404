package definition

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wordhoard/wordhoard/schemas"
)

// CacheSchemaVersion tags every cached row with the serialization
// format it was written under. Bump it whenever the serialized shape of
// LookupResult or Definition changes; mismatched rows are discarded on
// read and re-fetched, never migrated in place.
const CacheSchemaVersion = 2

// Cache is the engine's view of the result cache.
type Cache interface {
	Get(ctx context.Context, term string, maxAge time.Duration) (*LookupResult, error)
	Put(ctx context.Context, term string, result LookupResult) error
}

// ResultCache is a sqlite-backed, schema-versioned store of lookup
// results keyed by a stable hash of the normalized term.
type ResultCache struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ Cache = (*ResultCache)(nil)

type cacheRow struct {
	TermHash      string    `db:"term_hash"`
	Term          string    `db:"term"`
	ResultJSON    string    `db:"result_json"`
	SchemaVersion int       `db:"schema_version"`
	CachedAt      time.Time `db:"cached_at"`
	AccessCount   int       `db:"access_count"`
	LastAccessed  time.Time `db:"last_accessed"`
}

// CacheStats summarizes the cache contents.
type CacheStats struct {
	Entries        int64
	TotalAccesses  int64
	OldestCachedAt time.Time
}

// OpenResultCache opens (creating if needed) the cache database at path.
func OpenResultCache(path string) (*ResultCache, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlx.Connect > %w", err)
	}

	ddl, err := schemas.Migrations.ReadFile("migrations/0001_definition_cache.sql")
	if err != nil {
		return nil, fmt.Errorf("schemas.Migrations.ReadFile > %w", err)
	}
	if _, err := db.Exec(string(ddl)); err != nil {
		return nil, fmt.Errorf("db.Exec(definition_cache ddl) > %w", err)
	}

	return &ResultCache{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (c *ResultCache) Close() error {
	return c.db.Close()
}

// TermHash returns the stable cache key for a term: the first 16 hex
// characters of the SHA-256 of its normalized form.
func TermHash(term string) string {
	sum := sha256.Sum256([]byte(NormalizeTerm(term)))
	return hex.EncodeToString(sum[:])[:16]
}

// Get returns the cached result for term if one exists, was written
// under the current schema version, and is no older than maxAge.
// Entries failing the version or age check are deleted and reported as
// a miss, forcing a re-fetch. A hit bumps the access statistics and is
// returned with CacheHit set.
func (c *ResultCache) Get(ctx context.Context, term string, maxAge time.Duration) (*LookupResult, error) {
	hash := TermHash(term)

	var row cacheRow
	err := c.db.GetContext(ctx, &row, "SELECT * FROM definition_cache WHERE term_hash = ?", hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(definition_cache) > %w", err)
	}

	if row.SchemaVersion != CacheSchemaVersion {
		slog.Default().Info("Discarding cache entry with stale schema",
			"term", row.Term,
			"entrySchema", row.SchemaVersion,
			"currentSchema", CacheSchemaVersion)
		return nil, c.delete(ctx, hash)
	}
	if c.now().Sub(row.CachedAt) > maxAge {
		return nil, c.delete(ctx, hash)
	}

	var result LookupResult
	if err := json.Unmarshal([]byte(row.ResultJSON), &result); err != nil {
		slog.Default().Warn("Discarding corrupt cache entry",
			"term", row.Term,
			"error", err)
		return nil, c.delete(ctx, hash)
	}

	if _, err := c.db.ExecContext(ctx,
		"UPDATE definition_cache SET access_count = access_count + 1, last_accessed = ? WHERE term_hash = ?",
		c.now(), hash); err != nil {
		return nil, fmt.Errorf("db.ExecContext(bump access) > %w", err)
	}

	result.CacheHit = true
	return &result, nil
}

// Put serializes result under the current schema version and upserts it
// by term hash, resetting the access statistics.
func (c *ResultCache) Put(ctx context.Context, term string, result LookupResult) error {
	normalized := NormalizeTerm(term)
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("json.Marshal > %w", err)
	}

	now := c.now()
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO definition_cache (term_hash, term, result_json, schema_version, cached_at, access_count, last_accessed)
		VALUES (?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(term_hash) DO UPDATE SET
			term = excluded.term,
			result_json = excluded.result_json,
			schema_version = excluded.schema_version,
			cached_at = excluded.cached_at,
			access_count = 1,
			last_accessed = excluded.last_accessed`,
		TermHash(term), normalized, string(payload), CacheSchemaVersion, now, now)
	if err != nil {
		return fmt.Errorf("db.ExecContext(upsert definition_cache) > %w", err)
	}
	return nil
}

// Invalidate removes the entry for term, if any.
func (c *ResultCache) Invalidate(ctx context.Context, term string) error {
	return c.delete(ctx, TermHash(term))
}

// PurgeExpired deletes entries older than maxAge or written under a
// different schema version, returning how many were removed.
func (c *ResultCache) PurgeExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM definition_cache WHERE cached_at < ? OR schema_version != ?",
		c.now().Add(-maxAge), CacheSchemaVersion)
	if err != nil {
		return 0, fmt.Errorf("db.ExecContext(purge definition_cache) > %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("res.RowsAffected > %w", err)
	}
	return n, nil
}

// Stats reports entry and access counts and the oldest entry age.
func (c *ResultCache) Stats(ctx context.Context) (CacheStats, error) {
	var stats CacheStats
	row := c.db.QueryRowxContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(access_count), 0) FROM definition_cache")
	if err := row.Scan(&stats.Entries, &stats.TotalAccesses); err != nil {
		return stats, fmt.Errorf("row.Scan(cache counts) > %w", err)
	}

	var oldest sql.NullTime
	if err := c.db.QueryRowxContext(ctx,
		"SELECT MIN(cached_at) FROM definition_cache").Scan(&oldest); err != nil {
		return stats, fmt.Errorf("row.Scan(oldest cached_at) > %w", err)
	}
	if oldest.Valid {
		stats.OldestCachedAt = oldest.Time
	}
	return stats, nil
}

func (c *ResultCache) delete(ctx context.Context, hash string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM definition_cache WHERE term_hash = ?", hash); err != nil {
		return fmt.Errorf("db.ExecContext(delete definition_cache) > %w", err)
	}
	return nil
}
