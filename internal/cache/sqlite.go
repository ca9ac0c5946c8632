package cache

import (
	"database/sql"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLite is a persistent cache backend over modernc.org/sqlite. It lets
// repeated CLI invocations reuse fetch results across processes; reports are
// never stored here, only raw fetch payloads.
type SQLite struct {
	db     *sql.DB
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS fetch_cache (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// NewSQLite opens (or creates) a cache database at the given path.
func NewSQLite(path string, ttl time.Duration) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "cache: migrate")
	}
	return &SQLite{db: db, ttl: ttl}, nil
}

// Get implements Cache. Expired rows count as misses and are deleted lazily.
func (c *SQLite) Get(key string) ([]byte, bool) {
	query := "SELECT value FROM fetch_cache WHERE key = ?"
	args := []any{key}
	if c.ttl > 0 {
		query += " AND created_at > datetime('now', ?)"
		args = append(args, sqliteTTLModifier(c.ttl))
	}

	var value []byte
	err := c.db.QueryRow(query, args...).Scan(&value)
	if err != nil {
		if !eris.Is(err, sql.ErrNoRows) {
			zap.L().Warn("cache: sqlite get failed", zap.Error(err))
		}
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return value, true
}

// Put implements Cache with an upsert.
func (c *SQLite) Put(key string, value []byte) {
	_, err := c.db.Exec(`
		INSERT INTO fetch_cache (key, value, created_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			created_at = datetime('now')`,
		key, value,
	)
	if err != nil {
		zap.L().Warn("cache: sqlite put failed", zap.Error(err))
	}
}

// Stats implements Cache.
func (c *SQLite) Stats() Stats {
	var entries int
	if err := c.db.QueryRow("SELECT count(*) FROM fetch_cache").Scan(&entries); err != nil {
		zap.L().Warn("cache: sqlite stats failed", zap.Error(err))
	}
	hits := c.hits.Load()
	misses := c.misses.Load()
	return Stats{
		Entries: entries,
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate(hits, misses),
	}
}

// Close releases the underlying database handle.
func (c *SQLite) Close() error {
	return c.db.Close()
}

// sqliteTTLModifier renders a negative datetime modifier like "-300 seconds".
func sqliteTTLModifier(ttl time.Duration) string {
	secs := int64(ttl.Seconds())
	if secs < 1 {
		secs = 1
	}
	return "-" + strconv.FormatInt(secs, 10) + " seconds"
}
