package enricher

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ResolveCache persists short-link resolutions in a small SQLite database so
// repeated pipeline runs skip network resolution for URLs already seen. A
// nil cache is valid and simply caches nothing.
type ResolveCache struct {
	db *sql.DB
}

// OpenResolveCache opens (creating if needed) the cache at dbPath.
func OpenResolveCache(dbPath string) (*ResolveCache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS resolved_urls (
		url TEXT PRIMARY KEY,
		resolved TEXT NOT NULL,
		resolved_at DATETIME NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &ResolveCache{db: db}, nil
}

// Get returns the cached resolution for url, if any.
func (c *ResolveCache) Get(url string) (string, bool) {
	if c == nil {
		return "", false
	}

	var resolved string
	err := c.db.QueryRow(`SELECT resolved FROM resolved_urls WHERE url = ?`, url).Scan(&resolved)
	if err != nil {
		return "", false
	}
	return resolved, true
}

// Put records a resolution. Errors are swallowed: the cache is an
// optimization, never a correctness dependency.
func (c *ResolveCache) Put(url, resolved string) {
	if c == nil {
		return
	}

	c.db.Exec(`
		INSERT INTO resolved_urls (url, resolved, resolved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			resolved = excluded.resolved,
			resolved_at = excluded.resolved_at
	`, url, resolved, time.Now())
}

// Close closes the underlying database.
func (c *ResolveCache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}
