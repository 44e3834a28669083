package oracle

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/funvibe/sumshape/internal/typesystem"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS answers (
	key        TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	found      INTEGER NOT NULL,
	expr       TEXT NOT NULL DEFAULT '',
	capability TEXT NOT NULL DEFAULT ''
)`

// cacheNamespace scopes answer keys; a fingerprint of the oracle
// configuration is hashed under it so stale answers are never reused.
var cacheNamespace = uuid.MustParse("5f0c8a44-1c8e-4b5e-9a55-6b7d2b1f3c10")

// Cache memoizes another oracle's answers in a SQLite file. Answers are
// keyed by the configuration fingerprint, so a config change starts fresh.
type Cache struct {
	inner  Oracle
	db     *sql.DB
	scope  uuid.UUID
	logger *zap.Logger
}

// OpenCache opens (creating if needed) the cache database at path.
func OpenCache(path string, inner Oracle, fingerprint string, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &Cache{
		inner:  inner,
		db:     db,
		scope:  uuid.NewSHA1(cacheNamespace, []byte(fingerprint)),
		logger: logger.Named("oracle-cache"),
	}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Satisfies(t typesystem.Type, b typesystem.Bound) bool {
	query := "satisfies " + typesystem.Key(t) + ": " + typesystem.BoundKey(b.Plain())
	key := c.key(query)

	var found bool
	err := c.db.QueryRow(`SELECT found FROM answers WHERE key = ?`, key).Scan(&found)
	if err == nil {
		return found
	}
	if !errors.Is(err, sql.ErrNoRows) {
		c.logger.Warn("cache lookup failed", zap.String("query", query), zap.Error(err))
	}

	found = c.inner.Satisfies(t, b)
	c.put(key, query, found, Constructor{})
	return found
}

func (c *Cache) DefaultConstructor(t typesystem.Type) (Constructor, bool) {
	query := "default " + typesystem.Key(t)
	key := c.key(query)

	var (
		found bool
		ctor  Constructor
	)
	err := c.db.QueryRow(`SELECT found, expr, capability FROM answers WHERE key = ?`, key).Scan(&found, &ctor.Expr, &ctor.Capability)
	if err == nil {
		return ctor, found
	}
	if !errors.Is(err, sql.ErrNoRows) {
		c.logger.Warn("cache lookup failed", zap.String("query", query), zap.Error(err))
	}

	ctor, found = c.inner.DefaultConstructor(t)
	c.put(key, query, found, ctor)
	return ctor, found
}

// Len returns the number of cached answers.
func (c *Cache) Len() (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM answers`).Scan(&n)
	return n, err
}

func (c *Cache) key(query string) string {
	return uuid.NewSHA1(c.scope, []byte(query)).String()
}

func (c *Cache) put(key, query string, found bool, ctor Constructor) {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO answers (key, query, found, expr, capability) VALUES (?, ?, ?, ?, ?)`,
		key, query, found, ctor.Expr, ctor.Capability,
	)
	if err != nil {
		c.logger.Warn("cache store failed", zap.String("query", query), zap.Error(err))
	}
}
