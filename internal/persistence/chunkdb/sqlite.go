// Package chunkdb stores chunk records and world metadata in a local SQLite
// database. One row per chunk, keyed by the canonical "<cx>,<cy>,<z>" string,
// with the record as a JSON blob. It is the local half of the persistence
// adapter; the remote half lives in the remote package.
package chunkdb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"tilevale/internal/sim/world"
)

const seedKey = "world_seed"

type DB struct {
	db *sql.DB
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the write-mostly flush pattern; NORMAL sync is enough for
	// game saves that are re-creatable from the seed.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			key TEXT PRIMARY KEY,
			json BLOB NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) SaveChunk(key string, rec world.Record) error {
	if _, err := world.ParseChunkKey(key); err != nil {
		return err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode chunk %s: %w", key, err)
	}
	_, err = d.db.Exec(`INSERT INTO chunks(key, json) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET json=excluded.json,
		updated_at=strftime('%Y-%m-%dT%H:%M:%fZ','now')`, key, raw)
	if err != nil {
		return fmt.Errorf("save chunk %s: %w", key, err)
	}
	return nil
}

// LoadChunk returns the stored record and whether one exists. A corrupt row
// is reported as absent with a warning, so the world regenerates the chunk
// instead of refusing to start.
func (d *DB) LoadChunk(key string) (world.Record, bool, error) {
	var raw []byte
	err := d.db.QueryRow(`SELECT json FROM chunks WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return world.Record{}, false, nil
	}
	if err != nil {
		return world.Record{}, false, fmt.Errorf("load chunk %s: %w", key, err)
	}
	var rec world.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		slog.Warn("corrupt chunk row, treating as absent", "key", key, "err", err)
		return world.Record{}, false, nil
	}
	return rec, true, nil
}

// ListChunkKeys returns every stored chunk key in key order, skipping rows
// whose key fails validation.
func (d *DB) ListChunkKeys() ([]string, error) {
	rows, err := d.db.Query(`SELECT key FROM chunks ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		if _, err := world.ParseChunkKey(k); err != nil {
			slog.Warn("skipping row with invalid chunk key", "key", k)
			continue
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (d *DB) SaveSeed(seed int64) error {
	_, err := d.db.Exec(`INSERT INTO meta(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		seedKey, strconv.FormatInt(seed, 10))
	return err
}

func (d *DB) LoadSeed() (int64, bool, error) {
	var v string
	err := d.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, seedKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	seed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt seed value %q: %w", v, err)
	}
	return seed, true, nil
}
