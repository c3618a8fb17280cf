// Package indexdb keeps save slots and a queryable save/edit history in a
// local SQLite database.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"topdown.ai/internal/sim/catalogs"
	"topdown.ai/internal/sim/tuning"
	"topdown.ai/internal/sim/world/feature/editor"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropSave atomic.Uint64
	dropEdit atomic.Uint64
}

type reqKind int

const (
	reqSave reqKind = iota + 1
	reqEdit
)

type req struct {
	kind reqKind

	save SaveRecord
	edit editor.EditEntry
}

// SaveRecord is one row of save history.
type SaveRecord struct {
	WorldID    string
	Target     string // slot key or file path
	Digest     string
	Version    int
	Chunks     int
	Bytes      int
	RecordedAt string
}

// SlotInfo describes a stored slot without its payload.
type SlotInfo struct {
	Key       string
	Digest    string
	Bytes     int
	UpdatedAt string
}

type QueueStats struct {
	DropSaveTotal uint64
	DropEditTotal uint64
	QueueDepth    int
	QueueCapacity int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
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

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
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
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS slots (
			key TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			bytes INTEGER NOT NULL,
			data BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS saves (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			world_id TEXT NOT NULL,
			target TEXT NOT NULL,
			digest TEXT NOT NULL,
			version INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			bytes INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_saves_world ON saves(world_id, seq);`,
		`CREATE TABLE IF NOT EXISTS edits (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			world_id TEXT NOT NULL,
			game_time REAL NOT NULL,
			mode TEXT NOT NULL,
			tile TEXT NOT NULL,
			from_x INTEGER NOT NULL,
			from_y INTEGER NOT NULL,
			to_x INTEGER NOT NULL,
			to_y INTEGER NOT NULL,
			tiles INTEGER NOT NULL,
			changed INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_edits_pos ON edits(to_x, to_y);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func Digest(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func nowString() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// PutSlot stores raw under key, replacing any previous value.
func (s *SQLiteIndex) PutSlot(ctx context.Context, key string, raw []byte) error {
	if key == "" {
		return fmt.Errorf("empty slot key")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO slots(key,digest,bytes,data,updated_at) VALUES(?,?,?,?,?)`,
		key, Digest(raw), len(raw), raw, nowString())
	if err != nil {
		return fmt.Errorf("put slot %q: %w", key, err)
	}
	return nil
}

// GetSlot returns ok=false when key has never been stored.
func (s *SQLiteIndex) GetSlot(ctx context.Context, key string) ([]byte, bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM slots WHERE key=?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get slot %q: %w", key, err)
	}
	return raw, true, nil
}

func (s *SQLiteIndex) ListSlots(ctx context.Context) ([]string, error) {
	infos, err := s.SlotInfos(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(infos))
	for _, in := range infos {
		out = append(out, in.Key)
	}
	return out, nil
}

// SlotInfos lists slots ordered by key.
func (s *SQLiteIndex) SlotInfos(ctx context.Context) ([]SlotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key,digest,bytes,updated_at FROM slots ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SlotInfo
	for rows.Next() {
		var in SlotInfo
		if err := rows.Scan(&in.Key, &in.Digest, &in.Bytes, &in.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) DeleteSlot(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE key=?`, key)
	return err
}

// RecordSave queues a history row. It never blocks; rows are dropped if the
// writer falls behind.
func (s *SQLiteIndex) RecordSave(r SaveRecord) {
	if s == nil || s.closed.Load() {
		return
	}
	if r.RecordedAt == "" {
		r.RecordedAt = nowString()
	}
	select {
	case s.ch <- req{kind: reqSave, save: r}:
	default:
		s.dropSave.Add(1)
	}
}

// WriteEdit queues a stroke for the edits table.
func (s *SQLiteIndex) WriteEdit(e editor.EditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqEdit, edit: e}:
	default:
		// The JSONL journal stays the source of truth.
		s.dropEdit.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() QueueStats {
	return QueueStats{
		DropSaveTotal: s.dropSave.Load(),
		DropEditTotal: s.dropEdit.Load(),
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
	}
}

// SaveHistory returns the newest history rows for worldID, newest first.
func (s *SQLiteIndex) SaveHistory(ctx context.Context, worldID string, limit int) ([]SaveRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT world_id,target,digest,version,chunks,bytes,recorded_at FROM saves WHERE world_id=? ORDER BY seq DESC LIMIT ?`,
		worldID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SaveRecord
	for rows.Next() {
		var r SaveRecord
		if err := rows.Scan(&r.WorldID, &r.Target, &r.Digest, &r.Version, &r.Chunks, &r.Bytes, &r.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertCatalogs records the tile registry and tuning in effect.
func (s *SQLiteIndex) UpsertCatalogs(ctx context.Context, tiles *catalogs.TileCatalog, tune tuning.Tuning) error {
	now := nowString()

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if tiles != nil {
		defs := make([]catalogs.TileDef, 0, len(tiles.Names))
		for _, name := range tiles.Names {
			defs = append(defs, tiles.Defs[name])
		}
		if b, err := json.Marshal(defs); err == nil {
			rows = append(rows, kv{name: "tiles", digest: tiles.Digest, json: b})
		}
	}
	if b, err := json.Marshal(tune); err == nil {
		rows = append(rows, kv{name: "tuning", digest: Digest(b), json: b})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertSave, _ := s.db.Prepare(`INSERT INTO saves(world_id,target,digest,version,chunks,bytes,recorded_at) VALUES(?,?,?,?,?,?,?)`)
	insertEdit, _ := s.db.Prepare(`INSERT INTO edits(world_id,game_time,mode,tile,from_x,from_y,to_x,to_y,tiles,changed) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertSave != nil {
			_ = insertSave.Close()
		}
		if insertEdit != nil {
			_ = insertEdit.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	// The pool has a single connection, so an idle open tx would starve slot
	// reads; commit whenever the queue drains.
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if len(s.ch) == 0 || opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqSave:
			sv := r.save
			if insertSave != nil {
				if _, err := tx.Stmt(insertSave).Exec(sv.WorldID, sv.Target, sv.Digest, sv.Version, sv.Chunks, sv.Bytes, sv.RecordedAt); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqEdit:
			e := r.edit
			if insertEdit != nil {
				if _, err := tx.Stmt(insertEdit).Exec(
					e.World,
					e.Time,
					e.Mode,
					e.Tile,
					e.From.X, e.From.Y,
					e.To.X, e.To.Y,
					e.Tiles,
					e.Changed,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
