package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"clipcast/internal/config"
	"clipcast/internal/faults"
)

const (
	dbFileName       = "state.db"
	snapshotFileName = "state.json"
	lockFileName     = "state.lock"
)

// Store persists the ledger and cursor: SQLite locally, plus a snapshot
// mirrored to durable storage so state survives ephemeral runners.
type Store struct {
	db     *sql.DB
	dir    string
	lock   *flock.Flock
	mirror Mirror
	logger *slog.Logger
}

// Open initializes the local state database and takes a best-effort
// same-host lock on the state directory. The lock does not protect against
// overlapping invocations on different machines; that remains a documented
// limitation of the design.
func Open(cfg *config.Config, mirror Mirror, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := cfg.Paths.StateDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		logger.Warn("state directory lock not acquired; overlapping local runs may duplicate work", "error", err)
		lock = nil
	}

	dbPath := filepath.Join(dir, dbFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, dir: dir, lock: lock, mirror: mirror, logger: logger}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) applySchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS ledger (
            id TEXT PRIMARY KEY,
            name TEXT,
            uploaded_at TEXT
        )`,
		`CREATE TABLE IF NOT EXISTS cursor (
            id INTEGER PRIMARY KEY CHECK (id = 1),
            next_index INTEGER NOT NULL DEFAULT 0
        )`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Close releases the database and the directory lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the persisted ledger and cursor. A local database that has
// never been written, meaning no ledger entries and no cursor row, is seeded
// from the remote snapshot when one exists (fresh runners start with no
// local disk). A cursor row alone marks the local state authoritative: the
// rotation policy keeps the ledger empty, and the local cursor may be ahead
// of the mirror after a sync failure. Missing or corrupt state on both sides
// degrades to empty defaults with a warning; relaying everything again is
// preferred over crashing.
func (s *Store) Load(ctx context.Context) (*Ledger, Cursor) {
	ledger, cursor, hasCursor, err := s.loadLocal(ctx)
	if err != nil {
		s.logger.Warn("local state unreadable; continuing with empty ledger", "error", err)
		ledger, cursor, hasCursor = NewLedger(), Cursor{}, false
	}

	if ledger.Len() == 0 && !hasCursor && s.mirror != nil {
		remote, found, err := s.mirror.Fetch(ctx)
		if err != nil {
			s.logger.Warn("remote state fetch failed; continuing with local state", "error", err)
			return ledger, cursor
		}
		if !found {
			return ledger, cursor
		}
		restored, restoredCursor, err := DecodeSnapshot(remote)
		if err != nil {
			s.logger.Warn("remote state snapshot corrupt; continuing with empty ledger", "error", err)
			return ledger, cursor
		}
		if err := s.writeLocal(ctx, restored, restoredCursor); err != nil {
			s.logger.Warn("seeding local state from remote snapshot failed", "error", err)
		}
		s.logger.Info("state restored from remote snapshot", "entries", restored.Len())
		return restored, restoredCursor
	}

	return ledger, cursor
}

// Save writes local state and then synchronizes it to the remote mirror.
// Local write failures are returned as hard errors. A mirror failure is
// returned classified as a state-sync fault: the relay already succeeded, so
// the caller logs it as a durability risk rather than failing the run.
func (s *Store) Save(ctx context.Context, ledger *Ledger, cursor Cursor) error {
	if err := s.writeLocal(ctx, ledger, cursor); err != nil {
		return err
	}

	data, err := EncodeSnapshot(ledger, cursor)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, snapshotFileName), data, 0o644); err != nil {
		return fmt.Errorf("write local snapshot: %w", err)
	}

	if s.mirror == nil {
		s.logger.Warn("no remote state mirror configured; state will not survive an ephemeral runner")
		return nil
	}
	if err := s.mirror.Store(ctx, data); err != nil {
		return faults.Wrap(faults.StateSync, err)
	}
	return nil
}

func (s *Store) loadLocal(ctx context.Context) (*Ledger, Cursor, bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, uploaded_at FROM ledger ORDER BY rowid`)
	if err != nil {
		return nil, Cursor{}, false, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	ledger := NewLedger()
	for rows.Next() {
		var id string
		var name, uploadedAt sql.NullString
		if err := rows.Scan(&id, &name, &uploadedAt); err != nil {
			return nil, Cursor{}, false, fmt.Errorf("scan ledger row: %w", err)
		}
		at := time.Time{}
		if uploadedAt.Valid {
			if parsed, parseErr := time.Parse(time.RFC3339Nano, uploadedAt.String); parseErr == nil {
				at = parsed
			}
		}
		ledger.Record(id, name.String, at)
	}
	if err := rows.Err(); err != nil {
		return nil, Cursor{}, false, fmt.Errorf("iterate ledger rows: %w", err)
	}

	var cursor Cursor
	hasCursor := true
	err = s.db.QueryRowContext(ctx, `SELECT next_index FROM cursor WHERE id = 1`).Scan(&cursor.NextIndex)
	if errors.Is(err, sql.ErrNoRows) {
		hasCursor = false
	} else if err != nil {
		return nil, Cursor{}, false, fmt.Errorf("query cursor: %w", err)
	}
	return ledger, cursor, hasCursor, nil
}

func (s *Store) writeLocal(ctx context.Context, ledger *Ledger, cursor Cursor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin state tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, entry := range ledger.Entries() {
		_, err := tx.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO ledger (id, name, uploaded_at) VALUES (?, ?, ?)`,
			entry.ID,
			entry.Name,
			entry.UploadedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO cursor (id, next_index) VALUES (1, ?)
         ON CONFLICT(id) DO UPDATE SET next_index = excluded.next_index`,
		cursor.NextIndex,
	)
	if err != nil {
		return fmt.Errorf("upsert cursor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit state tx: %w", err)
	}
	return nil
}
