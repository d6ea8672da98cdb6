// Package store provides the resolution history ledger and the metadata
// lookup cache.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"tracksnag/internal/core"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS resolutions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	track_id      TEXT NOT NULL,
	title         TEXT NOT NULL,
	artist        TEXT NOT NULL,
	status        TEXT NOT NULL,
	artifact_path TEXT NOT NULL DEFAULT '',
	failure_kind  TEXT NOT NULL DEFAULT '',
	attempts      INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_resolutions_created_at ON resolutions (created_at DESC);
`

// History is an append-only SQLite ledger of resolution outcomes. It
// implements core.HistoryStore.
type History struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenHistory opens (and if needed creates) the ledger at path.
func OpenHistory(path string, logger *zap.Logger) (*History, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids busy errors
	// under concurrent resolves.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	logger.Debug("History ledger opened", zap.String("path", path))

	return &History{
		db:     db,
		logger: logger,
	}, nil
}

func (h *History) Record(ctx context.Context, entry core.HistoryEntry) error {
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO resolutions (track_id, title, artist, status, artifact_path, failure_kind, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.TrackID,
		entry.Title,
		entry.Artist,
		entry.Status,
		entry.ArtifactPath,
		entry.FailureKind,
		entry.Attempts,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record resolution: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]core.HistoryEntry, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT track_id, title, artist, status, artifact_path, failure_kind, attempts, created_at
		FROM resolutions
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []core.HistoryEntry
	for rows.Next() {
		var entry core.HistoryEntry
		if err := rows.Scan(
			&entry.TrackID,
			&entry.Title,
			&entry.Artist,
			&entry.Status,
			&entry.ArtifactPath,
			&entry.FailureKind,
			&entry.Attempts,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}

	return entries, nil
}

func (h *History) Close() error {
	return h.db.Close()
}
