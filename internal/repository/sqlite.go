package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docintel/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS laborers (
	user_id    TEXT NOT NULL,
	laborer_id TEXT NOT NULL,
	doc        TEXT NOT NULL DEFAULT '{}',
	updated_at TEXT NOT NULL,
	PRIMARY KEY (user_id, laborer_id)
);
`

// SQLiteLaborers stores laborer documents as JSON text in an embedded database.
type SQLiteLaborers struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteLaborers(db *sql.DB, logger *slog.Logger) *SQLiteLaborers {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteLaborers{db: db, logger: logger}
}

func (r *SQLiteLaborers) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, sqliteSchema)
	return err
}

func (r *SQLiteLaborers) Get(ctx context.Context, userID, laborerID string) (entity.Document, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT doc FROM laborers WHERE user_id = ? AND laborer_id = ?`, userID, laborerID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeDoc([]byte(raw))
}

func (r *SQLiteLaborers) Merge(ctx context.Context, userID, laborerID string, patch Patch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT doc FROM laborers WHERE user_id = ? AND laborer_id = ?`, userID, laborerID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	merged, err := mergeRaw([]byte(raw), patch)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE laborers SET doc = ?, updated_at = ? WHERE user_id = ? AND laborer_id = ?`,
		string(merged), formatTime(time.Now()), userID, laborerID); err != nil {
		return fmt.Errorf("update laborer: %w", err)
	}
	return tx.Commit()
}

func (r *SQLiteLaborers) Put(ctx context.Context, userID, laborerID string, doc entity.Document) error {
	raw, err := encodeDoc(doc)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO laborers (user_id, laborer_id, doc, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, laborer_id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		userID, laborerID, string(raw), formatTime(time.Now()))
	return err
}

func (r *SQLiteLaborers) List(ctx context.Context, userID string, statuses ...string) ([]*entity.LaborerRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT laborer_id, doc, updated_at FROM laborers WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []row
	for rows.Next() {
		var (
			rw      row
			raw     string
			updated string
		)
		if err := rows.Scan(&rw.laborerID, &raw, &updated); err != nil {
			return nil, err
		}
		rw.raw = []byte(raw)
		rw.updatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		all = append(all, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return toRecords(userID, all, statuses)
}

func (r *SQLiteLaborers) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteLaborers) Close() error {
	return r.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
