package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/docintel/internal/entity"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS laborers (
	user_id    TEXT        NOT NULL,
	laborer_id TEXT        NOT NULL,
	doc        JSONB       NOT NULL DEFAULT '{}'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, laborer_id)
);
CREATE INDEX IF NOT EXISTS laborers_w9_status_idx ON laborers (user_id, (doc->>'w9OcrStatus'));
`

// PostgresLaborers stores laborer documents as JSONB rows.
type PostgresLaborers struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresLaborers(pool *pgxpool.Pool, logger *slog.Logger) *PostgresLaborers {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLaborers{pool: pool, logger: logger}
}

func (r *PostgresLaborers) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, postgresSchema)
	return err
}

func (r *PostgresLaborers) Get(ctx context.Context, userID, laborerID string) (entity.Document, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT doc FROM laborers WHERE user_id = $1 AND laborer_id = $2`, userID, laborerID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeDoc(raw)
}

// Merge locks the row, applies the patch and writes it back in one transaction.
func (r *PostgresLaborers) Merge(ctx context.Context, userID, laborerID string, patch Patch) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var raw []byte
	err = tx.QueryRow(ctx,
		`SELECT doc FROM laborers WHERE user_id = $1 AND laborer_id = $2 FOR UPDATE`, userID, laborerID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	merged, err := mergeRaw(raw, patch)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE laborers SET doc = $3, updated_at = $4 WHERE user_id = $1 AND laborer_id = $2`,
		userID, laborerID, merged, time.Now().UTC()); err != nil {
		return fmt.Errorf("update laborer: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *PostgresLaborers) Put(ctx context.Context, userID, laborerID string, doc entity.Document) error {
	raw, err := encodeDoc(doc)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO laborers (user_id, laborer_id, doc, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, laborer_id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		userID, laborerID, raw, time.Now().UTC())
	return err
}

func (r *PostgresLaborers) List(ctx context.Context, userID string, statuses ...string) ([]*entity.LaborerRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT laborer_id, doc, updated_at FROM laborers WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []row
	for rows.Next() {
		var rw row
		if err := rows.Scan(&rw.laborerID, &rw.raw, &rw.updatedAt); err != nil {
			return nil, err
		}
		all = append(all, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return toRecords(userID, all, statuses)
}

func (r *PostgresLaborers) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresLaborers) Close() error {
	r.logger.Info("closing database connections")
	r.pool.Close()
	return nil
}
