package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createCollectionTableSQL = `
CREATE TABLE IF NOT EXISTS collection
(
    name       VARCHAR PRIMARY KEY,
    document   JSONB       NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// PsqlBackend keeps every collection as a single JSONB row of the collection table
type PsqlBackend struct {
	db *pgxpool.Pool
}

func NewPsqlBackend(db *pgxpool.Pool) *PsqlBackend {
	return &PsqlBackend{
		db: db,
	}
}

func (b *PsqlBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.Exec(ctx, createCollectionTableSQL); err != nil {
		return fmt.Errorf("create collection table: %w", err)
	}
	return nil
}

func (b *PsqlBackend) Read(ctx context.Context, name string) ([]byte, error) {
	var document string
	err := b.db.QueryRow(
		ctx,
		`SELECT document::text FROM collection WHERE name = $1;`,
		name,
	).Scan(&document)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCollectionNotExist
	}
	if err != nil {
		return nil, err
	}
	return []byte(document), nil
}

func (b *PsqlBackend) Write(ctx context.Context, name string, data []byte) error {
	_, err := b.db.Exec(
		ctx,
		`
			INSERT INTO collection (name, document, updated_at)
			VALUES ($1, $2::jsonb, now())
			ON CONFLICT (name) DO UPDATE
				SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at;`,
		name, string(data),
	)
	return err
}
