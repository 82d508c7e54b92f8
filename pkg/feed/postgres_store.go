package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smilepool/smilepool-executor/pkg/models"
)

// PostgresStore persists the feed in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS profile_photos (
    address TEXT PRIMARY KEY,
    photo_url TEXT NOT NULL,
    best_score BIGINT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS feed_entries (
    id UUID PRIMARY KEY,
    address TEXT NOT NULL,
    photo_url TEXT NOT NULL,
    score BIGINT NOT NULL,
    message TEXT NOT NULL,
    tx_hash TEXT NOT NULL,
    explorer_url TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS feed_entries_created_at_idx ON feed_entries (created_at DESC);
CREATE INDEX IF NOT EXISTS feed_entries_address_idx ON feed_entries (address);
`

// NewPostgresStore connects using the DSN and ensures the tables exist.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, createTablesSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create feed tables: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *PostgresStore) SaveProfilePhoto(ctx context.Context, photo models.ProfilePhoto) error {
	address := normalizeAddress(photo.Address)
	if address == "" {
		return ErrInvalidAddress
	}

	_, err := p.pool.Exec(ctx, `
INSERT INTO profile_photos (address, photo_url, best_score, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (address) DO UPDATE
SET photo_url = EXCLUDED.photo_url,
    best_score = GREATEST(profile_photos.best_score, EXCLUDED.best_score),
    updated_at = EXCLUDED.updated_at
`, address, photo.PhotoURL, photo.BestScore, photo.UpdatedAt)
	return err
}

func (p *PostgresStore) ProfilePhoto(ctx context.Context, address string) (*models.ProfilePhoto, error) {
	row := p.pool.QueryRow(ctx, `
SELECT address, photo_url, best_score, updated_at
FROM profile_photos
WHERE address = $1
`, normalizeAddress(address))

	var photo models.ProfilePhoto
	if err := row.Scan(&photo.Address, &photo.PhotoURL, &photo.BestScore, &photo.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &photo, nil
}

func (p *PostgresStore) ProfilePhotos(ctx context.Context, addresses []string) (map[string]models.ProfilePhoto, error) {
	out := make(map[string]models.ProfilePhoto)
	for _, batch := range chunks(addresses) {
		rows, err := p.pool.Query(ctx, `
SELECT address, photo_url, best_score, updated_at
FROM profile_photos
WHERE address = ANY($1)
`, batch)
		if err != nil {
			return nil, err
		}

		photos, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.ProfilePhoto])
		if err != nil {
			return nil, err
		}
		for _, photo := range photos {
			out[photo.Address] = photo
		}
	}
	return out, nil
}

func (p *PostgresStore) Append(ctx context.Context, entry models.FeedEntry) error {
	address := normalizeAddress(entry.Address)
	if address == "" {
		return ErrInvalidAddress
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	_, err := p.pool.Exec(ctx, `
INSERT INTO feed_entries (id, address, photo_url, score, message, tx_hash, explorer_url, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, entry.ID, address, entry.PhotoURL, entry.Score, entry.Message, entry.TxHash, entry.ExplorerURL, entry.CreatedAt)
	return err
}

func (p *PostgresStore) List(ctx context.Context, filter Filter) ([]models.FeedEntry, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id::text, address, photo_url, score, message, tx_hash, explorer_url, created_at
FROM feed_entries
WHERE ($1 = '' OR address = $1) AND score >= $2
ORDER BY created_at DESC
LIMIT $3
`, normalizeAddress(filter.Address), filter.MinScore, filter.limit())
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[models.FeedEntry])
}
