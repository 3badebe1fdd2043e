package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oziev02/ResponsiveImages/internal/domain"
)

// RecordRepository stores data records keyed by name.
//
// Put is all-or-nothing: without force, a batch containing any existing key
// fails with ErrKeyAlreadyExists and nothing is written. With force, an
// existing record is replaced and the record count does not change.
type RecordRepository interface {
	Exists(ctx context.Context, name string) (bool, error)
	Get(ctx context.Context, name string) (*domain.Record, error)
	List(ctx context.Context) ([]domain.Record, error)
	Put(ctx context.Context, records []domain.Record, force bool) error
}

type imageRepo struct {
	db *pgxpool.Pool
}

// NewImageRepository returns a record store backed by the image_records table.
func NewImageRepository(db *pgxpool.Pool) RecordRepository {
	return &imageRepo{db: db}
}

func (r *imageRepo) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM image_records WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, domain.Wrap(domain.KindMetadataIO, "exists", name, fmt.Errorf("failed to check record: %w", err))
	}
	return exists, nil
}

func (r *imageRepo) Get(ctx context.Context, name string) (*domain.Record, error) {
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT data FROM image_records WHERE name = $1`, name).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, domain.Wrap(domain.KindMetadataIO, "get", name, fmt.Errorf("failed to get record: %w", err))
	}

	var record domain.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, domain.Wrap(domain.KindMetadataIO, "get", name, fmt.Errorf("failed to decode record: %w", err))
	}
	return &record, nil
}

func (r *imageRepo) List(ctx context.Context) ([]domain.Record, error) {
	rows, err := r.db.Query(ctx, `SELECT data FROM image_records ORDER BY created_at, name`)
	if err != nil {
		return nil, domain.Wrap(domain.KindMetadataIO, "list", "", fmt.Errorf("failed to list records: %w", err))
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, domain.Wrap(domain.KindMetadataIO, "list", "", fmt.Errorf("failed to scan record: %w", err))
		}
		var record domain.Record
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, domain.Wrap(domain.KindMetadataIO, "list", "", fmt.Errorf("failed to decode record: %w", err))
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.Wrap(domain.KindMetadataIO, "list", "", fmt.Errorf("failed to iterate records: %w", err))
	}

	return records, nil
}

func (r *imageRepo) Put(ctx context.Context, records []domain.Record, force bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Wrap(domain.KindMetadataIO, "put", "", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return domain.Wrap(domain.KindMetadataIO, "put", record.Name, fmt.Errorf("failed to encode record: %w", err))
		}

		if force {
			_, err = tx.Exec(ctx, `
				INSERT INTO image_records (name, data, created_at, updated_at)
				VALUES ($1, $2, NOW(), NOW())
				ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
			`, record.Name, data)
			if err != nil {
				return domain.Wrap(domain.KindMetadataIO, "put", record.Name, fmt.Errorf("failed to upsert record: %w", err))
			}
			continue
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO image_records (name, data, created_at, updated_at)
			VALUES ($1, $2, NOW(), NOW())
			ON CONFLICT (name) DO NOTHING
		`, record.Name, data)
		if err != nil {
			return domain.Wrap(domain.KindMetadataIO, "put", record.Name, fmt.Errorf("failed to insert record: %w", err))
		}
		if tag.RowsAffected() == 0 {
			return domain.Wrap(domain.KindCollision, "put", record.Name, domain.ErrKeyAlreadyExists)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Wrap(domain.KindMetadataIO, "put", "", fmt.Errorf("failed to commit records: %w", err))
	}
	return nil
}
