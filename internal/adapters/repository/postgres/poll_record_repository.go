package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/dood/internal/core/domain"
	"github.com/vncsmyrnk/dood/internal/core/ports"
)

type pollRecordRepository struct {
	db *sql.DB
}

func NewPollRecordRepository(db *sql.DB) ports.PollRecordRepository {
	return &pollRecordRepository{
		db: db,
	}
}

func (r *pollRecordRepository) Save(ctx context.Context, record *domain.PollRecord) error {
	query := `
		INSERT INTO poll_records (id, poll_id, title, type, location, admin_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (poll_id) DO UPDATE
		SET admin_key = EXCLUDED.admin_key,
		    location = EXCLUDED.location
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.PollID, record.Title, record.Type, record.Location, record.AdminKey, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save poll record: %w", err)
	}
	return nil
}

func (r *pollRecordRepository) GetByPollID(ctx context.Context, pollID string) (*domain.PollRecord, error) {
	query := `
		SELECT id, poll_id, title, type, location, admin_key, created_at
		FROM poll_records
		WHERE poll_id = $1
	`

	var record domain.PollRecord
	err := r.db.QueryRowContext(ctx, query, pollID).Scan(
		&record.ID, &record.PollID, &record.Title, &record.Type, &record.Location, &record.AdminKey, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll record: %w", err)
	}
	return &record, nil
}

func (r *pollRecordRepository) List(ctx context.Context, limit, offset int) ([]*domain.PollRecord, error) {
	query := `
		SELECT id, poll_id, title, type, location, admin_key, created_at
		FROM poll_records
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list poll records: %w", err)
	}
	defer rows.Close()

	var records []*domain.PollRecord
	for rows.Next() {
		var record domain.PollRecord
		if err := rows.Scan(
			&record.ID, &record.PollID, &record.Title, &record.Type, &record.Location, &record.AdminKey, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan poll record: %w", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating poll records: %w", err)
	}
	return records, nil
}
