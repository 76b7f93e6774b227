package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

// PostgresEventRepository implements ingestion.EventRepository using
// PostgreSQL.
type PostgresEventRepository struct {
	db *sql.DB
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// Create inserts a new event and its source records in one transaction.
func (r *PostgresEventRepository) Create(ctx context.Context, event models.Event, records []models.SourceRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO events (id, title, subtitle, article, score, media, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = tx.ExecContext(ctx, query,
		event.ID,
		event.Title,
		event.Subtitle,
		event.Article,
		event.Score,
		event.Media,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	if err := insertSourceRecords(ctx, tx, records); err != nil {
		return err
	}

	return tx.Commit()
}

func insertSourceRecords(ctx context.Context, tx *sql.Tx, records []models.SourceRecord) error {
	query := `
		INSERT INTO source_records (id, event_id, author, posted_at, body, likes, retweets, replies, media, excluded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, rec := range records {
		_, err := tx.ExecContext(ctx, query,
			rec.ID,
			rec.EventID,
			rec.Raw.Author,
			rec.Raw.Time,
			rec.Raw.Text,
			string(rec.Raw.Metrics.Likes),
			string(rec.Raw.Metrics.Retweets),
			string(rec.Raw.Metrics.Replies),
			pq.Array(rec.Raw.Media),
			rec.Excluded,
			rec.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert source record %s: %w", rec.ID, err)
		}
	}

	return nil
}

// GetByID retrieves an event by its ID, or nil when it does not exist.
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `
		SELECT id, title, subtitle, article, score, media, created_at, updated_at
		FROM events
		WHERE id = $1
	`

	var event models.Event
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.Subtitle,
		&event.Article,
		&event.Score,
		&event.Media,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query event: %w", err)
	}

	return &event, nil
}

// UpdateContent overwrites the mutable content fields of an event as one
// atomic update.
func (r *PostgresEventRepository) UpdateContent(ctx context.Context, event models.Event) error {
	query := `
		UPDATE events
		SET title = $2, subtitle = $3, article = $4, score = $5, media = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Title,
		event.Subtitle,
		event.Article,
		event.Score,
		event.Media,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("event %s not found", event.ID)
	}

	return nil
}

// List retrieves events newest-first.
func (r *PostgresEventRepository) List(ctx context.Context, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, title, subtitle, article, score, media, created_at, updated_at
		FROM events
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Subtitle,
			&event.Article,
			&event.Score,
			&event.Media,
			&event.CreatedAt,
			&event.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}
