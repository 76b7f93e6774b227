package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

// PostgresSourceRecordRepository implements ingestion.SourceRecordRepository
// using PostgreSQL.
type PostgresSourceRecordRepository struct {
	db *sql.DB
}

// NewPostgresSourceRecordRepository creates a new PostgreSQL source record
// repository.
func NewPostgresSourceRecordRepository(db *sql.DB) *PostgresSourceRecordRepository {
	return &PostgresSourceRecordRepository{db: db}
}

// ListByEvent retrieves an event's source records in creation order.
func (r *PostgresSourceRecordRepository) ListByEvent(ctx context.Context, eventID string, includeExcluded bool) ([]models.SourceRecord, error) {
	query := `
		SELECT id, event_id, author, posted_at, body, likes, retweets, replies, media, excluded, created_at
		FROM source_records
		WHERE event_id = $1
	`
	if !includeExcluded {
		query += " AND excluded = FALSE"
	}
	query += " ORDER BY created_at, id"

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query source records: %w", err)
	}
	defer rows.Close()

	records := make([]models.SourceRecord, 0)
	for rows.Next() {
		var rec models.SourceRecord
		var likes, retweets, replies string
		var media pq.StringArray

		if err := rows.Scan(
			&rec.ID,
			&rec.EventID,
			&rec.Raw.Author,
			&rec.Raw.Time,
			&rec.Raw.Text,
			&likes,
			&retweets,
			&replies,
			&media,
			&rec.Excluded,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan source record: %w", err)
		}

		rec.Raw.Metrics = models.Metrics{
			Likes:    models.Metric(likes),
			Retweets: models.Metric(retweets),
			Replies:  models.Metric(replies),
		}
		rec.Raw.Media = media
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source records: %w", err)
	}

	return records, nil
}

// MarkExcluded flags the given record ids of one event as excluded. Rows
// already excluded are left alone, so repeating the call changes nothing.
func (r *PostgresSourceRecordRepository) MarkExcluded(ctx context.Context, eventID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE source_records
		SET excluded = TRUE
		WHERE event_id = $1 AND id = ANY($2) AND excluded = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, eventID, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to mark source records excluded: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return int(affected), nil
}
