package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/chat-insight/internal/domain/analysis"
)

// Schema:
//
// CREATE TABLE analysis_history (
//   id            VARCHAR(191) PRIMARY KEY,
//   title         VARCHAR(512)  NOT NULL,
//   conversation_id VARCHAR(191) NOT NULL,
//   time_range    VARCHAR(64)   NOT NULL,
//   analysis_type VARCHAR(32)   NOT NULL,
//   message_count INT           NOT NULL DEFAULT 0,
//   content       LONGTEXT      NOT NULL,
//   artifact_url  VARCHAR(1024) NOT NULL DEFAULT '',
//   created_at    DATETIME(3)   NOT NULL,
//   is_scheduled  TINYINT(1)    NOT NULL DEFAULT 0,
//   KEY idx_created_at (created_at)
// );

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Save inserts a new record. History is immutable, so this is a plain
// INSERT; a duplicate id surfaces as an error instead of an overwrite.
func (r *HistoryRepository) Save(ctx context.Context, rec *domain.HistoryRecord) error {
	const q = `
INSERT INTO analysis_history
(id, title, conversation_id, time_range, analysis_type, message_count, content, artifact_url, created_at, is_scheduled)
VALUES (?,?,?,?,?,?,?,?,?,?);
`
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.Title, rec.ConversationID, rec.TimeRange,
		stringOr(rec.AnalysisType, "custom"), rec.MessageCount,
		rec.Content, rec.ArtifactURL, created, rec.IsScheduled,
	)
	if err != nil {
		return fmt.Errorf("save analysis record %s: %w", rec.ID, err)
	}
	return nil
}

// List returns record metadata newest-first. Content stays out of listings;
// a year of reports would otherwise make this response enormous.
func (r *HistoryRepository) List(ctx context.Context) ([]*domain.HistoryRecord, error) {
	const q = `
SELECT id, title, conversation_id, time_range, analysis_type, message_count, artifact_url, created_at, is_scheduled
FROM analysis_history
ORDER BY created_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		if err := rows.Scan(
			&rec.ID, &rec.Title, &rec.ConversationID, &rec.TimeRange,
			&rec.AnalysisType, &rec.MessageCount, &rec.ArtifactURL,
			&rec.CreatedAt, &rec.IsScheduled,
		); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Get returns one full record including content.
func (r *HistoryRepository) Get(ctx context.Context, id domain.HistoryID) (*domain.HistoryRecord, error) {
	const q = `
SELECT id, title, conversation_id, time_range, analysis_type, message_count, content, artifact_url, created_at, is_scheduled
FROM analysis_history
WHERE id=? LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, id)

	var rec domain.HistoryRecord
	if err := row.Scan(
		&rec.ID, &rec.Title, &rec.ConversationID, &rec.TimeRange,
		&rec.AnalysisType, &rec.MessageCount, &rec.Content, &rec.ArtifactURL,
		&rec.CreatedAt, &rec.IsScheduled,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Delete removes a record permanently. No soft delete.
func (r *HistoryRepository) Delete(ctx context.Context, id domain.HistoryID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM analysis_history WHERE id=?;`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
