package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	domain "github.com/bryanwahyu/chat-insight/internal/domain/analysis"
)

// Alternate driver for deployments that already run Postgres. Same contract
// as the mysql repository.
//
// CREATE TABLE analysis_history (
//   id            TEXT PRIMARY KEY,
//   title         TEXT NOT NULL,
//   conversation_id TEXT NOT NULL,
//   time_range    TEXT NOT NULL,
//   analysis_type TEXT NOT NULL,
//   message_count INT  NOT NULL DEFAULT 0,
//   content       TEXT NOT NULL,
//   artifact_url  TEXT NOT NULL DEFAULT '',
//   created_at    TIMESTAMPTZ NOT NULL,
//   is_scheduled  BOOLEAN NOT NULL DEFAULT FALSE
// );
// CREATE INDEX idx_analysis_history_created_at ON analysis_history (created_at DESC);

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}

type HistoryRepository struct{ db *sql.DB }

func NewHistoryRepository(db *sql.DB) *HistoryRepository { return &HistoryRepository{db: db} }

func (r *HistoryRepository) Save(ctx context.Context, rec *domain.HistoryRecord) error {
	const q = `
INSERT INTO analysis_history
(id, title, conversation_id, time_range, analysis_type, message_count, content, artifact_url, created_at, is_scheduled)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`

	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	analysisType := rec.AnalysisType
	if analysisType == "" {
		analysisType = "custom"
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.Title, rec.ConversationID, rec.TimeRange,
		analysisType, rec.MessageCount, rec.Content, rec.ArtifactURL,
		created, rec.IsScheduled,
	)
	if err != nil {
		return fmt.Errorf("save analysis record %s: %w", rec.ID, err)
	}
	return nil
}

func (r *HistoryRepository) List(ctx context.Context) ([]*domain.HistoryRecord, error) {
	const q = `
SELECT id, title, conversation_id, time_range, analysis_type, message_count, artifact_url, created_at, is_scheduled
FROM analysis_history
ORDER BY created_at DESC, id DESC;`

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

func (r *HistoryRepository) Get(ctx context.Context, id domain.HistoryID) (*domain.HistoryRecord, error) {
	const q = `
SELECT id, title, conversation_id, time_range, analysis_type, message_count, content, artifact_url, created_at, is_scheduled
FROM analysis_history
WHERE id=$1 LIMIT 1;`

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

func (r *HistoryRepository) Delete(ctx context.Context, id domain.HistoryID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM analysis_history WHERE id=$1;`, id)
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
