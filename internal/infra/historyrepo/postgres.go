package historyrepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/adlens/internal/domain/analysis"
)

// PostgresRepository persists analysis history in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Insert(ctx context.Context, item analysis.HistoryItem) error {
	result, err := json.Marshal(item.Result)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO analysis_history (id, user_id, image_url, prompt, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, item.ID, item.UserID, item.ImageURL, item.Prompt, result, item.CreatedAt)
	return err
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]analysis.HistoryItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, image_url, prompt, result, created_at
		FROM analysis_history
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []analysis.HistoryItem
	for rows.Next() {
		item, err := scanHistoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID, userID int64) (analysis.HistoryItem, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, image_url, prompt, result, created_at
		FROM analysis_history
		WHERE id = $1 AND user_id = $2
		LIMIT 1
	`, id, userID)
	item, err := scanHistoryItem(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return analysis.HistoryItem{}, false, nil
		}
		return analysis.HistoryItem{}, false, err
	}
	return item, true, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID, userID int64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM analysis_history
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	return err
}

func (r *PostgresRepository) CountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM analysis_history
		WHERE user_id = $1 AND created_at >= $2
	`, userID, since)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

var _ analysis.HistoryRepository = (*PostgresRepository)(nil)

func scanHistoryItem(row pgx.Row) (analysis.HistoryItem, error) {
	var (
		item    analysis.HistoryItem
		rawJSON []byte
	)
	if err := row.Scan(&item.ID, &item.UserID, &item.ImageURL, &item.Prompt, &rawJSON, &item.CreatedAt); err != nil {
		return analysis.HistoryItem{}, err
	}
	item.Result = analysis.NewResult()
	if err := json.Unmarshal(rawJSON, &item.Result); err != nil {
		return analysis.HistoryItem{}, err
	}
	return item, nil
}
