package sink

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"edugrant-workers/internal/common/database"
	"edugrant-workers/internal/models"
)

// PostgresSink inserts a ranking in a single transaction.
type PostgresSink struct {
	db    *sql.DB
	table string
}

func NewPostgresSink(db *sql.DB, table string) *PostgresSink {
	return &PostgresSink{db: db, table: table}
}

func (s *PostgresSink) PersistResults(ctx context.Context, requesterID string, results []models.ScoredOffer) error {
	if len(results) == 0 {
		return nil
	}
	rows := models.NewRecommendationRecords(requesterID, results, clock())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, scholarship_id, score, created_at)
		VALUES ($1, $2, $3, $4, $5)`, database.QuoteTable(s.table))

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, query, uuid.New().String(), row.UserID, row.OfferID, row.Score, row.CreatedAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert recommendation %s: %w", row.OfferID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit recommendations: %w", err)
	}
	return nil
}
