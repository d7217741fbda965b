package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"edugrant-workers/internal/common/database"
	"edugrant-workers/internal/models"
)

type PostgresSource struct {
	db    *sql.DB
	table string
}

func NewPostgresSource(db *sql.DB, table string) *PostgresSource {
	return &PostgresSource{db: db, table: table}
}

func (s *PostgresSource) FetchCatalog(ctx context.Context) ([]models.Offer, error) {
	query := fmt.Sprintf("SELECT * FROM %s", database.QuoteTable(s.table))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	records, err := database.ScanMaps(rows)
	if err != nil {
		return nil, err
	}
	return toOffers(records), nil
}
