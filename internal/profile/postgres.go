package profile

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"edugrant-workers/internal/common/database"
	"edugrant-workers/internal/common/logger"
	"edugrant-workers/internal/models"
)

const cacheKeyPrefix = "profile:"

// PostgresStore reads profiles from Postgres with an optional Redis cache-aside layer.
type PostgresStore struct {
	db     *sql.DB
	redis  *redis.Client
	table  string
	ttl    time.Duration
	logger logger.Logger
}

// NewPostgresStore builds the store. A nil redis client or zero ttl disables caching.
func NewPostgresStore(db *sql.DB, rdb *redis.Client, table string, ttl time.Duration, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, redis: rdb, table: table, ttl: ttl, logger: log}
}

func CacheKey(userID string) string {
	return cacheKeyPrefix + userID
}

func (s *PostgresStore) cacheEnabled() bool {
	return s.redis != nil && s.ttl > 0
}

func (s *PostgresStore) FetchProfile(ctx context.Context, userID string) (models.Profile, error) {
	if s.cacheEnabled() {
		var cached models.Profile
		found, err := database.GetJSON(ctx, s.redis, CacheKey(userID), &cached)
		if err != nil {
			s.logger.Warn("profile cache read failed", map[string]interface{}{"userId": userID, "error": err.Error()})
		}
		if found {
			return cached, nil
		}
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE user_id = $1 LIMIT 1", database.QuoteTable(s.table))
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	records, err := database.ScanMaps(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return models.Profile{}, nil
	}

	profile := models.Profile(records[0])
	if s.cacheEnabled() {
		if err := database.SetJSON(ctx, s.redis, CacheKey(userID), profile, s.ttl); err != nil {
			s.logger.Warn("profile cache write failed", map[string]interface{}{"userId": userID, "error": err.Error()})
		}
	}
	return profile, nil
}
