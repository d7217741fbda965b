// cmd/worker-manager/wiring.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"edugrant-workers/internal/api"
	"edugrant-workers/internal/catalog"
	"edugrant-workers/internal/common/aws"
	"edugrant-workers/internal/common/config"
	"edugrant-workers/internal/common/database"
	"edugrant-workers/internal/common/logger"
	"edugrant-workers/internal/common/supabase"
	"edugrant-workers/internal/profile"
	"edugrant-workers/internal/scoring"
	"edugrant-workers/internal/sink"
	"edugrant-workers/pkg/registry"
)

// dependencies holds the backing clients a configuration asks for; unused ones stay nil.
type dependencies struct {
	pg       *database.PostgresClient
	redis    *database.RedisClient
	es       *database.ElasticsearchClient
	supabase *supabase.Client
}

func connectDependencies(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (*dependencies, error) {
	deps := &dependencies{}

	if cfg.UsesPostgres() {
		err := retryWithBackoff(func() error {
			var err error
			deps.pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return deps.pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		zapLog.Info("PostgreSQL connected successfully")
	}

	if cfg.Catalog.Driver == "elasticsearch" {
		err := retryWithBackoff(func() error {
			var err error
			deps.es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return deps.es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			deps.Close()
			return nil, err
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	if cfg.UsesRedis() {
		err := retryWithBackoff(func() error {
			var err error
			deps.redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return deps.redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			deps.Close()
			return nil, err
		}
		zapLog.Info("Redis connected successfully")
	}

	if cfg.UsesSupabase() {
		deps.supabase = supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.Key, config.GetDuration(cfg.Supabase.Timeout))
	}

	return deps, nil
}

func (d *dependencies) Close() {
	if d.pg != nil {
		_ = d.pg.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
}

func (d *dependencies) redisClient() *redis.Client {
	if d.redis == nil {
		return nil
	}
	return d.redis.Client
}

func (d *dependencies) registerReadiness(server *api.Server) {
	if d.pg != nil {
		server.AddReadinessCheck("postgres", d.pg.Ping)
	}
	if d.redis != nil {
		server.AddReadinessCheck("redis", d.redis.Ping)
	}
	if d.es != nil {
		server.AddReadinessCheck("elasticsearch", d.es.Ping)
	}
}

// buildCatalog puts the configured source first and the local CSV file last, optionally
// behind the Redis cache.
func buildCatalog(cfg *config.Config, deps *dependencies, log logger.Logger) catalog.Source {
	local := catalog.NewCSVSource(cfg.Catalog.FallbackCSV)

	var src catalog.Source
	switch cfg.Catalog.Driver {
	case "postgres":
		src = catalog.NewFallbackSource(log).
			Add("postgres", catalog.NewPostgresSource(deps.pg.DB, cfg.Catalog.Table)).
			Add("csv", local)
	case "elasticsearch":
		src = catalog.NewFallbackSource(log).
			Add("elasticsearch", catalog.NewElasticsearchSource(deps.es.Client, cfg.Database.Elasticsearch.Index)).
			Add("csv", local)
	case "rest":
		src = catalog.NewFallbackSource(log).
			Add("rest", catalog.NewRESTSource(deps.supabase, cfg.Catalog.Table)).
			Add("csv", local)
	default:
		src = local
	}

	if cfg.Catalog.CacheEnabled && deps.redis != nil {
		src = catalog.NewCachedSource(src, deps.redis.Client, time.Duration(cfg.Catalog.CacheTTL)*time.Second, log)
	}
	return src
}

func buildProfileStore(cfg *config.Config, deps *dependencies, log logger.Logger) profile.Store {
	switch cfg.Profiles.Driver {
	case "rest":
		if deps.supabase == nil {
			return nil
		}
		return profile.NewRESTStore(deps.supabase, cfg.Profiles.Table)
	default:
		if deps.pg == nil {
			return nil
		}
		return profile.NewPostgresStore(deps.pg.DB, deps.redisClient(), cfg.Profiles.Table, time.Duration(cfg.Profiles.CacheTTL)*time.Second, log)
	}
}

func buildSink(ctx context.Context, cfg *config.Config, deps *dependencies) (sink.Sink, error) {
	var out sink.Sink
	switch cfg.Sink.Driver {
	case "postgres":
		out = sink.NewPostgresSink(deps.pg.DB, cfg.Sink.Table)
	case "rest":
		out = sink.NewRESTSink(deps.supabase, cfg.Sink.Table)
	case "sns":
		client, err := aws.NewSNSClient(ctx, cfg.Sink.Region)
		if err != nil {
			return nil, fmt.Errorf("create sns client: %w", err)
		}
		out = sink.NewSNSSink(client, cfg.Sink.TopicARN)
	default:
		out = sink.NopSink{}
	}
	return sink.WithMetrics(cfg.Sink.Driver, out), nil
}

// buildArtifactSource loads the artifact eagerly so its availability shows up in the
// startup logs; a failure is cached and every request uses the heuristic.
func buildArtifactSource(cfg *config.Config, zapLog *zap.Logger) scoring.ArtifactSource {
	if cfg.Model.Path == "" {
		zapLog.Info("no model artifact configured, using heuristic scorer")
		return scoring.StaticArtifact{}
	}

	loader := scoring.NewArtifactLoader(cfg.Model.Path)
	if _, err := loader.Load(); err != nil {
		zapLog.Warn("model artifact unavailable, using heuristic scorer",
			zap.String("path", cfg.Model.Path),
			zap.Error(err),
		)
	} else {
		zapLog.Info("model artifact loaded", zap.String("path", cfg.Model.Path))
	}
	return loader
}

// registeredActivity reports whether taskType is declared ready in the activity registry.
// A missing or unreadable registry does not block the worker.
func registeredActivity(path, taskType string, zapLog *zap.Logger) bool {
	reg, err := registry.LoadRegistry(path)
	if err == nil {
		err = reg.Validate()
	}
	if err != nil {
		zapLog.Warn("activity registry unavailable", zap.String("path", path), zap.Error(err))
		return true
	}

	activity, ok := reg.Find(taskType)
	if !ok {
		zapLog.Warn("task type not declared in activity registry", zap.String("taskType", taskType))
		return false
	}
	if !activity.Ready() {
		zapLog.Warn("activity not ready",
			zap.String("taskType", taskType),
			zap.String("status", activity.ImplementationStatus))
		return false
	}
	zapLog.Info("activity registered",
		zap.String("taskType", taskType),
		zap.String("version", activity.Version),
		zap.Strings("errorCodes", activity.ErrorCodes))
	return true
}
