package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/2beens/marathon/internal/config"
	"github.com/2beens/marathon/internal/db"
	"github.com/2beens/marathon/internal/logging"
	"github.com/2beens/marathon/internal/server"
	"github.com/2beens/marathon/internal/telemetry/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// app holds the connections of one marathonctl invocation.
type app struct {
	config     *config.Config
	pool       *pgxpool.Pool
	redis      *redis.Client
	components *server.Components
}

func openApp(ctx context.Context, flags *globalFlags, dryRun bool) (*app, error) {
	cfg, err := config.Load(flags.env, flags.configPath)
	if err != nil {
		return nil, err
	}

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout:   true,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
		Environment:   cfg.Environment,
	})

	pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBUser:     os.Getenv("MARATHON_DB_USER"),
		DBPassword: os.Getenv("MARATHON_DB_PASS"),
		MaxConns:   int32(cfg.SweepWorkers + 2),
	})
	if err != nil {
		return nil, err
	}
	a := &app{config: cfg, pool: pool}

	if cfg.GuardDriver == config.GuardDriverRedis && !dryRun {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: os.Getenv("MARATHON_REDIS_PASS"),
		})
	}

	a.components, err = server.NewComponents(ctx, server.ComponentsParams{
		Config:  cfg,
		DB:      pool,
		Redis:   a.redis,
		Metrics: metrics.NewManager("marathon", "ctl", prometheus.NewRegistry()),
		DryRun:  dryRun,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build components: %w", err)
	}
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Errorf("close redis client: %s", err)
		}
	}
	a.pool.Close()
}
