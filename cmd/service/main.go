package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/2beens/marathon/internal/config"
	"github.com/2beens/marathon/internal/logging"
	"github.com/2beens/marathon/internal/server"

	log "github.com/sirupsen/logrus"
)

// secrets are never kept in config.toml, they come from the environment.
type secrets struct {
	apiTokenHash     string
	dbUser           string
	dbPassword       string
	redisPassword    string
	sentryDSN        string
	honeycombEnabled bool
}

func secretsFromEnv() secrets {
	sec := secrets{
		apiTokenHash:     os.Getenv("MARATHON_API_TOKEN_HASH"),
		dbUser:           os.Getenv("MARATHON_DB_USER"),
		dbPassword:       os.Getenv("MARATHON_DB_PASS"),
		redisPassword:    os.Getenv("MARATHON_REDIS_PASS"),
		sentryDSN:        os.Getenv("SENTRY_DSN"),
		honeycombEnabled: os.Getenv("HONEYCOMB_ENABLED") == "true",
	}

	if sec.apiTokenHash == "" {
		log.Errorln("MARATHON_API_TOKEN_HASH not set, protected routes answer 401")
	}
	if sec.redisPassword == "" {
		log.Warnln("MARATHON_REDIS_PASS not set")
	}
	if sec.honeycombEnabled && os.Getenv("HONEYCOMB_API_KEY") == "" {
		log.Warnln("honeycomb enabled, but HONEYCOMB_API_KEY not set")
	}
	return sec
}

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	sec := secretsFromEnv()
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sec.sentryDSN,
		SentryServerName: "marathon-service",
	})
	log.Infof("marathon service, env [%s], guard [%s], delivery [%s]", *env, cfg.GuardDriver, cfg.DeliveryDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := server.NewServer(ctx, server.NewServerParams{
		Config:                  cfg,
		ApiTokenHash:            sec.apiTokenHash,
		DBUser:                  sec.dbUser,
		DBPassword:              sec.dbPassword,
		RedisPassword:           sec.redisPassword,
		HoneycombTracingEnabled: sec.honeycombEnabled,
	})
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	s.Serve(cfg.Host, cfg.Port)

	<-ctx.Done()
	log.Warnln("shutdown signal received")
	s.GracefulShutdown()
}
