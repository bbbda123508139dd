package server

import (
	"context"
	"fmt"

	"github.com/2beens/marathon/internal/config"
	"github.com/2beens/marathon/internal/decay"
	"github.com/2beens/marathon/internal/delivery"
	"github.com/2beens/marathon/internal/guard"
	"github.com/2beens/marathon/internal/marathon"
	"github.com/2beens/marathon/internal/progress"
	"github.com/2beens/marathon/internal/sweep"
	"github.com/2beens/marathon/internal/telemetry/metrics"
	"github.com/2beens/marathon/internal/templates"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Components are the parts of the engine shared by the service and marathonctl.
type Components struct {
	Marathons *marathon.Repo
	Progress  *progress.Repo
	Tracker   *progress.Tracker
	Templates *templates.Store
	Guard     guard.Guard
	Gateway   delivery.Gateway
	Runner    *sweep.Runner
}

type ComponentsParams struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Metrics *metrics.Manager
	// DryRun keeps claims in memory and only logs messages
	DryRun bool
}

func NewComponents(ctx context.Context, params ComponentsParams) (*Components, error) {
	cfg := params.Config
	marathons := marathon.NewRepo(params.DB)
	progressRepo := progress.NewRepo(params.DB)
	templateStore := templates.NewStore(templates.NewRepo(params.DB), cfg.TemplateCacheMB)

	var (
		g       guard.Guard
		gateway delivery.Gateway
		err     error
	)
	if params.DryRun {
		g = guard.NewMemoryGuard()
		gateway = delivery.NewLogGateway()
	} else {
		g, err = guard.New(cfg.GuardDriver, params.DB, params.Redis, cfg.GuardLease.Duration)
		if err != nil {
			return nil, fmt.Errorf("new guard: %w", err)
		}

		var onRetry func()
		if params.Metrics != nil {
			onRetry = params.Metrics.CounterDeliveryRetries.Inc
		}
		gateway, err = delivery.NewGateway(ctx, cfg, onRetry)
		if err != nil {
			return nil, fmt.Errorf("new delivery gateway: %w", err)
		}
	}

	runner := sweep.NewRunner(sweep.Dependencies{
		Enrollments: marathons,
		Content:     marathons,
		Progress:    progressRepo,
		Diaries:     decay.NewRepo(params.DB),
		Templates:   templateStore,
		Guard:       g,
		Gateway:     gateway,
		Metrics:     params.Metrics,
	}, sweep.Params{
		Workers:       cfg.SweepWorkers,
		BaseURL:       cfg.BaseURL,
		StaleClaimAge: cfg.GuardLease.Duration,
	})

	return &Components{
		Marathons: marathons,
		Progress:  progressRepo,
		Tracker:   progress.NewTracker(marathons, progressRepo),
		Templates: templateStore,
		Guard:     g,
		Gateway:   gateway,
		Runner:    runner,
	}, nil
}
