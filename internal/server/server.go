package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/2beens/marathon/internal/config"
	"github.com/2beens/marathon/internal/db"
	"github.com/2beens/marathon/internal/middleware"
	"github.com/2beens/marathon/internal/progress"
	"github.com/2beens/marathon/internal/scheduler"
	"github.com/2beens/marathon/internal/sweep"
	"github.com/2beens/marathon/internal/telemetry/metrics"
	"github.com/2beens/marathon/internal/telemetry/tracing"
	"github.com/2beens/marathon/internal/templates"
	"github.com/2beens/marathon/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

type progressService interface {
	MarkComplete(ctx context.Context, userID string, marathonID int64, dayNumber int, exerciseID string) (*progress.ExerciseProgress, error)
	Summary(ctx context.Context, userID string, marathonID int64) (*progress.Summary, error)
}

type templatesService interface {
	Register(ctx context.Context, t templates.Template) (*templates.Template, error)
	Get(ctx context.Context, templateType templates.Type) (*templates.Template, error)
	List(ctx context.Context) ([]templates.Template, error)
	Preview(ctx context.Context, templateType templates.Type, bindings map[string]string) (*templates.Rendered, error)
}

type sweepRunner interface {
	RunSweep(ctx context.Context, asOf time.Time) (*sweep.Report, error)
}

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	apiTokenHash      string
	versionInfo       string

	config    *config.Config
	dbPool    *pgxpool.Pool
	scheduler *scheduler.Scheduler

	progress    progressService
	templates   templatesService
	sweepRunner sweepRunner

	redisClient *redis.Client
	rateLimiter middleware.RequestRateLimiter

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	ApiTokenHash            string
	DBUser                  string
	DBPassword              string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         params.DBUser,
		DBPassword:     params.DBPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("marathon", "service", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0,
	})
	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "marathon-service", rdb)
	if err != nil {
		return nil, err
	}

	components, err := NewComponents(ctx, ComponentsParams{
		Config:  cfg,
		DB:      dbPool,
		Redis:   rdb,
		Metrics: metricsManager,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:       cfg,
		dbPool:       dbPool,
		apiTokenHash: params.ApiTokenHash,
		versionInfo:  versionInfo(),

		progress:    components.Tracker,
		templates:   components.Templates,
		sweepRunner: components.Runner,

		redisClient: rdb,
		rateLimiter: redis_rate.NewLimiter(rdb),

		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	if cfg.SchedulerEnabled {
		s.scheduler, err = scheduler.New(components.Runner, cfg.SweepSchedule, cfg.SweepLocation(), cfg.SweepTimeout.Duration)
		if err != nil {
			return nil, err
		}
	} else {
		log.Warnln("sweep scheduler disabled, sweeps run only on POST /sweep or marathonctl")
	}

	return s, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("marathon-router"))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, "ok")
	}).Methods("GET").Name("health")
	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	progressHandler := progress.NewHandler(s.progress, s.metricsManager)
	progressRateLimit := middleware.RateLimit(
		s.rateLimiter,
		"progress",
		middleware.ProgressUserKey,
		s.config.ProgressRateLimitPerMin,
		s.metricsManager,
	)
	r.Handle("/progress", progressRateLimit(http.HandlerFunc(progressHandler.HandleMarkComplete))).
		Methods("POST", "OPTIONS").Name("mark-complete")
	r.HandleFunc("/progress/users/{userId}/marathons/{marathonId}", progressHandler.HandleSummary).
		Methods("GET", "OPTIONS").Name("progress-summary")

	templatesHandler := templates.NewHandler(s.templates)
	r.HandleFunc("/templates", templatesHandler.HandleList).Methods("GET", "OPTIONS").Name("list-templates")
	r.HandleFunc("/templates", templatesHandler.HandleRegister).Methods("PUT", "OPTIONS").Name("register-template")
	r.HandleFunc("/templates/{type}", templatesHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-template")
	r.HandleFunc("/templates/{type}/preview", templatesHandler.HandlePreview).Methods("POST", "OPTIONS").Name("preview-template")

	sweepHandler := sweep.NewHandler(s.sweepRunner, s.config.SweepLocation())
	r.HandleFunc("/sweep", sweepHandler.HandleSweep).Methods("POST", "OPTIONS").Name("sweep")

	// all the rest - unhandled paths
	r.NotFoundHandler = http.HandlerFunc(http.NotFound)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsAllowedOrigins))
	r.Use(middleware.NewAuthMiddlewareHandler(s.apiTokenHash).AuthCheck())

	return r
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler: router,
		Addr:    ipAndPort,
		// a manual sweep answers only when it is done
		WriteTimeout: s.config.SweepTimeout.Duration + time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	if s.scheduler != nil {
		s.scheduler.Start()
	}

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.scheduler != nil {
		if err := s.scheduler.Stop(ctx); err != nil {
			log.Errorf("stop scheduler: %s", err)
		}
		log.Debugln("scheduler stopped")
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close()
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}

// versionInfo is the vcs revision stamped into the binary by the go tool, if any.
func versionInfo() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return info.Main.Version
}
