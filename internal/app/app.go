package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/bweisel/win-notifier/external/bottomline"
	"github.com/bweisel/win-notifier/external/jobqueue"
	"github.com/bweisel/win-notifier/internal/config"
	"github.com/bweisel/win-notifier/internal/domain/jobdispatch"
	"github.com/bweisel/win-notifier/internal/domain/teamstate"
	"github.com/bweisel/win-notifier/internal/infrastructure/repository/memory"
	"github.com/bweisel/win-notifier/internal/infrastructure/repository/postgres"
	"github.com/bweisel/win-notifier/internal/interfaces/httpapi"
	"github.com/bweisel/win-notifier/internal/platform/logging"
	"github.com/bweisel/win-notifier/internal/platform/resilience"
	"github.com/bweisel/win-notifier/internal/usecase"
)

const checkWinsSchedulePath = "/v1/internal/jobs/check-wins"

// Components bundles the wired collaborators shared by the API server and the
// one-shot checker.
type Components struct {
	CheckService    *usecase.CheckService
	JobDispatchRepo jobdispatch.Repository
	Cleanup         func() error
}

func BuildComponents(cfg config.Config, logger *logging.Logger) (Components, error) {
	var (
		db           *sqlx.DB
		stateRepo    teamstate.Repository
		dispatchRepo jobdispatch.Repository
	)
	if cfg.DBURL != "" {
		opened, err := openDB(cfg)
		if err != nil {
			return Components{}, fmt.Errorf("open db: %w", err)
		}
		db = opened
		stateRepo = postgres.NewTeamStateRepository(db)
		dispatchRepo = postgres.NewJobDispatchRepository(db)
		logger.Info("team state storage ready",
			"backend", "postgres",
			"db", dbNameFromURL(cfg.DBURL),
			"url", redactDBURL(cfg.DBURL),
		)
	} else {
		stateRepo = memory.NewTeamStateRepository()
		logger.Info("team state storage ready", "backend", "memory")
	}

	feed := bottomline.NewClient(bottomline.ClientConfig{
		BaseURL:    cfg.FeedBaseURL,
		Timeout:    cfg.FeedTimeout,
		MaxRetries: cfg.FeedMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FeedCircuitEnabled,
			FailureThreshold: cfg.FeedCircuitFailureCount,
			OpenTimeout:      cfg.FeedCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FeedCircuitHalfOpenMaxReq,
		},
	})

	checkSvc := usecase.NewCheckService(feed, stateRepo, logger, usecase.CheckServiceConfig{
		Teams:        usecase.DefaultTeams(),
		NotifyWindow: cfg.NotifyWindow,
		MaxWorkers:   cfg.CheckMaxWorkers,
	})

	cleanup := func() error {
		if db != nil {
			return db.Close()
		}
		return nil
	}

	return Components{
		CheckService:    checkSvc,
		JobDispatchRepo: dispatchRepo,
		Cleanup:         cleanup,
	}, nil
}

func NewHTTPServer(cfg config.Config, logger *logging.Logger, httpLogger *slog.Logger) (*http.Server, func() error, error) {
	components, err := BuildComponents(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	handler := httpapi.NewHandler(components.CheckService, components.JobDispatchRepo, cfg.CheckTimeout, httpLogger)
	router := httpapi.NewRouter(handler, httpLogger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		_ = components.Cleanup()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, components.Cleanup, nil
}

// RegisterCheckSchedule registers the recurring check-wins trigger with QStash
// so the wins check keeps running without an in-process timer.
func RegisterCheckSchedule(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if !cfg.QStashEnabled {
		logger.Info("qstash schedule disabled", "reason", "QSTASH_ENABLED=false")
		return nil
	}

	scheduler := jobqueue.NewQStashScheduler(jobqueue.QStashSchedulerConfig{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		Timeout:          10 * time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.QStashCircuitEnabled,
			FailureThreshold: cfg.QStashCircuitFailureCount,
			OpenTimeout:      cfg.QStashCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
		},
	}, logger)

	return scheduler.RegisterSchedule(ctx, checkWinsSchedulePath, cfg.QStashCron, map[string]any{
		"source": "qstash",
	})
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", cfg.DBURL,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
