package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/lokastream/mabar-queue/internal/config"
	"github.com/lokastream/mabar-queue/internal/domain/donor"
	"github.com/lokastream/mabar-queue/internal/domain/mvp"
	"github.com/lokastream/mabar-queue/internal/domain/payment"
	"github.com/lokastream/mabar-queue/internal/domain/queue"
	"github.com/lokastream/mabar-queue/internal/domain/session"
	"github.com/lokastream/mabar-queue/internal/domain/settings"
	"github.com/lokastream/mabar-queue/internal/infrastructure/account"
	"github.com/lokastream/mabar-queue/internal/infrastructure/eventfeed"
	"github.com/lokastream/mabar-queue/internal/infrastructure/gateway/midtrans"
	"github.com/lokastream/mabar-queue/internal/infrastructure/repository/memory"
	"github.com/lokastream/mabar-queue/internal/infrastructure/repository/postgres"
	"github.com/lokastream/mabar-queue/internal/interfaces/httpapi"
	idgen "github.com/lokastream/mabar-queue/internal/platform/id"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
	"github.com/lokastream/mabar-queue/internal/platform/resilience"
	"github.com/lokastream/mabar-queue/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.uber.org/zap/zapcore"

	_ "github.com/lib/pq"
)

// App owns the wired service graph and its long-lived resources.
type App struct {
	Server *http.Server
	Poller *usecase.PollerService

	db     *sqlx.DB
	logger *logging.Logger
}

type repositories struct {
	queue    queue.Repository
	settings settings.Repository
	donors   donor.Repository
	donation donor.DonationRepository
	sessions session.Repository
	mvp      mvp.Repository
	ledger   payment.Ledger
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	idGen := idgen.NewRandomGenerator()

	repos, db, err := buildRepositories(cfg, idGen, logger)
	if err != nil {
		return nil, err
	}

	gateway := midtrans.NewClient(midtrans.ClientConfig{
		HTTPClient:    &http.Client{Timeout: cfg.MidtransTimeout},
		BaseURL:       cfg.MidtransBaseURL,
		ServerKey:     cfg.MidtransServerKey,
		Timeout:       cfg.MidtransTimeout,
		StatusRetries: cfg.MidtransStatusRetries,
		Logger:        logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.MidtransCircuitEnabled,
			FailureThreshold: cfg.MidtransCircuitFailureCount,
			OpenTimeout:      cfg.MidtransCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.MidtransCircuitHalfOpenMaxReq,
		},
	})

	var events usecase.EventPublisher = usecase.NoopEventPublisher{}
	if cfg.EventFeedEndpoint != "" {
		events = eventfeed.NewPublisher(eventfeed.PublisherConfig{
			HTTPClient: &http.Client{Timeout: cfg.EventFeedTimeout},
			Endpoint:   cfg.EventFeedEndpoint,
			AuthToken:  cfg.EventFeedAuthToken,
			MaxRetries: cfg.EventFeedMaxRetries,
			Timeout:    cfg.EventFeedTimeout,
			Logger:     logger,
		})
	}

	slogger := newSlog(cfg.LogLevel)

	registrationSvc := usecase.NewRegistrationService(
		repos.settings,
		repos.queue,
		gateway,
		idgen.NewOrderGenerator(cfg.MidtransOrderPrefix),
		idGen,
		events,
		logger,
		cfg.MidtransCallbackURL,
	)
	reconcileSvc := usecase.NewReconcileService(repos.ledger, cfg.MidtransServerKey, events, logger)
	statusSvc := usecase.NewStatusService(repos.queue, gateway, reconcileSvc, logger)
	queueSvc := usecase.NewQueueService(repos.queue, events, logger)
	sessionSvc := usecase.NewSessionService(
		repos.sessions,
		repos.queue,
		repos.settings,
		repos.mvp,
		idGen,
		events,
		logger,
	)
	donorSvc := usecase.NewDonorService(repos.donors, repos.donation, logger)
	mvpSvc := usecase.NewMvpService(repos.mvp, repos.settings, idGen, logger)
	dashboardSvc := usecase.NewDashboardService(repos.queue, repos.sessions, repos.mvp, repos.donation, logger)

	pollerSvc, err := usecase.NewPollerService(repos.queue, gateway, reconcileSvc, usecase.PollerConfig{
		Interval:           cfg.PollerInterval,
		PendingAge:         cfg.PollerPendingAge,
		UnresolvedAlertAge: cfg.PollerAlertAge,
		Workers:            cfg.PollerWorkers,
	}, logger)
	if err != nil {
		return nil, err
	}

	verifier := account.NewClient(
		&http.Client{Timeout: cfg.AccountTimeout},
		cfg.AccountBaseURL,
		cfg.AccountIntrospectURL,
		slogger,
	)

	handler := httpapi.NewHandler(
		registrationSvc,
		statusSvc,
		reconcileSvc,
		queueSvc,
		sessionSvc,
		donorSvc,
		mvpSvc,
		dashboardSvc,
		pollerSvc,
		logger,
	)
	router := httpapi.NewRouter(handler, verifier, slogger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		Server: server,
		Poller: pollerSvc,
		db:     db,
		logger: logger,
	}, nil
}

// StartPoller begins the recurring reconciliation sweep when enabled.
func (a *App) StartPoller(ctx context.Context, cfg config.Config) error {
	if !cfg.PollerEnabled {
		a.logger.Info("payment poller disabled", "reason", "POLLER_ENABLED=false")
		return nil
	}

	return a.Poller.Start(ctx)
}

// Close releases the poller and the database handle.
func (a *App) Close() error {
	if err := a.Poller.Stop(); err != nil {
		a.logger.Warn("stop poller", "error", err)
	}
	if a.db != nil {
		return a.db.Close()
	}

	return nil
}

func buildRepositories(cfg config.Config, idGen idgen.Generator, logger *logging.Logger) (repositories, *sqlx.DB, error) {
	if cfg.StorageDriver == config.StorageMemory {
		queues := memory.NewQueueRepository(nil)
		donors := memory.NewDonorRepository(nil)
		donations := memory.NewDonationRepository(nil)
		logger.Info("storage driver", "driver", config.StorageMemory)

		return repositories{
			queue:    queues,
			settings: memory.NewSettingsRepository(memory.SeedSettings()),
			donors:   donors,
			donation: donations,
			sessions: memory.NewSessionRepository(nil),
			mvp:      memory.NewMvpRepository(nil, idGen),
			ledger:   memory.NewLedger(queues, donors, donations, idGen),
		}, nil, nil
	}

	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dbURL,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return repositories{}, nil, fmt.Errorf("open database: %w", err)
	}

	logger.Info("storage driver", "driver", config.StoragePostgres, "db", dbNameFromURL(cfg.DBURL))

	return repositories{
		queue:    postgres.NewQueueRepository(db),
		settings: postgres.NewSettingsRepository(db),
		donors:   postgres.NewDonorRepository(db),
		donation: postgres.NewDonationRepository(db),
		sessions: postgres.NewSessionRepository(db),
		mvp:      postgres.NewMvpRepository(db, idGen),
		ledger:   postgres.NewLedger(db, idGen),
	}, db, nil
}

func newSlog(level zapcore.Level) *slog.Logger {
	var slogLevel slog.Level
	switch {
	case level <= zapcore.DebugLevel:
		slogLevel = slog.LevelDebug
	case level == zapcore.WarnLevel:
		slogLevel = slog.LevelWarn
	case level >= zapcore.ErrorLevel:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
