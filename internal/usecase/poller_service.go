package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/lokastream/mabar-queue/internal/domain/queue"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
	"github.com/lokastream/mabar-queue/internal/platform/resilience"
)

// PollerConfig tunes the pull-based reconciliation fallback.
type PollerConfig struct {
	// Interval between poll passes.
	Interval time.Duration
	// PendingAge is how long an entry must sit pending before the poller
	// asks the gateway about it; younger entries are still in the webhook's
	// normal delivery window.
	PendingAge time.Duration
	// UnresolvedAlertAge flags entries pending suspiciously long, such as a
	// challenged capture the gateway never followed up on.
	UnresolvedAlertAge time.Duration
	// Workers caps concurrent gateway lookups per pass.
	Workers int
}

func (c PollerConfig) withDefaults() PollerConfig {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.PendingAge <= 0 {
		c.PendingAge = 2 * time.Minute
	}
	if c.UnresolvedAlertAge <= 0 {
		c.UnresolvedAlertAge = 25 * time.Hour
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	return c
}

// PollerService is the pull-based fallback for delayed or missing webhook
// deliveries. Every pass lists stale pending entries, asks the gateway for
// their authoritative status and applies the answer through the same
// conditional path as webhooks, so the two sources can race safely.
type PollerService struct {
	queueRepo queue.Repository
	gateway   PaymentGateway
	reconcile *ReconcileService
	cfg       PollerConfig
	logger    *logging.Logger
	now       func() time.Time

	flight    resilience.SingleFlight
	pool      *ants.Pool
	scheduler gocron.Scheduler
}

func NewPollerService(
	queueRepo queue.Repository,
	gateway PaymentGateway,
	reconcile *ReconcileService,
	cfg PollerConfig,
	logger *logging.Logger,
) (*PollerService, error) {
	if logger == nil {
		logger = logging.Default()
	}
	cfg = cfg.withDefaults()

	pool, err := ants.NewPool(cfg.Workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("create poller worker pool: %w", err)
	}

	return &PollerService{
		queueRepo: queueRepo,
		gateway:   gateway,
		reconcile: reconcile,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		pool:      pool,
	}, nil
}

// Start schedules recurring poll passes until Stop is called.
func (s *PollerService) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create poller scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(func() {
			if err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "poll pass failed", "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule poll job: %w", err)
	}

	s.scheduler = scheduler
	scheduler.Start()
	s.logger.Info("status poller started",
		"interval", s.cfg.Interval.String(),
		"pending_age", s.cfg.PendingAge.String(),
	)

	return nil
}

func (s *PollerService) Stop() error {
	defer s.pool.Release()
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

// RunOnce executes a single poll pass.
func (s *PollerService) RunOnce(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PollerService.RunOnce")
	defer span.End()

	now := s.now()
	entries, err := s.queueRepo.ListPendingOlderThan(ctx, now.Add(-s.cfg.PendingAge))
	if err != nil {
		return fmt.Errorf("list stale pending entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	s.logger.InfoContext(ctx, "poll pass starting", "stale_pending", len(entries))

	var wg sync.WaitGroup
	for _, entry := range entries {
		entry := entry
		wg.Add(1)
		if err := s.pool.Submit(func() {
			defer wg.Done()
			s.pollEntry(ctx, entry, now)
		}); err != nil {
			wg.Done()
			s.logger.WarnContext(ctx, "submit poll task failed", "order_id", entry.OrderID, "error", err)
		}
	}
	wg.Wait()

	return nil
}

func (s *PollerService) pollEntry(ctx context.Context, entry queue.Entry, now time.Time) {
	if now.Sub(entry.JoinedAt) >= s.cfg.UnresolvedAlertAge {
		// The gateway does not contractually promise a follow-up for every
		// stuck transaction (a challenged capture, for one); operators need
		// to see these.
		s.logger.WarnContext(ctx, "payment unresolved past alert threshold",
			"order_id", entry.OrderID,
			"streamer_id", entry.StreamerID,
			"pending_since", entry.JoinedAt.Format(time.RFC3339),
		)
	}

	value, err, _ := s.flight.Do("poll:"+entry.OrderID, func() (any, error) {
		return s.gateway.TransactionStatus(ctx, entry.OrderID)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "gateway status lookup failed",
			"order_id", entry.OrderID,
			"error", err,
		)
		return
	}

	tx, ok := value.(GatewayTransaction)
	if !ok {
		return
	}
	if _, err := s.reconcile.ApplyGatewayState(ctx, tx); err != nil {
		s.logger.WarnContext(ctx, "apply polled gateway state failed",
			"order_id", entry.OrderID,
			"error", err,
		)
	}
}
