package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
	"github.com/lokastream/mabar-queue/internal/usecase"
)

type Handler struct {
	registrationService *usecase.RegistrationService
	statusService       *usecase.StatusService
	reconcileService    *usecase.ReconcileService
	queueService        *usecase.QueueService
	sessionService      *usecase.SessionService
	donorService        *usecase.DonorService
	mvpService          *usecase.MvpService
	dashboardService    *usecase.DashboardService
	pollerService       *usecase.PollerService
	logger              *logging.Logger
	validator           *validator.Validate
}

func NewHandler(
	registrationService *usecase.RegistrationService,
	statusService *usecase.StatusService,
	reconcileService *usecase.ReconcileService,
	queueService *usecase.QueueService,
	sessionService *usecase.SessionService,
	donorService *usecase.DonorService,
	mvpService *usecase.MvpService,
	dashboardService *usecase.DashboardService,
	pollerService *usecase.PollerService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		registrationService: registrationService,
		statusService:       statusService,
		reconcileService:    reconcileService,
		queueService:        queueService,
		sessionService:      sessionService,
		donorService:        donorService,
		mvpService:          mvpService,
		dashboardService:    dashboardService,
		pollerService:       pollerService,
		logger:              logger,
		validator:           validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
