package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bweisel/win-notifier/internal/domain/jobdispatch"
	"github.com/bweisel/win-notifier/internal/usecase"
)

type Handler struct {
	checkService    *usecase.CheckService
	jobDispatchRepo jobdispatch.Repository
	checkTimeout    time.Duration
	logger          *slog.Logger
	validator       *validator.Validate
}

func NewHandler(
	checkService *usecase.CheckService,
	jobDispatchRepo jobdispatch.Repository,
	checkTimeout time.Duration,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if checkTimeout <= 0 {
		checkTimeout = 30 * time.Second
	}

	return &Handler{
		checkService:    checkService,
		jobDispatchRepo: jobDispatchRepo,
		checkTimeout:    checkTimeout,
		logger:          logger,
		validator:       validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetTeamState(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamState")
	defer span.End()

	teamID := r.PathValue("teamID")
	state, err := h.checkService.TeamState(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team state failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, state)
}
