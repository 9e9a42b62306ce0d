package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/trace"

	"github.com/bweisel/win-notifier/internal/domain/jobdispatch"
	"github.com/bweisel/win-notifier/internal/usecase"
)

const (
	checkWinsJobName = "check-wins"
	checkWinsJobPath = "/v1/internal/jobs/check-wins"
)

var internalJobDispatchUnsafeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// checkWinsRequest is the opaque trigger payload the scheduler forwards. All
// fields are optional; an empty body runs a plain check.
type checkWinsRequest struct {
	DispatchID string `json:"dispatch_id" validate:"omitempty,max=128"`
	Source     string `json:"source" validate:"omitempty,max=64"`
	// BudgetMs caps the check's run time below the handler default.
	BudgetMs int `json:"budget_ms" validate:"omitempty,gte=100,lte=300000"`
}

func (h *Handler) RunCheckWinsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunCheckWinsJob")
	defer span.End()

	if h.checkService == nil {
		writeError(ctx, w, fmt.Errorf("%w: check service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := h.decodeCheckWinsRequest(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	budget := h.checkTimeout
	if req.BudgetMs > 0 {
		requested := time.Duration(req.BudgetMs) * time.Millisecond
		if requested < budget {
			budget = requested
		}
	}
	checkCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	result, err := h.checkService.CheckAll(checkCtx)
	if err != nil {
		h.recordCheckWinsDispatch(ctx, req, jobdispatch.Event{
			JobName:      checkWinsJobName,
			JobPath:      checkWinsJobPath,
			Source:       req.Source,
			Status:       jobdispatch.StatusFailed,
			Payload:      buildCheckWinsPayload(req),
			ErrorMessage: err.Error(),
			OccurredAt:   time.Now().UTC(),
		})
		h.logger.WarnContext(ctx, "run check wins job failed", "source", req.Source, "error", err)
		writeError(ctx, w, err)
		return
	}
	h.recordCheckWinsDispatch(ctx, req, jobdispatch.Event{
		JobName:    checkWinsJobName,
		JobPath:    checkWinsJobPath,
		Source:     req.Source,
		Status:     jobdispatch.StatusCompleted,
		Payload:    buildCheckWinsPayload(req),
		OccurredAt: time.Now().UTC(),
	})

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) decodeCheckWinsRequest(ctx context.Context, r *http.Request) (checkWinsRequest, error) {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req checkWinsRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return checkWinsRequest{}, nil
		}
		return checkWinsRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	if err := h.validator.StructCtx(ctx, req); err != nil {
		return checkWinsRequest{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}

func (h *Handler) recordCheckWinsDispatch(ctx context.Context, req checkWinsRequest, event jobdispatch.Event) {
	if h.jobDispatchRepo == nil {
		return
	}

	dispatchID := strings.TrimSpace(req.DispatchID)
	if dispatchID == "" {
		dispatchID = buildManualDispatchID(event.JobName, req.Source, event.OccurredAt)
	}
	event.DispatchID = dispatchID

	traceID, spanID := traceMetaFromContext(ctx)
	event.TraceID = traceID
	event.SpanID = spanID

	if err := h.jobDispatchRepo.UpsertEvent(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "record check wins dispatch failed",
			"dispatch_id", event.DispatchID,
			"job_name", event.JobName,
			"status", event.Status,
			"error", err,
		)
	}
}

func buildCheckWinsPayload(req checkWinsRequest) map[string]any {
	payload := map[string]any{}
	if strings.TrimSpace(req.DispatchID) != "" {
		payload["dispatch_id"] = req.DispatchID
	}
	if strings.TrimSpace(req.Source) != "" {
		payload["source"] = req.Source
	}
	if req.BudgetMs > 0 {
		payload["budget_ms"] = req.BudgetMs
	}
	return payload
}

func buildManualDispatchID(jobName, source string, now time.Time) string {
	jobName = sanitizeDispatchPart(jobName)
	source = sanitizeDispatchPart(source)
	ts := now.UTC().Format("20060102T150405.000000000Z")
	return "manual-" + jobName + "-" + source + "-" + ts
}

func sanitizeDispatchPart(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return internalJobDispatchUnsafeRegex.ReplaceAllString(value, "-")
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}
