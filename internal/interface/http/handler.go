package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/moonwatch/internal/domain/moonrise"
	apperrors "github.com/yanqian/moonwatch/pkg/errors"
)

// APIKeyReporter tells the health endpoint whether the geocoder has credentials.
type APIKeyReporter interface {
	HasAPIKey() bool
}

// Handler wires the HTTP transport to the moonrise service.
type Handler struct {
	svc         moonrise.Service
	keys        APIKeyReporter
	scanTimeout time.Duration
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(svc moonrise.Service, keys APIKeyReporter, scanTimeout time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		svc:         svc,
		keys:        keys,
		scanTimeout: scanTimeout,
		logger:      logger.With("component", "http.handler"),
	}
}

// Scan handles POST /api/v1/moonrise/scan.
func (h *Handler) Scan(c *gin.Context) {
	var req moonrise.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	h.search(c, req)
}

// ScanQuery handles GET /api/v1/moonrise/scan with query parameters.
func (h *Handler) ScanQuery(c *gin.Context) {
	var req moonrise.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	h.search(c, req)
}

func (h *Handler) search(c *gin.Context, req moonrise.Request) {
	ctx := c.Request.Context()
	if h.scanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.scanTimeout)
		defer cancel()
	}

	resp, err := h.svc.Search(ctx, req)
	if err != nil {
		abortWithError(c, domainError(err))
		return
	}

	h.logger.Info("moonrise scan served",
		"request_id", requestIDFrom(c),
		"location", resp.Location,
		"days", resp.DaysSearched,
		"events", resp.TotalEvents,
		"success_rate", resp.SuccessRate,
	)
	c.JSON(http.StatusOK, resp)
}

// Health reports liveness and whether the geocoder is configured.
func (h *Handler) Health(c *gin.Context) {
	hasKey := h.keys != nil && h.keys.HasAPIKey()
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"message":   "Moonrise tracker API is running",
		"hasApiKey": hasKey,
	})
}

// domainError maps service error codes onto HTTP statuses.
func domainError(err error) *HTTPError {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return NewHTTPError(http.StatusInternalServerError, moonrise.CodeScanFailed, "failed to scan date range", err)
	}
	status := http.StatusInternalServerError
	switch appErr.Code {
	case moonrise.CodeInvalidInput:
		status = http.StatusBadRequest
	case moonrise.CodeLocationNotFound:
		status = http.StatusNotFound
	case moonrise.CodeResolverUnavailable:
		status = http.StatusBadGateway
	case moonrise.CodeScanCancelled, moonrise.CodeResolverMisconfig:
		status = http.StatusServiceUnavailable
	}
	httpErr := NewHTTPError(status, appErr.Code, appErr.Message, err)
	httpErr.Details = appErr.Details
	return httpErr
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
