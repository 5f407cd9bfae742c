package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"surplus/internal/domain"
	"surplus/internal/dto"
	apperrors "surplus/internal/errors"
)

const idempotencyHeader = "Idempotency-Key"

type SubmitOrderUseCase interface {
	Submit(ctx context.Context, req dto.OrderRequest) (*dto.OrderResult, error)
}

type UpdateStatusUseCase interface {
	UpdateStatus(ctx context.Context, orderID, status, note string) (*domain.Order, error)
	Cancel(ctx context.Context, orderID, note string) (*domain.Order, error)
}

type QueryOrdersUseCase interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListByRestaurant(ctx context.Context, restaurantID, status string) ([]*domain.Order, error)
}

type OrderController struct {
	submit SubmitOrderUseCase
	status UpdateStatusUseCase
	query  QueryOrdersUseCase
	logger *zap.Logger
}

func NewOrderController(submit SubmitOrderUseCase, status UpdateStatusUseCase, query QueryOrdersUseCase, logger *zap.Logger) *OrderController {
	return &OrderController{
		submit: submit,
		status: status,
		query:  query,
		logger: logger,
	}
}

func (c *OrderController) Submit(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if key := strings.TrimSpace(r.Header.Get(idempotencyHeader)); key != "" {
		req.IdempotencyKey = key
	}

	result, err := c.submit.Submit(r.Context(), req)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	statusCode := http.StatusCreated
	if result.Replayed {
		statusCode = http.StatusOK
	}

	c.writeJSON(w, statusCode, dto.SubmitOrderResponse{
		TraceID:   traceID,
		OrderID:   result.OrderID,
		Replayed:  result.Replayed,
		Timestamp: time.Now().UTC(),
	})
}

func (c *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	order, err := c.query.GetOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.OrderResponse{TraceID: traceID, Order: order})
}

func (c *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	orderID := chi.URLParam(r, "orderId")
	logger := c.logger.With(zap.String("traceId", traceID), zap.String("orderId", orderID))

	var req dto.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if strings.TrimSpace(req.Status) == "" {
		c.writeValidationError(w, traceID, "status is required", apperrors.ValidationDetail{
			Field:   "status",
			Message: "status is required",
		})
		return
	}

	order, err := c.status.UpdateStatus(r.Context(), orderID, strings.TrimSpace(req.Status), req.Note)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.OrderResponse{TraceID: traceID, Order: order})
}

// Cancel accepts an empty body.
func (c *OrderController) Cancel(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	orderID := chi.URLParam(r, "orderId")
	logger := c.logger.With(zap.String("traceId", traceID), zap.String("orderId", orderID))

	var req dto.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	order, err := c.status.Cancel(r.Context(), orderID, req.Note)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.OrderResponse{TraceID: traceID, Order: order})
}

func (c *OrderController) ListByRestaurant(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orders, err := c.query.ListByRestaurant(r.Context(),
		chi.URLParam(r, "restaurantId"),
		strings.TrimSpace(r.URL.Query().Get("status")),
	)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.OrderListResponse{TraceID: traceID, Orders: orders})
}

func (c *OrderController) handleError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeValidationError(w, traceID, ve.Message, ve.Details...)
		return
	}

	if se, ok := apperrors.IsStockError(err); ok {
		logger.Info("order rejected for stock", zap.Int("shortages", len(se.Shortages)))
		c.writeErrorResponse(w, traceID, http.StatusConflict, "INSUFFICIENT_STOCK", "one or more packages cannot be reserved",
			&dto.ErrorDetails{Shortages: se.Shortages})
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsInvalidTransitionError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsConflictError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusConflict, "CONFLICT", err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsConcurrencyExhaustedError(err); ok {
		logger.Warn("reservation contention exhausted retries", zap.Error(err))
		w.Header().Set("Retry-After", "1")
		c.writeErrorResponse(w, traceID, http.StatusServiceUnavailable, "CONCURRENCY_EXHAUSTED", "too many concurrent orders, retry shortly", nil)
		return
	}

	if _, ok := apperrors.IsPersistenceError(err); ok {
		logger.Error("order persistence failed", zap.Error(err))
		c.writeErrorResponse(w, traceID, http.StatusInternalServerError, "PERSISTENCE_ERROR", "the order could not be saved", nil)
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeErrorResponse(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", nil)
}

func (c *OrderController) writeErrorResponse(w http.ResponseWriter, traceID string, statusCode int, code, message string, details *dto.ErrorDetails) {
	c.writeJSON(w, statusCode, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    statusCode,
		Message:   message,
		Code:      code,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

func (c *OrderController) writeValidationError(w http.ResponseWriter, traceID, message string, details ...apperrors.ValidationDetail) {
	c.writeErrorResponse(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", message, &dto.ErrorDetails{Fields: details})
}

func (c *OrderController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
