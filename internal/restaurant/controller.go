package restaurant

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "surplus/internal/errors"
)

const maxPackageIDs = 100

type Controller struct {
	useCase PackagesUseCase
	logger  *zap.Logger
}

func NewController(useCase PackagesUseCase, logger *zap.Logger) *Controller {
	return &Controller{
		useCase: useCase,
		logger:  logger,
	}
}

// HandleListPackages serves GET /restaurants/{restaurantId}/packages with an
// optional comma separated ids filter.
func (c *Controller) HandleListPackages(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	req := PackagesRequest{
		RestaurantID: strings.TrimSpace(chi.URLParam(r, "restaurantId")),
		PackageIDs:   parseIDs(r.URL.Query().Get("ids")),
	}

	if err := validatePackagesRequest(req); err != nil {
		ve, _ := apperrors.IsValidationError(err)
		c.writeValidationError(w, traceID, ve.Message, ve.Details...)
		return
	}

	resp, err := c.useCase.ListPackages(r.Context(), req)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			c.writeJSON(w, http.StatusNotFound, errorResponse{
				TraceID: traceID,
				Error:   "NOT_FOUND",
				Message: err.Error(),
			})
			return
		}
		c.logger.Error("list packages failed", zap.String("traceId", traceID), zap.Error(err))
		c.writeJSON(w, http.StatusInternalServerError, errorResponse{
			TraceID: traceID,
			Error:   "INTERNAL_ERROR",
			Message: "an unexpected error occurred",
		})
		return
	}

	resp.TraceID = traceID
	c.writeJSON(w, http.StatusOK, resp)
}

func parseIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func validatePackagesRequest(req PackagesRequest) error {
	if req.RestaurantID == "" {
		return apperrors.NewValidationError("restaurantId is required", apperrors.ValidationDetail{
			Field:   "restaurantId",
			Message: "restaurantId is required",
		})
	}

	if len(req.PackageIDs) > maxPackageIDs {
		msg := "ids exceeds maximum of 100"
		return apperrors.NewValidationError(msg, apperrors.ValidationDetail{
			Field:   "ids",
			Message: msg,
		})
	}

	return nil
}

type errorResponse struct {
	TraceID string                       `json:"traceId"`
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details,omitempty"`
}

func (c *Controller) writeValidationError(w http.ResponseWriter, traceID, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, errorResponse{
		TraceID: traceID,
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
