package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"surplus/internal/domain"
	"surplus/internal/dto"
	apperrors "surplus/internal/errors"
	"surplus/internal/inventory"
)

const (
	maxItems          = 100
	maxQuantity       = inventory.MaxLineQuantity
	maxNotesLength    = 500
	maxIdempotencyKey = 128
)

// validateOrderRequest trims identifiers in place, defaults the fulfillment
// to delivery and reports every problem at once.
func validateOrderRequest(req *dto.OrderRequest) (domain.Fulfillment, error) {
	var details []apperrors.ValidationDetail

	req.RestaurantID = strings.TrimSpace(req.RestaurantID)
	req.Customer.ID = strings.TrimSpace(req.Customer.ID)
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)

	if req.RestaurantID == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "restaurantId",
			Message: "restaurantId is required",
		})
	}

	if req.Customer.ID == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "customer.id",
			Message: "customer.id is required",
		})
	}

	if len(req.Items) == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: "items must not be empty",
		})
	}

	if len(req.Items) > maxItems {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: fmt.Sprintf("items exceeds maximum of %d", maxItems),
		})
	}

	seen := make(map[string]bool, len(req.Items))
	for idx := range req.Items {
		item := &req.Items[idx]
		item.PackageID = strings.TrimSpace(item.PackageID)

		if item.PackageID == "" {
			details = append(details, apperrors.ValidationDetail{
				Field:   fmt.Sprintf("items[%d].packageId", idx),
				Message: "packageId is required",
			})
		} else if seen[item.PackageID] {
			details = append(details, apperrors.ValidationDetail{
				Field:   fmt.Sprintf("items[%d].packageId", idx),
				Message: "packageId must not be duplicated",
			})
		}
		seen[item.PackageID] = true

		if item.Quantity < 1 || item.Quantity > maxQuantity {
			details = append(details, apperrors.ValidationDetail{
				Field:   fmt.Sprintf("items[%d].quantity", idx),
				Message: fmt.Sprintf("quantity must be between 1 and %d", maxQuantity),
			})
		}
	}

	if !domain.PaymentMethod(req.PaymentMethod).Valid() {
		details = append(details, apperrors.ValidationDetail{
			Field:   "paymentMethod",
			Message: "paymentMethod must be one of cash, card, wallet",
		})
	}

	fulfillment := domain.Fulfillment(strings.TrimSpace(req.Fulfillment))
	switch fulfillment {
	case "":
		fulfillment = domain.FulfillmentDelivery
	case domain.FulfillmentDelivery, domain.FulfillmentPickup:
	default:
		details = append(details, apperrors.ValidationDetail{
			Field:   "fulfillment",
			Message: "fulfillment must be delivery or pickup",
		})
	}

	if utf8.RuneCountInString(req.Notes) > maxNotesLength {
		details = append(details, apperrors.ValidationDetail{
			Field:   "notes",
			Message: fmt.Sprintf("notes exceeds maximum of %d characters", maxNotesLength),
		})
	}

	if len(req.IdempotencyKey) > maxIdempotencyKey {
		details = append(details, apperrors.ValidationDetail{
			Field:   "idempotencyKey",
			Message: fmt.Sprintf("idempotencyKey exceeds maximum of %d characters", maxIdempotencyKey),
		})
	}

	if len(details) > 0 {
		return "", apperrors.NewValidationError("validation failed", details...)
	}
	return fulfillment, nil
}
