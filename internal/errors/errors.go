package errors

import (
	"errors"
	"fmt"
	"strings"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}

// ConflictError reports a lost optimistic write on a single document.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

func IsInternalError(err error) (*InternalError, bool) {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

type ShortageReason string

const (
	ReasonPackageNotFound   ShortageReason = "PACKAGE_NOT_FOUND"
	ReasonPackageInactive   ShortageReason = "PACKAGE_INACTIVE"
	ReasonInsufficientStock ShortageReason = "INSUFFICIENT_STOCK"
)

type Shortage struct {
	PackageID string         `json:"packageId"`
	Name      string         `json:"name"`
	Available int            `json:"available"`
	Requested int            `json:"requested"`
	Reason    ShortageReason `json:"reason"`
}

// StockError carries every line of a reservation that could not be backed
// by stock. It is user-correctable.
type StockError struct {
	Shortages []Shortage
}

func (e *StockError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("%s: %s (available %d, requested %d)", s.PackageID, s.Reason, s.Available, s.Requested)
	}
	return "stock unavailable: " + strings.Join(parts, "; ")
}

func NewStockError(shortages []Shortage) *StockError {
	return &StockError{Shortages: shortages}
}

func IsStockError(err error) (*StockError, bool) {
	var se *StockError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ConcurrencyExhaustedError reports a write that was given up before it
// committed. Cause is set when the caller's context ended the retries.
type ConcurrencyExhaustedError struct {
	RestaurantID string
	Attempts     int
	Cause        error
}

func (e *ConcurrencyExhaustedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("restaurant %s: abandoned after %d attempts: %v", e.RestaurantID, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("restaurant %s: gave up after %d conflicting attempts", e.RestaurantID, e.Attempts)
}

func (e *ConcurrencyExhaustedError) Unwrap() error {
	return e.Cause
}

func NewConcurrencyExhaustedError(restaurantID string, attempts int) *ConcurrencyExhaustedError {
	return &ConcurrencyExhaustedError{RestaurantID: restaurantID, Attempts: attempts}
}

func NewConcurrencyAbortedError(restaurantID string, attempts int, cause error) *ConcurrencyExhaustedError {
	return &ConcurrencyExhaustedError{RestaurantID: restaurantID, Attempts: attempts, Cause: cause}
}

func IsConcurrencyExhaustedError(err error) (*ConcurrencyExhaustedError, bool) {
	var ce *ConcurrencyExhaustedError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

type PersistenceError struct {
	Message string
	Cause   error
}

func (e *PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

func NewPersistenceError(message string, cause error) *PersistenceError {
	return &PersistenceError{Message: message, Cause: cause}
}

func IsPersistenceError(err error) (*PersistenceError, bool) {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func NewInvalidTransitionError(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func IsInvalidTransitionError(err error) (*InvalidTransitionError, bool) {
	var te *InvalidTransitionError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// ErrDuplicateIdempotencyKey is returned by order stores when an order with
// the same idempotency key already exists.
var ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")
