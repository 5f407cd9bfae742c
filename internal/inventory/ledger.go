package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"surplus/internal/domain"
	apperrors "surplus/internal/errors"
)

// RestaurantStore is the slice of the persistence port the ledger needs.
// SaveRestaurantIfVersion must write only when the stored version still
// equals version, and report false otherwise.
type RestaurantStore interface {
	LoadRestaurant(ctx context.Context, id string) (*domain.Restaurant, int64, error)
	SaveRestaurantIfVersion(ctx context.Context, r *domain.Restaurant, version int64) (bool, error)
}

type Line struct {
	PackageID string
	Quantity  int
}

type ReceiptLine struct {
	PackageID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Receipt records a committed reservation. Restaurant is the document as it
// was written by the reservation.
type Receipt struct {
	RestaurantID string
	Restaurant   *domain.Restaurant
	Lines        []ReceiptLine
	ReservedAt   time.Time
}

// MaxLineQuantity bounds the quantity of one package in a reservation, after
// lines naming the same package are merged.
const MaxLineQuantity = 10000

var errVersionConflict = errors.New("restaurant document changed since read")

type Ledger struct {
	store       RestaurantStore
	logger      *zap.Logger
	tracer      trace.Tracer
	maxAttempts int
	baseDelay   time.Duration
}

func NewLedger(store RestaurantStore, logger *zap.Logger, maxAttempts int, baseDelay time.Duration) *Ledger {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Ledger{
		store:       store,
		logger:      logger,
		tracer:      otel.Tracer("surplus/inventory"),
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// Reserve decrements stock for every line or for none of them. Lines naming
// the same package are merged. Every failing line is reported in a single
// StockError. Version conflicts are retried from a fresh read.
func (l *Ledger) Reserve(ctx context.Context, restaurantID string, lines []Line) (*Receipt, error) {
	ctx, span := l.tracer.Start(ctx, "inventory.reserve", trace.WithAttributes(
		attribute.String("restaurant.id", restaurantID),
		attribute.Int("reservation.lines", len(lines)),
	))
	defer span.End()

	if err := validateLines(lines); err != nil {
		return nil, err
	}
	merged := mergeLines(lines)
	if err := validateMerged(merged); err != nil {
		return nil, err
	}

	var receipt *Receipt
	attempts, err := l.withRetry(ctx, restaurantID, func() error {
		r, version, err := l.store.LoadRestaurant(ctx, restaurantID)
		if err != nil {
			return backoff.Permanent(err)
		}

		working := r.Clone()
		if shortages := checkStock(working, merged); len(shortages) > 0 {
			return backoff.Permanent(apperrors.NewStockError(shortages))
		}

		receiptLines := make([]ReceiptLine, len(merged))
		for i, line := range merged {
			pkg := working.FindPackage(line.PackageID)
			receiptLines[i] = ReceiptLine{
				PackageID: pkg.ID,
				Name:      pkg.Name,
				UnitPrice: pkg.Price,
				Quantity:  line.Quantity,
			}
			pkg.Take(line.Quantity)
		}

		ok, err := l.store.SaveRestaurantIfVersion(ctx, working, version)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("saving restaurant %s: %w", restaurantID, err))
		}
		if !ok {
			return errVersionConflict
		}

		receipt = &Receipt{
			RestaurantID: restaurantID,
			Restaurant:   working,
			Lines:        receiptLines,
			ReservedAt:   time.Now().UTC(),
		}
		return nil
	})
	span.SetAttributes(attribute.Int("reservation.attempts", attempts))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	l.logger.Info("stock reserved",
		zap.String("restaurantId", restaurantID),
		zap.Int("lineCount", len(receipt.Lines)),
		zap.Int("attempts", attempts),
	)
	return receipt, nil
}

// Release puts the quantities of a receipt back into stock. Packages removed
// from the restaurant since the reservation are skipped.
func (l *Ledger) Release(ctx context.Context, receipt *Receipt) error {
	ctx, span := l.tracer.Start(ctx, "inventory.release", trace.WithAttributes(
		attribute.String("restaurant.id", receipt.RestaurantID),
		attribute.Int("reservation.lines", len(receipt.Lines)),
	))
	defer span.End()

	attempts, err := l.withRetry(ctx, receipt.RestaurantID, func() error {
		r, version, err := l.store.LoadRestaurant(ctx, receipt.RestaurantID)
		if err != nil {
			return backoff.Permanent(err)
		}

		working := r.Clone()
		for _, line := range receipt.Lines {
			pkg := working.FindPackage(line.PackageID)
			if pkg == nil {
				l.logger.Warn("package gone, cannot restock",
					zap.String("restaurantId", receipt.RestaurantID),
					zap.String("packageId", line.PackageID),
					zap.Int("quantity", line.Quantity),
				)
				continue
			}
			pkg.Restock(line.Quantity)
		}

		ok, err := l.store.SaveRestaurantIfVersion(ctx, working, version)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("saving restaurant %s: %w", receipt.RestaurantID, err))
		}
		if !ok {
			return errVersionConflict
		}
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	l.logger.Info("stock released",
		zap.String("restaurantId", receipt.RestaurantID),
		zap.Int("lineCount", len(receipt.Lines)),
		zap.Int("attempts", attempts),
	)
	return nil
}

func (l *Ledger) withRetry(ctx context.Context, restaurantID string, op func() error) (int, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = l.baseDelay
	eb.MaxInterval = 16 * l.baseDelay
	eb.RandomizationFactor = 0.5
	eb.MaxElapsedTime = 0
	eb.Reset()

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(l.maxAttempts-1)), ctx)

	attempts := 0
	err := backoff.RetryNotify(func() error {
		attempts++
		return op()
	}, policy, func(err error, wait time.Duration) {
		l.logger.Warn("restaurant write conflict, retrying",
			zap.String("restaurantId", restaurantID),
			zap.Int("attempt", attempts),
			zap.Int("maxAttempts", l.maxAttempts),
			zap.Duration("backoff", wait),
		)
	})

	switch {
	case errors.Is(err, errVersionConflict):
		l.logger.Warn("restaurant write conflict, retries exhausted",
			zap.String("restaurantId", restaurantID),
			zap.Int("attempts", attempts),
		)
		return attempts, apperrors.NewConcurrencyExhaustedError(restaurantID, attempts)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// nothing was written; the caller may retry
		l.logger.Warn("restaurant write abandoned",
			zap.String("restaurantId", restaurantID),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return attempts, apperrors.NewConcurrencyAbortedError(restaurantID, attempts, err)
	}
	return attempts, err
}

func validateLines(lines []Line) error {
	var details []apperrors.ValidationDetail
	if len(lines) == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: "items must not be empty",
		})
	}
	for idx, line := range lines {
		if line.Quantity <= 0 || line.Quantity > MaxLineQuantity {
			details = append(details, apperrors.ValidationDetail{
				Field:   fmt.Sprintf("items[%d].quantity", idx),
				Message: fmt.Sprintf("quantity must be between 1 and %d", MaxLineQuantity),
			})
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid reservation", details...)
	}
	return nil
}

// validateMerged rejects packages whose combined quantity is out of range.
func validateMerged(lines []Line) error {
	var details []apperrors.ValidationDetail
	for _, line := range lines {
		if line.Quantity <= 0 || line.Quantity > MaxLineQuantity {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items",
				Message: fmt.Sprintf("total quantity for package %s must be between 1 and %d", line.PackageID, MaxLineQuantity),
			})
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid reservation", details...)
	}
	return nil
}

func mergeLines(lines []Line) []Line {
	index := make(map[string]int, len(lines))
	merged := make([]Line, 0, len(lines))
	for _, line := range lines {
		if i, ok := index[line.PackageID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.PackageID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

// checkStock reports a shortage for each line that cannot be served. A
// sold-out package is reported as insufficient stock; one deactivated while
// it still holds stock is reported as inactive.
func checkStock(r *domain.Restaurant, lines []Line) []apperrors.Shortage {
	var shortages []apperrors.Shortage
	for _, line := range lines {
		pkg := r.FindPackage(line.PackageID)
		switch {
		case pkg == nil:
			shortages = append(shortages, apperrors.Shortage{
				PackageID: line.PackageID,
				Requested: line.Quantity,
				Reason:    apperrors.ReasonPackageNotFound,
			})
		case !pkg.IsActive() && pkg.Quantity > 0:
			shortages = append(shortages, apperrors.Shortage{
				PackageID: pkg.ID,
				Name:      pkg.Name,
				Requested: line.Quantity,
				Reason:    apperrors.ReasonPackageInactive,
			})
		case pkg.Quantity < line.Quantity:
			shortages = append(shortages, apperrors.Shortage{
				PackageID: pkg.ID,
				Name:      pkg.Name,
				Available: pkg.Quantity,
				Requested: line.Quantity,
				Reason:    apperrors.ReasonInsufficientStock,
			})
		}
	}
	return shortages
}
