package notification

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Channel delivers an event over one medium.
type Channel interface {
	Send(ctx context.Context, restaurantID string, event Event) error
}

type Route struct {
	Name    string
	Channel Channel
}

// Dispatcher fans an event out to every route in the background. Failures
// are logged and never reach the caller.
type Dispatcher struct {
	routes  []Route
	timeout time.Duration
	logger  *zap.Logger
	tracer  trace.Tracer
	wg      sync.WaitGroup
}

func NewDispatcher(logger *zap.Logger, timeout time.Duration, routes ...Route) *Dispatcher {
	return &Dispatcher{
		routes:  routes,
		timeout: timeout,
		logger:  logger,
		tracer:  otel.Tracer("surplus/notification"),
	}
}

func (d *Dispatcher) Notify(ctx context.Context, restaurantID string, event Event) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		sendCtx, span := d.tracer.Start(sendCtx, "notification.dispatch", trace.WithAttributes(
			attribute.String("restaurant.id", restaurantID),
			attribute.String("order.id", event.OrderID),
			attribute.String("event.type", string(event.Type)),
		))
		defer span.End()

		for _, route := range d.routes {
			if err := route.Channel.Send(sendCtx, restaurantID, event); err != nil {
				d.logger.Warn("notification failed",
					zap.String("channel", route.Name),
					zap.String("restaurantId", restaurantID),
					zap.String("orderId", event.OrderID),
					zap.String("event", string(event.Type)),
					zap.Error(err),
				)
				continue
			}
			d.logger.Debug("notification sent",
				zap.String("channel", route.Name),
				zap.String("restaurantId", restaurantID),
				zap.String("orderId", event.OrderID),
			)
		}
	}()
}

// Wait blocks until every in-flight dispatch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
