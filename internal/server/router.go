package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"surplus/internal/notification"
	"surplus/internal/order/controller"
	"surplus/internal/restaurant"
)

func NewRouter(
	orderCtrl *controller.OrderController,
	restaurantCtrl *restaurant.Controller,
	wsHandler *notification.Handler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/ws/restaurants/{restaurantId}", wsHandler.HandleRestaurantSession)

	r.Group(func(r chi.Router) {
		r.Use(requestLogger(logger))
		r.Use(middleware.Timeout(30 * time.Second))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderCtrl.Submit)
			r.Get("/{orderId}", orderCtrl.GetOrder)
			r.Patch("/{orderId}/status", orderCtrl.UpdateStatus)
			r.Post("/{orderId}/cancel", orderCtrl.Cancel)
		})

		r.Route("/restaurants/{restaurantId}", func(r chi.Router) {
			r.Get("/orders", orderCtrl.ListByRestaurant)
			r.Get("/packages", restaurantCtrl.HandleListPackages)
		})
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request handled",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
