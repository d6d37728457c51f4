package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nanmu42/gzip"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vaultpay/withdrawal-service/internal/application/errs"
	"github.com/vaultpay/withdrawal-service/pkg/accesslog"
	"github.com/vaultpay/withdrawal-service/pkg/limiter"
	"github.com/vaultpay/withdrawal-service/pkg/logger"
	"github.com/vaultpay/withdrawal-service/pkg/unzip"
)

func InitChi(logger logger.Logger) *chi.Mux {
	router := chi.NewRouter()
	router.Use(accesslog.Handler(logger))
	router.Use(middleware.Recoverer)
	router.Use(gzip.DefaultHandler().WrapHandler)
	router.Use(unzip.Middleware(logger))

	router.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return router
}

type (
	MiddlewareFunc func(http.Handler) http.Handler

	ChiServerOptions struct {
		BaseRouter  chi.Router
		BaseURL     string
		Middlewares []MiddlewareFunc
	}
)

// RateLimit rejects requests above the configured creation rate
// with 429 before they reach the service.
func RateLimit(limiter *limiter.DynamicRateLimiter) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		f := func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(errs.JSON{Message: errs.ErrRateLimit.Error()})
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(f)
	}
}
