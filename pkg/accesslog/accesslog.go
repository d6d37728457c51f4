package accesslog

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/vaultpay/withdrawal-service/pkg/logger"
)

// Handler returns a middleware that logs every request with its
// status, size and duration.
func Handler(logger logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		f := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.With(r.Context(),
				"duration", time.Since(start),
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
			).Infof("%s %s %s %d", r.Method, r.RequestURI, r.Proto, ww.Status())
		}
		return http.HandlerFunc(f)
	}
}
