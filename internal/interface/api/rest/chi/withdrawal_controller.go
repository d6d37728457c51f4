package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/withdrawal-service/internal/application/errs"
	"github.com/vaultpay/withdrawal-service/internal/application/interfaces"
	"github.com/vaultpay/withdrawal-service/internal/application/params"
	"github.com/vaultpay/withdrawal-service/internal/domain/entities"
	"github.com/vaultpay/withdrawal-service/internal/interface/api/rest/header"
	"github.com/vaultpay/withdrawal-service/internal/interface/api/rest/request"
	"github.com/vaultpay/withdrawal-service/internal/interface/api/rest/response"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "withdrawal_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "withdrawal_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)

type WithdrawalController struct {
	service interfaces.WithdrawalService
}

// endpointLabel returns the matched route template, keeping the metric
// label set bounded regardless of the ids requested.
func endpointLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// NewWithdrawalController registers http.Handlers with additional options.
func NewWithdrawalController(service interfaces.WithdrawalService, options ChiServerOptions) {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}

	c := WithdrawalController{
		service: service,
	}

	r.Group(func(r chi.Router) {
		for _, middleware := range options.Middlewares {
			r.Use(middleware)
		}
		r.Post(options.BaseURL+"/withdrawals", c.Create)
		r.Get(options.BaseURL+"/withdrawals/{id}", c.Get)
	})
}

// Create a withdrawal (POST /withdrawals HTTP/1.1).
func (c *WithdrawalController) Create(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(requestDuration.WithLabelValues(http.MethodPost, endpointLabel(r)))
	defer timer.ObserveDuration()

	// The idempotency header is checked before the body is even read.
	key := header.GetIdempotencyKey(r)
	if key == "" {
		c.ErrorHandlerFunc(w, r,
			fmt.Errorf("%w: missing %s header", errs.ErrMissingIdempotencyKey, header.IdempotencyKey))
		return
	}

	// Check content type.
	if !header.IsApplicationJSONContentType(r) {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: invalid content type", errs.ErrInvalidRequest))
		return
	}

	// Read, decode and close request body.
	defer r.Body.Close()

	var payload request.CreateWithdrawal

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		c.ErrorHandlerFunc(w, r, checkJSONDecodeError(err))
		return
	}

	// Check if amount is meaningful.
	if payload.Amount.LessThanOrEqual(decimal.NewFromInt(0)) {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: must be greater than zero", errs.ErrInvalidAmount))
		return
	}

	// Create selfvalidating destination entity.
	destination, err := entities.NewDestination(payload.Destination)
	if err != nil {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: must not be empty", err))
		return
	}

	withdrawal, err := c.service.Create(r.Context(),
		params.NewCreateWithdrawal(key, payload.Amount, destination))
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	requestsTotal.WithLabelValues(http.MethodPost, endpointLabel(r),
		strconv.Itoa(http.StatusCreated)).Inc()

	// Encode and return. Status 201.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err = json.NewEncoder(w).Encode(response.NewWithdrawalEnvelope(withdrawal)); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Get a withdrawal by id (GET /withdrawals/{id} HTTP/1.1).
func (c *WithdrawalController) Get(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(requestDuration.WithLabelValues(http.MethodGet, endpointLabel(r)))
	defer timer.ObserveDuration()

	id := entities.WithdrawalID(chi.URLParam(r, "id"))

	withdrawal, err := c.service.Get(r.Context(), id)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	requestsTotal.WithLabelValues(http.MethodGet, endpointLabel(r),
		strconv.Itoa(http.StatusOK)).Inc()

	// Encode the record. Status 200 OK.
	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(response.NewWithdrawalEnvelope(withdrawal)); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// ErrorHandlerFunc handles sending of an error in the JSON format,
// writing appropriate status code and handling the failure to marshal that.
func (c *WithdrawalController) ErrorHandlerFunc(w http.ResponseWriter, r *http.Request, err error) {
	errJSON := errs.JSON{Message: err.Error()}
	code := http.StatusInternalServerError

	switch {
	// Status Bad Request (400).
	case errors.Is(err, errs.ErrInvalidRequest),
		errors.Is(err, errs.ErrMissingIdempotencyKey):
		code = http.StatusBadRequest

	// Status Not Found (404).
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound

	// Status Conflict (409).
	case errors.Is(err, errs.ErrDuplicateRequest):
		code = http.StatusConflict

	// Status Unprocessable Entity (422).
	case errors.Is(err, errs.ErrInvalidAmount),
		errors.Is(err, errs.ErrInvalidDestination):
		code = http.StatusUnprocessableEntity

	// Status Too Many Requests (429).
	case errors.Is(err, errs.ErrRateLimit):
		code = http.StatusTooManyRequests
	}

	requestsTotal.WithLabelValues(r.Method, endpointLabel(r), strconv.Itoa(code)).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err = json.NewEncoder(w).Encode(errJSON); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
