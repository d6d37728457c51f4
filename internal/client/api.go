package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Withdrawal is the client-side view of a record as serialized on
// the wire.
type Withdrawal struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Destination string    `json:"destination"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// API is the server surface the request machine talks to.
type API interface {
	CreateWithdrawal(ctx context.Context, idempotencyKey string, amount float64, destination string) (*Withdrawal, error)
	GetWithdrawal(ctx context.Context, id string) (*Withdrawal, error)
}

// NetworkError marks a transport failure: the call did not reach the
// server or no response was received. The server state is unknown, so
// retrying with the same idempotency key is safe.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a server-reported rejection carried in an error body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server rejected request (%d): %s", e.StatusCode, e.Message)
}

// IsDuplicate reports whether the rejection is a duplicate-request
// conflict: the key already produced a record, check its status
// instead of resubmitting.
func (e *APIError) IsDuplicate() bool {
	return e.StatusCode == http.StatusConflict
}

// HTTPClient implements API over the wire contract.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ API = (*HTTPClient)(nil)

type createPayload struct {
	Amount      float64 `json:"amount"`
	Destination string  `json:"destination"`
}

type withdrawalEnvelope struct {
	Withdrawal *Withdrawal `json:"withdrawal"`
}

type errorBody struct {
	Message string `json:"message"`
}

func (c *HTTPClient) CreateWithdrawal(ctx context.Context, idempotencyKey string, amount float64, destination string) (*Withdrawal, error) {
	body, err := json.Marshal(createPayload{Amount: amount, Destination: destination})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/withdrawals", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		return nil, decodeAPIError(res)
	}

	var envelope withdrawalEnvelope
	if err = json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("decode response: %w", err)}
	}

	return envelope.Withdrawal, nil
}

func (c *HTTPClient) GetWithdrawal(ctx context.Context, id string) (*Withdrawal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/withdrawals/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, decodeAPIError(res)
	}

	var envelope withdrawalEnvelope
	if err = json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("decode response: %w", err)}
	}

	return envelope.Withdrawal, nil
}

func decodeAPIError(res *http.Response) error {
	var body errorBody
	// A missing or unreadable message still yields a usable error.
	_ = json.NewDecoder(res.Body).Decode(&body)
	if body.Message == "" {
		body.Message = res.Status
	}

	return &APIError{StatusCode: res.StatusCode, Message: body.Message}
}
