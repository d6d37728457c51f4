package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_CreateWithdrawal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/withdrawals", r.URL.Path)
		require.Equal(t, "k-1", r.Header.Get("Idempotency-Key"))

		var payload createPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(withdrawalEnvelope{Withdrawal: &Withdrawal{
			ID:          "id-1",
			Amount:      payload.Amount,
			Destination: payload.Destination,
			Status:      "pending",
			CreatedAt:   time.Now().UTC(),
		}})
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, time.Second)

	withdrawal, err := c.CreateWithdrawal(context.Background(), "k-1", 100.5, "acct-1")
	require.NoError(t, err)

	assert.Equal(t, "id-1", withdrawal.ID)
	assert.Equal(t, 100.5, withdrawal.Amount)
	assert.Equal(t, "pending", withdrawal.Status)
}

func TestHTTPClient_ServerRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(errorBody{Message: "duplicate request: idempotency key already used"})
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, time.Second)

	_, err := c.CreateWithdrawal(context.Background(), "k-1", 100, "acct-1")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsDuplicate())
	assert.Equal(t, "duplicate request: idempotency key already used", apiErr.Message)

	var netErr *NetworkError
	assert.False(t, errors.As(err, &netErr), "a received rejection is not a transport failure")
}

func TestHTTPClient_TransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ts.Close() // nothing is listening anymore

	c := NewHTTPClient(ts.URL, time.Second)

	_, err := c.CreateWithdrawal(context.Background(), "k-1", 100, "acct-1")
	require.Error(t, err)

	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestHTTPClient_GetWithdrawal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)

		switch r.URL.Path {
		case "/withdrawals/id-1":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(withdrawalEnvelope{Withdrawal: &Withdrawal{
				ID: "id-1", Amount: 42, Destination: "acct-9", Status: "processing",
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(errorBody{Message: "not found"})
		}
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, time.Second)

	withdrawal, err := c.GetWithdrawal(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, "processing", withdrawal.Status)

	_, err = c.GetWithdrawal(context.Background(), "id-2")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
