package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/withdrawal-service/internal/application/errs"
)

type WithdrawalStatus string

const (
	PENDING    WithdrawalStatus = "pending"
	PROCESSING WithdrawalStatus = "processing"
	COMPLETED  WithdrawalStatus = "completed"
	FAILED     WithdrawalStatus = "failed"
)

// WithdrawalID is an opaque server-generated identifier, never reused.
type WithdrawalID string

// NewWithdrawalID returns a fresh globally unique identifier.
func NewWithdrawalID() WithdrawalID {
	return WithdrawalID(uuid.NewString())
}

type Withdrawal struct {
	ID          WithdrawalID
	Amount      decimal.Decimal
	Destination Destination
	Status      WithdrawalStatus
	CreatedAt   time.Time
}

// NewWithdrawal constructs a pending withdrawal with a fresh identifier.
// All fields are immutable once assigned; status is advanced by an
// external settlement process, never here.
func NewWithdrawal(amount decimal.Decimal, destination Destination) *Withdrawal {
	return &Withdrawal{
		ID:          NewWithdrawalID(),
		Amount:      amount,
		Destination: destination,
		Status:      PENDING,
		CreatedAt:   time.Now().UTC(),
	}
}

type Destination string

// NewDestination trims the given address and rejects empty ones.
func NewDestination(s string) (Destination, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errs.ErrInvalidDestination
	}

	return Destination(s), nil
}
