package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vaultpay/withdrawal-service/pkg/logger"
)

type Status string

const (
	Idle    Status = "idle"
	Loading Status = "loading"
	Success Status = "success"
	Failed  Status = "error"
)

// ErrorKind distinguishes a server-reported rejection from a transport
// failure. Only the latter is safe to retry with the same key.
type ErrorKind string

const (
	ErrorNone    ErrorKind = "none"
	ErrorAPI     ErrorKind = "api"
	ErrorNetwork ErrorKind = "network"
)

// Form holds the user-entered draft fields, mutable until
// submission begins.
type Form struct {
	Amount      float64
	Destination string
	Confirm     bool
}

// Validate fails closed: an invalid form never reaches the network.
func (f Form) Validate() error {
	if math.IsNaN(f.Amount) || math.IsInf(f.Amount, 0) || f.Amount <= 0 {
		return errors.New("amount must be a positive finite number")
	}
	if strings.TrimSpace(f.Destination) == "" {
		return errors.New("destination must not be empty")
	}
	if !f.Confirm {
		return errors.New("confirmation required")
	}
	return nil
}

// RequestMachine tracks one form session's submission lifecycle. It
// owns idempotency key generation and reuse: a key minted for a failed
// attempt is retained and reused on retry, and cleared on success so a
// later submit represents a new intent with a fresh key.
//
// At most one request is in flight per machine; a submit while loading
// is a no-op. State is mirrored to the snapshot store after every
// transition.
type RequestMachine struct {
	mu        sync.Mutex
	api       API
	snapshots SnapshotStore
	ttl       time.Duration
	logger    logger.Logger

	status    Status
	errorKind ErrorKind
	form      Form

	lastWithdrawal *Withdrawal
	lastKey        string
	lastRequestAt  time.Time

	// Injected for tests.
	newKey func() string
	now    func() time.Time
}

func NewRequestMachine(api API, snapshots SnapshotStore, ttl time.Duration, logger logger.Logger) (*RequestMachine, error) {
	if api == nil {
		return nil, errors.New("nil dependency: api")
	}
	if snapshots == nil {
		return nil, errors.New("nil dependency: snapshot store")
	}
	if logger == nil {
		return nil, errors.New("nil dependency: logger")
	}
	return &RequestMachine{
		api:       api,
		snapshots: snapshots,
		ttl:       ttl,
		logger:    logger,
		status:    Idle,
		errorKind: ErrorNone,
		newKey:    uuid.NewString,
		now:       time.Now,
	}, nil
}

// Restore loads the persisted snapshot into the machine. Snapshots
// older than the TTL are discarded: the stale key must not be reused
// for what is by now a new intent.
func (m *RequestMachine) Restore() {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, err := m.snapshots.Get()
	if err != nil || snapshot == nil {
		return
	}

	if m.now().Sub(snapshot.LastRequestAt) > m.ttl {
		if err := m.snapshots.Remove(); err != nil {
			m.logger.Errorf("remove expired snapshot: %s", err)
		}
		return
	}

	m.form = Form{
		Amount:      snapshot.Amount,
		Destination: snapshot.Destination,
		Confirm:     snapshot.Confirm,
	}
	m.lastWithdrawal = snapshot.LastWithdrawal
	m.lastKey = snapshot.LastIdempotencyKey
	m.lastRequestAt = snapshot.LastRequestAt
}

// SetForm updates the draft fields. Ignored while a request is
// in flight.
func (m *RequestMachine) SetForm(form Form) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == Loading {
		return
	}
	m.form = form
	m.persistLocked()
}

// Submit validates the form and performs the creation call. When the
// previous attempt failed the retained key is reused, keeping the retry
// idempotent; otherwise a fresh key is minted.
func (m *RequestMachine) Submit(ctx context.Context) error {
	m.mu.Lock()

	// Double-submission guard.
	if m.status == Loading {
		m.mu.Unlock()
		return nil
	}

	if err := m.form.Validate(); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("invalid form: %w", err)
	}

	key := m.lastKey
	if key == "" {
		key = m.newKey()
		m.lastKey = key
	}

	form := m.form
	m.status = Loading
	m.errorKind = ErrorNone
	m.lastRequestAt = m.now()
	m.persistLocked()
	m.mu.Unlock()

	withdrawal, err := m.api.CreateWithdrawal(ctx, key, form.Amount, form.Destination)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.status = Failed
		// The key is retained in both cases: after a transport failure it
		// makes the retry idempotent, and after a rejection discarding it
		// silently would let a re-derived key create a second record for
		// the same intent.
		var netErr *NetworkError
		if errors.As(err, &netErr) {
			m.errorKind = ErrorNetwork
		} else {
			m.errorKind = ErrorAPI
		}
		m.persistLocked()
		return err
	}

	m.status = Success
	m.errorKind = ErrorNone
	m.lastWithdrawal = withdrawal
	// A completed logical request must never be resubmitted under the
	// same key; the next submit is a new intent.
	m.lastKey = ""
	m.persistLocked()

	return nil
}

// RefreshStatus re-queries the last known record and overwrites the
// cached copy. It never resubmits, and a failed refresh leaves the
// machine state untouched.
func (m *RequestMachine) RefreshStatus(ctx context.Context) error {
	m.mu.Lock()

	if m.status == Loading {
		m.mu.Unlock()
		return nil
	}
	if m.lastWithdrawal == nil {
		m.mu.Unlock()
		return errors.New("no withdrawal to refresh")
	}

	id := m.lastWithdrawal.ID
	prevStatus, prevKind := m.status, m.errorKind
	m.status = Loading
	m.mu.Unlock()

	withdrawal, err := m.api.GetWithdrawal(ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.status, m.errorKind = prevStatus, prevKind
		return err
	}

	m.status = Success
	m.errorKind = ErrorNone
	m.lastWithdrawal = withdrawal
	m.persistLocked()

	return nil
}

// Abandon gives up on a failed attempt and returns to idle. The intent
// is explicitly dropped, so the retained key and snapshot go with it.
func (m *RequestMachine) Abandon() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != Failed {
		return
	}

	m.status = Idle
	m.errorKind = ErrorNone
	m.lastKey = ""
	m.form = Form{}
	if err := m.snapshots.Remove(); err != nil {
		m.logger.Errorf("remove snapshot: %s", err)
	}
}

func (m *RequestMachine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *RequestMachine) ErrorKind() ErrorKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errorKind
}

func (m *RequestMachine) Form() Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.form
}

func (m *RequestMachine) LastWithdrawal() *Withdrawal {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastWithdrawal == nil {
		return nil
	}
	withdrawal := *m.lastWithdrawal

	return &withdrawal
}

func (m *RequestMachine) LastIdempotencyKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastKey
}

// persistLocked mirrors the state to the snapshot slot. Persistence is
// best effort and never blocks the caller.
func (m *RequestMachine) persistLocked() {
	snapshot := &Snapshot{
		Amount:             m.form.Amount,
		Destination:        m.form.Destination,
		Confirm:            m.form.Confirm,
		LastWithdrawal:     m.lastWithdrawal,
		LastIdempotencyKey: m.lastKey,
		LastRequestAt:      m.lastRequestAt,
	}
	if err := m.snapshots.Set(snapshot); err != nil {
		m.logger.Errorf("persist snapshot: %s", err)
	}
}
