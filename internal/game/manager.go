package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"
	"github.com/playpool/duelserver/internal/events"
	"github.com/playpool/duelserver/internal/ledger"
)

var (
	ErrNotConnected  = errors.New("connection not registered")
	ErrNoIdentity    = errors.New("account id is required")
	ErrIdentityBound = errors.New("connection already bound to another account")
)

// IdentityVerifier checks a client supplied token against the account it
// claims. A nil verifier accepts every claim.
type IdentityVerifier interface {
	VerifyIdentity(token, accountID string) error
}

// Config holds the Manager's collaborators and tunables.
type Config struct {
	Ledger    ledger.Ledger
	Notifier  Notifier
	Publisher events.Publisher
	Verifier  IdentityVerifier
	Scheduler Scheduler
	Log       slog.Logger

	GracePeriod   time.Duration
	MinStake      int64
	MaxStake      int64
	LedgerTimeout time.Duration

	NewID func() string
	Now   func() time.Time
}

// Manager owns the stake queue, the match registry and every live match.
// All state changes happen under mu; ledger calls run outside it.
type Manager struct {
	mu       sync.Mutex
	conns    map[string]*Identity
	queue    *StakeQueue
	registry *Registry
	pending  map[string]*pendingPair
	pairing  map[string]*pendingPair

	ledger    ledger.Ledger
	notify    Notifier
	publisher events.Publisher
	verifier  IdentityVerifier
	sched     Scheduler
	log       slog.Logger

	grace         time.Duration
	minStake      int64
	maxStake      int64
	ledgerTimeout time.Duration
	newID         func() string
	now           func() time.Time
}

func NewManager(cfg Config) *Manager {
	m := &Manager{
		conns:         make(map[string]*Identity),
		queue:         NewStakeQueue(),
		registry:      NewRegistry(),
		pending:       make(map[string]*pendingPair),
		pairing:       make(map[string]*pendingPair),
		ledger:        cfg.Ledger,
		notify:        cfg.Notifier,
		publisher:     cfg.Publisher,
		verifier:      cfg.Verifier,
		sched:         cfg.Scheduler,
		log:           cfg.Log,
		grace:         cfg.GracePeriod,
		minStake:      cfg.MinStake,
		maxStake:      cfg.MaxStake,
		ledgerTimeout: cfg.LedgerTimeout,
		newID:         cfg.NewID,
		now:           cfg.Now,
	}
	if m.publisher == nil {
		m.publisher = events.Nop{}
	}
	if m.sched == nil {
		m.sched = clockScheduler{}
	}
	if m.log == nil {
		m.log = slog.Disabled
	}
	if m.grace <= 0 {
		m.grace = 30 * time.Second
	}
	if m.ledgerTimeout <= 0 {
		m.ledgerTimeout = 5 * time.Second
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// SetNotifier attaches the gateway once it exists. It must be called
// before any connection is registered.
func (mgr *Manager) SetNotifier(n Notifier) {
	mgr.mu.Lock()
	mgr.notify = n
	mgr.mu.Unlock()
}

// Connect registers a new transport connection with no identity yet.
func (mgr *Manager) Connect(connID string) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.conns[connID] = &Identity{ConnectionID: connID}
	mgr.log.Debugf("connection %s registered", connID)
}

// ClaimIdentity binds accountID to the connection and, if the account holds
// a seat in a live match, moves that seat onto this connection.
func (mgr *Manager) ClaimIdentity(connID, accountID, displayName, token string) error {
	if accountID == "" {
		mgr.sendErr(connID, "accountId is required")
		return ErrNoIdentity
	}
	if mgr.verifier != nil {
		if err := mgr.verifier.VerifyIdentity(token, accountID); err != nil {
			mgr.log.Warnf("identity claim for %s on %s rejected: %v", accountID, connID, err)
			mgr.sendErr(connID, "Identity verification failed")
			return err
		}
	}
	if displayName == "" {
		displayName = accountID
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	id, ok := mgr.conns[connID]
	if !ok {
		return ErrNotConnected
	}
	if id.AccountID != "" && id.AccountID != accountID && mgr.busyLocked(connID) {
		mgr.notify.Send(connID, EventError, Message{Message: "Connection already bound to another account"})
		return ErrIdentityBound
	}
	id.AccountID = accountID
	id.DisplayName = displayName
	mgr.log.Infof("connection %s claimed account %s", connID, accountID)

	mgr.reconnectLocked(connID, accountID)
	return nil
}

// Disconnect forgets the connection. A queued ticket is dropped; a seat in
// a live match enters the grace period.
func (mgr *Manager) Disconnect(connID string) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	delete(mgr.conns, connID)
	if mgr.queue.Leave(connID) {
		mgr.log.Debugf("connection %s left the queue on disconnect", connID)
	}
	mgr.disconnectLocked(connID)
}

// QueueStatus returns the number of waiters per stake.
func (mgr *Manager) QueueStatus() map[int64]int {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.queue.Depths()
}

// ActiveMatches lists every match in the registry.
func (mgr *Manager) ActiveMatches() []MatchSummary {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	all := mgr.registry.All()
	out := make([]MatchSummary, 0, len(all))
	for _, m := range all {
		out = append(out, m.summary())
	}
	return out
}

// busyLocked reports whether connID is queued, being paired or seated.
func (mgr *Manager) busyLocked(connID string) bool {
	return mgr.queue.Contains(connID) || mgr.pending[connID] != nil || mgr.registry.ByConnection(connID) != nil
}

func (mgr *Manager) sendErr(connID, msg string) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.notify.Send(connID, EventError, Message{Message: msg})
}

func (mgr *Manager) ledgerCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, mgr.ledgerTimeout)
}

func (mgr *Manager) publish(ev events.Event) {
	ev.At = mgr.now().UTC()
	mgr.publisher.Publish(context.Background(), ev)
}
