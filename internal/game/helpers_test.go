package game

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/playpool/duelserver/internal/ledger"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	s       *fakeScheduler
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler only runs callbacks when the test says so.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) pending() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

func (s *fakeScheduler) fireAll() {
	timers := s.pending()
	s.mu.Lock()
	for _, t := range timers {
		t.fired = true
	}
	s.mu.Unlock()
	for _, t := range timers {
		t.f()
	}
}

func (s *fakeScheduler) last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

type sent struct {
	conn    string
	event   string
	payload any
}

type recorder struct {
	mu     sync.Mutex
	msgs   []sent
	closed []string
}

func (r *recorder) Send(connID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, sent{conn: connID, event: event, payload: payload})
}

func (r *recorder) Close(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, connID)
}

func (r *recorder) to(conn string) []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sent
	for _, m := range r.msgs {
		if m.conn == conn {
			out = append(out, m)
		}
	}
	return out
}

func (r *recorder) events(conn string) []string {
	var out []string
	for _, m := range r.to(conn) {
		out = append(out, m.event)
	}
	return out
}

func (r *recorder) count(conn, event string) int {
	n := 0
	for _, m := range r.to(conn) {
		if m.event == event {
			n++
		}
	}
	return n
}

// lastOf returns the payload of the latest event of the given name.
func (r *recorder) lastOf(t *testing.T, conn, event string) any {
	t.Helper()
	msgs := r.to(conn)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].event == event {
			return msgs[i].payload
		}
	}
	t.Fatalf("no %s sent to %s (got %v)", event, conn, r.events(conn))
	return nil
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

// hookLedger wraps a ledger to count settlement calls and inject failures.
type hookLedger struct {
	ledger.Ledger

	mu          sync.Mutex
	credits     int
	losses      int
	beforeDebit func(accountID string)
	debitErr    map[string]error
	creditFails int
}

func (l *hookLedger) Debit(ctx context.Context, accountID string, amount int64, ref string) error {
	l.mu.Lock()
	hook := l.beforeDebit
	err := l.debitErr[accountID]
	l.mu.Unlock()
	if hook != nil {
		hook(accountID)
	}
	if err != nil {
		return err
	}
	return l.Ledger.Debit(ctx, accountID, amount, ref)
}

func (l *hookLedger) Credit(ctx context.Context, accountID string, amount int64, ref string) error {
	l.mu.Lock()
	if l.creditFails > 0 {
		l.creditFails--
		l.mu.Unlock()
		return fmt.Errorf("ledger unavailable")
	}
	l.credits++
	l.mu.Unlock()
	return l.Ledger.Credit(ctx, accountID, amount, ref)
}

func (l *hookLedger) RecordLoss(ctx context.Context, accountID string, ref string) error {
	l.mu.Lock()
	l.losses++
	l.mu.Unlock()
	return l.Ledger.RecordLoss(ctx, accountID, ref)
}

func (l *hookLedger) settlements() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.credits, l.losses
}

type harness struct {
	mgr   *Manager
	mem   *ledger.Memory
	led   *hookLedger
	rec   *recorder
	sched *fakeScheduler

	mu  sync.Mutex
	ids int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		mem:   ledger.NewMemory(0, 0),
		rec:   &recorder{},
		sched: &fakeScheduler{},
	}
	h.led = &hookLedger{Ledger: h.mem, debitErr: make(map[string]error)}
	h.mgr = NewManager(Config{
		Ledger:        h.led,
		Notifier:      h.rec,
		Scheduler:     h.sched,
		GracePeriod:   30 * time.Second,
		MinStake:      10,
		MaxStake:      1000,
		LedgerTimeout: time.Second,
		NewID: func() string {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.ids++
			return fmt.Sprintf("match-%d", h.ids)
		},
	})
	return h
}

// player opens a connection, funds the account and claims it.
func (h *harness) player(t *testing.T, conn, account string, balance int64) {
	t.Helper()
	if balance > 0 {
		h.mem.Deposit(account, balance)
	}
	h.mgr.Connect(conn)
	require.NoError(t, h.mgr.ClaimIdentity(conn, account, displayName(account), ""))
}

func (h *harness) balance(t *testing.T, account string) int64 {
	t.Helper()
	a, ok := h.mem.Account(account)
	require.True(t, ok, "account %s", account)
	return a.Balance
}

// startMatch seats alice (c1) and bob (c2) at stake 20 and readies both.
func (h *harness) startMatch(t *testing.T) *Match {
	t.Helper()
	m := h.pairMatch(t)
	h.mgr.Ready("c1")
	h.mgr.Ready("c2")
	require.Equal(t, PhasePlaying, m.Phase)
	return m
}

// pairMatch seats alice (c1) and bob (c2) at stake 20 without readying.
func (h *harness) pairMatch(t *testing.T) *Match {
	t.Helper()
	h.player(t, "c1", "alice", 100)
	h.player(t, "c2", "bob", 100)
	ctx := context.Background()
	h.mgr.JoinQueue(ctx, "c1", 20)
	h.mgr.JoinQueue(ctx, "c2", 20)
	m := h.mgr.registry.ByConnection("c1")
	require.NotNil(t, m)
	return m
}

func displayName(account string) string {
	if account == "" {
		return ""
	}
	return strings.ToUpper(account[:1]) + account[1:]
}
