package game

import (
	"sort"
	"time"
)

// Registry indexes live matches by id, connection and account. It is not
// safe for concurrent use; the Manager serialises access.
type Registry struct {
	matches   map[string]*Match
	byConn    map[string]*Match
	byAccount map[string]*Match
}

func NewRegistry() *Registry {
	return &Registry{
		matches:   make(map[string]*Match),
		byConn:    make(map[string]*Match),
		byAccount: make(map[string]*Match),
	}
}

// Create registers a new match in STARTING with first in slot 1.
func (r *Registry) Create(id string, first, second Ticket, stake int64, now time.Time) *Match {
	m := newMatch(id, first, second, stake, now)
	r.matches[id] = m
	for _, p := range m.Players {
		r.byConn[p.ConnectionID] = m
		r.byAccount[p.AccountID] = m
	}
	return m
}

func (r *Registry) Get(id string) (*Match, bool) {
	m, ok := r.matches[id]
	return m, ok
}

// ByConnection returns the match the connection currently holds a seat in.
func (r *Registry) ByConnection(connID string) *Match {
	return r.byConn[connID]
}

func (r *Registry) ByAccount(accountID string) *Match {
	return r.byAccount[accountID]
}

// SlotOf returns the seat bound to connID, or NoSlot.
func (r *Registry) SlotOf(connID string) Slot {
	m := r.byConn[connID]
	if m == nil {
		return NoSlot
	}
	for i, p := range m.Players {
		if p.ConnectionID == connID {
			return Slot(i + 1)
		}
	}
	return NoSlot
}

// OpponentOf returns the seat facing connID.
func (r *Registry) OpponentOf(connID string) (*PlayerSlot, bool) {
	s := r.SlotOf(connID)
	if s == NoSlot {
		return nil, false
	}
	return r.byConn[connID].Player(s.Other()), true
}

// Rebind moves seat s of m to connID and returns the previous connection.
func (r *Registry) Rebind(m *Match, s Slot, connID string) string {
	p := m.Player(s)
	old := p.ConnectionID
	if r.byConn[old] == m {
		delete(r.byConn, old)
	}
	p.ConnectionID = connID
	r.byConn[connID] = m
	return old
}

// Destroy removes every index entry for the match. It reports false when
// the match was already gone, which callers use as the settle-once gate.
func (r *Registry) Destroy(id string) (*Match, bool) {
	m, ok := r.matches[id]
	if !ok {
		return nil, false
	}
	m.cancelGrace()
	delete(r.matches, id)
	for _, p := range m.Players {
		if r.byConn[p.ConnectionID] == m {
			delete(r.byConn, p.ConnectionID)
		}
		if r.byAccount[p.AccountID] == m {
			delete(r.byAccount, p.AccountID)
		}
	}
	return m, true
}

func (r *Registry) Len() int { return len(r.matches) }

// All returns matches ordered by creation time.
func (r *Registry) All() []*Match {
	out := make([]*Match, 0, len(r.matches))
	for _, m := range r.matches {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
