package game

import (
	"encoding/json"
	"time"
)

// Identity is what a connection claims at authentication time.
type Identity struct {
	ConnectionID string
	AccountID    string
	DisplayName  string
}

// Ticket is a queued player waiting at one stake.
type Ticket struct {
	ConnectionID string
	AccountID    string
	DisplayName  string
	JoinedAt     time.Time
}

// PlayerSlot is one seat of a match.
type PlayerSlot struct {
	ConnectionID string
	AccountID    string
	DisplayName  string
	Ready        bool
	Connected    bool
}

// Match is one live room. It is only mutated while the Manager lock is held.
type Match struct {
	ID               string
	Stake            int64
	Pot              int64
	Players          [2]PlayerSlot
	CurrentPlayer    Slot
	Phase            Phase
	LastBallState    json.RawMessage
	DisconnectedSlot Slot
	CreatedAt        time.Time
	StartedAt        *time.Time

	graceTimer Timer
	graceGen   int
}

func newMatch(id string, first, second Ticket, stake int64, now time.Time) *Match {
	return &Match{
		ID:    id,
		Stake: stake,
		Pot:   stake * 2,
		Players: [2]PlayerSlot{
			{ConnectionID: first.ConnectionID, AccountID: first.AccountID, DisplayName: first.DisplayName, Connected: true},
			{ConnectionID: second.ConnectionID, AccountID: second.AccountID, DisplayName: second.DisplayName, Connected: true},
		},
		CurrentPlayer: Slot1,
		Phase:         PhaseStarting,
		CreatedAt:     now,
	}
}

// Player returns the seat for s. s must be Slot1 or Slot2.
func (m *Match) Player(s Slot) *PlayerSlot {
	return &m.Players[s-1]
}

// SlotOfAccount finds the seat held by accountID.
func (m *Match) SlotOfAccount(accountID string) Slot {
	switch accountID {
	case m.Players[0].AccountID:
		return Slot1
	case m.Players[1].AccountID:
		return Slot2
	}
	return NoSlot
}

// cancelGrace stops the pending disconnect timer, if any. A callback that
// already fired is neutralised by the generation bump.
func (m *Match) cancelGrace() {
	if m.graceTimer != nil {
		m.graceTimer.Stop()
		m.graceTimer = nil
	}
	m.graceGen++
	m.DisconnectedSlot = NoSlot
}

// MatchSummary is a read-only view for operators.
type MatchSummary struct {
	MatchID          string    `json:"matchId"`
	Player1          string    `json:"player1"`
	Player2          string    `json:"player2"`
	Stake            int64     `json:"stake"`
	Pot              int64     `json:"pot"`
	Phase            Phase     `json:"phase"`
	CurrentPlayer    Slot      `json:"currentPlayer"`
	DisconnectedSlot Slot      `json:"disconnectedSlot,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (m *Match) summary() MatchSummary {
	return MatchSummary{
		MatchID:          m.ID,
		Player1:          m.Players[0].DisplayName,
		Player2:          m.Players[1].DisplayName,
		Stake:            m.Stake,
		Pot:              m.Pot,
		Phase:            m.Phase,
		CurrentPlayer:    m.CurrentPlayer,
		DisconnectedSlot: m.DisconnectedSlot,
		CreatedAt:        m.CreatedAt,
	}
}
