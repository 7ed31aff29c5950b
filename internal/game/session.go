package game

import (
	"context"
	"math"

	"github.com/playpool/duelserver/internal/events"
)

// seatLocked resolves the caller's match and seat, reporting an error to
// the caller when there is none.
func (mgr *Manager) seatLocked(connID string) (*Match, Slot, bool) {
	m := mgr.registry.ByConnection(connID)
	if m == nil {
		mgr.notify.Send(connID, EventError, Message{Message: "Not in a match"})
		return nil, NoSlot, false
	}
	return m, mgr.registry.SlotOf(connID), true
}

// Ready marks the caller's seat ready. The second ready moves the match to
// PLAYING with slot 1 to break.
func (mgr *Manager) Ready(connID string) {
	mgr.mu.Lock()
	m, s, ok := mgr.seatLocked(connID)
	if !ok || m.Phase != PhaseStarting {
		mgr.mu.Unlock()
		return
	}
	p := m.Player(s)
	if p.Ready {
		mgr.mu.Unlock()
		return
	}
	p.Ready = true
	if !m.Player(s.Other()).Ready {
		mgr.mu.Unlock()
		return
	}

	now := mgr.now()
	m.Phase = PhasePlaying
	m.CurrentPlayer = Slot1
	m.StartedAt = &now
	start := MatchStart{CurrentPlayer: Slot1, Pot: m.Pot}
	for _, pl := range m.Players {
		mgr.notify.Send(pl.ConnectionID, EventMatchStart, start)
	}
	mgr.log.Infof("match %s started", m.ID)
	ev := events.Event{
		Type:     events.TypeMatchStarted,
		MatchID:  m.ID,
		Stake:    m.Stake,
		Pot:      m.Pot,
		Accounts: []string{m.Players[0].AccountID, m.Players[1].AccountID},
	}
	mgr.mu.Unlock()

	mgr.publish(ev)
}

// playingTurnLocked checks the caller is seated in a PLAYING match and that
// it is their turn.
func (mgr *Manager) playingTurnLocked(connID string) (*Match, Slot, bool) {
	m, s, ok := mgr.seatLocked(connID)
	if !ok {
		return nil, NoSlot, false
	}
	if m.Phase != PhasePlaying {
		mgr.notify.Send(connID, EventError, Message{Message: "Match not in progress"})
		return nil, NoSlot, false
	}
	if m.CurrentPlayer != s {
		mgr.notify.Send(connID, EventError, Message{Message: "Not your turn"})
		return nil, NoSlot, false
	}
	return m, s, true
}

// Shot relays the current player's aim to the opponent.
func (mgr *Manager) Shot(connID string, shot Shot) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	m, s, ok := mgr.playingTurnLocked(connID)
	if !ok {
		return
	}
	if !finite(shot.Angle) || !finite(shot.Power) || shot.Power < 0 {
		mgr.notify.Send(connID, EventError, Message{Message: "Invalid shot"})
		return
	}
	mgr.notify.Send(m.Player(s.Other()).ConnectionID, EventOpponentShot, shot)
}

// ShotComplete stores the reported ball layout and applies the turn rule:
// a foul or an empty pot hands the table over, anything else keeps it.
func (mgr *Manager) ShotComplete(connID string, out ShotOutcome) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	m, s, ok := mgr.playingTurnLocked(connID)
	if !ok {
		return
	}
	if len(out.BallState) > 0 {
		m.LastBallState = append(m.LastBallState[:0:0], out.BallState...)
	}
	if !out.Foul && len(out.PottedBalls) > 0 {
		return
	}
	m.CurrentPlayer = s.Other()
	tc := TurnChange{CurrentPlayer: m.CurrentPlayer, Foul: out.Foul}
	for _, pl := range m.Players {
		mgr.notify.Send(pl.ConnectionID, EventTurnChange, tc)
	}
}

// GameOver ends a PLAYING match with the reported winner.
func (mgr *Manager) GameOver(ctx context.Context, connID string, winner Slot) {
	mgr.mu.Lock()
	m, _, ok := mgr.seatLocked(connID)
	if !ok {
		mgr.mu.Unlock()
		return
	}
	if m.Phase != PhasePlaying {
		mgr.notify.Send(connID, EventError, Message{Message: "Match not in progress"})
		mgr.mu.Unlock()
		return
	}
	if !winner.Valid() {
		mgr.notify.Send(connID, EventError, Message{Message: "Invalid winner slot"})
		mgr.mu.Unlock()
		return
	}
	st, ok := mgr.finishLocked(m, winner, reasonGameOver)
	if !ok {
		mgr.mu.Unlock()
		return
	}
	res := MatchResult{WinnerName: m.Player(winner).DisplayName, WinnerSlot: winner, Pot: m.Pot}
	for _, pl := range m.Players {
		mgr.notify.Send(pl.ConnectionID, EventMatchResult, res)
	}
	mgr.mu.Unlock()

	mgr.settle(ctx, st)
}

// Forfeit concedes the caller's match to the opponent.
func (mgr *Manager) Forfeit(ctx context.Context, connID string) {
	mgr.mu.Lock()
	m, s, ok := mgr.seatLocked(connID)
	if !ok {
		mgr.mu.Unlock()
		return
	}
	winner := s.Other()
	st, ok := mgr.finishLocked(m, winner, reasonForfeit)
	if !ok {
		mgr.mu.Unlock()
		return
	}
	mgr.notify.Send(connID, EventYouForfeited, YouForfeited{})
	mgr.notify.Send(m.Player(winner).ConnectionID, EventOpponentForfeited, PotAward{Pot: m.Pot})
	mgr.mu.Unlock()

	mgr.settle(ctx, st)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
