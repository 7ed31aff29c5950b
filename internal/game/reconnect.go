package game

import "context"

// disconnectLocked starts the grace period for the seat bound to connID.
// Connections that were already replaced hold no seat and are ignored.
func (mgr *Manager) disconnectLocked(connID string) {
	m := mgr.registry.ByConnection(connID)
	if m == nil {
		return
	}
	s := mgr.registry.SlotOf(connID)
	p := m.Player(s)
	if !p.Connected {
		return
	}
	p.Connected = false
	mgr.log.Infof("match %s: slot %d (%s) disconnected", m.ID, s, p.AccountID)

	// With the other seat already on the clock, that timer decides the match.
	if m.DisconnectedSlot != NoSlot {
		return
	}
	mgr.startGraceLocked(m, s)
}

// startGraceLocked schedules the timeout for seat s and tells the opponent.
func (mgr *Manager) startGraceLocked(m *Match, s Slot) {
	m.graceGen++
	gen, id := m.graceGen, m.ID
	m.DisconnectedSlot = s
	m.graceTimer = mgr.sched.AfterFunc(mgr.grace, func() {
		mgr.graceExpired(id, s, gen)
	})
	opp := m.Player(s.Other())
	if opp.Connected {
		mgr.notify.Send(opp.ConnectionID, EventOpponentDisconnected, OpponentDisconnected{
			TimeoutSeconds: int(mgr.grace.Seconds()),
		})
	}
}

// graceExpired forfeits seat s unless it came back or the match already
// ended.
func (mgr *Manager) graceExpired(matchID string, s Slot, gen int) {
	mgr.mu.Lock()
	m, ok := mgr.registry.Get(matchID)
	if !ok || m.graceGen != gen || m.DisconnectedSlot != s {
		mgr.mu.Unlock()
		return
	}
	m.graceTimer = nil
	winner := s.Other()
	st, ok := mgr.finishLocked(m, winner, reasonTimeout)
	if !ok {
		mgr.mu.Unlock()
		return
	}
	mgr.log.Infof("match %s: slot %d did not return within %s", matchID, s, mgr.grace)
	mgr.notify.Send(m.Player(winner).ConnectionID, EventOpponentTimedOut, PotAward{Pot: m.Pot})
	mgr.mu.Unlock()

	mgr.settle(context.Background(), st)
}

// reconnectLocked moves the account's seat, if any, onto connID. A seat
// still held by a live connection is taken over and the old one closed.
func (mgr *Manager) reconnectLocked(connID, accountID string) {
	m := mgr.registry.ByAccount(accountID)
	if m == nil {
		return
	}
	s := m.SlotOfAccount(accountID)
	p := m.Player(s)
	if p.ConnectionID == connID {
		return
	}

	takeover := p.Connected
	old := mgr.registry.Rebind(m, s, connID)
	p.Connected = true
	if takeover {
		mgr.log.Infof("match %s: slot %d moved from %s to %s", m.ID, s, old, connID)
		mgr.notify.Close(old)
	} else {
		mgr.log.Infof("match %s: slot %d (%s) reconnected", m.ID, s, accountID)
		if m.DisconnectedSlot == s {
			m.cancelGrace()
		}
		// A player rejoining before the break has to ready up again.
		if m.Phase == PhaseStarting {
			p.Ready = false
		}
	}

	opp := m.Player(s.Other())
	mgr.notify.Send(connID, EventReconnectState, ReconnectState{
		MatchID:       m.ID,
		Slot:          s,
		Opponent:      Opponent{AccountID: opp.AccountID, DisplayName: opp.DisplayName},
		Phase:         m.Phase,
		CurrentPlayer: m.CurrentPlayer,
		Pot:           m.Pot,
		Stake:         m.Stake,
		Ready:         p.Ready,
		BallState:     m.LastBallState,
	})
	if takeover {
		return
	}

	if opp.Connected {
		mgr.notify.Send(opp.ConnectionID, EventOpponentReconnected, OpponentReconnected{})
		return
	}
	// The opponent dropped while this seat was away; their clock starts now.
	if m.DisconnectedSlot == NoSlot {
		mgr.startGraceLocked(m, s.Other())
	}
}
