package game

import (
	"context"
	"time"

	"github.com/playpool/duelserver/internal/events"
)

const (
	reasonGameOver = "game-over"
	reasonForfeit  = "forfeit"
	reasonTimeout  = "timeout"
)

// creditAttempts bounds retries of the winner's credit. Credits are keyed
// by match id so a retry never pays twice.
const (
	creditAttempts = 3
	creditBackoff  = 200 * time.Millisecond
)

// settlement is everything needed to pay out a match after it has left
// the registry.
type settlement struct {
	matchID string
	stake   int64
	pot     int64
	winner  string
	loser   string
	reason  string
}

// finishLocked removes m from the registry and marks it FINISHED. Only the
// first caller for a given match gets ok; later terminal events are no-ops.
func (mgr *Manager) finishLocked(m *Match, winner Slot, reason string) (settlement, bool) {
	if _, ok := mgr.registry.Destroy(m.ID); !ok {
		return settlement{}, false
	}
	m.Phase = PhaseFinished
	mgr.log.Infof("match %s finished (%s): winner %s", m.ID, reason, m.Player(winner).AccountID)
	return settlement{
		matchID: m.ID,
		stake:   m.Stake,
		pot:     m.Pot,
		winner:  m.Player(winner).AccountID,
		loser:   m.Player(winner.Other()).AccountID,
		reason:  reason,
	}, true
}

// settle credits the winner and records the loser's loss. A failed credit
// is retried on the scheduler so the caller's read loop is not held up.
func (mgr *Manager) settle(ctx context.Context, st settlement) {
	mgr.credit(ctx, st, 1)

	lctx, cancel := mgr.ledgerCtx(ctx)
	if err := mgr.ledger.RecordLoss(lctx, st.loser, st.matchID); err != nil {
		mgr.log.Errorf("match %s: record loss for %s: %v", st.matchID, st.loser, err)
	}
	cancel()

	mgr.publish(events.Event{
		Type:     events.TypeMatchSettled,
		MatchID:  st.matchID,
		Stake:    st.stake,
		Pot:      st.pot,
		Accounts: []string{st.winner, st.loser},
		Winner:   st.winner,
		Reason:   st.reason,
	})
}

func (mgr *Manager) credit(ctx context.Context, st settlement, attempt int) {
	lctx, cancel := mgr.ledgerCtx(ctx)
	err := mgr.ledger.Credit(lctx, st.winner, st.pot, st.matchID)
	cancel()
	if err == nil {
		return
	}
	if attempt >= creditAttempts {
		mgr.log.Errorf("match %s: winner %s was not credited %d: %v", st.matchID, st.winner, st.pot, err)
		return
	}
	mgr.log.Warnf("match %s: credit %s attempt %d: %v", st.matchID, st.winner, attempt, err)
	mgr.sched.AfterFunc(creditBackoff*time.Duration(attempt), func() {
		mgr.credit(context.Background(), st, attempt+1)
	})
}
