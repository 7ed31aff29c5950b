package game

import (
	"context"
	"errors"
	"time"

	"github.com/playpool/duelserver/internal/events"
	"github.com/playpool/duelserver/internal/ledger"
	"golang.org/x/sync/errgroup"
)

// pendingPair is a pairing whose stakes are being debited. The id becomes
// the match id and the ledger reference.
type pendingPair struct {
	id string
	Pair
}

// JoinQueue validates the stake against the caller's balance and either
// queues the connection or pairs it and opens a match.
func (mgr *Manager) JoinQueue(ctx context.Context, connID string, stake int64) {
	mgr.mu.Lock()
	t, ok := mgr.admitLocked(connID, stake)
	mgr.mu.Unlock()
	if !ok {
		return
	}

	lctx, cancel := mgr.ledgerCtx(ctx)
	balance, err := mgr.ledger.Balance(lctx, t.AccountID)
	cancel()

	mgr.mu.Lock()
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		mgr.notify.Send(connID, EventQueueError, Message{Message: "Account not found"})
		mgr.mu.Unlock()
		return
	case err != nil:
		mgr.log.Errorf("balance lookup for %s: %v", t.AccountID, err)
		mgr.notify.Send(connID, EventQueueError, Message{Message: "Unable to verify balance"})
		mgr.mu.Unlock()
		return
	case balance < stake:
		mgr.notify.Send(connID, EventQueueError, Message{Message: "Insufficient balance"})
		mgr.mu.Unlock()
		return
	}

	// The connection may have dropped or changed state during the lookup.
	if t, ok = mgr.admitLocked(connID, stake); !ok {
		mgr.mu.Unlock()
		return
	}
	res := mgr.queue.Join(t, stake)
	if res.Replaced != nil && res.Replaced.ConnectionID != connID {
		mgr.notify.Send(res.Replaced.ConnectionID, EventQueueLeft, QueueLeft{})
	}
	if res.Pair == nil {
		mgr.log.Infof("account %s waiting at stake %d (position %d)", t.AccountID, stake, res.Position)
		mgr.notify.Send(connID, EventQueueWaiting, QueueWaiting{Position: res.Position, Stake: stake})
		mgr.mu.Unlock()
		return
	}
	p := mgr.beginPairLocked(*res.Pair)
	mgr.mu.Unlock()

	mgr.confirmPair(ctx, p)
}

// LeaveQueue withdraws the connection's ticket. A connection that is not
// queued, or is already being paired, is left alone.
func (mgr *Manager) LeaveQueue(connID string) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if !mgr.queue.Leave(connID) {
		return
	}
	mgr.notify.Send(connID, EventQueueLeft, QueueLeft{})
}

// admitLocked checks everything about a join that does not need the ledger.
func (mgr *Manager) admitLocked(connID string, stake int64) (Ticket, bool) {
	id, ok := mgr.conns[connID]
	if !ok {
		return Ticket{}, false
	}
	if id.AccountID == "" {
		mgr.notify.Send(connID, EventError, Message{Message: "Not authenticated"})
		return Ticket{}, false
	}
	if mgr.registry.ByConnection(connID) != nil || mgr.registry.ByAccount(id.AccountID) != nil {
		mgr.notify.Send(connID, EventQueueError, Message{Message: "Already in a match"})
		return Ticket{}, false
	}
	if mgr.pending[connID] != nil || mgr.pairing[id.AccountID] != nil {
		mgr.notify.Send(connID, EventQueueError, Message{Message: "Match pairing in progress"})
		return Ticket{}, false
	}
	if stake <= 0 || (mgr.minStake > 0 && stake < mgr.minStake) || (mgr.maxStake > 0 && stake > mgr.maxStake) {
		mgr.notify.Send(connID, EventQueueError, Message{Message: "Invalid stake amount"})
		return Ticket{}, false
	}
	return Ticket{
		ConnectionID: connID,
		AccountID:    id.AccountID,
		DisplayName:  id.DisplayName,
		JoinedAt:     mgr.now(),
	}, true
}

func (mgr *Manager) beginPairLocked(pair Pair) *pendingPair {
	p := &pendingPair{id: mgr.newID(), Pair: pair}
	mgr.pending[pair.First.ConnectionID] = p
	mgr.pending[pair.Second.ConnectionID] = p
	mgr.pairing[pair.First.AccountID] = p
	mgr.pairing[pair.Second.AccountID] = p
	mgr.log.Infof("paired %s with %s at stake %d (match %s, waited %s)", pair.First.AccountID, pair.Second.AccountID,
		pair.Stake, p.id, mgr.now().Sub(pair.First.JoinedAt).Round(time.Millisecond))
	return p
}

// confirmPair debits both stakes and opens the match. If either debit
// fails, or either player vanished or got seated elsewhere, successful
// debits are refunded and the unaffected player goes back to the head of
// the bucket.
func (mgr *Manager) confirmPair(ctx context.Context, p *pendingPair) {
	tickets := [2]Ticket{p.First, p.Second}
	var errs [2]error

	lctx, cancel := mgr.ledgerCtx(ctx)
	var g errgroup.Group
	for i := range tickets {
		i := i
		g.Go(func() error {
			errs[i] = mgr.ledger.Debit(lctx, tickets[i].AccountID, p.Stake, p.id)
			return errs[i]
		})
	}
	_ = g.Wait()
	cancel()

	mgr.mu.Lock()
	delete(mgr.pending, p.First.ConnectionID)
	delete(mgr.pending, p.Second.ConnectionID)
	delete(mgr.pairing, p.First.AccountID)
	delete(mgr.pairing, p.Second.AccountID)

	var alive, seated [2]bool
	for i, t := range tickets {
		alive[i] = mgr.boundLocked(t)
		seated[i] = mgr.registry.ByAccount(t.AccountID) != nil
	}

	if errs[0] == nil && errs[1] == nil && alive[0] && alive[1] && !seated[0] && !seated[1] {
		m := mgr.registry.Create(p.id, p.First, p.Second, p.Stake, mgr.now())
		for s := Slot1; s <= Slot2; s++ {
			opp := m.Player(s.Other())
			mgr.notify.Send(m.Player(s).ConnectionID, EventMatchFound, MatchFound{
				MatchID:  m.ID,
				Slot:     s,
				Opponent: Opponent{AccountID: opp.AccountID, DisplayName: opp.DisplayName},
				Stake:    m.Stake,
				Pot:      m.Pot,
			})
		}
		mgr.log.Infof("match %s created: %s vs %s, pot %d", m.ID, p.First.AccountID, p.Second.AccountID, m.Pot)
		mgr.mu.Unlock()

		mgr.publish(events.Event{
			Type:     events.TypeMatchCreated,
			MatchID:  p.id,
			Stake:    p.Stake,
			Pot:      p.Stake * 2,
			Accounts: []string{p.First.AccountID, p.Second.AccountID},
		})
		return
	}

	var refunds []Ticket
	var next []*pendingPair
	for i, t := range tickets {
		if errs[i] == nil {
			refunds = append(refunds, t)
		}
		switch {
		case !alive[i]:
			mgr.log.Infof("pairing %s: %s disconnected before the match opened", p.id, t.AccountID)
		case seated[i]:
			mgr.log.Warnf("pairing %s: %s is already seated in another match", p.id, t.AccountID)
			mgr.notify.Send(t.ConnectionID, EventQueueError, Message{Message: "Already in a match"})
		case errors.Is(errs[i], ledger.ErrInsufficientFunds):
			mgr.notify.Send(t.ConnectionID, EventQueueError, Message{Message: "Insufficient balance"})
		case errs[i] != nil:
			mgr.log.Errorf("pairing %s: debit %s: %v", p.id, t.AccountID, errs[i])
			mgr.notify.Send(t.ConnectionID, EventQueueError, Message{Message: "Unable to debit stake"})
		default:
			res := mgr.queue.Requeue(t, p.Stake)
			if res.Pair != nil {
				next = append(next, mgr.beginPairLocked(*res.Pair))
				continue
			}
			mgr.notify.Send(t.ConnectionID, EventQueueWaiting, QueueWaiting{Position: res.Position, Stake: p.Stake})
		}
	}
	mgr.mu.Unlock()

	for _, t := range refunds {
		rctx, cancel := mgr.ledgerCtx(ctx)
		if err := mgr.ledger.Refund(rctx, t.AccountID, p.Stake, p.id); err != nil {
			mgr.log.Errorf("pairing %s: refund %s: %v", p.id, t.AccountID, err)
		}
		cancel()
	}
	mgr.publish(events.Event{
		Type:     events.TypeMatchUnpaired,
		MatchID:  p.id,
		Stake:    p.Stake,
		Accounts: []string{p.First.AccountID, p.Second.AccountID},
	})

	for _, np := range next {
		mgr.confirmPair(ctx, np)
	}
}

// boundLocked reports whether the ticket's connection is still open and
// still claims the same account.
func (mgr *Manager) boundLocked(t Ticket) bool {
	id, ok := mgr.conns[t.ConnectionID]
	return ok && id.AccountID == t.AccountID
}
