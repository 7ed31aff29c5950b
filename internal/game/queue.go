package game

// Pair is the outcome of a successful queue join. First is the older
// waiter and takes slot 1.
type Pair struct {
	First  Ticket
	Second Ticket
	Stake  int64
}

// JoinResult reports either a pairing or the joiner's queue position.
// Replaced is the account's earlier ticket, if the join displaced one.
type JoinResult struct {
	Pair     *Pair
	Position int
	Replaced *Ticket
}

// StakeQueue holds one FIFO bucket per stake amount. It is not safe for
// concurrent use; the Manager serialises access.
type StakeQueue struct {
	buckets   map[int64][]Ticket
	byAccount map[string]int64
	byConn    map[string]string
}

func NewStakeQueue() *StakeQueue {
	return &StakeQueue{
		buckets:   make(map[int64][]Ticket),
		byAccount: make(map[string]int64),
		byConn:    make(map[string]string),
	}
}

// Join pairs t with the oldest waiter at stake, or appends it. Any ticket
// already held by the same account is withdrawn first.
func (q *StakeQueue) Join(t Ticket, stake int64) JoinResult {
	var res JoinResult
	if old, ok := q.removeAccount(t.AccountID); ok {
		res.Replaced = &old
	}
	if head, ok := q.popHead(stake); ok {
		res.Pair = &Pair{First: head, Second: t, Stake: stake}
		return res
	}
	q.buckets[stake] = append(q.buckets[stake], t)
	q.index(t, stake)
	res.Position = len(q.buckets[stake])
	return res
}

// Requeue returns t to the front of its bucket after a failed pairing. If
// someone is already waiting, t is paired immediately and keeps slot 1.
func (q *StakeQueue) Requeue(t Ticket, stake int64) JoinResult {
	q.removeAccount(t.AccountID)
	if head, ok := q.popHead(stake); ok {
		return JoinResult{Pair: &Pair{First: t, Second: head, Stake: stake}}
	}
	q.buckets[stake] = append([]Ticket{t}, q.buckets[stake]...)
	q.index(t, stake)
	return JoinResult{Position: 1}
}

// Leave removes the ticket held by connID. It reports whether one existed.
func (q *StakeQueue) Leave(connID string) bool {
	accountID, ok := q.byConn[connID]
	if !ok {
		return false
	}
	q.removeAccount(accountID)
	return true
}

func (q *StakeQueue) Contains(connID string) bool {
	_, ok := q.byConn[connID]
	return ok
}

// Depths returns the number of waiters per stake.
func (q *StakeQueue) Depths() map[int64]int {
	out := make(map[int64]int, len(q.buckets))
	for stake, b := range q.buckets {
		out[stake] = len(b)
	}
	return out
}

func (q *StakeQueue) popHead(stake int64) (Ticket, bool) {
	b := q.buckets[stake]
	if len(b) == 0 {
		return Ticket{}, false
	}
	head := b[0]
	q.setBucket(stake, b[1:])
	delete(q.byAccount, head.AccountID)
	delete(q.byConn, head.ConnectionID)
	return head, true
}

func (q *StakeQueue) removeAccount(accountID string) (Ticket, bool) {
	stake, ok := q.byAccount[accountID]
	if !ok {
		return Ticket{}, false
	}
	var old Ticket
	b := q.buckets[stake]
	for i, t := range b {
		if t.AccountID == accountID {
			old = t
			delete(q.byConn, t.ConnectionID)
			b = append(b[:i:i], b[i+1:]...)
			break
		}
	}
	q.setBucket(stake, b)
	delete(q.byAccount, accountID)
	return old, true
}

func (q *StakeQueue) setBucket(stake int64, b []Ticket) {
	if len(b) == 0 {
		delete(q.buckets, stake)
		return
	}
	q.buckets[stake] = b
}

func (q *StakeQueue) index(t Ticket, stake int64) {
	q.byAccount[t.AccountID] = stake
	q.byConn[t.ConnectionID] = t.AccountID
}
