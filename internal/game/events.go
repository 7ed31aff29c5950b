package game

import "encoding/json"

// Outbound event names.
const (
	EventQueueWaiting         = "queue-waiting"
	EventQueueLeft            = "queue-left"
	EventQueueError           = "queue-error"
	EventMatchFound           = "match-found"
	EventMatchStart           = "match-start"
	EventOpponentShot         = "opponent-shot"
	EventTurnChange           = "turn-change"
	EventMatchResult          = "match-result"
	EventOpponentDisconnected = "opponent-disconnected"
	EventOpponentReconnected  = "opponent-reconnected"
	EventOpponentTimedOut     = "opponent-timed-out"
	EventYouForfeited         = "you-forfeited"
	EventOpponentForfeited    = "opponent-forfeited"
	EventReconnectState       = "match-reconnect-state"
	EventError                = "error"
)

// Notifier delivers events to connections. Send is called with the Manager
// lock held and must not block or call back into the Manager.
type Notifier interface {
	Send(connID, event string, payload any)
	// Close drops a connection that was replaced by a newer one.
	Close(connID string)
}

type QueueWaiting struct {
	Position int   `json:"position"`
	Stake    int64 `json:"stake"`
}

type QueueLeft struct{}

type Message struct {
	Message string `json:"message"`
}

type Opponent struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

type MatchFound struct {
	MatchID  string   `json:"matchId"`
	Slot     Slot     `json:"slot"`
	Opponent Opponent `json:"opponent"`
	Stake    int64    `json:"stake"`
	Pot      int64    `json:"pot"`
}

type MatchStart struct {
	CurrentPlayer Slot  `json:"currentPlayer"`
	Pot           int64 `json:"pot"`
}

// Shot is an aim/strike pair, forwarded verbatim to the opponent.
type Shot struct {
	Angle float64 `json:"angle"`
	Power float64 `json:"power"`
}

// ShotOutcome is the shooter's report once balls stop moving. Potted
// balls are opaque to the server; only their count matters.
type ShotOutcome struct {
	PottedBalls []json.RawMessage `json:"pottedBalls"`
	Foul        bool              `json:"foul"`
	BallState   json.RawMessage   `json:"ballState,omitempty"`
}

type TurnChange struct {
	CurrentPlayer Slot `json:"currentPlayer"`
	Foul          bool `json:"foul"`
}

type MatchResult struct {
	WinnerName string `json:"winnerName"`
	WinnerSlot Slot   `json:"winnerSlot"`
	Pot        int64  `json:"pot"`
}

type OpponentDisconnected struct {
	TimeoutSeconds int `json:"timeoutSeconds"`
}

type OpponentReconnected struct{}

type PotAward struct {
	Pot int64 `json:"pot"`
}

type YouForfeited struct{}

type ReconnectState struct {
	MatchID       string          `json:"matchId"`
	Slot          Slot            `json:"slot"`
	Opponent      Opponent        `json:"opponent"`
	Phase         Phase           `json:"phase"`
	CurrentPlayer Slot            `json:"currentPlayer"`
	Pot           int64           `json:"pot"`
	Stake         int64           `json:"stake"`
	Ready         bool            `json:"ready"`
	BallState     json.RawMessage `json:"ballState,omitempty"`
}
