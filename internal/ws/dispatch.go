package ws

import (
	"context"
	"encoding/json"

	"github.com/playpool/duelserver/internal/game"
)

// Inbound event names.
const (
	EventIdentityClaim = "identity-claim"
	EventQueueJoin     = "queue-join"
	EventQueueLeave    = "queue-leave"
	EventReady         = "ready"
	EventShot          = "shot"
	EventShotComplete  = "shot-complete"
	EventGameOver      = "game-over"
	EventForfeit       = "forfeit"
)

type IdentityClaimData struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	Token       string `json:"token,omitempty"`
}

type QueueJoinData struct {
	Stake int64 `json:"stake"`
}

type GameOverData struct {
	WinnerSlot int `json:"winnerSlot"`
}

// dispatch routes one inbound frame to the orchestrator.
func (h *Hub) dispatch(ctx context.Context, connID string, msg Message) {
	switch msg.Type {
	case EventIdentityClaim:
		var data IdentityClaimData
		if !h.decode(connID, msg, &data) {
			return
		}
		if err := h.orch.ClaimIdentity(connID, data.AccountID, data.DisplayName, data.Token); err != nil {
			h.log.Debugf("identity claim on %s: %v", connID, err)
		}

	case EventQueueJoin:
		var data QueueJoinData
		if !h.decode(connID, msg, &data) {
			return
		}
		h.orch.JoinQueue(ctx, connID, data.Stake)

	case EventQueueLeave:
		h.orch.LeaveQueue(connID)

	case EventReady:
		h.orch.Ready(connID)

	case EventShot:
		var data game.Shot
		if !h.decode(connID, msg, &data) {
			return
		}
		h.orch.Shot(connID, data)

	case EventShotComplete:
		var data game.ShotOutcome
		if !h.decode(connID, msg, &data) {
			return
		}
		h.orch.ShotComplete(connID, data)

	case EventGameOver:
		var data GameOverData
		if !h.decode(connID, msg, &data) {
			return
		}
		h.orch.GameOver(ctx, connID, game.Slot(data.WinnerSlot))

	case EventForfeit:
		h.orch.Forfeit(ctx, connID)

	default:
		h.Send(connID, game.EventError, game.Message{Message: "Unknown message type"})
	}
}

func (h *Hub) decode(connID string, msg Message, v any) bool {
	if len(msg.Data) == 0 {
		h.Send(connID, game.EventError, game.Message{Message: "Missing " + msg.Type + " data"})
		return false
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		h.Send(connID, game.EventError, game.Message{Message: "Invalid " + msg.Type + " data"})
		return false
	}
	return true
}
