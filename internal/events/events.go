// Package events fans match lifecycle changes out to Redis so operators
// and other services can follow the room without holding a socket.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/decred/slog"
	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel lifecycle events are published on.
const Channel = "match_events"

const (
	TypeMatchCreated  = "match_created"
	TypeMatchStarted  = "match_started"
	TypeMatchSettled  = "match_settled"
	TypeMatchUnpaired = "match_unpaired"
)

// Event is one lifecycle notification.
type Event struct {
	Type     string    `json:"type"`
	MatchID  string    `json:"match_id"`
	Stake    int64     `json:"stake"`
	Pot      int64     `json:"pot,omitempty"`
	Accounts []string  `json:"accounts,omitempty"`
	Winner   string    `json:"winner,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher delivers lifecycle events. Implementations must not block for
// long; delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher publishes JSON encoded events on Channel.
type RedisPublisher struct {
	client redisPublisher
	log    slog.Logger
}

func NewRedisPublisher(client redisPublisher, log slog.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, log: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		p.log.Errorf("marshal %s event for match %s: %v", ev.Type, ev.MatchID, err)
		return
	}
	if err := p.client.Publish(ctx, Channel, b).Err(); err != nil {
		p.log.Warnf("publish %s event for match %s: %v", ev.Type, ev.MatchID, err)
		return
	}
	p.log.Debugf("published %s for match %s", ev.Type, ev.MatchID)
}

// Subscribe decodes events from Channel and hands them to fn until ctx is
// cancelled.
func Subscribe(ctx context.Context, client *redis.Client, log slog.Logger, fn func(Event)) {
	pubsub := client.Subscribe(ctx, Channel)
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		log.Infof("subscribed to %s", Channel)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ev, err := Decode([]byte(msg.Payload))
				if err != nil {
					log.Warnf("invalid event payload: %v", err)
					continue
				}
				fn(ev)
			}
		}
	}()
}

func Decode(b []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(b, &ev)
	return ev, err
}
