// ABOUTME: Realtime deal move notifications over Redis pub/sub
// ABOUTME: Publishes deal.moved events and lets boards subscribe to each other's moves
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultChannel = "pipeboard:events"

	EventDealMoved = "deal.moved"
)

type Event struct {
	Type    string    `json:"type"`
	Source  string    `json:"source"`
	DealID  uuid.UUID `json:"dealId"`
	StageID uuid.UUID `json:"stageId"`
	Time    int64     `json:"time"`
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rc := redis.NewClient(opts)
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rc, nil
}

type Publisher struct {
	rc      *redis.Client
	channel string
	source  string
}

// NewPublisher publishes on channel. Events carry source so a subscriber can
// skip its own moves.
func NewPublisher(rc *redis.Client, channel, source string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{rc: rc, channel: channel, source: source}
}

func (p *Publisher) Channel() string { return p.channel }

func (p *Publisher) Source() string { return p.source }

func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	ev.Source = p.source
	if ev.Time == 0 {
		ev.Time = time.Now().UnixMilli()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.rc.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Subscribe delivers events from channel to fn until ctx is cancelled,
// reconnecting when the subscription drops.
func Subscribe(ctx context.Context, rc *redis.Client, channel string, fn func(Event)) {
	if channel == "" {
		channel = DefaultChannel
	}
	for {
		sub := rc.Subscribe(ctx, channel)
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.WithError(err).Warn("unable to parse board event")
					continue
				}
				fn(ev)
			}
		}
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		log.Error("pubsub channel closed, reconnecting")
		if !sleepCtx(ctx, reconnectDelay) {
			return
		}
	}
}

const reconnectDelay = time.Second

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
