// ABOUTME: Tests for Redis move notifications
// ABOUTME: Uses miniredis to check publish, decorator and subscribe behaviour
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/pipeboard/models"
)

type fakeCatalog struct {
	err   error
	moves int
}

func (f *fakeCatalog) MoveDeal(context.Context, uuid.UUID, uuid.UUID) error {
	f.moves++
	return f.err
}

func (f *fakeCatalog) ListStages(context.Context, uuid.UUID) ([]models.Stage, error) { return nil, nil }
func (f *fakeCatalog) ListDeals(context.Context, uuid.UUID) ([]models.Deal, error)   { return nil, nil }
func (f *fakeCatalog) ListPipelines(context.Context) ([]models.Pipeline, error)      { return nil, nil }

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	m, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return m, rc
}

func subscribe(t *testing.T, rc *redis.Client, channel string) <-chan *redis.Message {
	t.Helper()
	ctx := context.Background()
	pubsub := rc.Subscribe(ctx, channel)
	t.Cleanup(func() { _ = pubsub.Close() })
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)
	return pubsub.Channel()
}

func TestCommittedMovePublishesOneEvent(t *testing.T) {
	_, rc := setupRedis(t)
	msgs := subscribe(t, rc, DefaultChannel)

	inner := &fakeCatalog{}
	s := NewStore(inner, NewPublisher(rc, "", "tui-1"))
	dealID, stageID := uuid.New(), uuid.New()

	require.NoError(t, s.MoveDeal(context.Background(), dealID, stageID))

	select {
	case msg := <-msgs:
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, EventDealMoved, ev.Type)
		assert.Equal(t, "tui-1", ev.Source)
		assert.Equal(t, dealID, ev.DealID)
		assert.Equal(t, stageID, ev.StageID)
		assert.NotZero(t, ev.Time)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	select {
	case msg := <-msgs:
		t.Fatalf("unexpected second event: %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFailedMovePublishesNothing(t *testing.T) {
	_, rc := setupRedis(t)
	msgs := subscribe(t, rc, DefaultChannel)

	inner := &fakeCatalog{err: models.ErrNotFound}
	s := NewStore(inner, NewPublisher(rc, "", "tui-1"))

	err := s.MoveDeal(context.Background(), uuid.New(), uuid.New())
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.Equal(t, 1, inner.moves)

	select {
	case msg := <-msgs:
		t.Fatalf("unexpected event: %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublishFailureDoesNotFailMove(t *testing.T) {
	m, rc := setupRedis(t)
	m.Close()

	s := NewStore(&fakeCatalog{}, NewPublisher(rc, "", "tui-1"))
	assert.NoError(t, s.MoveDeal(context.Background(), uuid.New(), uuid.New()))
}

func TestSubscribeDeliversEvents(t *testing.T) {
	_, rc := setupRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Event, 1)
	done := make(chan struct{})
	go func() {
		Subscribe(ctx, rc, "board", func(ev Event) {
			select {
			case got <- ev:
			default:
			}
		})
		close(done)
	}()

	pub := NewPublisher(rc, "board", "web")
	dealID := uuid.New()
	// Keep publishing until the subscriber is attached.
	require.Eventually(t, func() bool {
		_ = pub.Publish(context.Background(), Event{Type: EventDealMoved, DealID: dealID})
		select {
		case ev := <-got:
			return ev.DealID == dealID && ev.Source == "web"
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Subscribe did not exit")
	}
}

func TestConnect(t *testing.T) {
	m, _ := setupRedis(t)

	rc, err := Connect(context.Background(), "redis://"+m.Addr())
	require.NoError(t, err)
	_ = rc.Close()

	_, err = Connect(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestSleepCtxStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	assert.False(t, sleepCtx(ctx, time.Hour))
	assert.Less(t, time.Since(start), time.Second)

	assert.True(t, sleepCtx(context.Background(), time.Millisecond))
}
