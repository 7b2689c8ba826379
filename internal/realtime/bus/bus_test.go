package bus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/realtime"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func receive(t *testing.T, ch <-chan realtime.SSEMessage) realtime.SSEMessage {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for forwarded message")
	}
	return realtime.SSEMessage{}
}

func TestLocalBusForwards(t *testing.T) {
	b := NewLocalBus()
	got := make(chan realtime.SSEMessage, 1)
	if err := b.StartForwarder(context.Background(), func(m realtime.SSEMessage) { got <- m }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	channel := realtime.CampaignChannel(uuid.New())
	if err := b.Publish(context.Background(), realtime.SSEMessage{Channel: channel, Event: realtime.EventCampaignProgress}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if m := receive(t, got); m.Channel != channel {
		t.Fatalf("channel: want %s got %s", channel, m.Channel)
	}
	_ = b.Close()
	if err := b.Publish(context.Background(), realtime.SSEMessage{Channel: channel}); err == nil {
		t.Fatalf("publish after close should fail")
	}
}

func TestRedisBusRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	log := testLogger(t)

	publisher, err := NewRedisBus(RedisConfig{Addr: mr.Addr(), Channel: "test-sse"}, log)
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	defer publisher.Close()
	subscriber := NewRedisBusFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), "test-sse", log)
	defer subscriber.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan realtime.SSEMessage, 1)
	if err := subscriber.StartForwarder(ctx, func(m realtime.SSEMessage) { got <- m }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}

	channel := realtime.CampaignChannel(uuid.New())
	if err := publisher.Publish(ctx, realtime.SSEMessage{
		Channel: channel,
		Event:   realtime.EventCampaignProgress,
		Data:    map[string]any{"content": "🎬 Starting"},
	}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	m := receive(t, got)
	if m.Channel != channel || m.Event != realtime.EventCampaignProgress {
		t.Fatalf("unexpected message: %+v", m)
	}
	data, ok := m.Data.(map[string]any)
	if !ok || data["content"] != "🎬 Starting" {
		t.Fatalf("payload lost: %#v", m.Data)
	}
}

func TestNewRedisBusRequiresAddr(t *testing.T) {
	if _, err := NewRedisBus(RedisConfig{}, testLogger(t)); err == nil {
		t.Fatalf("want error for missing address")
	}
}
