package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubReconnectAndOrdering(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := CampaignChannel(uuid.New())

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: EventCampaignProgress, Data: map[string]any{"seq": 1}})
	hub.Broadcast(SSEMessage{Channel: channel, Event: EventCampaignStatus, Data: map[string]any{"seq": 2}})

	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != EventCampaignProgress {
		t.Fatalf("first event: want=%s got=%s", EventCampaignProgress, got.Event)
	}
	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != EventCampaignStatus {
		t.Fatalf("second event: want=%s got=%s", EventCampaignStatus, got.Event)
	}

	hub.CloseClient(clientA)
	hub.CloseClient(clientA)
	if _, ok := <-clientA.Outbound; ok {
		t.Fatalf("clientA outbound should be closed after disconnect")
	}
	if n := hub.Subscribers(channel); n != 0 {
		t.Fatalf("closed client still subscribed: %d", n)
	}

	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: EventJobDone})
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != EventJobDone {
		t.Fatalf("reconnect event: want=%s got=%s", EventJobDone, got.Event)
	}
}

func TestSSEHubOnlyDeliversToSubscribedChannels(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	a, b := CampaignChannel(uuid.New()), CampaignChannel(uuid.New())
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, a)
	hub.AddChannel(client, b)
	hub.RemoveChannel(client, b)

	hub.Broadcast(SSEMessage{Channel: b, Event: EventChatMessage})
	hub.Broadcast(SSEMessage{Channel: a, Event: EventCampaignProgress})

	if got := recvMessage(t, client.Outbound, time.Second); got.Channel != a {
		t.Fatalf("want message on %s, got %s", a, got.Channel)
	}
	select {
	case extra := <-client.Outbound:
		t.Fatalf("unexpected message: %+v", extra)
	default:
	}
}

func TestSSEHubDropsWhenBufferFull(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := CampaignChannel(uuid.New())
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, channel)

	for i := 0; i < outboundBuffer+5; i++ {
		hub.Broadcast(SSEMessage{Channel: channel, Event: EventCampaignProgress})
	}
	if n := len(client.Outbound); n != outboundBuffer {
		t.Fatalf("want a full buffer of %d, got %d", outboundBuffer, n)
	}
}

func TestSSEHubServeHTTPStreamsMessages(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := CampaignChannel(uuid.New())
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, channel)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeHTTP(w, r, client)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %q", ct)
	}

	hub.Broadcast(SSEMessage{Channel: channel, Event: EventCampaignProgress, Data: "hello"})

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "data: ") && strings.Contains(line, `"CampaignProgress"`) {
			if !strings.Contains(line, `"hello"`) {
				t.Fatalf("payload missing data: %s", line)
			}
			return
		}
	}
	t.Fatalf("stream ended without the message: %v", sc.Err())
}

func TestParseCampaignChannel(t *testing.T) {
	id := uuid.New()
	got, ok := ParseCampaignChannel(CampaignChannel(id))
	if !ok || got != id {
		t.Fatalf("round trip failed: %v %v", got, ok)
	}
	for _, bad := range []string{"", id.String(), "campaign:nope"} {
		if _, ok := ParseCampaignChannel(bad); ok {
			t.Fatalf("%q should not parse", bad)
		}
	}
}
