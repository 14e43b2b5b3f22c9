package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mbd888/creditguard/internal/history"
	"github.com/mbd888/creditguard/internal/logging"
	"github.com/mbd888/creditguard/pkg/scoring"
)

func testHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(logging.New("error", "text"))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	return hub, cancel
}

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	return event
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount = %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubBroadcastResult(t *testing.T) {
	hub, cancel := testHub(t)
	defer cancel()

	conn := dial(t, hub)
	waitForClients(t, hub, 1)

	hub.BroadcastResult(scoring.Result{UserID: "u1", RiskLevel: scoring.RiskHigh})

	event := readEvent(t, conn)
	if event.Type != EventResult {
		t.Errorf("Event type = %s, want %s", event.Type, EventResult)
	}

	data, ok := event.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Event data should be an object, got %T", event.Data)
	}
	if data["user_id"] != "u1" {
		t.Errorf("user_id = %v, want u1", data["user_id"])
	}
}

func TestHubBroadcastBatch(t *testing.T) {
	hub, cancel := testHub(t)
	defer cancel()

	conn := dial(t, hub)
	waitForClients(t, hub, 1)

	hub.BroadcastBatch(history.Summary{Total: 3, High: 1, Low: 2})

	event := readEvent(t, conn)
	if event.Type != EventBatch {
		t.Errorf("Event type = %s, want %s", event.Type, EventBatch)
	}
}

func TestHubBroadcastHistoryCleared(t *testing.T) {
	hub, cancel := testHub(t)
	defer cancel()

	conn := dial(t, hub)
	waitForClients(t, hub, 1)

	hub.BroadcastHistoryCleared()

	event := readEvent(t, conn)
	if event.Type != EventHistoryCleared {
		t.Errorf("Event type = %s, want %s", event.Type, EventHistoryCleared)
	}
	if event.Data != nil {
		t.Errorf("History-cleared event should carry no data, got %v", event.Data)
	}
}

func TestHubBroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(logging.New("error", "text"))

	// Hub not running: broadcasts must be dropped, never block the caller
	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			hub.BroadcastResult(scoring.Result{UserID: "u"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked with no hub loop running")
	}
}

func TestHubRejectsUpgradeAfterShutdown(t *testing.T) {
	hub, cancel := testHub(t)
	cancel()
	<-hub.done

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Dial should fail after hub shutdown")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 on upgrade after shutdown, got %v", resp)
	}
}

func TestHubShutdownReleasesClientPumps(t *testing.T) {
	baseline := runtime.NumGoroutine()

	hub, cancel := testHub(t)
	conn := dial(t, hub)
	waitForClients(t, hub, 1)

	// Stop the hub while the client is still connected; the read/write
	// pumps must unwind instead of blocking on the unregister send.
	cancel()
	<-hub.done
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > baseline+2 {
		if time.Now().After(deadline) {
			t.Fatalf("Goroutines did not unwind after shutdown: %d > baseline %d",
				runtime.NumGoroutine(), baseline)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestHubDisconnectUpdatesCount(t *testing.T) {
	hub, cancel := testHub(t)
	defer cancel()

	conn := dial(t, hub)
	waitForClients(t, hub, 1)

	_ = conn.Close()
	waitForClients(t, hub, 0)
}
