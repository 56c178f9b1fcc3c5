package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/service"
)

// mockController records the actions it receives
type mockController struct {
	mu      sync.Mutex
	actions []string
}

func (m *mockController) record(action string) (*service.ActionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
	return &service.ActionResult{Action: action}, nil
}

func (m *mockController) Start(ctx context.Context) (*service.ActionResult, error) {
	return m.record("start")
}

func (m *mockController) Pause(ctx context.Context) (*service.ActionResult, error) {
	return m.record("pause")
}

func (m *mockController) Toggle(ctx context.Context) (*service.ActionResult, error) {
	return m.record("toggle")
}

func (m *mockController) Restart(ctx context.Context) (*service.ActionResult, error) {
	return m.record("restart")
}

func (m *mockController) PrimaryAction(ctx context.Context) (*service.ActionResult, error) {
	return m.record("primary")
}

func (m *mockController) SetDirection(ctx context.Context, direction string) (*service.ActionResult, error) {
	if _, err := engine.ParseDirection(direction); err != nil {
		return nil, err
	}
	return m.record("direction:" + direction)
}

func (m *mockController) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.actions))
	copy(out, m.actions)
	return out
}

func testUpdate(version uint64, score int) service.Update {
	return service.Update{
		Snapshot: &engine.Snapshot{
			Version:   version,
			State:     engine.StateRunning,
			Grid:      engine.Grid{Cols: 10, Rows: 10},
			Body:      []engine.Cell{{Col: 5, Row: 5}, {Col: 4, Row: 5}},
			Direction: engine.Right,
			Score:     score,
		},
	}
}

// nextBroadcast returns the next queued update or fails the test
func nextBroadcast(t *testing.T, hub *Hub) outbound {
	t.Helper()
	select {
	case msg := <-hub.broadcast:
		return msg
	case <-time.After(time.Second):
		t.Fatal("Expected a queued broadcast")
		return outbound{}
	}
}

func newTestClient(hub *Hub) *Client {
	return &Client{hub: hub, send: make(chan []byte, 256)}
}

func decode(t *testing.T, data []byte) Message {
	t.Helper()
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return message
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.clients == nil {
		t.Error("Hub clients map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels are not initialized")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())

	client1 := newTestClient(hub)
	client2 := newTestClient(hub)
	hub.registerClient(client1)
	hub.registerClient(client2)

	if hub.ClientCount() != 2 {
		t.Errorf("Expected 2 clients, got %d", hub.ClientCount())
	}

	hub.unregisterClient(client1)
	if hub.ClientCount() != 1 {
		t.Errorf("Expected 1 client remaining, got %d", hub.ClientCount())
	}
	if !hub.clients[client2] {
		t.Error("client2 should still be registered")
	}
	if _, ok := <-client1.send; ok {
		t.Error("client1 send channel should be closed")
	}

	// Unregistering twice is harmless
	hub.unregisterClient(client1)
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())
	client := newTestClient(hub)
	hub.registerClient(client)

	hub.Broadcast(testUpdate(3, 7))
	hub.broadcastMessage(nextBroadcast(t, hub))

	select {
	case data := <-client.send:
		message := decode(t, data)
		if message.Event != EventStateUpdate {
			t.Errorf("Expected event '%s', got %s", EventStateUpdate, message.Event)
		}
		if message.Version != 3 || message.Snapshot.Score != 7 {
			t.Errorf("Expected version 3 score 7, got %d/%d", message.Version, message.Snapshot.Score)
		}
		if message.Snapshot.Head() != (engine.Cell{Col: 5, Row: 5}) {
			t.Errorf("Snapshot body not transmitted: %+v", message.Snapshot.Body)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("No message received within timeout")
	}

	t.Run("stale versions are dropped", func(t *testing.T) {
		hub.Broadcast(testUpdate(2, 5))
		hub.broadcastMessage(nextBroadcast(t, hub))

		select {
		case data := <-client.send:
			t.Errorf("Expected no message, got %s", data)
		default:
		}
	})

	t.Run("new clients get the latest state", func(t *testing.T) {
		late := newTestClient(hub)
		hub.registerClient(late)

		select {
		case data := <-late.send:
			if message := decode(t, data); message.Version != 3 {
				t.Errorf("Expected replay of version 3, got %d", message.Version)
			}
		default:
			t.Error("Expected latest state to be replayed")
		}
	})

	t.Run("nil snapshot is ignored", func(t *testing.T) {
		hub.Broadcast(service.Update{})
		select {
		case <-hub.broadcast:
			t.Error("Expected nothing queued")
		default:
		}
	})

	t.Run("unencodable snapshot is dropped", func(t *testing.T) {
		update := testUpdate(9, 1)
		update.Snapshot.Direction = engine.Direction{}
		hub.Broadcast(update)
		select {
		case <-hub.broadcast:
			t.Error("Expected nothing queued for a snapshot without a direction")
		default:
		}
	})
}

func TestHubHandle(t *testing.T) {
	controller := &mockController{}
	hub := NewHub(controller, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		message  ClientMessage
		expected string
		wantErr  bool
	}{
		{ClientMessage{Action: "start"}, "start", false},
		{ClientMessage{Action: "PAUSE"}, "pause", false},
		{ClientMessage{Action: "toggle"}, "toggle", false},
		{ClientMessage{Action: "restart"}, "restart", false},
		{ClientMessage{Action: "primary"}, "primary", false},
		{ClientMessage{Action: "direction", Direction: "left"}, "direction:left", false},
		{ClientMessage{Action: "direction", Direction: "diagonal"}, "", true},
		{ClientMessage{Action: "direction", DX: 0, DY: -1}, "direction:up", false},
		{ClientMessage{Action: "direction", DX: 1, DY: 1}, "", true},
		{ClientMessage{Action: "direction"}, "", true},
		{ClientMessage{Action: "fly"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.message.Action+tt.message.Direction, func(t *testing.T) {
			before := len(controller.recorded())
			err := hub.handle(ctx, tt.message)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			actions := controller.recorded()
			if tt.wantErr {
				if len(actions) != before {
					t.Errorf("Expected no action recorded, got %v", actions[before:])
				}
				return
			}
			if actions[len(actions)-1] != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, actions[len(actions)-1])
			}
		})
	}

	t.Run("read-only hub", func(t *testing.T) {
		readOnly := NewHub(nil, zerolog.Nop())
		if err := readOnly.handle(ctx, ClientMessage{Action: "start"}); err == nil {
			t.Error("Expected error from a watch-only hub")
		}
	})
}

func startTestServer(t *testing.T, controller Controller) (*Hub, string, context.CancelFunc) {
	t.Helper()
	hub := NewHub(controller, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http"), cancel
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketRoundTrip(t *testing.T) {
	controller := &mockController{}
	hub, wsURL, _ := startTestServer(t, controller)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitFor(t, "registration", func() bool { return hub.ClientCount() == 1 })

	t.Run("receives broadcasts", func(t *testing.T) {
		hub.Broadcast(testUpdate(1, 42))

		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Failed to read WebSocket message: %v", err)
		}
		message := decode(t, data)
		if message.Snapshot == nil || message.Snapshot.Score != 42 {
			t.Errorf("Expected score 42, got %+v", message.Snapshot)
		}
	})

	t.Run("sends actions", func(t *testing.T) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
			t.Fatalf("Failed to write: %v", err)
		}
		if err := conn.WriteJSON(ClientMessage{Action: "direction", Direction: "up"}); err != nil {
			t.Fatalf("Failed to write: %v", err)
		}

		waitFor(t, "direction action", func() bool {
			actions := controller.recorded()
			return len(actions) == 1 && actions[0] == "direction:up"
		})
	})

	t.Run("rejected actions get an error reply", func(t *testing.T) {
		if err := conn.WriteJSON(ClientMessage{Action: "direction", Direction: "sideways"}); err != nil {
			t.Fatalf("Failed to write: %v", err)
		}

		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Failed to read WebSocket message: %v", err)
		}
		message := decode(t, data)
		if message.Event != EventError || message.Error == "" {
			t.Errorf("Expected an error event, got %+v", message)
		}
	})

	t.Run("disconnect unregisters", func(t *testing.T) {
		conn.Close()
		waitFor(t, "unregistration", func() bool { return hub.ClientCount() == 0 })
	})
}

func TestHubShutdown(t *testing.T) {
	hub, wsURL, cancel := startTestServer(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()
	waitFor(t, "registration", func() bool { return hub.ClientCount() == 1 })

	cancel()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected the connection to close after shutdown")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients after shutdown, got %d", hub.ClientCount())
	}
}
