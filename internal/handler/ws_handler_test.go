package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"relaychat/internal/app/relay"
	"relaychat/internal/configs"
)

const readTimeout = 2 * time.Second

// newTestServer starts a full router over a running hub and returns the
// ws:// URL of the upgrade endpoint.
func newTestServer(t *testing.T) string {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment:    "development",
		Port:           0,
		AllowedOrigins: []string{},
	}

	hub := relay.NewHub(relay.NewRegistry(relay.RegistryOptions{}), relay.RouterOptions{})
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	server := httptest.NewServer(Router(&AppDeps{Hub: hub, Config: cfg}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, kind relay.EventKind, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	env := relay.Envelope{Kind: kind, Payload: raw}
	if err := conn.WriteJSON(env); err != nil {
		t.Fatalf("write envelope: %v", err)
	}
}

// waitForKind reads envelopes until one of the wanted kind arrives.
func waitForKind(t *testing.T, conn *websocket.Conn, kind relay.EventKind) relay.Envelope {
	t.Helper()

	deadline := time.Now().Add(readTimeout)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			t.Fatalf("set read deadline: %v", err)
		}

		var env relay.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("waiting for %q: %v", kind, err)
		}
		if env.Kind == kind {
			return env
		}
	}
}

// waitForPresence reads activeUsers broadcasts until the snapshot matches the
// given display names, tolerating intermediate presence states.
func waitForPresence(t *testing.T, conn *websocket.Conn, names ...string) {
	t.Helper()

	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}

	deadline := time.Now().Add(readTimeout)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			t.Fatalf("set read deadline: %v", err)
		}

		var env relay.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("waiting for presence %v: %v", names, err)
		}
		if env.Kind != relay.KindActiveUsers {
			continue
		}

		var snapshot []relay.Identity
		if err := json.Unmarshal(env.Payload, &snapshot); err != nil {
			t.Fatalf("activeUsers payload: %v", err)
		}
		if len(snapshot) != len(want) {
			continue
		}
		match := true
		for _, id := range snapshot {
			if _, ok := want[id.DisplayName]; !ok {
				match = false
				break
			}
		}
		if match {
			return
		}
	}
}

func TestWebSocketPresenceRoundTrip(t *testing.T) {
	url := newTestServer(t)

	conn := dial(t, url)

	sendEnvelope(t, conn, relay.KindSetIdentity, relay.SetIdentityPayload{DisplayName: "alice"})
	waitForPresence(t, conn, "alice")
}

func TestWebSocketChatBetweenTwoClients(t *testing.T) {
	url := newTestServer(t)

	alice := dial(t, url)
	bob := dial(t, url)

	sendEnvelope(t, alice, relay.KindSetIdentity, relay.SetIdentityPayload{DisplayName: "alice"})
	sendEnvelope(t, bob, relay.KindSetIdentity, relay.SetIdentityPayload{DisplayName: "bob"})

	waitForPresence(t, alice, "alice", "bob")
	waitForPresence(t, bob, "alice", "bob")

	sendEnvelope(t, alice, relay.KindChatMessage, relay.ChatMessagePayload{Username: "alice", Message: "hi"})

	env := waitForKind(t, bob, relay.KindChatMessage)

	var chat relay.ChatMessagePayload
	if err := json.Unmarshal(env.Payload, &chat); err != nil {
		t.Fatalf("chatMessage payload: %v", err)
	}
	if chat.Username != "alice" || chat.Message != "hi" {
		t.Errorf("chat = %+v, want alice/hi", chat)
	}
}

func TestWebSocketDisconnectUpdatesPresence(t *testing.T) {
	url := newTestServer(t)

	alice := dial(t, url)
	bob := dial(t, url)

	sendEnvelope(t, alice, relay.KindSetIdentity, relay.SetIdentityPayload{DisplayName: "alice"})
	sendEnvelope(t, bob, relay.KindSetIdentity, relay.SetIdentityPayload{DisplayName: "bob"})
	waitForPresence(t, alice, "alice", "bob")

	bob.Close()

	waitForPresence(t, alice, "alice")
}

func TestHealthEndpoint(t *testing.T) {
	cfg := &configs.AppConfig{Environment: "development"}
	hub := relay.NewHub(relay.NewRegistry(relay.RegistryOptions{}), relay.RouterOptions{})
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	server := httptest.NewServer(Router(&AppDeps{Hub: hub, Config: cfg}))
	t.Cleanup(server.Close)

	resp, err := server.Client().Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
