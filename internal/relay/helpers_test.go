package relay

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/grandsalon/hautemonde/internal/protocol"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// startTestRelay brings up a relay over httptest and returns it along with
// the ws:// URL to dial.
func startTestRelay(t *testing.T) (*Server, string) {
	t.Helper()

	srv := NewServer(DefaultConfig(), testLogger())
	go srv.run()

	ts := httptest.NewServer(http.HandlerFunc(srv.handleWebSocket))
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})

	return srv, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dialTestRelay(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial relay: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendTestEnvelope(t *testing.T, conn *websocket.Conn, et protocol.EventType, roomID string, payload any) {
	t.Helper()

	env, err := protocol.NewEnvelope(et, roomID, time.Now(), payload)
	if err != nil {
		t.Fatalf("failed to build %s envelope: %v", et, err)
	}
	if err := conn.WriteJSON(env); err != nil {
		t.Fatalf("failed to send %s envelope: %v", et, err)
	}
}

func readTestEnvelope(t *testing.T, conn *websocket.Conn) *protocol.Envelope {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env protocol.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("failed to read envelope: %v", err)
	}
	return &env
}

// readUntil discards envelopes until one of the wanted type arrives. Room
// updates interleave freely with everything else, so tests state what they
// are waiting for.
func readUntil(t *testing.T, conn *websocket.Conn, et protocol.EventType) *protocol.Envelope {
	t.Helper()

	for i := 0; i < 20; i++ {
		env := readTestEnvelope(t, conn)
		if env.Type == et {
			return env
		}
	}
	t.Fatalf("never received a %s envelope", et)
	return nil
}

func createTestRoom(t *testing.T, conn *websocket.Conn, name string) protocol.RoomWelcomeData {
	t.Helper()

	sendTestEnvelope(t, conn, protocol.EventRoomCreate, "", protocol.RoomCreateData{Name: name})
	env := readUntil(t, conn, protocol.EventRoomWelcome)

	var welcome protocol.RoomWelcomeData
	if err := env.Decode(&welcome); err != nil {
		t.Fatalf("failed to decode welcome: %v", err)
	}
	return welcome
}

func joinTestRoom(t *testing.T, conn *websocket.Conn, roomID, name string) protocol.RoomWelcomeData {
	t.Helper()

	sendTestEnvelope(t, conn, protocol.EventRoomJoin, roomID, protocol.RoomJoinData{Name: name})
	env := readUntil(t, conn, protocol.EventRoomWelcome)

	var welcome protocol.RoomWelcomeData
	if err := env.Decode(&welcome); err != nil {
		t.Fatalf("failed to decode welcome: %v", err)
	}
	return welcome
}

func readTestError(t *testing.T, conn *websocket.Conn) protocol.ErrorData {
	t.Helper()

	env := readUntil(t, conn, protocol.EventError)
	var data protocol.ErrorData
	if err := env.Decode(&data); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return data
}

// waitForUpdate reads room updates until one satisfies the predicate.
func waitForUpdate(t *testing.T, conn *websocket.Conn, ok func(protocol.RoomUpdateData) bool) protocol.RoomUpdateData {
	t.Helper()

	for i := 0; i < 20; i++ {
		env := readUntil(t, conn, protocol.EventRoomUpdate)
		var update protocol.RoomUpdateData
		if err := env.Decode(&update); err != nil {
			t.Fatalf("failed to decode room update: %v", err)
		}
		if ok(update) {
			return update
		}
	}
	t.Fatal("never received the expected room update")
	return protocol.RoomUpdateData{}
}
