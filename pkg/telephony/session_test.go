package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newTestSession spins up a local WebSocket server acting as the carrier
// side, accepts the connection as a MediaStreamConn, and returns a Session
// bound to it plus a client-side websocket.Conn the test can read carrier
// events from.
func newTestSession(t *testing.T) (*Session, *websocket.Conn, func()) {
	t.Helper()

	connCh := make(chan *MediaStreamConn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := AcceptMediaStream(w, r)
		if err != nil {
			t.Errorf("accept failed: %v", err)
			return
		}
		connCh <- conn
	}))

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("client dial failed: %v", err)
	}

	conn := <-connCh
	conn.streamSID = "MZ-test"

	session := NewSession(context.Background(), SessionConfig{
		CallID:   "CA-test",
		Caller:   "+15551234567",
		Voice:    VoiceF1,
		Language: LanguageEn,
	}, conn)

	cleanup := func() {
		client.Close()
		server.Close()
	}
	return session, client, cleanup
}

func TestNewSessionStartsListening(t *testing.T) {
	session, client, cleanup := newTestSession(t)
	defer cleanup()
	_ = client

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.state != StateListening {
		t.Errorf("expected initial state Listening, got %v", session.state)
	}
}

func TestHandleMarkReturnsToListeningFromSpeaking(t *testing.T) {
	session, client, cleanup := newTestSession(t)
	defer cleanup()
	_ = client

	session.mu.Lock()
	session.state = StateSpeaking
	session.mu.Unlock()

	session.HandleMark("utt_1")

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.state != StateListening {
		t.Errorf("expected state Listening after mark, got %v", session.state)
	}
}

func TestHandleMediaBargeInSendsClear(t *testing.T) {
	session, client, cleanup := newTestSession(t)
	defer cleanup()

	session.mu.Lock()
	session.state = StateSpeaking
	session.mu.Unlock()

	voicedFrame := make([]byte, 160) // all zero bytes: maximal mulaw energy, not silence

	for i := 0; i < bargeInThreshold; i++ {
		session.HandleMedia(voicedFrame)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("expected a clear message on barge-in, got error: %v", err)
	}
	if !strings.Contains(string(msg), `"clear"`) {
		t.Errorf("expected a clear event, got %s", msg)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.state != StateListening {
		t.Errorf("expected state Listening after barge-in, got %v", session.state)
	}
}

func TestHandleMediaSilenceDoesNotTriggerBargeIn(t *testing.T) {
	session, client, cleanup := newTestSession(t)
	defer cleanup()
	_ = client

	session.mu.Lock()
	session.state = StateSpeaking
	session.mu.Unlock()

	silentFrame := make([]byte, 160)
	for i := range silentFrame {
		silentFrame[i] = 0xFF // mulaw silence
	}

	for i := 0; i < bargeInThreshold+5; i++ {
		session.HandleMedia(silentFrame)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.state != StateSpeaking {
		t.Errorf("expected state to remain Speaking under silence, got %v", session.state)
	}
	if session.bargeInFrames != 0 {
		t.Errorf("expected barge-in frame counter to stay reset under silence, got %d", session.bargeInFrames)
	}
}
