package telephony

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// twilioMessage mirrors the carrier's bidirectional media-stream JSON
// envelope: exactly one of Media/Start/Mark/Stop is populated depending on
// Event.
type twilioMessage struct {
	Event     string       `json:"event"`
	StreamSid string       `json:"streamSid,omitempty"`
	Media     *twilioMedia `json:"media,omitempty"`
	Start     *twilioStart `json:"start,omitempty"`
	Mark      *twilioMark  `json:"mark,omitempty"`
	Stop      *twilioStop  `json:"stop,omitempty"`
}

type twilioMedia struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"` // base64-encoded 8kHz mulaw audio
}

type twilioStart struct {
	StreamSid        string            `json:"streamSid"`
	CallSid          string            `json:"callSid"`
	AccountSid       string            `json:"accountSid,omitempty"`
	Tracks           []string          `json:"tracks,omitempty"`
	MediaFormat      map[string]any    `json:"mediaFormat,omitempty"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

type twilioMark struct {
	Name string `json:"name"`
}

type twilioStop struct {
	CallSid string `json:"callSid,omitempty"`
}

// upgrader upgrades incoming HTTP connections to WebSocket. Origin checking
// is left permissive: the carrier connects server-to-server, not from a
// browser, so there is no Origin header to validate meaningfully.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// MediaStreamHandler is invoked per inbound audio frame, per mark
// acknowledgement, and at stream start/stop. It is the bridge between the
// wire transport and the call's Session.
type MediaStreamHandler interface {
	HandleStart(streamSID, callSID string, customParams map[string]string)
	HandleMedia(payload []byte)
	HandleMark(name string)
	HandleStop()
}

// MediaStreamConn wraps one upgraded WebSocket connection carrying a single
// call's bidirectional audio, translating the carrier's JSON event protocol
// to/from raw mulaw frames.
type MediaStreamConn struct {
	conn      *websocket.Conn
	streamSID string
	writeMu   sync.Mutex // serializes writes from the pipeline and the frame reader
}

// AcceptMediaStream upgrades r to a WebSocket and returns a MediaStreamConn
// ready to Serve. Serve closes the connection when the stream ends.
func AcceptMediaStream(w http.ResponseWriter, r *http.Request) (*MediaStreamConn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("telephony: websocket upgrade failed: %w", err)
	}
	return &MediaStreamConn{conn: conn}, nil
}

// Serve reads inbound events until the connection closes or a stop event
// arrives, dispatching each to handler. It blocks until the stream ends.
func (m *MediaStreamConn) Serve(handler MediaStreamHandler) error {
	defer m.conn.Close()

	for {
		_, raw, err := m.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("telephony: media stream read failed: %w", err)
		}

		var msg twilioMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue // malformed frame: skip rather than tear down the call
		}

		switch msg.Event {
		case "start":
			if msg.Start == nil {
				continue
			}
			m.streamSID = msg.Start.StreamSid
			handler.HandleStart(msg.Start.StreamSid, msg.Start.CallSid, msg.Start.CustomParameters)

		case "media":
			if msg.Media == nil {
				continue
			}
			payload, err := base64.StdEncoding.DecodeString(msg.Media.Payload)
			if err != nil {
				continue
			}
			handler.HandleMedia(payload)

		case "mark":
			if msg.Mark != nil {
				handler.HandleMark(msg.Mark.Name)
			}

		case "stop":
			handler.HandleStop()
			return nil
		}
	}
}

// SendAudio writes one outbound mulaw frame to the carrier.
func (m *MediaStreamConn) SendAudio(mulaw []byte) error {
	msg := twilioMessage{
		Event:     "media",
		StreamSid: m.streamSID,
		Media:     &twilioMedia{Payload: base64.StdEncoding.EncodeToString(mulaw)},
	}
	return m.writeJSON(msg)
}

// SendMark asks the carrier to echo back name once playback of all audio
// queued before this call has finished — used to detect when agent speech
// has actually finished playing out, not merely been sent.
func (m *MediaStreamConn) SendMark(name string) error {
	return m.writeJSON(twilioMessage{
		Event:     "mark",
		StreamSid: m.streamSID,
		Mark:      &twilioMark{Name: name},
	})
}

// Clear tells the carrier to discard any audio queued for playback but not
// yet played — used on barge-in to stop the agent's voice immediately.
func (m *MediaStreamConn) Clear() error {
	return m.writeJSON(twilioMessage{Event: "clear", StreamSid: m.streamSID})
}

func (m *MediaStreamConn) writeJSON(v interface{}) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return m.conn.WriteJSON(v)
}
