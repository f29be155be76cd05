package tts

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/lokutor-ai/lokutor-orchestrator/pkg/audio"
	"github.com/lokutor-ai/lokutor-orchestrator/pkg/telephony"
)

// lokutorOutputSampleRate is the PCM16 sample rate Lokutor's "versa-1.0"
// voice model streams at.
const lokutorOutputSampleRate = 24000

type LokutorTTS struct {
	apiKey string
	host   string
	scheme string // websocket URL scheme; empty means "wss"
	mu     sync.Mutex
	conn   *websocket.Conn

	fillerMu sync.RWMutex
	fillers  map[string][]byte // key -> pre-cached mulaw 8kHz audio
}

func NewLokutorTTS(apiKey string) *LokutorTTS {
	return &LokutorTTS{
		apiKey:  apiKey,
		host:    "api.lokutor.com",
		fillers: map[string][]byte{},
	}
}

// OutputSampleRate reports the PCM16 sample rate of audio returned by
// Synthesize/StreamSynthesize, so callers can transcode to the carrier's
// narrowband format.
func (t *LokutorTTS) OutputSampleRate() int {
	return lokutorOutputSampleRate
}

// defaultFillerPhrases maps a filler key to the phrase synthesized for it.
// These are played while the chat completion is in flight, covering the gap
// between the caller finishing speaking and the first sentence of the real
// response being ready.
var defaultFillerPhrases = map[string]string{
	"thinking": "One moment please...",
	"checking": "Let me check that for you...",
}

// Warmup opens the synthesis connection and pre-synthesizes the default
// filler phrases, transcoding each to narrowband mulaw and caching it for
// GetFillerAudio.
func (t *LokutorTTS) Warmup(ctx context.Context, voice telephony.Voice, lang telephony.Language) error {
	if _, err := t.getConn(ctx); err != nil {
		return err
	}

	for key, phrase := range defaultFillerPhrases {
		pcm, err := t.Synthesize(ctx, phrase, voice, lang)
		if err != nil {
			return fmt.Errorf("lokutor: warmup synthesis for %q failed: %w", key, err)
		}
		mulaw, err := audio.WidebandToNarrowband(pcm, lokutorOutputSampleRate)
		if err != nil {
			return fmt.Errorf("lokutor: warmup transcode for %q failed: %w", key, err)
		}

		t.fillerMu.Lock()
		t.fillers[key] = mulaw
		t.fillerMu.Unlock()
	}
	return nil
}

// GetFillerAudio returns the pre-cached narrowband mulaw audio for key, if
// Warmup has populated it.
func (t *LokutorTTS) GetFillerAudio(key string) ([]byte, bool) {
	t.fillerMu.RLock()
	defer t.fillerMu.RUnlock()
	cached, ok := t.fillers[key]
	return cached, ok
}

func (t *LokutorTTS) getConn(ctx context.Context) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return t.conn, nil
	}

	scheme := t.scheme
	if scheme == "" {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: t.host, Path: "/ws", RawQuery: "api_key=" + t.apiKey}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to lokutor: %w", err)
	}

	t.conn = conn
	return conn, nil
}

func (t *LokutorTTS) Synthesize(ctx context.Context, text string, voice telephony.Voice, lang telephony.Language) ([]byte, error) {
	var audio []byte
	err := t.StreamSynthesize(ctx, text, voice, lang, func(chunk []byte) error {
		audio = append(audio, chunk...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}

func (t *LokutorTTS) StreamSynthesize(ctx context.Context, text string, voice telephony.Voice, lang telephony.Language, onChunk func([]byte) error) error {
	conn, err := t.getConn(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	req := map[string]interface{}{
		"text":    text,
		"voice":   string(voice),
		"lang":    string(lang),
		"speed":   1.05,
		"steps":   5,
		"version": "versa-1.0",
	}

	if err := wsjson.Write(ctx, conn, req); err != nil {
		t.conn = nil
		conn.Close(websocket.StatusAbnormalClosure, "failed to write json")
		return fmt.Errorf("failed to send synthesis request: %w", err)
	}

	for {
		messageType, payload, err := conn.Read(ctx)
		if err != nil {
			t.conn = nil
			conn.Close(websocket.StatusAbnormalClosure, "failed to read")
			return fmt.Errorf("failed to read from lokutor: %w", err)
		}

		switch messageType {
		case websocket.MessageBinary:
			if err := onChunk(payload); err != nil {
				return err
			}
		case websocket.MessageText:
			msg := string(payload)
			if msg == "EOS" {
				return nil
			}
			if len(msg) >= 4 && msg[:4] == "ERR:" {
				return fmt.Errorf("lokutor error: %s", msg)
			}
		}
	}
}

func (t *LokutorTTS) Name() string {
	return "lokutor"
}

func (t *LokutorTTS) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		err := t.conn.Close(websocket.StatusNormalClosure, "")
		t.conn = nil
		return err
	}
	return nil
}
