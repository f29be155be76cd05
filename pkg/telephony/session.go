package telephony

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/audio"
	"github.com/lokutor-ai/lokutor-orchestrator/pkg/chat"
)

const (
	// twilioChunkMS is the outbound audio frame size the carrier expects.
	twilioChunkMS = 20
	// bargeInThreshold is the number of consecutive non-silent inbound
	// frames required to interrupt agent speech (~200ms at 20ms/frame).
	bargeInThreshold = 10
	// minUtteranceBytes avoids transcribing tiny noise bursts (60ms at
	// 8kHz mulaw).
	minUtteranceBytes = 480
)

// SessionConfig configures a Session.
type SessionConfig struct {
	CallID             string
	Caller             string
	STT                STTProvider
	TTS                TTSProvider
	Driver             *chat.Driver
	Conversation       *Conversation
	SystemPrompt       string
	Greeting           string
	Voice              Voice
	Language           Language
	SilenceThreshold   time.Duration // defaults to 800ms
	SilenceEnergyLimit int           // defaults to audio.DefaultSilenceThreshold
	Logger             Logger
}

// Session is the per-call state machine: it classifies inbound audio as
// speech or silence, transcribes finalized caller turns, drives the chat
// completion and tool-invocation loop, streams synthesized speech back to
// the carrier, and allows the caller to barge in at any point.
//
// One Session is created per call and driven by a single MediaStreamConn;
// HandleMedia is called synchronously from that connection's read loop, so
// it must never block on anything slower than a channel send.
type Session struct {
	cfg    SessionConfig
	conn   *MediaStreamConn
	logger Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	state         AgentState
	audioBuf      []byte
	hasSpeech     bool
	silenceSince  time.Time
	bargeInFrames int
	interrupted   bool
	generation    int // invalidates stale pipeline/speak callbacks after an interrupt
	markCounter   int

	pipelineCancel context.CancelFunc

	events chan SessionEvent
}

// NewSession constructs a Session bound to conn. ctx governs the whole
// call's lifetime; cancelling it tears down any in-flight pipeline work.
func NewSession(ctx context.Context, cfg SessionConfig, conn *MediaStreamConn) *Session {
	if cfg.SilenceThreshold == 0 {
		cfg.SilenceThreshold = 800 * time.Millisecond
	}
	if cfg.SilenceEnergyLimit == 0 {
		cfg.SilenceEnergyLimit = audio.DefaultSilenceThreshold
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &NoOpLogger{}
	}

	sCtx, cancel := context.WithCancel(ctx)
	return &Session{
		cfg:    cfg,
		conn:   conn,
		logger: logger,
		ctx:    sCtx,
		cancel: cancel,
		state:  StateListening,
		events: make(chan SessionEvent, 256),
	}
}

// Events returns the channel of session lifecycle events.
func (s *Session) Events() <-chan SessionEvent {
	return s.events
}

// HandleStart implements MediaStreamHandler. It logs the stream
// identifiers and speaks the call's greeting.
func (s *Session) HandleStart(streamSID, callSID string, customParams map[string]string) {
	s.logger.Info("call_started", "call_id", callSID, "stream_sid", streamSID, "caller", s.cfg.Caller)
	if s.cfg.Greeting != "" {
		s.speak(s.cfg.Greeting)
	}
}

// HandleMedia implements MediaStreamHandler. It is invoked for every ~20ms
// inbound audio frame and must stay fast: barge-in detection happens here
// even while the agent is speaking or a pipeline run is in flight.
func (s *Session) HandleMedia(payload []byte) {
	isSilent := audio.IsSilence(payload, s.cfg.SilenceEnergyLimit)

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	switch state {
	case StateSpeaking, StateProcessing:
		s.mu.Lock()
		if isSilent {
			s.bargeInFrames = 0
			s.mu.Unlock()
			return
		}
		s.bargeInFrames++
		triggered := s.bargeInFrames >= bargeInThreshold
		if triggered {
			s.bargeInFrames = 0
		}
		s.mu.Unlock()

		if triggered {
			s.handleInterruption()
			s.mu.Lock()
			s.audioBuf = append(s.audioBuf[:0], payload...)
			s.hasSpeech = true
			s.silenceSince = time.Time{}
			s.state = StateListening
			s.mu.Unlock()
		}
		return

	default: // StateListening
		s.mu.Lock()
		s.audioBuf = append(s.audioBuf, payload...)
		now := time.Now()

		if !isSilent {
			s.hasSpeech = true
			s.silenceSince = time.Time{}
			s.mu.Unlock()
			return
		}

		if s.silenceSince.IsZero() {
			s.silenceSince = now
			s.mu.Unlock()
			return
		}

		shouldProcess := s.hasSpeech && now.Sub(s.silenceSince) >= s.cfg.SilenceThreshold && len(s.audioBuf) > minUtteranceBytes
		var utterance []byte
		if shouldProcess {
			utterance = append([]byte(nil), s.audioBuf...)
			s.audioBuf = s.audioBuf[:0]
			s.hasSpeech = false
			s.silenceSince = time.Time{}
			s.state = StateProcessing
		}
		s.mu.Unlock()

		if shouldProcess {
			go s.runPipeline(utterance)
		}
	}
}

// HandleMark implements MediaStreamHandler: once the carrier confirms all
// audio queued before a mark has played, the session returns to listening.
func (s *Session) HandleMark(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSpeaking {
		s.state = StateListening
	}
}

// HandleStop implements MediaStreamHandler: the call has ended.
func (s *Session) HandleStop() {
	s.mu.Lock()
	pipelineCancel := s.pipelineCancel
	s.pipelineCancel = nil
	s.mu.Unlock()

	if pipelineCancel != nil {
		pipelineCancel()
	}
	s.cancel()
	RemoveConversation(s.cfg.CallID)
	s.emit(EventCallEnded, nil)
	close(s.events)
}

func (s *Session) handleInterruption() {
	s.logger.Info("barge_in", "call_id", s.cfg.CallID)

	s.mu.Lock()
	s.interrupted = true
	s.generation++
	pipelineCancel := s.pipelineCancel
	s.pipelineCancel = nil
	s.mu.Unlock()

	if pipelineCancel != nil {
		pipelineCancel()
	}
	if err := s.conn.Clear(); err != nil {
		s.logger.Warn("clear_send_failed", "call_id", s.cfg.CallID, "error", err.Error())
	}
	s.emit(EventInterrupted, nil)
}

// runPipeline runs STT -> chat completion (with tool loop) -> TTS for one
// finalized caller utterance. It runs in its own goroutine so HandleMedia
// keeps servicing barge-in detection concurrently.
func (s *Session) runPipeline(mulawAudio []byte) {
	pipelineCtx, pipelineCancel := context.WithCancel(s.ctx)

	s.mu.Lock()
	generation := s.generation
	s.pipelineCancel = pipelineCancel
	s.mu.Unlock()
	defer pipelineCancel()

	defer func() {
		s.mu.Lock()
		if s.generation == generation && s.state != StateListening {
			s.state = StateListening
		}
		s.mu.Unlock()
	}()

	pcm16 := audio.NarrowbandToWideband(mulawAudio, 16000)

	transcript, err := s.cfg.STT.Transcribe(pipelineCtx, pcm16, s.cfg.Language)
	if err != nil {
		if pipelineCtx.Err() != nil {
			return
		}
		s.logger.Error("stt_error", "call_id", s.cfg.CallID, "error", err.Error())
		s.speakIfCurrent(generation, "Sorry, could you repeat that?")
		return
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return
	}

	s.emit(EventTranscriptFinal, transcript)
	s.cfg.Conversation.AddUserMessage(transcript)

	if !s.isInterrupted(generation) {
		s.playFiller(generation, "thinking")
	}

	s.emit(EventAgentThinking, nil)

	sentenceCh, errCh, finalHistory := s.cfg.Driver.Stream(pipelineCtx, s.cfg.Conversation.History(), s.cfg.SystemPrompt)

	var fullResponse strings.Builder
	clearedFiller := false
	for sentence := range sentenceCh {
		if s.isInterrupted(generation) {
			continue
		}
		if !clearedFiller {
			_ = s.conn.Clear()
			clearedFiller = true
		}
		fullResponse.WriteString(sentence)
		fullResponse.WriteString(" ")
		s.speakIfCurrent(generation, sentence)
	}

	if err := <-errCh; err != nil && pipelineCtx.Err() == nil {
		s.logger.Error("chat_driver_error", "call_id", s.cfg.CallID, "error", err.Error())
		if fullResponse.Len() == 0 {
			s.speakIfCurrent(generation, "Sorry, could you repeat that?")
		}
	}

	if finalHistory != nil {
		s.cfg.Conversation.SetHistory(*finalHistory)
	}

	text := strings.TrimSpace(fullResponse.String())
	if text != "" {
		if !s.isInterrupted(generation) {
			s.cfg.Conversation.AddAssistantMessage(chat.Message{Role: chat.RoleAssistant, Text: text})
		}
		s.emit(EventAgentResponse, text)
	}
}

func (s *Session) isInterrupted(generation int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation != generation
}

// speak synthesizes text and streams it to the carrier, unconditionally
// (used for the call greeting, before any generation counter exists).
func (s *Session) speak(text string) {
	s.mu.Lock()
	generation := s.generation
	s.mu.Unlock()
	s.speakIfCurrent(generation, text)
}

// speakIfCurrent synthesizes and streams text to the carrier only if no
// interruption has occurred since generation was captured.
func (s *Session) speakIfCurrent(generation int, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if s.isInterrupted(generation) {
		return
	}

	s.mu.Lock()
	s.state = StateSpeaking
	s.mu.Unlock()
	s.emit(EventAgentSpeaking, nil)

	pcm, err := s.cfg.TTS.Synthesize(s.ctx, text, s.cfg.Voice, s.cfg.Language)
	if err != nil {
		s.logger.Error("tts_error", "call_id", s.cfg.CallID, "error", err.Error())
		return
	}
	if s.isInterrupted(generation) {
		return
	}

	mulawAudio, err := audio.WidebandToNarrowband(pcm, s.cfg.TTS.OutputSampleRate())
	if err != nil {
		s.logger.Error("transcode_failed", "call_id", s.cfg.CallID, "error", err.Error())
		return
	}

	s.sendAudio(generation, mulawAudio)
}

// playFiller streams a pre-cached filler phrase immediately, giving the
// caller audible feedback while the chat completion is in flight.
func (s *Session) playFiller(generation int, key string) {
	cached, ok := s.cfg.TTS.GetFillerAudio(key)
	if !ok {
		return
	}
	s.sendAudio(generation, cached)
}

func (s *Session) sendAudio(generation int, mulawAudio []byte) {
	chunks := audio.ChunkAudio(mulawAudio, twilioChunkMS, audio.NarrowbandSampleRate, 1)
	for _, chunk := range chunks {
		if s.isInterrupted(generation) {
			return
		}
		if err := s.conn.SendAudio(chunk); err != nil {
			s.logger.Warn("send_audio_failed", "call_id", s.cfg.CallID, "error", err.Error())
			return
		}
		s.emit(EventAudioChunk, len(chunk))
	}

	if s.isInterrupted(generation) {
		return
	}
	s.mu.Lock()
	s.markCounter++
	name := fmt.Sprintf("utt_%d", s.markCounter)
	s.mu.Unlock()
	_ = s.conn.SendMark(name)
}

func (s *Session) emit(eventType EventType, data interface{}) {
	select {
	case <-s.ctx.Done():
		return
	default:
	}
	select {
	case s.events <- SessionEvent{Type: eventType, CallID: s.cfg.CallID, Data: data}:
	default:
	}
}
