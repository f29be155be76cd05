// Package telephony implements the real-time call-handling surface: the
// per-call session state machine, conversation history, and the webhook and
// media-stream transport glue that connects a telephony carrier to the chat
// and audio pipelines.
package telephony

// AgentState names the three states of a call's session.
type AgentState string

const (
	// StateListening is the default state: the agent is waiting for caller
	// speech, feeding inbound audio to VAD.
	StateListening AgentState = "listening"
	// StateProcessing covers STT finalization through the chat completion
	// and tool-invocation loop, before any audio has been synthesized.
	StateProcessing AgentState = "processing"
	// StateSpeaking covers TTS playback of the agent's response. Caller
	// speech detected in this state triggers a barge-in.
	StateSpeaking AgentState = "speaking"
)

// EventType names the session event taxonomy. Session emits TranscriptFinal,
// AgentThinking, AgentSpeaking, AgentResponse, Interrupted, AudioChunk and
// CallEnded; CallerSpeaking, CallerStopped, ToolInvoked and Error are
// declared but not emitted by Session.
type EventType string

const (
	EventCallerSpeaking  EventType = "CALLER_SPEAKING"
	EventCallerStopped   EventType = "CALLER_STOPPED"
	EventTranscriptFinal EventType = "TRANSCRIPT_FINAL"
	EventAgentThinking   EventType = "AGENT_THINKING"
	EventAgentSpeaking   EventType = "AGENT_SPEAKING"
	EventAgentResponse   EventType = "AGENT_RESPONSE"
	EventInterrupted     EventType = "INTERRUPTED"
	EventAudioChunk      EventType = "AUDIO_CHUNK"
	EventToolInvoked     EventType = "TOOL_INVOKED"
	EventError           EventType = "ERROR"
	EventCallEnded       EventType = "CALL_ENDED"
)

// SessionEvent is a single event emitted by a Session.
type SessionEvent struct {
	Type   EventType
	CallID string
	Data   interface{}
}

// CallSession identifies one telephone call and its caller-visible metadata.
type CallSession struct {
	CallID    string // carrier call identifier (e.g. Twilio CallSid)
	Caller    string // caller phone number, E.164 where available
	StreamSID string // carrier media-stream identifier, set once the stream starts
}
