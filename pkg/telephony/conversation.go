package telephony

import (
	"fmt"
	"sync"
	"time"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/chat"
)

// CallEvent is a single logged occurrence during a call, retained for
// post-call analytics (STT results, tool calls, errors, etc.).
type CallEvent struct {
	Type      string
	Timestamp time.Time
	Data      map[string]interface{}
}

// Conversation manages per-call chat history, turn counting, and overflow
// summarization for a single call, built against chat.Message since tool-use
// turns carry richer structure than plain role/content text.
type Conversation struct {
	CallID string
	Caller string

	maxTurns  int
	startedAt time.Time

	mu        sync.Mutex
	messages  []chat.Message
	events    []CallEvent
	turnCount int
}

// NewConversation constructs a Conversation for a single call. maxTurns <= 0
// falls back to 50, matching the reference implementation's default.
func NewConversation(callID, caller string, maxTurns int) *Conversation {
	if maxTurns <= 0 {
		maxTurns = 50
	}
	return &Conversation{
		CallID:    callID,
		Caller:    caller,
		maxTurns:  maxTurns,
		startedAt: time.Now(),
	}
}

// AddUserMessage appends a caller turn and trims the history if it has grown
// past maxTurns.
func (c *Conversation) AddUserMessage(text string) {
	c.mu.Lock()
	c.messages = append(c.messages, chat.Message{Role: chat.RoleUser, Text: text})
	c.turnCount++
	c.mu.Unlock()
	c.trimIfNeeded()
}

// AddAssistantMessage appends an agent turn, including any tool-use blocks it
// carries.
func (c *Conversation) AddAssistantMessage(msg chat.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// AddToolResults appends a tool-result turn produced by the chat driver's
// tool-invocation loop.
func (c *Conversation) AddToolResults(results []chat.ToolResultBlock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, chat.Message{Role: chat.RoleUser, ToolResults: results})
}

// AddEvent logs a call event for later inspection.
func (c *Conversation) AddEvent(eventType string, data map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data == nil {
		data = map[string]interface{}{}
	}
	c.events = append(c.events, CallEvent{Type: eventType, Timestamp: time.Now(), Data: data})
}

// History returns a copy of the current message history, suitable for
// passing to chat.Driver.Stream.
func (c *Conversation) History() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]chat.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// SetHistory replaces the history wholesale — used to persist the extended
// history a chat.Driver.Stream call returns after a tool round-trip.
func (c *Conversation) SetHistory(messages []chat.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append([]chat.Message(nil), messages...)
}

// TurnCount returns the number of caller turns recorded so far.
func (c *Conversation) TurnCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turnCount
}

// Summary produces a short human-readable summary of the conversation so
// far, used both as a standalone status line and as the body of the overflow
// placeholder message trimIfNeeded inserts.
func (c *Conversation) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summaryLocked()
}

func (c *Conversation) summaryLocked() string {
	if len(c.messages) == 0 {
		return "No conversation has taken place yet."
	}

	userTurns := 0
	for _, m := range c.messages {
		if m.Role == chat.RoleUser && len(m.ToolResults) == 0 {
			userTurns++
		}
	}
	minutes := int(time.Since(c.startedAt).Minutes())

	last := c.messages[len(c.messages)-1]
	lastText := last.Text
	if len(lastText) > 100 {
		lastText = lastText[:100]
	}

	return fmt.Sprintf("Call with %s, %d turns over %d minutes. Last message: %s",
		c.Caller, userTurns, minutes, lastText)
}

// trimIfNeeded applies the sliding-window overflow rule: once caller turns
// exceed maxTurns, the history is collapsed to its first two messages, an
// inserted summary placeholder, and the most recent keep_recent messages.
// keep_recent is (maxTurns-2)*2, floored at 4.
func (c *Conversation) trimIfNeeded() {
	c.mu.Lock()
	defer c.mu.Unlock()

	userCount := 0
	for _, m := range c.messages {
		if m.Role == chat.RoleUser && len(m.ToolResults) == 0 {
			userCount++
		}
	}
	if userCount <= c.maxTurns {
		return
	}

	keepRecent := (c.maxTurns - 2) * 2
	if keepRecent < 4 {
		keepRecent = 4
	}
	if keepRecent > len(c.messages) {
		keepRecent = len(c.messages)
	}

	prefix := append([]chat.Message(nil), c.messages[:min(2, len(c.messages))]...)
	suffix := append([]chat.Message(nil), c.messages[len(c.messages)-keepRecent:]...)

	summary := chat.Message{
		Role: chat.RoleAssistant,
		Text: fmt.Sprintf("[Summary of earlier conversation: %s]", c.summaryLocked()),
	}

	merged := make([]chat.Message, 0, len(prefix)+1+len(suffix))
	merged = append(merged, prefix...)
	merged = append(merged, summary)
	merged = append(merged, suffix...)
	c.messages = merged
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Cleanup releases held history and event state. Call once the call has
// ended and nothing further will read from this Conversation.
func (c *Conversation) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.events = nil
}

// registry is the process-wide table of active call conversations, the
// telephony analogue of the reference implementation's module-level
// _active_conversations dict.
type registry struct {
	mu    sync.Mutex
	calls map[string]*Conversation
}

var defaultRegistry = &registry{calls: map[string]*Conversation{}}

// GetOrCreateConversation returns the Conversation for callID, creating one
// if it does not yet exist.
func GetOrCreateConversation(callID, caller string, maxTurns int) (*Conversation, error) {
	if callID == "" {
		return nil, ErrCallIDRequired
	}

	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if conv, ok := defaultRegistry.calls[callID]; ok {
		return conv, nil
	}
	conv := NewConversation(callID, caller, maxTurns)
	defaultRegistry.calls[callID] = conv
	return conv, nil
}

// RemoveConversation cleans up and removes callID's Conversation, if any.
func RemoveConversation(callID string) {
	defaultRegistry.mu.Lock()
	conv, ok := defaultRegistry.calls[callID]
	delete(defaultRegistry.calls, callID)
	defaultRegistry.mu.Unlock()

	if ok {
		conv.Cleanup()
	}
}

// ActiveCallCount returns the number of calls currently tracked.
func ActiveCallCount() int {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	return len(defaultRegistry.calls)
}
