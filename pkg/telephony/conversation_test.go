package telephony

import (
	"testing"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/chat"
)

func TestConversationAddAndHistory(t *testing.T) {
	c := NewConversation("CA123", "+15551234567", 50)
	c.AddUserMessage("hello")
	c.AddAssistantMessage(chat.Message{Role: chat.RoleAssistant, Text: "hi there"})

	hist := c.History()
	if len(hist) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(hist))
	}
	if c.TurnCount() != 1 {
		t.Errorf("expected turn count 1, got %d", c.TurnCount())
	}
}

func TestConversationSummaryEmpty(t *testing.T) {
	c := NewConversation("CA123", "+15551234567", 50)
	if s := c.Summary(); s == "" {
		t.Error("expected a non-empty summary even with no messages")
	}
}

func TestConversationOverflowTrim(t *testing.T) {
	c := NewConversation("CA123", "+15551234567", 4) // keepRecent = max(4, (4-2)*2) = 4

	for i := 0; i < 6; i++ {
		c.AddUserMessage("user turn")
		c.AddAssistantMessage(chat.Message{Role: chat.RoleAssistant, Text: "assistant turn"})
	}

	hist := c.History()
	// The 5th user turn triggers the trim: prefix (2) + summary placeholder
	// (1) + keepRecent (4) = 7. The 6th user turn leaves 4 user messages in
	// the history, so no second trim; with the 5th and 6th assistant turns
	// that is 7 + 3 = 10.
	if len(hist) != 10 {
		t.Fatalf("expected trimmed history length 10, got %d", len(hist))
	}
	if hist[2].Role != chat.RoleAssistant || hist[2].Text == "" {
		t.Errorf("expected an inserted summary message at index 2, got %+v", hist[2])
	}
}

func TestConversationRegistryGetOrCreate(t *testing.T) {
	before := ActiveCallCount()

	c1, err := GetOrCreateConversation("CA-registry-test", "+15550000000", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c2, err := GetOrCreateConversation("CA-registry-test", "+15550000000", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c1 != c2 {
		t.Error("expected GetOrCreateConversation to return the same instance for the same call id")
	}
	if ActiveCallCount() != before+1 {
		t.Errorf("expected active call count to increase by 1, got %d (was %d)", ActiveCallCount(), before)
	}

	RemoveConversation("CA-registry-test")
	if ActiveCallCount() != before {
		t.Errorf("expected active call count to return to %d after removal, got %d", before, ActiveCallCount())
	}
}

func TestGetOrCreateConversationRequiresCallID(t *testing.T) {
	if _, err := GetOrCreateConversation("", "+15550000000", 50); err != ErrCallIDRequired {
		t.Errorf("expected ErrCallIDRequired, got %v", err)
	}
}
