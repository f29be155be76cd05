package chat

import (
	"context"
	"testing"
)

func TestToAnthropicMessagesPlainText(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Text: "hello"},
		{Role: RoleAssistant, Text: "hi there"},
	}
	out := toAnthropicMessages(history)
	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out))
	}
}

func TestToAnthropicMessagesToolUseAndResult(t *testing.T) {
	history := []Message{
		{Role: RoleAssistant, Text: "let me check", ToolUses: []ToolUseBlock{
			{ID: "tu_1", Name: "get_business_hours", Input: map[string]interface{}{"day": "monday"}},
		}},
		{Role: RoleUser, ToolResults: []ToolResultBlock{
			{ToolUseID: "tu_1", Content: "monday: 9:00 AM - 6:00 PM"},
		}},
	}
	out := toAnthropicMessages(history)
	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out))
	}
}

func TestToAnthropicToolsMapsAllDefinitions(t *testing.T) {
	defs := DefaultToolCatalog()
	out := toAnthropicTools(defs)
	if len(out) != len(defs) {
		t.Fatalf("expected %d tool params, got %d", len(defs), len(out))
	}
}

func TestExecuteToolUnknown(t *testing.T) {
	d := &Driver{tools: DefaultToolCatalog()}
	_, err := d.executeTool(context.Background(), ToolInvocation{Name: "does_not_exist"})
	if err == nil {
		t.Error("expected an error for an unknown tool name")
	}
}

func TestExecuteToolKnown(t *testing.T) {
	d := &Driver{tools: DefaultToolCatalog()}
	out, err := d.executeTool(context.Background(), ToolInvocation{
		Name:  "get_business_hours",
		Input: map[string]interface{}{"day": "friday"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == "" {
		t.Error("expected a non-empty result")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	d := New(Config{APIKey: "test-key"})
	if d.model == "" {
		t.Error("expected a default model to be set")
	}
	if d.maxTokens == 0 {
		t.Error("expected a default max token count")
	}
	if len(d.tools) == 0 {
		t.Error("expected the default tool catalog to be populated")
	}
}
