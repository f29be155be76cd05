// Package chat implements the streaming chat driver: the sentence-boundary
// splitter that cuts the streamed model text into sentences, and the
// tool-invocation loop embedded in the chat exchange.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Role identifies the speaker of a history entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolUseBlock and ToolResultBlock let a single history entry carry a tool
// invocation/result alongside or instead of plain text, mirroring the
// reference client's assistant_content / tool_results message shapes.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

type ToolResultBlock struct {
	ToolUseID string
	Content   string
}

// Message is the chat driver's own history representation. A plain
// conversational turn sets only Text; a tool round-trip turn sets ToolUses or
// ToolResults instead.
type Message struct {
	Role        Role
	Text        string
	ToolUses    []ToolUseBlock
	ToolResults []ToolResultBlock
}

// ToolInvocation is a tool-use record collected during one streamed
// completion, its JSON input already parsed (§3 Tool Invocation Record).
type ToolInvocation struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// Config configures a Driver.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int64
	Temperature float64
	Tools       []ToolDefinition
}

// Driver wraps the Anthropic streaming Messages API: it consumes streamed
// token events, splits the text into complete sentences as it arrives, and
// transparently loops through tool-use round-trips (§4.3). A completion's
// sentences are passed on once that completion's stream has ended, not while
// it is still streaming.
type Driver struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	tools       []ToolDefinition
}

// New constructs a Driver. A nil Tools list falls back to DefaultToolCatalog.
func New(cfg Config) *Driver {
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5-20250929"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 300
	}
	tools := cfg.Tools
	if tools == nil {
		tools = DefaultToolCatalog()
	}

	return &Driver{
		client:      anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		tools:       tools,
	}
}

// Stream runs the chat exchange, sending complete sentences on the returned
// channel and handling any tool-use round-trips internally. The sentences of
// each completion are sent after that completion's stream has ended; none
// are sent while it is still streaming. The channel closes when the exchange is complete or ctx is
// cancelled; a single error (possibly nil) is sent on errCh exactly once.
//
// history is consumed by value and extended internally across tool rounds;
// callers that need to observe the final extended history (to persist tool
// turns) should inspect the returned history value once errCh has fired.
func (d *Driver) Stream(ctx context.Context, history []Message, systemPrompt string) (<-chan string, <-chan error, *[]Message) {
	out := make(chan string, 8)
	errCh := make(chan error, 1)
	finalHistory := append([]Message(nil), history...)

	go func() {
		defer close(out)
		defer close(errCh)

		for {
			sentences, toolCalls, fullText, err := d.streamOnce(ctx, finalHistory, systemPrompt)
			if err != nil {
				errCh <- err
				return
			}

			for _, s := range sentences {
				select {
				case out <- s:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}

			if len(toolCalls) == 0 {
				errCh <- nil
				return
			}

			assistantMsg := Message{Role: RoleAssistant, Text: fullText}
			for _, tc := range toolCalls {
				assistantMsg.ToolUses = append(assistantMsg.ToolUses, ToolUseBlock{ID: tc.ID, Name: tc.Name, Input: tc.Input})
			}
			finalHistory = append(finalHistory, assistantMsg)

			var results []ToolResultBlock
			for _, tc := range toolCalls {
				result, execErr := d.executeTool(ctx, tc)
				if execErr != nil {
					result = fmt.Sprintf("error: %v", execErr)
				}
				results = append(results, ToolResultBlock{ToolUseID: tc.ID, Content: result})
			}
			finalHistory = append(finalHistory, Message{Role: RoleUser, ToolResults: results})
		}
	}()

	return out, errCh, &finalHistory
}

func (d *Driver) executeTool(ctx context.Context, tc ToolInvocation) (string, error) {
	for _, def := range d.tools {
		if def.Name == tc.Name {
			return def.Execute(ctx, tc.Input)
		}
	}
	return "", fmt.Errorf("chat: unknown tool %q", tc.Name)
}

// streamOnce performs a single streamed completion call and returns any
// sentences extracted from it, any tool-use records, and the raw
// concatenated text of the completion (used to rebuild the assistant history
// entry on a tool round-trip).
func (d *Driver) streamOnce(ctx context.Context, history []Message, systemPrompt string) ([]string, []ToolInvocation, string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.F(d.model),
		MaxTokens: anthropic.F(d.maxTokens),
		System:    anthropic.F(systemPrompt),
		Messages:  anthropic.F(toAnthropicMessages(history)),
		Tools:     anthropic.F(toAnthropicTools(d.tools)),
	}
	if d.temperature > 0 {
		params.Temperature = anthropic.F(d.temperature)
	}

	stream := d.client.Messages.NewStreaming(ctx, params)

	segmenter := NewSegmenter()
	var sentences []string
	var toolCalls []ToolInvocation
	var fullText strings.Builder

	var currentToolID, currentToolName string
	var currentToolInput strings.Builder

	for stream.Next() {
		event := stream.Current()

		switch event.Type {
		case "content_block_start":
			if event.ContentBlock.Type == "tool_use" {
				currentToolID = event.ContentBlock.ID
				currentToolName = event.ContentBlock.Name
				currentToolInput.Reset()
			}

		case "content_block_delta":
			switch event.Delta.Type {
			case "text_delta":
				fullText.WriteString(event.Delta.Text)
				sentences = append(sentences, segmenter.Feed(event.Delta.Text)...)
			case "input_json_delta":
				currentToolInput.WriteString(event.Delta.PartialJSON)
			}

		case "content_block_stop":
			if currentToolName != "" {
				input := map[string]interface{}{}
				if raw := currentToolInput.String(); raw != "" {
					_ = json.Unmarshal([]byte(raw), &input) // malformed JSON -> empty object, per §7
				}
				toolCalls = append(toolCalls, ToolInvocation{
					ID:    currentToolID,
					Name:  currentToolName,
					Input: input,
				})
				currentToolID, currentToolName = "", ""
				currentToolInput.Reset()
			}

		case "message_stop":
			// no-op: terminal event, loop exits via stream.Next() returning false
		}
	}

	if err := stream.Err(); err != nil {
		return nil, nil, "", fmt.Errorf("chat: stream failed: %w", err)
	}

	sentences = append(sentences, segmenter.Flush()...)
	return sentences, toolCalls, fullText.String(), nil
}

func toAnthropicMessages(history []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(history))
	for _, m := range history {
		switch {
		case len(m.ToolUses) > 0:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.ToolUses)+1)
			if m.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Text))
			}
			for _, tu := range m.ToolUses {
				blocks = append(blocks, anthropic.ToolUseBlockParam{
					ID:    anthropic.F(tu.ID),
					Name:  anthropic.F(tu.Name),
					Input: anthropic.F[interface{}](tu.Input),
					Type:  anthropic.F(anthropic.ToolUseBlockParamType("tool_use")),
				})
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))

		case len(m.ToolResults) > 0:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.ToolResults))
			for _, tr := range m.ToolResults {
				blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolUseID, tr.Content, false))
			}
			out = append(out, anthropic.NewUserMessage(blocks...))

		case m.Role == RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))

		default:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text)))
		}
	}
	return out
}

func toAnthropicTools(defs []ToolDefinition) []anthropic.ToolParam {
	out := make([]anthropic.ToolParam, 0, len(defs))
	for _, d := range defs {
		out = append(out, anthropic.ToolParam{
			Name:        anthropic.F(d.Name),
			Description: anthropic.F(d.Description),
			InputSchema: anthropic.F[interface{}](d.InputSchema),
		})
	}
	return out
}
