// Package anthropic provides a provider.Provider implementation backed by
// the Anthropic Messages API (streaming with tool use). Tool-call input
// arrives as indexed input_json_delta fragments which are folded back into
// complete calls by the shared accumulator.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/files"
	"github.com/agentloop/agentloop/logging"
	"github.com/agentloop/agentloop/provider"
)

// Options configures the Anthropic provider adapter (model id, temperature,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	APIKey      string
	Logger      logging.Logger
}

// Provider wraps the Anthropic Messages API behind the generic
// provider.Provider interface.
type Provider struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic provider using the official client.
func New(optFns ...func(o *Options)) *Provider {
	opts := defaultOptions(optFns)

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Provider{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic provider from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Provider {
	return &Provider{client: client, opts: defaultOptions(optFns)}
}

func defaultOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Model:       string(anthropic.ModelClaude3_5Sonnet20241022),
		Temperature: 0.7,
		MaxTokens:   4096,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// Generate implements provider.Provider. It consumes the Messages stream
// event by event: text deltas are forwarded to req.OnToken, tool_use blocks
// are announced by content_block_start and filled by input_json_delta
// fragments keyed on the block index, and usage is taken from the final
// message_delta report (input token count carried over from message_start).
func (p *Provider) Generate(ctx context.Context, req provider.Request) (*core.Response, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, provider.NewError(core.ErrKindInternal, "anthropic", err)
	}

	acc := provider.NewAccumulator(req.OnToken, p.opts.Logger)
	stream := p.client.Messages.NewStreaming(ctx, params)

	var inputTokens int64
	for stream.Next() {
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.MessageStartEvent:
			inputTokens = ev.Message.Usage.InputTokens
		case anthropic.ContentBlockStartEvent:
			switch block := ev.ContentBlock.AsAny().(type) {
			case anthropic.TextBlock:
				acc.AddText(block.Text)
			case anthropic.ToolUseBlock:
				acc.UpsertCall(ev.Index, block.ID, block.Name, "")
			}
		case anthropic.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				acc.AddText(delta.Text)
			case anthropic.InputJSONDelta:
				acc.UpsertCall(ev.Index, "", "", delta.PartialJSON)
			}
		case anthropic.MessageDeltaEvent:
			acc.SetUsage(core.Usage{
				InputTokens:  int(inputTokens),
				OutputTokens: int(ev.Usage.OutputTokens),
				TotalTokens:  int(inputTokens + ev.Usage.OutputTokens),
			})
		}
	}
	if err := stream.Err(); err != nil {
		return nil, wrapError(err)
	}

	resp := acc.Response(req.OutputSchema)
	resp.Meta.Model = string(p.model(req))
	return resp, nil
}

// Info returns metadata describing this Anthropic provider implementation.
func (p *Provider) Info() provider.Info {
	return provider.Info{Name: p.opts.Model, Provider: "anthropic"}
}

func (p *Provider) model(req provider.Request) anthropic.Model {
	if req.Config.Model != "" {
		return anthropic.Model(req.Config.Model)
	}
	return anthropic.Model(p.opts.Model)
}

// buildParams assembles the message request: system blocks, converted
// history, file attachments on the last user turn, and tool declarations.
func (p *Provider) buildParams(req provider.Request) (anthropic.MessageNewParams, error) {
	temperature := p.opts.Temperature
	if req.Config.Temperature != 0 {
		temperature = req.Config.Temperature
	}
	maxTokens := p.opts.MaxTokens
	if req.Config.MaxTokens != 0 {
		maxTokens = req.Config.MaxTokens
	}

	messages, err := buildMessages(req)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:       p.model(req),
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
	}
	if system := systemBlocks(req); len(system) > 0 {
		params.System = system
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}
	return params, nil
}

// systemBlocks collects the request system prompt plus any system-role
// history turns; Anthropic keeps these out of the message list.
func systemBlocks(req provider.Request) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	if req.System != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: req.System})
	}
	for _, m := range req.Messages {
		if m.Role == core.RoleSystem {
			if text := m.Text(); text != "" {
				blocks = append(blocks, anthropic.TextBlockParam{Text: text})
			}
		}
	}
	return blocks
}

// buildMessages converts canonical history to Anthropic message params.
// Anthropic has no tool role: tool results are remapped to user messages
// carrying tool_result blocks, with consecutive results merged into one
// user turn so every tool_use is answered by the immediately following
// message.
func buildMessages(req provider.Request) ([]anthropic.MessageParam, error) {
	attachment, err := resolveFiles(req.Files)
	if err != nil {
		return nil, err
	}

	lastUser := -1
	for i, m := range req.Messages {
		if m.Role == core.RoleUser {
			lastUser = i
		}
	}

	var messages []anthropic.MessageParam
	var pendingResults []anthropic.ContentBlockParamUnion

	flushResults := func() {
		if len(pendingResults) > 0 {
			messages = append(messages, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for i, m := range req.Messages {
		if m.Role != core.RoleTool {
			flushResults()
		}
		switch m.Role {
		case core.RoleSystem:
			// handled by systemBlocks
		case core.RoleUser:
			blocks := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Text())}
			if i == lastUser && attachment != nil {
				if attachment.Text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(attachment.Text))
				}
				for _, img := range attachment.Images {
					blocks = append(blocks, anthropic.NewImageBlockBase64(img.MIMEType, img.Data))
				}
			}
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		case core.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if text := m.Text(); text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(text))
			}
			for _, tc := range m.ToolCalls {
				var input any
				if tc.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
						input = tc.Arguments // fall back to the raw string
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		case core.RoleTool:
			isError, _ := m.Metadata["is_error"].(bool)
			pendingResults = append(pendingResults,
				anthropic.NewToolResultBlock(m.ToolCallID, m.Text(), isError))
		}
	}
	flushResults()

	return messages, nil
}

func resolveFiles(paths []string) (*files.Input, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	return files.Read(paths)
}

// buildTools converts tool schemas to the Anthropic tool format.
func buildTools(tools []provider.ToolSchema) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if t.Parameters != nil {
			if properties, exists := t.Parameters["properties"]; exists {
				inputSchema.Properties = properties
			}
			inputSchema.Required = requiredList(t.Parameters["required"])
		}
		anthropicTools[i] = anthropic.ToolUnionParamOfTool(inputSchema, t.Name)
	}
	return anthropicTools
}

// requiredList accepts both []string and JSON-decoded []any required lists.
func requiredList(v any) []string {
	switch req := v.(type) {
	case []string:
		return req
	case []any:
		var out []string
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// wrapError normalizes SDK failures into provider errors with a canonical
// kind.
func wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return provider.WrapStatus("anthropic", apiErr.StatusCode, err)
	}
	return provider.NewError(core.ErrKindTransport, "anthropic", fmt.Errorf("anthropic streaming error: %w", err))
}
