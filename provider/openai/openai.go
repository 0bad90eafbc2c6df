// Package openai provides a provider.Provider implementation backed by the
// OpenAI Chat Completions API (streaming with function/tool calling). It
// adapts agentloop's normalized Request into the SDK's message format and
// reduces the SDK's stream chunks back to one canonical response.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/files"
	"github.com/agentloop/agentloop/logging"
	"github.com/agentloop/agentloop/provider"
)

// Options configure the OpenAI provider adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal; extend via
// functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	Logger              logging.Logger
}

// Provider wraps the OpenAI Chat Completions API behind the generic
// provider.Provider interface.
type Provider struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI provider using the official client.
func New(optFns ...func(o *Options)) *Provider {
	opts := defaultOptions(optFns)

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return &Provider{client: &client, opts: opts}
}

// NewFromClient creates a new OpenAI provider from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	return &Provider{client: client, opts: defaultOptions(optFns)}
}

func defaultOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// Generate implements provider.Provider. It streams one Chat Completion,
// forwarding text deltas to req.OnToken and folding indexed tool-call
// fragments into the final response.
func (p *Provider) Generate(ctx context.Context, req provider.Request) (*core.Response, error) {
	messages, err := buildMessages(req)
	if err != nil {
		return nil, provider.NewError(core.ErrKindInternal, "openai", err)
	}
	params := p.buildParams(req, messages)

	acc := provider.NewAccumulator(req.OnToken, p.opts.Logger)
	stream := p.client.Chat.Completions.NewStreaming(ctx, params)

	for stream.Next() {
		ck := stream.Current()
		// Usage arrives on a trailing chunk when stream options request it;
		// overwrite, never sum.
		if ck.Usage.TotalTokens > 0 {
			acc.SetUsage(core.Usage{
				InputTokens:     int(ck.Usage.PromptTokens),
				OutputTokens:    int(ck.Usage.CompletionTokens),
				TotalTokens:     int(ck.Usage.TotalTokens),
				ReasoningTokens: int(ck.Usage.CompletionTokensDetails.ReasoningTokens),
			})
		}
		for _, ch := range ck.Choices {
			if ch.Delta.Content != "" {
				acc.AddText(ch.Delta.Content)
			}
			for _, tc := range ch.Delta.ToolCalls {
				acc.UpsertCall(tc.Index, tc.ID, tc.Function.Name, tc.Function.Arguments)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, wrapError(err)
	}

	resp := acc.Response(req.OutputSchema)
	resp.Meta.Model = p.model(req)
	return resp, nil
}

// Info returns metadata describing this OpenAI provider implementation.
func (p *Provider) Info() provider.Info {
	return provider.Info{Name: p.opts.Model, Provider: "openai"}
}

func (p *Provider) model(req provider.Request) string {
	if req.Config.Model != "" {
		return req.Config.Model
	}
	return p.opts.Model
}

// buildMessages converts canonical history into OpenAI chat messages. Tool
// results map to the SDK's native tool role; file content is appended to the
// most recent user turn as text (markdown documents and data-URI images).
func buildMessages(req provider.Request) ([]openai.ChatCompletionMessageParamUnion, error) {
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

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for i, m := range req.Messages {
		text := m.Text()
		switch m.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(text))
		case core.RoleUser:
			if i == lastUser && attachment != "" {
				text += attachment
			}
			messages = append(messages, openai.UserMessage(text))
		case core.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		case core.RoleTool:
			messages = append(messages, openai.ToolMessage(text, m.ToolCallID))
		default:
			if text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}
	return messages, nil
}

// resolveFiles renders file content as a text suffix. OpenAI gets the
// text-only treatment: documents as delimited markdown, images as inline
// data-URI markdown.
func resolveFiles(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", nil
	}
	in, err := files.Read(paths)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(in.Text)
	for _, img := range in.Images {
		fmt.Fprintf(&b, "\n![attachment](data:%s;base64,%s)\n", img.MIMEType, img.Data)
	}
	return b.String(), nil
}

// buildParams assembles the OpenAI request parameters including tool
// definitions and the trailing usage chunk option.
func (p *Provider) buildParams(
	req provider.Request,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	temperature := p.opts.Temperature
	if req.Config.Temperature != 0 {
		temperature = req.Config.Temperature
	}
	maxTokens := p.opts.MaxCompletionTokens
	if req.Config.MaxTokens != 0 {
		maxTokens = req.Config.MaxTokens
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               p.model(req),
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, t := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  t.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}

// wrapError normalizes SDK failures into provider errors with a canonical
// kind.
func wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return provider.WrapStatus("openai", apiErr.StatusCode, err)
	}
	return provider.NewError(core.ErrKindTransport, "openai", fmt.Errorf("openai streaming error: %w", err))
}
