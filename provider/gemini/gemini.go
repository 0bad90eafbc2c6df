// Package gemini provides a provider.Provider implementation backed by the
// Google Gemini API via google.golang.org/genai. Unlike the index-addressed
// fragment streams of the other adapters, Gemini delivers each function call
// whole in a single chunk with arguments already structured, so calls are
// appended to the result as-is.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/files"
	"github.com/agentloop/agentloop/logging"
	"github.com/agentloop/agentloop/provider"
)

// Options configures the Gemini provider adapter.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	APIKey      string
	Logger      logging.Logger
}

// Provider wraps the Gemini API behind the generic provider.Provider
// interface.
type Provider struct {
	client *genai.Client
	opts   Options
}

// New creates a new Gemini provider. Without an explicit API key the client
// falls back to the GEMINI_API_KEY / GOOGLE_API_KEY environment variables.
func New(ctx context.Context, optFns ...func(o *Options)) (*Provider, error) {
	opts := defaultOptions(optFns)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Provider{client: client, opts: opts}, nil
}

// NewFromClient creates a new Gemini provider from an existing client.
func NewFromClient(client *genai.Client, optFns ...func(o *Options)) *Provider {
	return &Provider{client: client, opts: defaultOptions(optFns)}
}

func defaultOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Model:       "gemini-2.0-flash",
		Temperature: 0.7,
		MaxTokens:   4096,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// Generate implements provider.Provider. Text parts are forwarded to
// req.OnToken, inline media is rendered into the text body as data-URI
// markdown, function calls are appended whole, and usage is overwritten by
// each chunk's report so only the final one survives. Grounding metadata
// from search-augmented responses is attached to the response meta.
func (p *Provider) Generate(ctx context.Context, req provider.Request) (*core.Response, error) {
	contents, err := buildContents(req)
	if err != nil {
		return nil, provider.NewError(core.ErrKindInternal, "gemini", err)
	}
	config := p.buildConfig(req)

	acc := provider.NewAccumulator(req.OnToken, p.opts.Logger)
	var grounding any

	for chunk, err := range p.client.Models.GenerateContentStream(ctx, p.model(req), contents, config) {
		if err != nil {
			return nil, wrapError(err)
		}
		if chunk.UsageMetadata != nil {
			acc.SetUsage(core.Usage{
				InputTokens:     int(chunk.UsageMetadata.PromptTokenCount),
				OutputTokens:    int(chunk.UsageMetadata.CandidatesTokenCount),
				TotalTokens:     int(chunk.UsageMetadata.TotalTokenCount),
				ReasoningTokens: int(chunk.UsageMetadata.ThoughtsTokenCount),
			})
		}
		for _, cand := range chunk.Candidates {
			if cand.GroundingMetadata != nil {
				grounding = cand.GroundingMetadata
			}
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				switch {
				case part.Text != "":
					acc.AddText(part.Text)
				case part.InlineData != nil:
					acc.AddInlineData(part.InlineData.MIMEType, part.InlineData.Data)
				case part.FunctionCall != nil:
					acc.AddCall(toToolCall(part.FunctionCall))
				}
			}
		}
	}

	resp := acc.Response(req.OutputSchema)
	resp.Meta.Model = p.model(req)
	if grounding != nil {
		resp.SetExtra("grounding_metadata", grounding)
	}
	return resp, nil
}

// Info returns metadata describing this Gemini provider implementation.
func (p *Provider) Info() provider.Info {
	return provider.Info{Name: p.opts.Model, Provider: "gemini"}
}

func (p *Provider) model(req provider.Request) string {
	if req.Config.Model != "" {
		return req.Config.Model
	}
	return p.opts.Model
}

// toToolCall converts a whole-value function call, serializing the
// structured arguments back to canonical raw JSON. Gemini does not always
// assign call IDs; missing ones get a generated id so tool results can link
// back.
func toToolCall(fc *genai.FunctionCall) core.ToolCall {
	args := "{}"
	if fc.Args != nil {
		if b, err := json.Marshal(fc.Args); err == nil {
			args = string(b)
		}
	}
	id := fc.ID
	if id == "" {
		id = uuid.NewString()
	}
	return core.ToolCall{ID: id, Name: fc.Name, Arguments: args}
}

// buildConfig assembles the generation config including the system
// instruction and tool declarations.
func (p *Provider) buildConfig(req provider.Request) *genai.GenerateContentConfig {
	temperature := p.opts.Temperature
	if req.Config.Temperature != 0 {
		temperature = req.Config.Temperature
	}
	maxTokens := p.opts.MaxTokens
	if req.Config.MaxTokens != 0 {
		maxTokens = req.Config.MaxTokens
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperature)),
		MaxOutputTokens: int32(maxTokens),
	}

	system := req.System
	for _, m := range req.Messages {
		if m.Role == core.RoleSystem {
			if text := m.Text(); text != "" {
				if system != "" {
					system += "\n\n"
				}
				system += text
			}
		}
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, len(req.Tools))
		for i, t := range req.Tools {
			decls[i] = &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.Parameters,
			}
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return config
}

// buildContents converts canonical history to Gemini contents. Gemini has no
// assistant or tool role: assistant turns become model-role contents and
// tool results are remapped to user-role contents carrying a function
// response part with the same id/name linkage.
func buildContents(req provider.Request) ([]*genai.Content, error) {
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

	var contents []*genai.Content
	for i, m := range req.Messages {
		switch m.Role {
		case core.RoleSystem:
			// folded into the system instruction
		case core.RoleUser:
			parts := []*genai.Part{genai.NewPartFromText(m.Text())}
			if i == lastUser && attachment != nil {
				parts = append(parts, attachment...)
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
		case core.RoleAssistant:
			var parts []*genai.Part
			if text := m.Text(); text != "" {
				parts = append(parts, genai.NewPartFromText(text))
			}
			for _, tc := range m.ToolCalls {
				var args map[string]any
				if tc.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
						args = map[string]any{"raw": tc.Arguments}
					}
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		case core.RoleTool:
			response, ok := m.Content.(map[string]any)
			if !ok {
				response = map[string]any{"output": m.Text()}
			}
			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       m.ToolCallID,
					Name:     m.Name,
					Response: response,
				},
			}
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		}
	}
	return contents, nil
}

// resolveFiles renders file content as extra parts for the last user turn:
// documents as a text part, images as inline-data parts.
func resolveFiles(paths []string) ([]*genai.Part, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	in, err := files.Read(paths)
	if err != nil {
		return nil, err
	}
	var parts []*genai.Part
	if in.Text != "" {
		parts = append(parts, genai.NewPartFromText(in.Text))
	}
	for _, img := range in.Images {
		data, err := img.Decode()
		if err != nil {
			return nil, err
		}
		parts = append(parts, genai.NewPartFromBytes(data, img.MIMEType))
	}
	return parts, nil
}

// wrapError normalizes SDK failures into provider errors with a canonical
// kind.
func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return provider.WrapStatus("gemini", apiErr.Code, err)
	}
	return provider.NewError(core.ErrKindTransport, "gemini", fmt.Errorf("gemini streaming error: %w", err))
}
