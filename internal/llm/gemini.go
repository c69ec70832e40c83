package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const metaGeminiPart = "gemini_part"

// GeminiProvider implements Provider using the Google Gen AI SDK.
type GeminiProvider struct {
	client       *genai.Client
	defaultModel string
}

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiProvider{client: client, defaultModel: model}, nil
}

func (p *GeminiProvider) Name() string         { return "gemini" }
func (p *GeminiProvider) DefaultModel() string { return p.defaultModel }

func (p *GeminiProvider) Chat(ctx context.Context, req *ChatRequest) (*Message, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	config := &genai.GenerateContentConfig{
		Tools: geminiTools(req.Tools),
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, geminiContents(req.Messages), config)
	if err != nil {
		return nil, classify(err)
	}
	return geminiMessage(resp)
}

func geminiContents(messages []Message) []*genai.Content {
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Text(), genai.RoleUser))
		case RoleAssistant:
			var parts []*genai.Part
			if text := m.Text(); text != "" {
				parts = append(parts, genai.NewPartFromText(text))
			}
			for _, tc := range m.ToolCalls {
				if part, ok := tc.Meta[metaGeminiPart].(*genai.Part); ok {
					parts = append(parts, part)
					continue
				}
				var args map[string]any
				_ = json.Unmarshal(tc.Arguments, &args)
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		case RoleTool:
			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       m.ToolCallID,
					Name:     m.ToolName,
					Response: map[string]any{"result": m.Text()},
				},
			}
			// Consecutive tool results belong in one user turn.
			if n := len(contents); n > 0 && contents[n-1].Role == string(genai.RoleUser) && isFunctionResponses(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		}
	}
	return contents
}

func isFunctionResponses(c *genai.Content) bool {
	for _, part := range c.Parts {
		if part.FunctionResponse == nil {
			return false
		}
	}
	return len(c.Parts) > 0
}

// geminiSchema mirrors the subset of JSON Schema the tools declare.
type geminiSchema struct {
	Type        string                   `json:"type"`
	Description string                   `json:"description"`
	Properties  map[string]*geminiSchema `json:"properties"`
	Required    []string                 `json:"required"`
	Items       *geminiSchema            `json:"items"`
	Default     any                      `json:"default"`
	Minimum     *float64                 `json:"minimum"`
	Maximum     *float64                 `json:"maximum"`
}

func (s *geminiSchema) toGenai() *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(s.Type)),
		Description: s.Description,
		Required:    s.Required,
		Items:       s.Items.toGenai(),
		Default:     s.Default,
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.toGenai()
		}
	}
	return out
}

func geminiTools(defs []ToolDefinition) []*genai.Tool {
	if len(defs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, d := range defs {
		decl := &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
		}
		var schema geminiSchema
		if len(d.Parameters) > 0 && json.Unmarshal(d.Parameters, &schema) == nil {
			decl.Parameters = schema.toGenai()
		}
		decls = append(decls, decl)
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func geminiMessage(resp *genai.GenerateContentResponse) (*Message, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		reason := "no candidates"
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + string(resp.PromptFeedback.BlockReason)
		}
		return nil, &LLMError{Type: ErrorInvalidInput, Message: "gemini returned an empty response (" + reason + ")", Err: errors.New(reason)}
	}

	msg := &Message{Role: RoleAssistant}
	var blocks BlockSequence
	for _, part := range resp.Candidates[0].Content.Parts {
		switch {
		case part.FunctionCall != nil:
			args, _ := json.Marshal(part.FunctionCall.Args)
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{
				ID:        part.FunctionCall.ID,
				Name:      part.FunctionCall.Name,
				Arguments: args,
				Meta:      map[string]any{metaGeminiPart: part},
			})
		case part.Thought:
			blocks = append(blocks, OtherBlock("thinking"))
		case part.Text != "":
			blocks = append(blocks, TextBlock(part.Text))
		case part.InlineData != nil:
			blocks = append(blocks, OtherBlock("image"))
		}
	}
	msg.Content = blocks
	return msg, nil
}
