package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNotConfigured is returned by every call when no API key is set.
var ErrNotConfigured = errors.New("llm not configured")

const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

type Message struct {
	Role    string
	Content string
}

type Request struct {
	Model       string
	System      string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

type Response struct {
	Content    string
	TokensUsed int
}

// Client is the completion and embedding surface the services depend on.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Configured reports whether c can reach a provider.
func Configured(c Client) bool {
	if c == nil {
		return false
	}
	_, off := c.(Unconfigured)
	return !off
}

// Unconfigured fails every call with ErrNotConfigured.
type Unconfigured struct{}

func (Unconfigured) Complete(context.Context, Request) (Response, error) {
	return Response{}, ErrNotConfigured
}

func (Unconfigured) Embed(context.Context, []string) ([][]float32, error) {
	return nil, ErrNotConfigured
}

// OpenAIClient talks to any OpenAI-compatible endpoint (OpenRouter by default).
type OpenAIClient struct {
	api        *openai.Client
	model      string
	embedModel string
}

// New returns Unconfigured when apiKey is empty.
func New(apiKey, baseURL, model, embedModel string) Client {
	if strings.TrimSpace(apiKey) == "" {
		return Unconfigured{}
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIClient{api: openai.NewClientWithConfig(cfg), model: model, embedModel: embedModel}
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return Response{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, errors.New("chat completion: empty choices")
	}
	return Response{
		Content:    strings.TrimSpace(resp.Choices[0].Message.Content),
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.embedModel == "" {
		return nil, ErrNotConfigured
	}
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.embedModel),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = d.Embedding
		}
	}
	return out, nil
}
