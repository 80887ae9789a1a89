package llm

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tbourn/go-roadmap-backend/internal/config"
)

// Message roles understood by chat-completion providers.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one chat-completion message.
type Message struct {
	Role    string
	Content string
}

// Completer performs a single chat completion with the given key and returns
// the first choice's raw text. Implementations must honor ctx cancellation.
type Completer interface {
	Complete(ctx context.Context, apiKey string, messages []Message) (string, error)
}

// GroqClient is a Completer backed by Groq's OpenAI-compatible endpoint.
// A fresh SDK client is built per call because the key can differ per request.
type GroqClient struct {
	baseURL     string
	model       string
	temperature float64
}

// NewGroqClient builds a GroqClient from model configuration.
func NewGroqClient(cfg config.ModelConfig) *GroqClient {
	return &GroqClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/") + "/",
		model:       cfg.Name,
		temperature: cfg.Temperature,
	}
}

// Model returns the configured model name.
func (g *GroqClient) Model() string { return g.model }

// Complete sends messages to the model. SDK-level retries are disabled: a
// failed call is surfaced once and the client decides whether to retry.
func (g *GroqClient) Complete(ctx context.Context, apiKey string, messages []Message) (string, error) {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(g.baseURL),
		option.WithMaxRetries(0),
	)

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(g.model),
		Messages:    toParams(messages),
		Temperature: openai.Float(g.temperature),
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func toParams(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
