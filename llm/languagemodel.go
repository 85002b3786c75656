package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// LanguageModel is the text-generation capability the analysis pipeline
// talks to. Implementations are expected to be safe for concurrent use.
type LanguageModel interface {
	Complete(
		ctx context.Context,
		req *CompletionRequest,
	) (string, error)
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	// JSONOnly asks the backend for a JSON-object response format.
	JSONOnly bool
}

// OpenAILanguageModel speaks the OpenAI chat completion protocol. Pointing
// BaseURL at an Ollama instance (http://localhost:11434/v1) works the same
// way, which is how the service runs without any cloud dependency.
type OpenAILanguageModel struct {
	client *openai.Client
	model  string
}

func NewOpenAILanguageModel(
	baseURL string,
	apiKey string,
	model string,
) *OpenAILanguageModel {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAILanguageModel{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (o *OpenAILanguageModel) Complete(
	ctx context.Context,
	req *CompletionRequest,
) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.UserPrompt,
			},
		},
	}

	if req.JSONOnly {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
