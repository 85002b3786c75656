package stt

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Transcriber turns a captured audio file into plain text. The engine is
// treated as an opaque capability: no quality or timing guarantees.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// WhisperClient transcribes audio through an OpenAI-compatible audio
// endpoint. A locally hosted whisper server (faster-whisper-server and
// friends expose this protocol) keeps everything on-box.
type WhisperClient struct {
	client *openai.Client
	model  string
}

func NewWhisperClient(baseURL, apiKey, model string) *WhisperClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (w *WhisperClient) Transcribe(
	ctx context.Context,
	audioPath string,
) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: audioPath,
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return resp.Text, nil
}
