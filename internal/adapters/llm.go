package adapters

import (
	"context"

	"github.com/iamwavecut/cmdbot/internal/adapters/llm"
)

// LLM is a chat completion backend.
type LLM interface {
	ChatCompletion(ctx context.Context, messages []llm.ChatCompletionMessage) (llm.ChatCompletionResponse, error)
	WithModel(model string) LLM
	WithParameters(parameters *llm.GenerationParameters) LLM
	WithSystemPrompt(prompt string) LLM
}
