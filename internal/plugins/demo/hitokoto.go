package demo

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/pkg/errors"

	"github.com/iamwavecut/cmdbot/internal/adapters"
	"github.com/iamwavecut/cmdbot/internal/adapters/llm"
	"github.com/iamwavecut/cmdbot/internal/i18n"
)

const quotePrompt = `You are hitokoto, a source of short memorable quotes.
Reply with exactly one quote from literature, film or anime in the requested language,
followed by " -- " and its source. No other text.`

// Quoter produces one short quote in lang.
type Quoter interface {
	Quote(ctx context.Context, lang string) (string, error)
}

var defaultQuotes = []string{
	"人生如逆旅，我亦是行人。 -- 苏轼",
	"山有木兮木有枝，心悦君兮君不知。 -- 越人歌",
	"Stay hungry, stay foolish. -- Whole Earth Catalog",
	"It is our choices that show what we truly are. -- Harry Potter",
}

// StaticQuoter picks from a fixed list, the built-in one when empty.
type StaticQuoter []string

func (q StaticQuoter) Quote(context.Context, string) (string, error) {
	quotes := q
	if len(quotes) == 0 {
		quotes = defaultQuotes
	}
	return quotes[rand.IntN(len(quotes))], nil
}

// LLMQuoter asks a chat completion backend and falls back to Fallback on
// failure.
type LLMQuoter struct {
	backend  adapters.LLM
	Fallback Quoter
}

func NewLLMQuoter(backend adapters.LLM) *LLMQuoter {
	backend.WithSystemPrompt(quotePrompt)
	return &LLMQuoter{backend: backend, Fallback: StaticQuoter(nil)}
}

func (q *LLMQuoter) Quote(ctx context.Context, lang string) (string, error) {
	resp, err := q.backend.ChatCompletion(ctx, []llm.ChatCompletionMessage{
		{Role: llm.RoleUser, Content: "Language: " + i18n.GetLanguageName(lang)},
	})
	if err == nil {
		var content string
		content, err = resp.Content()
		if content = strings.TrimSpace(content); err == nil && content != "" {
			return content, nil
		}
		if err == nil {
			err = llm.ErrEmptyResponse
		}
	}
	if q.Fallback == nil {
		return "", errors.WithMessage(err, "quote")
	}
	getLogEntry().WithError(err).Warn("llm quote failed, using fallback")
	return q.Fallback.Quote(ctx, lang)
}
