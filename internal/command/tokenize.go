package command

import (
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/iamwavecut/cmdbot/internal/message"
)

// Tokenize splits text segments with shell quoting rules and keeps every
// other segment as a single token.
func Tokenize(msg message.Message) []any {
	tokens := make([]any, 0, len(msg))
	for _, seg := range msg {
		t, ok := seg.(message.Text)
		if !ok {
			tokens = append(tokens, seg)
			continue
		}
		for _, word := range splitWords(t.Text) {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

func splitWords(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	p := shellwords.NewParser()
	words, err := p.Parse(s)
	if err != nil || p.Position >= 0 {
		// unbalanced quotes or shell operators, plain split keeps every rune
		return strings.Fields(s)
	}
	return words
}
