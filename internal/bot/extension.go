package bot

import (
	"context"
	"sort"

	"github.com/iamwavecut/cmdbot/internal/message"
)

type OutputKind string

const (
	OutputHelp   OutputKind = "help"
	OutputAction OutputKind = "action"
)

// Extension hooks into matcher processing. Lower priority runs first.
type Extension interface {
	Priority() int
	ID() string
}

// OutputConverter turns command output text into a message.
type OutputConverter interface {
	ConvertOutput(ctx context.Context, kind OutputKind, content string) (message.Message, error)
}

// MessageProvider supplies the message a matcher parses, which lets
// non-message events trigger commands. ok false leaves the choice to the
// next provider.
type MessageProvider interface {
	ProvideMessage(ctx context.Context, ev *Event, b Bot, useOrigin bool) (msg message.Message, ok bool, err error)
}

func sortExtensions(exts []Extension) []Extension {
	out := make([]Extension, 0, len(exts))
	seen := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		if e == nil {
			continue
		}
		if _, dup := seen[e.ID()]; dup {
			continue
		}
		seen[e.ID()] = struct{}{}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority() < out[j].Priority() })
	return out
}
