// Package message holds the platform-neutral message model shared by the
// command engine, the matcher framework and the platform adapters.
package message

import (
	"fmt"
	"strings"
)

const (
	TypeText  = "text"
	TypeAt    = "at"
	TypeImage = "image"
	TypeReply = "reply"
)

const (
	AtUser    = "user"
	AtChannel = "channel"
	AtAll     = "all"
)

// Segment is one typed unit of a chat message.
type Segment interface {
	Type() string
	Data() map[string]any
}

type (
	Text struct {
		Text string
	}

	At struct {
		Flag    string
		Target  string
		Display string
	}

	Image struct {
		ID       string
		URL      string
		Raw      []byte
		MimeType string
	}

	Reply struct {
		ID     string
		Origin Message
	}

	// Other carries a segment the universal model has no kind for.
	Other struct {
		Kind    string
		Payload map[string]any
	}

	Message []Segment
)

func (t Text) Type() string { return TypeText }
func (t Text) Data() map[string]any {
	return map[string]any{"text": t.Text}
}

func (a At) Type() string { return TypeAt }
func (a At) Data() map[string]any {
	return map[string]any{"flag": a.Flag, "target": a.Target, "display": a.Display}
}
func (a At) String() string {
	if a.Display != "" {
		return a.Display
	}
	if a.Flag == AtAll {
		return "@all"
	}
	return "@" + a.Target
}

func (i Image) Type() string { return TypeImage }
func (i Image) Data() map[string]any {
	return map[string]any{"id": i.ID, "url": i.URL, "raw": i.Raw, "mime_type": i.MimeType}
}

func (r Reply) Type() string { return TypeReply }
func (r Reply) Data() map[string]any {
	return map[string]any{"id": r.ID, "msg": r.Origin}
}

func (o Other) Type() string { return o.Kind }
func (o Other) Data() map[string]any {
	if o.Payload == nil {
		return map[string]any{}
	}
	return o.Payload
}

// NewAt returns a user mention.
func NewAt(target string) At {
	return At{Flag: AtUser, Target: target}
}

// New builds a message from strings, segments, messages and anything implementing fmt.Stringer.
func New(parts ...any) Message {
	msg := make(Message, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case nil:
		case string:
			msg = msg.appendText(p)
		case Segment:
			msg = append(msg, p)
		case Message:
			for _, seg := range p {
				msg = append(msg, seg)
			}
		case []Segment:
			for _, seg := range p {
				msg = append(msg, seg)
			}
		case fmt.Stringer:
			msg = msg.appendText(p.String())
		default:
			msg = msg.appendText(fmt.Sprint(p))
		}
	}
	return msg
}

func (m Message) appendText(s string) Message {
	if s == "" {
		return m
	}
	if n := len(m); n > 0 {
		if last, ok := m[n-1].(Text); ok {
			m[n-1] = Text{Text: last.Text + s}
			return m
		}
	}
	return append(m, Text{Text: s})
}

// PlainText concatenates the text segments.
func (m Message) PlainText() string {
	var b strings.Builder
	for _, seg := range m {
		if t, ok := seg.(Text); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// String renders every segment, non-text ones in a bracketed form.
func (m Message) String() string {
	var b strings.Builder
	for _, seg := range m {
		switch s := seg.(type) {
		case Text:
			b.WriteString(s.Text)
		case At:
			b.WriteString(s.String())
		default:
			fmt.Fprintf(&b, "[%s]", seg.Type())
		}
	}
	return b.String()
}

// Has reports whether the message contains a segment of dynamic type T.
func Has[T Segment](m Message) bool {
	_, ok := First[T](m)
	return ok
}

// First returns the first segment of dynamic type T.
func First[T Segment](m Message) (T, bool) {
	for _, seg := range m {
		if s, ok := seg.(T); ok {
			return s, true
		}
	}
	var zero T
	return zero, false
}

// All returns every segment of dynamic type T in order.
func All[T Segment](m Message) []T {
	var out []T
	for _, seg := range m {
		if s, ok := seg.(T); ok {
			out = append(out, s)
		}
	}
	return out
}

// Without returns a copy of m without segments of the given kind.
func (m Message) Without(kind string) Message {
	out := make(Message, 0, len(m))
	for _, seg := range m {
		if seg.Type() != kind {
			out = append(out, seg)
		}
	}
	return out
}
