package pattern

import "github.com/iamwavecut/cmdbot/internal/message"

// SegmentPattern recognizes one native segment type of a platform and exposes
// it under a canonical kind name. New is the native constructor, kept on the
// pattern so callers can build segments through the same name they match with.
type SegmentPattern[T message.Segment, F any] struct {
	kind string
	New  F
}

// Segment builds a segment pattern. Only the dynamic type of the input is checked.
func Segment[T message.Segment, F any](kind string, constructor F) *SegmentPattern[T, F] {
	return &SegmentPattern[T, F]{kind: kind, New: constructor}
}

func (p *SegmentPattern[T, F]) Kind() string {
	return p.kind
}

func (p *SegmentPattern[T, F]) Alias() string {
	return p.kind
}

func (p *SegmentPattern[T, F]) Match(input any) (any, error) {
	seg, ok := input.(T)
	if !ok {
		return nil, mismatch(p, input, nil)
	}
	return seg, nil
}

// Universal segment patterns.
var (
	At    = Segment[message.At]("at", message.NewAt)
	Image = Segment[message.Image]("image", func(url string) message.Image { return message.Image{URL: url} })
	Reply = Segment[message.Reply]("reply", func(id string) message.Reply { return message.Reply{ID: id} })
)
