package bot

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/iamwavecut/cmdbot/internal/message"
)

// ImageFetch turns an image segment into its content through the bot.
// Byte slices pass through unchanged.
func ImageFetch(ctx context.Context, s *Session, value any) (any, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case message.Image:
		if len(v.Raw) > 0 {
			return v.Raw, nil
		}
		data, err := s.Bot().FetchImage(ctx, v)
		if err != nil {
			return nil, errors.WithMessage(err, "fetch image")
		}
		return data, nil
	case message.Message:
		if img, ok := message.First[message.Image](v); ok {
			return ImageFetch(ctx, s, img)
		}
	}
	return nil, fmt.Errorf("%T is not an image", value)
}
