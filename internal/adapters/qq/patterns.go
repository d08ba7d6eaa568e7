// Package qq declares argument patterns for QQ message segments.
package qq

import (
	"fmt"
	"strconv"

	"github.com/iamwavecut/cmdbot/internal/adapters/qq/qqmsg"
	"github.com/iamwavecut/cmdbot/internal/message"
	"github.com/iamwavecut/cmdbot/internal/pattern"
)

// Text is a plain text argument.
var Text = pattern.String

var (
	Ark             = pattern.Segment[qqmsg.Ark]("ark", qqmsg.NewArk)
	Embed           = pattern.Segment[qqmsg.Embed]("embed", qqmsg.NewEmbed)
	Emoji           = pattern.Segment[qqmsg.Emoji]("emoji", qqmsg.NewEmoji)
	Image           = pattern.Segment[qqmsg.Attachment]("attachment", qqmsg.NewImage)
	FileImage       = pattern.Segment[qqmsg.LocalImage]("file_image", qqmsg.NewFileImage)
	Keyboard        = pattern.Segment[qqmsg.Keyboard]("keyboard", qqmsg.NewKeyboard)
	Markdown        = pattern.Segment[qqmsg.Markdown]("markdown", qqmsg.NewMarkdown)
	MentionUser     = pattern.Segment[qqmsg.MentionUser]("mention_user", qqmsg.NewMentionUser)
	MentionChannel  = pattern.Segment[qqmsg.MentionChannel]("mention_channel", qqmsg.NewMentionChannel)
	MentionEveryone = pattern.Segment[qqmsg.MentionEveryone]("mention_everyone", qqmsg.NewMentionEveryone)
	Reference       = pattern.Segment[qqmsg.Reference]("reference", qqmsg.NewReference)
)

// ImgOrURL accepts an image segment or a link and returns the link.
var ImgOrURL = pattern.Union(
	pattern.New(
		pattern.TypeConvert,
		pattern.WithAlias("img"),
		pattern.WithAccepts(Image),
		pattern.WithConverter(func(_ *pattern.BasePattern, x any) (any, error) {
			return dataString(x, "url")
		}),
	),
	pattern.URL,
).As("img_url")

// MentionID accepts a user mention, an "@12345" string or a number and returns the user id.
var MentionID = pattern.Union(
	pattern.New(
		pattern.TypeConvert,
		pattern.WithAlias("MentionUser"),
		pattern.WithAccepts(MentionUser),
		pattern.WithConverter(func(_ *pattern.BasePattern, x any) (any, error) {
			id, err := dataString(x, "user_id")
			if err != nil {
				return nil, err
			}
			return strconv.Atoi(id)
		}),
	),
	pattern.Regex(
		pattern.RegexConvert,
		`@(\d+)`,
		pattern.WithAlias("@xxx"),
		pattern.WithConverter(func(_ *pattern.BasePattern, x any) (any, error) {
			return strconv.Atoi(x.([]string)[1])
		}),
	),
	pattern.Integer,
).As("mention_id")

func dataString(x any, key string) (string, error) {
	seg, ok := x.(message.Segment)
	if !ok {
		return "", fmt.Errorf("not a segment: %T", x)
	}
	s, ok := seg.Data()[key].(string)
	if !ok {
		return "", fmt.Errorf("segment %s has no %s", seg.Type(), key)
	}
	return s, nil
}
