package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/iamwavecut/cmdbot/internal/message"
)

type EventKind string

const (
	EventMessage EventKind = "message"
	EventNotice  EventKind = "notice"
)

// Notice types.
const (
	NoticeMessageDeleted = "message_deleted"
	NoticeMemberJoined   = "member_joined"
	NoticeMemberLeft     = "member_left"
)

// Event is one incoming platform event normalized for the matchers.
type Event struct {
	Kind      EventKind
	Notice    string
	Platform  string
	ChatID    int64
	UserID    int64
	MessageID int
	// Message has bot addressing removed, Origin is the message as sent.
	Message message.Message
	Origin  message.Message
	// ReplyTo is the message this one answers, if any.
	ReplyTo *message.Reply
	Time    time.Time
	Raw     any
}

func (e *Event) key() string {
	return fmt.Sprintf("%d:%d", e.ChatID, e.UserID)
}

// Bot is the platform connection handlers talk through.
type Bot interface {
	Platform() string
	Send(ctx context.Context, chatID int64, msg message.Message) error
	// FetchImage downloads the content of an image segment.
	FetchImage(ctx context.Context, img message.Image) ([]byte, error)
}
