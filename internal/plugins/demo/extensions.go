package demo

import (
	"context"
	"fmt"

	"github.com/iamwavecut/cmdbot/internal/bot"
	"github.com/iamwavecut/cmdbot/internal/message"
)

type demoExtension struct{}

func (demoExtension) Priority() int { return 15 }
func (demoExtension) ID() string    { return "demo" }

func (demoExtension) ConvertOutput(_ context.Context, _ bot.OutputKind, content string) (message.Message, error) {
	return message.New(content), nil
}

// recallExtension turns deleted message notices into recall commands.
type recallExtension struct {
	demoExtension
}

func (recallExtension) Priority() int { return 14 }
func (recallExtension) ID() string    { return "test" }

func (recallExtension) ProvideMessage(_ context.Context, ev *bot.Event, _ bot.Bot, _ bool) (message.Message, bool, error) {
	if ev.Kind != bot.EventNotice || ev.Notice != bot.NoticeMessageDeleted {
		return nil, false, nil
	}
	return message.New(fmt.Sprintf("/recall %d %d %d", ev.ChatID, ev.UserID, ev.MessageID)), true, nil
}
