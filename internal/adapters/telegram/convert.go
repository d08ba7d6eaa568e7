package telegram

import (
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/cmdbot/internal/bot"
	"github.com/iamwavecut/cmdbot/internal/message"
)

const Platform = "telegram"

// ToMessage converts a Telegram message. origin keeps the text as sent,
// msg has the bot addressing removed ("/cmd@bot" and a leading mention of
// the bot).
func ToMessage(m *api.Message, botUsername string) (msg, origin message.Message) {
	if m == nil {
		return nil, nil
	}
	text, entities := m.Text, m.Entities
	if text == "" {
		text, entities = m.Caption, m.CaptionEntities
	}

	origin = message.New(textParts(text, entities)...)
	if len(m.Photo) > 0 {
		largest := m.Photo[len(m.Photo)-1]
		origin = append(origin, message.Image{ID: largest.FileID})
	}
	return stripAddressing(origin, botUsername), origin
}

func textParts(text string, entities []api.MessageEntity) []any {
	if text == "" {
		return nil
	}
	mentions := make([]api.MessageEntity, 0, len(entities))
	for _, e := range entities {
		if e.Type == "mention" || (e.Type == "text_mention" && e.User != nil) {
			mentions = append(mentions, e)
		}
	}
	if len(mentions) == 0 {
		return []any{text}
	}
	sort.SliceStable(mentions, func(i, j int) bool { return mentions[i].Offset < mentions[j].Offset })

	// entity offsets count UTF-16 code units
	units := utf16.Encode([]rune(text))
	parts := make([]any, 0, len(mentions)*2+1)
	pos := 0
	for _, e := range mentions {
		end := e.Offset + e.Length
		if e.Offset < pos || end > len(units) {
			continue
		}
		parts = append(parts, string(utf16.Decode(units[pos:e.Offset])))
		display := string(utf16.Decode(units[e.Offset:end]))
		at := message.At{Flag: message.AtUser, Display: display}
		if e.Type == "mention" {
			at.Target = strings.TrimPrefix(display, "@")
		} else {
			at.Target = strconv.FormatInt(e.User.ID, 10)
		}
		parts = append(parts, at)
		pos = end
	}
	return append(parts, string(utf16.Decode(units[pos:])))
}

func stripAddressing(origin message.Message, botUsername string) message.Message {
	out := make(message.Message, 0, len(origin))
	out = append(out, origin...)
	if botUsername == "" || len(out) == 0 {
		return out
	}
	if at, ok := out[0].(message.At); ok && strings.EqualFold(at.Target, botUsername) {
		out = out[1:]
		if len(out) > 0 {
			if t, ok := out[0].(message.Text); ok {
				out[0] = message.Text{Text: strings.TrimLeft(t.Text, " ")}
			}
		}
	}
	if len(out) == 0 {
		return out
	}
	t, ok := out[0].(message.Text)
	if !ok {
		return out
	}
	first, rest, spaced := strings.Cut(t.Text, " ")
	suffix := "@" + botUsername
	if len(first) > len(suffix) && strings.EqualFold(first[len(first)-len(suffix):], suffix) {
		text := first[:len(first)-len(suffix)]
		if spaced {
			text += " " + rest
		}
		out[0] = message.Text{Text: text}
	}
	return out
}

// ToEvent converts an update. ok is false for updates no matcher can use.
func ToEvent(u *api.Update, botUsername string) (*bot.Event, bool) {
	m := u.Message
	if m == nil {
		m = u.EditedMessage
	}
	if m == nil {
		return nil, false
	}

	ev := &bot.Event{
		Kind:      bot.EventMessage,
		Platform:  Platform,
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Time:      time.Unix(int64(m.Date), 0),
		Raw:       u,
	}
	if m.From != nil {
		ev.UserID = m.From.ID
	}

	switch {
	case m.LeftChatMember != nil:
		ev.Kind, ev.Notice = bot.EventNotice, bot.NoticeMemberLeft
		ev.UserID = m.LeftChatMember.ID
		return ev, true
	case len(m.NewChatMembers) > 0:
		ev.Kind, ev.Notice = bot.EventNotice, bot.NoticeMemberJoined
		ev.UserID = m.NewChatMembers[0].ID
		return ev, true
	}

	ev.Message, ev.Origin = ToMessage(m, botUsername)
	if len(ev.Origin) == 0 {
		return nil, false
	}
	if r := m.ReplyToMessage; r != nil {
		_, replyOrigin := ToMessage(r, botUsername)
		ev.ReplyTo = &message.Reply{ID: strconv.Itoa(r.MessageID), Origin: replyOrigin}
	}
	return ev, true
}
