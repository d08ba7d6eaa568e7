package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/cmdbot/internal/bot"
	"github.com/iamwavecut/cmdbot/internal/message"
)

type fakeClient struct {
	mu      sync.Mutex
	sent    []api.Chattable
	updates [][]api.Update
	fileURL string
	panics  int
}

func (f *fakeClient) Send(c api.Chattable) (api.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return api.Message{}, nil
}

func (f *fakeClient) GetUpdates(api.UpdateConfig) ([]api.Update, error) {
	f.mu.Lock()
	if f.panics > 0 {
		f.panics--
		f.mu.Unlock()
		panic("get updates")
	}
	if len(f.updates) > 0 {
		batch := f.updates[0]
		f.updates = f.updates[1:]
		f.mu.Unlock()
		return batch, nil
	}
	f.mu.Unlock()
	time.Sleep(5 * time.Millisecond)
	return nil, nil
}

func (f *fakeClient) GetFileDirectURL(string) (string, error) {
	return f.fileURL, nil
}

func TestToMessageConvertsMentionsAndPhotos(t *testing.T) {
	t.Parallel()

	m := &api.Message{
		Caption: "测试 @alice hi",
		CaptionEntities: []api.MessageEntity{
			{Type: "mention", Offset: 3, Length: 6},
		},
		Photo: []api.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}
	msg, origin := ToMessage(m, "cmdbot")
	want := message.Message{
		message.Text{Text: "测试 "},
		message.At{Flag: message.AtUser, Target: "alice", Display: "@alice"},
		message.Text{Text: " hi"},
		message.Image{ID: "large"},
	}
	if !reflect.DeepEqual(origin, want) {
		t.Fatalf("unexpected origin: %#v", origin)
	}
	if !reflect.DeepEqual(msg, want) {
		t.Fatalf("unexpected message: %#v", msg)
	}
}

func TestToMessageTextMentionAndAddressing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   *api.Message
		msg  message.Message
	}{
		{
			name: "command suffix",
			in:   &api.Message{Text: "/pip@CmdBot install x"},
			msg:  message.Message{message.Text{Text: "/pip install x"}},
		},
		{
			name: "bare command suffix",
			in:   &api.Message{Text: "/bind@cmdbot"},
			msg:  message.Message{message.Text{Text: "/bind"}},
		},
		{
			name: "leading bot mention",
			in: &api.Message{
				Text:     "@cmdbot login",
				Entities: []api.MessageEntity{{Type: "mention", Offset: 0, Length: 7}},
			},
			msg: message.Message{message.Text{Text: "login"}},
		},
		{
			name: "text mention",
			in: &api.Message{
				Text:     "test1 Bob",
				Entities: []api.MessageEntity{{Type: "text_mention", Offset: 6, Length: 3, User: &api.User{ID: 42}}},
			},
			msg: message.Message{
				message.Text{Text: "test1 "},
				message.At{Flag: message.AtUser, Target: "42", Display: "Bob"},
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg, _ := ToMessage(tt.in, "cmdbot")
			if !reflect.DeepEqual(msg, tt.msg) {
				t.Fatalf("got %#v want %#v", msg, tt.msg)
			}
		})
	}
}

func TestToEvent(t *testing.T) {
	t.Parallel()

	u := &api.Update{Message: &api.Message{
		MessageID:      7,
		Date:           int(time.Now().Unix()),
		Chat:           api.Chat{ID: -100},
		From:           &api.User{ID: 5},
		Text:           "bind",
		ReplyToMessage: &api.Message{MessageID: 6, Text: "original"},
	}}
	ev, ok := ToEvent(u, "cmdbot")
	if !ok {
		t.Fatalf("event dropped")
	}
	if ev.Kind != bot.EventMessage || ev.ChatID != -100 || ev.UserID != 5 || ev.MessageID != 7 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.ReplyTo == nil || ev.ReplyTo.ID != "6" || ev.ReplyTo.Origin.PlainText() != "original" {
		t.Fatalf("unexpected reply: %+v", ev.ReplyTo)
	}

	left := &api.Update{Message: &api.Message{Chat: api.Chat{ID: 1}, LeftChatMember: &api.User{ID: 9}}}
	ev, ok = ToEvent(left, "cmdbot")
	if !ok || ev.Kind != bot.EventNotice || ev.Notice != bot.NoticeMemberLeft || ev.UserID != 9 {
		t.Fatalf("unexpected notice: %+v", ev)
	}

	if _, ok := ToEvent(&api.Update{}, "cmdbot"); ok {
		t.Fatalf("empty update converted")
	}
}

func TestSendExportsTextAndPhotos(t *testing.T) {
	t.Parallel()

	c := &fakeClient{}
	a := NewWithClient(c, "cmdbot")
	ctx := context.Background()

	if err := a.Send(ctx, 1, message.New(message.Reply{ID: "3"}, "ok\n", message.NewAt("bob"))); err != nil {
		t.Fatalf("send text: %v", err)
	}
	if err := a.Send(ctx, 1, message.New("mask", message.Image{Raw: []byte{1}}, message.Image{ID: "f"})); err != nil {
		t.Fatalf("send photos: %v", err)
	}

	if len(c.sent) != 3 {
		t.Fatalf("unexpected sends: %d", len(c.sent))
	}
	text, ok := c.sent[0].(api.MessageConfig)
	if !ok || text.Text != "ok\n@bob" || text.ReplyParameters.MessageID != 3 {
		t.Fatalf("unexpected text message: %#v", c.sent[0])
	}
	photo, ok := c.sent[1].(api.PhotoConfig)
	if !ok || photo.Caption != "mask" {
		t.Fatalf("unexpected photo: %#v", c.sent[1])
	}
	if second, ok := c.sent[2].(api.PhotoConfig); !ok || second.Caption != "" {
		t.Fatalf("unexpected second photo: %#v", c.sent[2])
	}
}

func TestFetchImage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("png"))
	}))
	defer srv.Close()

	a := NewWithClient(&fakeClient{fileURL: srv.URL}, "cmdbot")
	data, err := a.FetchImage(context.Background(), message.Image{ID: "file"})
	if err != nil || string(data) != "png" {
		t.Fatalf("fetch by id: %q %v", data, err)
	}
	data, err = a.FetchImage(context.Background(), message.Image{Raw: []byte("raw")})
	if err != nil || string(data) != "raw" {
		t.Fatalf("fetch raw: %q %v", data, err)
	}
	if _, err := a.FetchImage(context.Background(), message.Image{}); err == nil {
		t.Fatalf("expected error for empty image")
	}
}

func TestPollingDeliversEvents(t *testing.T) {
	t.Parallel()

	c := &fakeClient{updates: [][]api.Update{{
		{UpdateID: 1, Message: &api.Message{Chat: api.Chat{ID: 1}, Text: "ping", Date: int(time.Now().Unix())}},
		{UpdateID: 2, CallbackQuery: &api.CallbackQuery{ID: "x"}},
		{UpdateID: 3, Message: &api.Message{Chat: api.Chat{ID: 1}, Text: "pong", Date: int(time.Now().Unix())}},
	}}}
	a := NewWithClient(c, "cmdbot", WithPollTimeout(0))
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	var got []string
	for len(got) < 2 {
		select {
		case ev := <-a.Events():
			got = append(got, ev.Message.PlainText())
		case <-time.After(2 * time.Second):
			t.Fatalf("events not delivered: %v", got)
		}
	}
	if !reflect.DeepEqual(got, []string{"ping", "pong"}) {
		t.Fatalf("unexpected events: %v", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, ok := <-a.Events(); ok {
		t.Fatalf("events channel still open")
	}
}

func TestPollingSurvivesPanics(t *testing.T) {
	t.Parallel()

	c := &fakeClient{panics: 2, updates: [][]api.Update{{
		{UpdateID: 1, Message: &api.Message{Chat: api.Chat{ID: 1}, Text: "ping", Date: int(time.Now().Unix())}},
	}}}
	a := NewWithClient(c, "cmdbot", WithPollTimeout(0))
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case ev := <-a.Events():
		if ev.Message.PlainText() != "ping" {
			t.Fatalf("unexpected event: %v", ev.Message)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("event not delivered after panics")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestSendSkipsEmptyMessages(t *testing.T) {
	t.Parallel()

	c := &fakeClient{}
	a := NewWithClient(c, "cmdbot")
	if err := a.Send(context.Background(), 1, message.New(message.Reply{ID: "3"}, " ")); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(c.sent) != 0 {
		t.Fatalf("unexpected sends: %#v", c.sent)
	}
}
