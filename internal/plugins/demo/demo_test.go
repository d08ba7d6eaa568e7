package demo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iamwavecut/cmdbot/internal/adapters"
	"github.com/iamwavecut/cmdbot/internal/adapters/llm"
	"github.com/iamwavecut/cmdbot/internal/bot"
	"github.com/iamwavecut/cmdbot/internal/config"
	"github.com/iamwavecut/cmdbot/internal/db"
	"github.com/iamwavecut/cmdbot/internal/db/sqlite"
	"github.com/iamwavecut/cmdbot/internal/infra/reg"
	"github.com/iamwavecut/cmdbot/internal/message"
)

type sent struct {
	chatID int64
	text   string
}

type fakeBot struct {
	mu   sync.Mutex
	sent []sent
	ch   chan string
}

func (f *fakeBot) Platform() string { return "fake" }

func (f *fakeBot) Send(_ context.Context, chatID int64, msg message.Message) error {
	f.mu.Lock()
	f.sent = append(f.sent, sent{chatID: chatID, text: msg.String()})
	f.mu.Unlock()
	f.ch <- msg.String()
	return nil
}

func (f *fakeBot) FetchImage(_ context.Context, img message.Image) ([]byte, error) {
	return []byte("img:" + img.URL), nil
}

func (f *fakeBot) next(t *testing.T) string {
	t.Helper()
	select {
	case s := <-f.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatalf("nothing sent")
	}
	return ""
}

func (f *fakeBot) drain() []string {
	var out []string
	for {
		select {
		case s := <-f.ch:
			out = append(out, s)
		default:
			return out
		}
	}
}

type fixture struct {
	registry *bot.Registry
	bot      *fakeBot
	store    db.Client
}

func newFixture(t *testing.T, quoter Quoter) *fixture {
	t.Helper()

	client, err := sqlite.NewSQLiteClient(context.Background(), t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	p := New(client, reg.NewSettings(client), quoter, Config{
		IsSuperUser:   config.Config{SuperUsers: []int64{20}}.IsSuperUser,
		LoginPassword: "pw",
		CompTimeout:   time.Second,
	})
	p.modules = func() map[string]string {
		return map[string]string{"github.com/b": "v1.0.0", "github.com/a": "v0.1.0"}
	}
	r := bot.NewRegistry()
	p.Register(r)
	return &fixture{registry: r, bot: &fakeBot{ch: make(chan string, 64)}, store: client}
}

func event(parts ...any) *bot.Event {
	msg := message.New(parts...)
	return &bot.Event{
		Kind:    bot.EventMessage,
		ChatID:  10,
		UserID:  20,
		Message: msg,
		Origin:  msg,
		Time:    time.Now(),
	}
}

func (f *fixture) send(t *testing.T, ev *bot.Event) []string {
	t.Helper()
	if err := f.registry.Process(context.Background(), f.bot, ev); err != nil {
		t.Fatalf("process %q: %v", ev.Message.String(), err)
	}
	return f.bot.drain()
}

// converse starts ev in the background, answers each prompt in turn and
// returns what was sent after the last answer.
func (f *fixture) converse(t *testing.T, ev *bot.Event, prompts []string, answers ...*bot.Event) []string {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- f.registry.Process(context.Background(), f.bot, ev) }()
	for i, answer := range answers {
		if got := f.bot.next(t); got != prompts[i] {
			t.Fatalf("unexpected prompt %d: %q", i, got)
		}
		if err := f.registry.Process(context.Background(), f.bot, answer); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}
	if err := <-errCh; err != nil {
		t.Fatalf("process: %v", err)
	}
	return f.bot.drain()
}

func assertReplies(t *testing.T, got []string, want ...string) {
	t.Helper()
	if fmt.Sprintf("%q", got) != fmt.Sprintf("%q", want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNamespaceCommands(t *testing.T) {
	t.Parallel()

	f := newFixture(t, StaticQuoter{"quote"})

	assertReplies(t, f.send(t, event("/test now")), "ok\nnow")
	assertReplies(t, f.converse(t, event("/test"), []string{"请输入目标"}, event(message.NewAt("7"))), "ok\n@7")

	assertReplies(t, f.send(t, event("/pip install numpy")), "pip installing numpy...", "施工中...")
	assertReplies(t, f.send(t, event("/pip list")), "- github.com/a v0.1.0\n- github.com/b v1.0.0", "施工中...")
	assertReplies(t, f.converse(t, event("/pip install"), []string{"请输入 pak"}, event("requests")), "pip installing requests...", "施工中...")

	assertReplies(t, f.send(t, event("/hitokoto")), "quote")
	assertReplies(t, f.send(t, event("/一言")), "quote")
	assertReplies(t, f.send(t, event("/一言 more")))

	assertReplies(t, f.send(t, event("/test 帮助"))[:1], f.registry.Manager().Entries("nbtest")[0].Command.Help())
}

func TestLanguageSwitch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	assertReplies(t, f.send(t, event("/lang fr_FR")))
	assertReplies(t, f.send(t, event("/lang en_US")), "ok")
	assertReplies(t, f.send(t, event("/pip")), "WIP...")

	cs, err := f.store.GetSettings(context.Background(), 10)
	if err != nil || cs.Language != "en_US" {
		t.Fatalf("language not persisted: %#v %v", cs, err)
	}
}

func TestLoginAndBind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, nil)

	assertReplies(t, f.send(t, event("/login nope")), "密码错误")
	assertReplies(t, f.send(t, event("/login pw")), "@20, 登录成功")
	if ok, _ := f.store.IsLoggedIn(ctx, 10, 20); !ok {
		t.Fatalf("login not stored")
	}
	assertReplies(t, f.send(t, event("/login --recall")), "已退出")
	if ok, _ := f.store.IsLoggedIn(ctx, 10, 20); ok {
		t.Fatalf("logout not stored")
	}

	assertReplies(t, f.send(t, event("/bind")), "没有引用消息")
	ev := event("/bind")
	ev.ReplyTo = &message.Reply{ID: "5", Origin: message.New("hi ", message.NewAt("3"))}
	assertReplies(t, f.send(t, ev),
		`[Text("/bind")]`,
		`Reply(id="5", msg=[Text("hi "), At(user, "3")])`,
	)
}

func TestMaskShortcutPromptsForImage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, nil)

	assertReplies(t, f.send(t, event("设置词云形状 ", message.Image{URL: "a"})), "好的")
	mask, err := f.store.GetMask(ctx, 10, 20)
	if err != nil || string(mask.Data) != "img:a" || mask.IsDefault {
		t.Fatalf("unexpected mask: %#v %v", mask, err)
	}

	got := f.converse(t, event("设置默认词云形状"), []string{"请输入图片"}, event(message.Image{URL: "b"}))
	assertReplies(t, got, "[image]")
	mask, err = f.store.GetMask(ctx, 10, 20)
	if err != nil || string(mask.Data) != "img:b" || !mask.IsDefault {
		t.Fatalf("unexpected default mask: %#v %v", mask, err)
	}
}

func TestBuilderAndDispatchCommands(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	assertReplies(t, f.send(t, event("book -w 3")), "map[writer:map[id:3]]")
	assertReplies(t, f.send(t, event("测试")), "map[writer:map[id:0]]")

	assertReplies(t, f.send(t, event("pip1 list")), "- github.com/a v0.1.0\n- github.com/b v1.0.0")
	assertReplies(t, f.send(t, event("pip1 install numpy -U")), "pip upgrading numpy...")
	assertReplies(t, f.send(t, event("pip1 install numpy")), "pip installing numpy...")
	assertReplies(t, f.send(t, event("pip1")), "施工中...")
}

func TestRecallNotice(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.send(t, &bot.Event{Kind: bot.EventNotice, Notice: bot.NoticeMessageDeleted, ChatID: 1, UserID: 2, MessageID: 3, Time: time.Now()})

	f.bot.mu.Lock()
	defer f.bot.mu.Unlock()
	if len(f.bot.sent) != 1 || f.bot.sent[0] != (sent{chatID: 1, text: "已撤回 2 的消息 3"}) {
		t.Fatalf("unexpected recall output: %#v", f.bot.sent)
	}
}

func TestGroupPermissions(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	stranger := event("group add 1 a")
	stranger.UserID = 99
	assertReplies(t, f.send(t, stranger), "权限不足")
	assertReplies(t, f.send(t, event("group list")), "暂无群组")

	assertReplies(t, f.send(t, event("group add 1 friends")), "已添加群组: 1 friends")
	assertReplies(t, f.send(t, event("group list")), "1 friends")
	assertReplies(t, f.send(t, event("group remove 2")), "群组不存在: 2")
	assertReplies(t, f.send(t, event("group remove 1")), "已移除群组: 1")
}

func TestMiscCommands(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	assertReplies(t, f.send(t, event("trigfoo bar")), "args: [foo bar]")
	assertReplies(t, f.send(t, event(message.NewAt("1"), " x")), "args: [x]")
	assertReplies(t, f.send(t, event("test1 7")), "ok 7")
	assertReplies(t, f.send(t, event("test1 ", message.NewAt("8"))), "ok\n@8")
	assertReplies(t, f.converse(t, event("test1"), []string{"请输入 target"}, event("9")), "ok 9")

	assertReplies(t, f.send(t, event("calc add 1 2.5")), "1 add 2.5 = 3.5")
	assertReplies(t, f.send(t, event("calc div 1 0")), "除数不能为零")
	assertReplies(t, f.send(t, event("functest 1 true x c=2")),
		"a: 1\nb: true\nc: 2\nd: 1\ne: false\nargs: [x]\nkwargs: map[]\n")

	got := f.send(t, event("statis"))
	if len(got) != 1 || !strings.Contains(got[0], "github.com/iamwavecut/cmdbot/internal/plugins/demo") {
		t.Fatalf("unexpected statis output: %q", got)
	}
}

func TestAddTeacherCompletion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, nil)

	got := f.converse(t, event("添加教师 张三"),
		[]string{"请输入手机号", "请输入教师号"},
		event("13800000000"), event("@li"),
	)
	assertReplies(t, got, "姓名：张三\n手机号：13800000000\n教师号：@li")

	teacher, err := f.store.GetTeacher(ctx, 13800000000)
	if err != nil || teacher.Name != "张三" || teacher.Contact != "@li" {
		t.Fatalf("unexpected teacher: %#v %v", teacher, err)
	}

	for _, text := range []string{"添加教师 张三 abc x", "添加教师 张三 -5 x"} {
		got = f.send(t, event(text))
		if len(got) != 1 || !strings.HasPrefix(got[0], "添加教师") {
			t.Fatalf("%s: expected help on bind failure, got %q", text, got)
		}
	}
}

type fakeLLM struct {
	content string
	err     error
	prompt  string
}

func (l *fakeLLM) ChatCompletion(_ context.Context, messages []llm.ChatCompletionMessage) (llm.ChatCompletionResponse, error) {
	if l.err != nil {
		return llm.ChatCompletionResponse{}, l.err
	}
	return llm.ChatCompletionResponse{Choices: []llm.ChatCompletionChoice{
		{Message: llm.ChatCompletionMessage{Role: llm.RoleAssistant, Content: l.content + " " + messages[0].Content}},
	}}, nil
}

func (l *fakeLLM) WithModel(string) adapters.LLM                         { return l }
func (l *fakeLLM) WithParameters(*llm.GenerationParameters) adapters.LLM { return l }
func (l *fakeLLM) WithSystemPrompt(prompt string) adapters.LLM {
	l.prompt = prompt
	return l
}

func TestLLMQuoter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := &fakeLLM{content: "quote"}
	q := NewLLMQuoter(backend)
	if backend.prompt == "" {
		t.Fatalf("system prompt not set")
	}
	got, err := q.Quote(ctx, "en_US")
	if err != nil || got != "quote Language: English" {
		t.Fatalf("unexpected quote: %q %v", got, err)
	}

	backend.err = errors.New("down")
	q.Fallback = StaticQuoter{"static"}
	if got, _ := q.Quote(ctx, "zh_CN"); got != "static" {
		t.Fatalf("fallback not used: %q", got)
	}

	q.Fallback = nil
	if _, err := q.Quote(ctx, "zh_CN"); !errors.Is(err, backend.err) {
		t.Fatalf("expected backend error, got %v", err)
	}
}
