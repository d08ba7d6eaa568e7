package demo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/iamwavecut/cmdbot/internal/bot"
	"github.com/iamwavecut/cmdbot/internal/command"
	"github.com/iamwavecut/cmdbot/internal/db"
	"github.com/iamwavecut/cmdbot/internal/i18n"
	"github.com/iamwavecut/cmdbot/internal/message"
	"github.com/iamwavecut/cmdbot/internal/pattern"
)

func (p *Plugin) registerMask(r *bot.Registry) {
	mask := r.OnCommand(command.New("设置词云形状",
		command.WithArgs(command.NewArg("img?", pattern.Image)),
		command.WithOptions(command.Opt("--default", command.StoreTrue(), command.Default(false))),
	))
	mask.Shortcut("设置默认词云形状", command.Shortcut{Args: []string{"--default"}})

	mask.Handle(func(ctx context.Context, s *bot.Session) error {
		img, ok := bot.Query[message.Image](s, "img")
		if !ok {
			return nil
		}
		data, err := bot.ImageFetch(ctx, s, img)
		if err != nil {
			return err
		}
		s.SetPathArg("img", data)
		return nil
	})
	mask.GotPath("img", "请输入图片", func(ctx context.Context, s *bot.Session) error {
		data, _ := bot.Query[[]byte](s, "img")
		isDefault := bot.QueryOr(s, "default.value", false)
		ev := s.Event()
		if err := p.store.SetMask(ctx, &db.Mask{ChatID: ev.ChatID, UserID: ev.UserID, Data: data, IsDefault: isDefault}); err != nil {
			return errors.WithMessage(err, "save mask")
		}
		if isDefault {
			return s.Send(ctx, message.Image{Raw: data})
		}
		return s.Send(ctx, i18n.Get("ok", p.lang(ctx, s)))
	}, bot.ImageFetch)
}

func (p *Plugin) registerBook(r *bot.Registry) {
	r.OnCommand(command.Build("book", "测试").
		Option("writer", "-w <id:int>").
		Option("writer", "--anonymous", map[string]any{"id": 0}).
		Usage("book [-w <id:int> | --anonymous]").
		Shortcut("测试", command.Shortcut{Args: []string{"--anonymous"}}).
		Action(func(options map[string]any) string {
			return fmt.Sprint(options)
		}).
		Build())
}

func (p *Plugin) registerPip1(r *bot.Registry) {
	pip := r.OnCommand(command.New("pip1", command.WithSubcommands(
		command.Sub("install",
			command.WithArgs(command.NewArg("pak", pattern.String)),
			command.WithOptions(command.Opt("--upgrade|-U"), command.Opt("--force-reinstall")),
		),
		command.Sub("list", command.WithOptions(command.Opt("--out-dated"))),
	)))

	pip.Dispatch("list").Handle(func(ctx context.Context, s *bot.Session) error {
		return s.Finish(ctx, p.moduleList())
	})
	install := pip.Dispatch("install")
	install.Assign("~upgrade", func(ctx context.Context, s *bot.Session) error {
		return s.Finish(ctx, fmt.Sprintf("pip upgrading %s...", bot.QueryOr(s, "~pak", "")))
	})
	install.Handle(func(ctx context.Context, s *bot.Session) error {
		return s.Finish(ctx, fmt.Sprintf("pip installing %s...", bot.QueryOr(s, "install.pak", "")))
	})
	pip.Handle(func(ctx context.Context, s *bot.Session) error {
		return s.Send(ctx, i18n.Get("WIP...", p.lang(ctx, s)))
	})
}

func (p *Plugin) registerRecall(r *bot.Registry) {
	r.OnCommand(command.New("/recall", command.WithArgs(
		command.NewArg("group_id", pattern.String),
		command.NewArg("user_id", pattern.String),
		command.NewArg("message_id", pattern.Integer),
	)), bot.WithExtensions(recallExtension{})).Handle(func(ctx context.Context, s *bot.Session) error {
		chatID, err := strconv.ParseInt(bot.QueryOr(s, "group_id", ""), 10, 64)
		if err != nil {
			chatID = s.Event().ChatID
		}
		text := fmt.Sprintf(i18n.Get("recalled %s %d", p.settings.Language(ctx, chatID)),
			bot.QueryOr(s, "user_id", ""), bot.QueryOr(s, "message_id", 0))
		if err := s.Bot().Send(ctx, chatID, message.New(text)); err != nil {
			return errors.WithMessage(err, "send recall notice")
		}
		return nil
	})
}

// superUser passes for configured super users and tells everyone else off.
func (p *Plugin) superUser(ctx context.Context, s *bot.Session) (bool, error) {
	if p.isSuperUser(s.Event().UserID) {
		return true, nil
	}
	return false, s.Send(ctx, i18n.Get("permission denied", p.lang(ctx, s)))
}

func (p *Plugin) registerGroup(r *bot.Registry) {
	group := r.OnCommand(command.New("group", command.WithOptions(
		command.Opt("add", command.WithArgs(command.NewArg("group_id", pattern.Integer), command.NewArg("name", pattern.String))),
		command.Opt("remove", command.WithArgs(command.NewArg("group_id", pattern.Integer))),
		command.Opt("list"),
	)))

	group.Assign("add", func(ctx context.Context, s *bot.Session) error {
		id := bot.QueryOr(s, "add.group_id", 0)
		name := bot.QueryOr(s, "add.name", "")
		if err := p.store.AddGroup(ctx, &db.Group{ID: int64(id), Name: name}); err != nil {
			return errors.WithMessage(err, "add group")
		}
		return s.Finish(ctx, fmt.Sprintf("%s: %d %s", i18n.Get("group added", p.lang(ctx, s)), id, name))
	}, p.superUser)

	group.Assign("remove", func(ctx context.Context, s *bot.Session) error {
		id := bot.QueryOr(s, "remove.group_id", 0)
		lang := p.lang(ctx, s)
		err := p.store.RemoveGroup(ctx, int64(id))
		if errors.Is(err, db.ErrNotFound) {
			return s.Finish(ctx, fmt.Sprintf("%s: %d", i18n.Get("group not found", lang), id))
		}
		if err != nil {
			return errors.WithMessage(err, "remove group")
		}
		return s.Finish(ctx, fmt.Sprintf("%s: %d", i18n.Get("group removed", lang), id))
	}, p.superUser)

	group.Assign("list", func(ctx context.Context, s *bot.Session) error {
		groups, err := p.store.ListGroups(ctx)
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			return s.Finish(ctx, i18n.Get("no groups", p.lang(ctx, s)))
		}
		lines := make([]string, 0, len(groups))
		for _, g := range groups {
			lines = append(lines, fmt.Sprintf("%d %s", g.ID, g.Name))
		}
		return s.Finish(ctx, strings.Join(lines, "\n"))
	})
}

func (p *Plugin) registerDemo(r *bot.Registry) {
	r.OnCommand(command.New("demo",
		command.HeaderPattern(pattern.Union(pattern.At, pattern.Choice("trig"))),
		command.Compact(),
		command.WithArgs(command.MultiVar("rest", pattern.AnyString)),
	)).Handle(func(ctx context.Context, s *bot.Session) error {
		return s.Finish(ctx, fmt.Sprintf("args: %v", bot.QueryOr(s, "rest", []any{})))
	})
}

func (p *Plugin) registerTest1(r *bot.Registry) {
	r.OnCommand(command.New("test1", command.WithArgs(
		command.NewArg("target", pattern.Union(pattern.Integer, pattern.At)),
	)), bot.WithCompletion(p.cfg.CompTimeout)).Handle(func(ctx context.Context, s *bot.Session) error {
		target, _ := s.Query("target")
		if at, ok := target.(message.At); ok {
			return s.Send(ctx, "ok\n", at)
		}
		return s.Send(ctx, fmt.Sprintf("ok %v", target))
	})
}

func (p *Plugin) registerStatis(r *bot.Registry) {
	r.OnCommand(command.New("statis")).Handle(func(ctx context.Context, s *bot.Session) error {
		entries := r.Manager().Entries("")
		sources := make([]string, 0, len(entries))
		for _, e := range entries {
			src, _ := e.Extra["matcher.source"].(string)
			sources = append(sources, src)
		}
		return s.Finish(ctx, fmt.Sprintf("sources: %v", sources))
	})
}

// phoneNumber binds positive integers.
var phoneNumber = pattern.New(pattern.TypeConvert,
	pattern.WithAlias("phone"),
	pattern.WithConverter(func(_ *pattern.BasePattern, x any) (any, error) {
		return pattern.Integer.Match(x)
	}),
	pattern.WithValidator(func(v any) bool {
		n, ok := v.(int)
		return ok && n > 0
	}),
)

func (p *Plugin) registerTeacher(r *bot.Registry) {
	r.OnCommand(command.New("添加教师", command.WithArgs(
		command.NewArg("name", pattern.String, command.WithCompletion(func() string { return "请输入姓名" })),
		command.NewArg("phone", phoneNumber, command.WithCompletion(func() string { return "请输入手机号" })),
		command.NewArg("at", pattern.Union(pattern.String, pattern.At), command.WithCompletion(func() string { return "请输入教师号" })),
	)), bot.WithCompletion(p.cfg.CompTimeout), bot.SkipForUnmatch(false)).Handle(func(ctx context.Context, s *bot.Session) error {
		if !s.Result().Matched {
			return s.Finish(ctx, s.Command().Help())
		}
		at, _ := s.Query("at")
		teacher := &db.Teacher{
			Name:    bot.QueryOr(s, "name", ""),
			Phone:   int64(bot.QueryOr(s, "phone", 0)),
			Contact: fmt.Sprint(at),
		}
		if err := p.store.AddTeacher(ctx, teacher); err != nil {
			return errors.WithMessage(err, "add teacher")
		}
		return s.Finish(ctx, fmt.Sprintf("姓名：%s\n手机号：%d\n教师号：%s", teacher.Name, teacher.Phone, teacher.Contact))
	})
}

var calcOps = map[string]func(a, b float64) float64{
	"add": func(a, b float64) float64 { return a + b },
	"sub": func(a, b float64) float64 { return a - b },
	"mul": func(a, b float64) float64 { return a * b },
	"div": func(a, b float64) float64 { return a / b },
}

func (p *Plugin) registerCalc(r *bot.Registry) {
	r.FuncCommand(command.New("calc", command.Description("加法测试"), command.WithArgs(
		command.NewArg("op", pattern.Choice("add", "sub", "mul", "div")),
		command.NewArg("a", pattern.Float),
		command.NewArg("b", pattern.Float),
	)), func(ctx context.Context, s *bot.Session) (any, error) {
		op := bot.QueryOr(s, "op", "")
		a := bot.QueryOr(s, "a", 0.0)
		b := bot.QueryOr(s, "b", 0.0)
		if op == "div" && b == 0 {
			return i18n.Get("division by zero", p.lang(ctx, s)), nil
		}
		return fmt.Sprintf("%s %s %s = %s", formatFloat(a), op, formatFloat(b), formatFloat(calcOps[op](a, b))), nil
	})
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (p *Plugin) registerFunctest(r *bot.Registry) {
	r.FuncCommand(command.New("functest", command.Description("测试"), command.WithArgs(
		command.NewArg("a", pattern.Integer),
		command.NewArg("b", pattern.Bool),
		command.MultiVar("args", pattern.String),
		command.NewArg("c", pattern.Float, command.WithDefault(1.0)),
		command.NewArg("d", pattern.Integer, command.WithDefault(1)),
		command.NewArg("e", pattern.Bool, command.WithDefault(false)),
		command.KeywordVar("kwargs", pattern.String),
	)), func(_ context.Context, s *bot.Session) (any, error) {
		var b strings.Builder
		for _, name := range []string{"a", "b", "c", "d", "e", "args", "kwargs"} {
			v, _ := s.Query(name)
			fmt.Fprintf(&b, "%s: %v\n", name, v)
		}
		return b.String(), nil
	})
}
