package demo

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/iamwavecut/cmdbot/internal/bot"
	"github.com/iamwavecut/cmdbot/internal/command"
	"github.com/iamwavecut/cmdbot/internal/db"
	"github.com/iamwavecut/cmdbot/internal/i18n"
	"github.com/iamwavecut/cmdbot/internal/message"
	"github.com/iamwavecut/cmdbot/internal/pattern"
)

// Namespace holds the slash commands.
func Namespace() *command.Namespace {
	ns := command.NewNamespace("nbtest", "/")
	ns.HelpNames = []string{"-h", "帮助", "--help"}
	return ns
}

func (p *Plugin) registerNamespace(r *bot.Registry) {
	ns := Namespace()

	test := r.OnCommand(command.New("test", command.InNamespace(ns),
		command.WithArgs(command.NewArg("target?", pattern.Union(pattern.String, pattern.At))),
	))
	test.GotPath("target", "请输入目标", func(ctx context.Context, s *bot.Session) error {
		target, _ := s.Query("target")
		return s.Send(ctx, "ok\n", target)
	})

	pip := r.OnCommand(command.New("pip", command.InNamespace(ns), command.WithSubcommands(
		command.Sub("install",
			command.WithArgs(command.NewArg("pak", pattern.String)),
			command.WithOptions(command.Opt("--upgrade"), command.Opt("--force-reinstall")),
		),
		command.Sub("list", command.WithOptions(command.Opt("--out-dated"))),
	)), bot.WithCompletion(p.cfg.CompTimeout), bot.WithBlock())
	pip.Handle(func(ctx context.Context, s *bot.Session) error {
		return s.Send(ctx, p.moduleList())
	}, bot.AssignCheck("list"))
	pip.Assign("install.pak", func(ctx context.Context, s *bot.Session) error {
		return s.Send(ctx, fmt.Sprintf("pip installing %s...", bot.QueryOr(s, "install.pak", "")))
	})
	pip.Handle(func(ctx context.Context, s *bot.Session) error {
		return s.Send(ctx, i18n.Get("WIP...", p.lang(ctx, s)))
	})

	r.OnCommand(command.New("一言", command.InNamespace(ns)),
		bot.WithAliases("hitokoto"),
		bot.SkipForUnmatch(true),
		bot.UseOrigin(),
	).Handle(func(ctx context.Context, s *bot.Session) error {
		if !s.Result().Matched {
			return nil
		}
		quote, err := p.quoter.Quote(ctx, p.lang(ctx, s))
		if err != nil {
			return errors.WithMessage(err, "hitokoto")
		}
		return s.Send(ctx, quote)
	})

	r.OnCommand(command.New("lang", command.InNamespace(ns),
		command.WithArgs(command.NewArg("lang", pattern.Choice(i18n.Languages()...))),
	)).Handle(func(ctx context.Context, s *bot.Session) error {
		code, err := i18n.Select(bot.QueryOr(s, "lang", ""))
		if err != nil {
			return s.Finish(ctx, err.Error())
		}
		if err := p.settings.Set(ctx, &db.ChatSettings{ChatID: s.Event().ChatID, Language: code}); err != nil {
			return errors.WithMessage(err, "save language")
		}
		return s.Send(ctx, i18n.Get("ok", code))
	})

	login := r.OnCommand(command.New("login", command.InNamespace(ns),
		command.WithArgs(command.NewArg("password?", pattern.String)),
		command.WithOptions(command.Opt("-r|--recall")),
	))
	login.Assign("recall", func(ctx context.Context, s *bot.Session) error {
		ev := s.Event()
		if _, err := p.store.Logout(ctx, ev.ChatID, ev.UserID); err != nil {
			return errors.WithMessage(err, "logout")
		}
		return s.Finish(ctx, i18n.Get("logged out", p.lang(ctx, s)))
	})
	login.Handle(func(ctx context.Context, s *bot.Session) error {
		ev := s.Event()
		lang := p.lang(ctx, s)
		if p.cfg.LoginPassword != "" && bot.QueryOr(s, "password", "") != p.cfg.LoginPassword {
			return s.Finish(ctx, i18n.Get("wrong password", lang))
		}
		if err := p.store.Login(ctx, &db.Login{ChatID: ev.ChatID, UserID: ev.UserID, LoggedInAt: time.Now()}); err != nil {
			return errors.WithMessage(err, "login")
		}
		return s.Send(ctx, message.NewAt(strconv.FormatInt(ev.UserID, 10)), ", ", i18n.Get("login success", lang))
	})

	r.OnCommand(command.New("bind", command.InNamespace(ns))).Handle(func(ctx context.Context, s *bot.Session) error {
		ev := s.Event()
		if ev.ReplyTo == nil {
			return s.Finish(ctx, i18n.Get("no reply", p.lang(ctx, s)))
		}
		if err := s.Send(ctx, describe(ev.Origin)); err != nil {
			return err
		}
		return s.Send(ctx, fmt.Sprintf("Reply(id=%q, msg=%s)", ev.ReplyTo.ID, describe(ev.ReplyTo.Origin)))
	})
}

// moduleList renders the compiled modules as a markdown list.
func (p *Plugin) moduleList() string {
	modules := p.modules()
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("- %s %s", name, modules[name]))
	}
	return strings.Join(lines, "\n")
}

// describe renders every segment with its kind and payload.
func describe(msg message.Message) string {
	parts := make([]string, 0, len(msg))
	for _, seg := range msg {
		switch s := seg.(type) {
		case message.Text:
			parts = append(parts, fmt.Sprintf("Text(%q)", s.Text))
		case message.At:
			parts = append(parts, fmt.Sprintf("At(%s, %q)", s.Flag, s.Target))
		case message.Image:
			parts = append(parts, fmt.Sprintf("Image(id=%q, url=%q)", s.ID, s.URL))
		default:
			parts = append(parts, fmt.Sprintf("%s(%v)", seg.Type(), seg.Data()))
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
