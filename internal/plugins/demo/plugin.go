// Package demo registers the example commands of the bot.
package demo

import (
	"context"
	"runtime/debug"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/cmdbot/internal/bot"
	"github.com/iamwavecut/cmdbot/internal/db"
	"github.com/iamwavecut/cmdbot/internal/infra/reg"
)

const DefaultCompTimeout = 10 * time.Second

// Store is the persistence the demo commands need.
type Store interface {
	AddGroup(ctx context.Context, group *db.Group) error
	RemoveGroup(ctx context.Context, id int64) error
	ListGroups(ctx context.Context) ([]db.Group, error)
	AddTeacher(ctx context.Context, teacher *db.Teacher) error
	SetMask(ctx context.Context, mask *db.Mask) error
	Login(ctx context.Context, login *db.Login) error
	Logout(ctx context.Context, chatID, userID int64) (bool, error)
}

type Config struct {
	// IsSuperUser reports who may manage groups.
	IsSuperUser func(userID int64) bool
	// LoginPassword is checked by login when set.
	LoginPassword string
	CompTimeout   time.Duration
}

type Plugin struct {
	store    Store
	settings *reg.Settings
	quoter   Quoter
	cfg      Config
	modules  func() map[string]string
}

func New(store Store, settings *reg.Settings, quoter Quoter, cfg Config) *Plugin {
	if cfg.CompTimeout <= 0 {
		cfg.CompTimeout = DefaultCompTimeout
	}
	if quoter == nil {
		quoter = StaticQuoter(nil)
	}
	return &Plugin{
		store:    store,
		settings: settings,
		quoter:   quoter,
		cfg:      cfg,
		modules:  buildModules,
	}
}

func getLogEntry() *log.Entry {
	return log.WithField("object", "demo")
}

// Register declares every demo command on r.
func (p *Plugin) Register(r *bot.Registry) {
	r.AddGlobalExtension(demoExtension{})
	p.registerNamespace(r)
	p.registerMask(r)
	p.registerBook(r)
	p.registerPip1(r)
	p.registerRecall(r)
	p.registerGroup(r)
	p.registerDemo(r)
	p.registerTest1(r)
	p.registerStatis(r)
	p.registerTeacher(r)
	p.registerCalc(r)
	p.registerFunctest(r)
	getLogEntry().WithField("commands", len(r.Manager().Entries(""))).Info("registered")
}

func (p *Plugin) lang(ctx context.Context, s *bot.Session) string {
	return p.settings.Language(ctx, s.Event().ChatID)
}

func (p *Plugin) isSuperUser(userID int64) bool {
	return p.cfg.IsSuperUser != nil && p.cfg.IsSuperUser(userID)
}

// buildModules lists the modules compiled into the binary, keeping the
// highest version seen per path.
func buildModules() map[string]string {
	out := map[string]string{}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	add := func(m *debug.Module) {
		if m == nil || m.Path == "" || m.Version == "" {
			return
		}
		if m.Version > out[m.Path] {
			out[m.Path] = m.Version
		}
	}
	add(&info.Main)
	for _, dep := range info.Deps {
		add(dep)
	}
	return out
}
