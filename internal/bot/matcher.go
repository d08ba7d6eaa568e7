package bot

import (
	"context"
	"strings"
	"time"

	"github.com/pborman/uuid"

	"github.com/iamwavecut/cmdbot/internal/command"
)

const DefaultPromptTimeout = time.Minute

// HandlerFunc runs when a matcher accepted an event.
type HandlerFunc func(ctx context.Context, s *Session) error

// Check decides whether a handler runs.
type Check func(ctx context.Context, s *Session) (bool, error)

// Middleware transforms a prompted value before it is bound to its path.
type Middleware func(ctx context.Context, s *Session, value any) (any, error)

type handlerEntry struct {
	fn     HandlerFunc
	checks []Check
	got    *gotPath
}

type gotPath struct {
	path       string
	prompt     string
	middleware []Middleware
}

// Matcher binds handlers to one command.
type Matcher struct {
	id       string
	cmd      *command.Command
	registry *Registry
	parent   *Matcher
	dispatch string

	priority       int
	block          bool
	skipForUnmatch bool
	useOrigin      bool
	autoSendOutput bool
	compTimeout    time.Duration
	promptTimeout  time.Duration
	source         string
	extensions     []Extension

	handlers []handlerEntry
	children []*Matcher
}

type MatcherOption func(*Matcher)

// WithPriority orders matchers, lower first.
func WithPriority(p int) MatcherOption {
	return func(m *Matcher) { m.priority = p }
}

// WithBlock stops later matchers once this one handled an event.
func WithBlock() MatcherOption {
	return func(m *Matcher) { m.block = true }
}

// SkipForUnmatch false lets handlers run on results whose header matched but
// whose arguments did not bind.
func SkipForUnmatch(skip bool) MatcherOption {
	return func(m *Matcher) { m.skipForUnmatch = skip }
}

// UseOrigin parses the message as sent, bot addressing included.
func UseOrigin() MatcherOption {
	return func(m *Matcher) { m.useOrigin = true }
}

func WithAliases(aliases ...string) MatcherOption {
	return func(m *Matcher) { m.cmd = m.cmd.WithAliases(aliases...) }
}

// WithCompletion enables interactive completion of missing arguments.
func WithCompletion(timeout time.Duration) MatcherOption {
	return func(m *Matcher) { m.compTimeout = timeout }
}

func WithPromptTimeout(timeout time.Duration) MatcherOption {
	return func(m *Matcher) { m.promptTimeout = timeout }
}

func WithExtensions(exts ...Extension) MatcherOption {
	return func(m *Matcher) { m.extensions = append(m.extensions, exts...) }
}

// AutoSendOutput controls whether command action output is sent. Help output
// is always sent.
func AutoSendOutput(send bool) MatcherOption {
	return func(m *Matcher) { m.autoSendOutput = send }
}

// WithSource overrides the recorded matcher source.
func WithSource(source string) MatcherOption {
	return func(m *Matcher) { m.source = source }
}

func (m *Matcher) ID() string                { return m.id }
func (m *Matcher) Command() *command.Command { return m.cmd }
func (m *Matcher) Priority() int             { return m.priority }
func (m *Matcher) Source() string            { return m.source }

// Handle appends a handler run when all checks pass.
func (m *Matcher) Handle(fn HandlerFunc, checks ...Check) *Matcher {
	m.registry.mu.Lock()
	defer m.registry.mu.Unlock()
	m.handlers = append(m.handlers, handlerEntry{fn: fn, checks: checks})
	return m
}

// Assign appends a handler run only when path resolves in the result.
func (m *Matcher) Assign(path string, fn HandlerFunc, checks ...Check) *Matcher {
	return m.Handle(fn, append([]Check{AssignCheck(path)}, checks...)...)
}

// Dispatch returns a child matcher whose handlers run before the parent's
// when path resolves. Paths inside the child may start with "~" to refer to
// path.
func (m *Matcher) Dispatch(path string) *Matcher {
	m.registry.mu.Lock()
	defer m.registry.mu.Unlock()
	child := &Matcher{
		id:       uuid.New(),
		cmd:      m.cmd,
		registry: m.registry,
		parent:   m,
		dispatch: m.resolve(path),
	}
	m.children = append(m.children, child)
	return child
}

// GotPath appends a handler that prompts for path when the result and the
// session lack it, binds the answer with the argument pattern and applies
// the middleware.
func (m *Matcher) GotPath(path, prompt string, fn HandlerFunc, middleware ...Middleware) *Matcher {
	m.registry.mu.Lock()
	defer m.registry.mu.Unlock()
	m.handlers = append(m.handlers, handlerEntry{
		fn:  fn,
		got: &gotPath{path: m.resolve(path), prompt: prompt, middleware: middleware},
	})
	return m
}

// Shortcut registers a shortcut on the matched command.
func (m *Matcher) Shortcut(key string, sc command.Shortcut) *Matcher {
	m.cmd.Shortcut(key, sc)
	return m
}

func (m *Matcher) resolve(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(path, "~"), ".")
	switch {
	case m.dispatch == "":
		return rel
	case rel == "":
		return m.dispatch
	}
	return m.dispatch + "." + rel
}

func (m *Matcher) promptWait() time.Duration {
	root := m
	for root.parent != nil {
		root = root.parent
	}
	if root.promptTimeout > 0 {
		return root.promptTimeout
	}
	if root.compTimeout > 0 {
		return root.compTimeout
	}
	return DefaultPromptTimeout
}

// AssignCheck passes when path resolves in the session.
func AssignCheck(path string) Check {
	return func(_ context.Context, s *Session) (bool, error) {
		return s.Find(path), nil
	}
}
