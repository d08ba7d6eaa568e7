package bot

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/iamwavecut/cmdbot/internal/command"
	"github.com/iamwavecut/cmdbot/internal/message"
)

// Session is the per event state shared by the handlers of one matcher.
type Session struct {
	bot      Bot
	event    *Event
	result   *command.Result
	registry *Registry
	matcher  *Matcher
	vars     *pathVars
}

type pathVars struct {
	mu     sync.Mutex
	values map[string]any
}

func (s *Session) Bot() Bot                  { return s.bot }
func (s *Session) Event() *Event             { return s.event }
func (s *Session) Result() *command.Result   { return s.result }
func (s *Session) Command() *command.Command { return s.matcher.cmd }

// Send delivers a message built with message.New to the event chat.
func (s *Session) Send(ctx context.Context, parts ...any) error {
	msg := message.New(parts...)
	if len(msg) == 0 {
		return nil
	}
	if err := s.bot.Send(ctx, s.event.ChatID, msg); err != nil {
		return errors.WithMessage(err, "send")
	}
	return nil
}

// Finish optionally sends a message and ends the matcher run. Handlers
// return its result.
func (s *Session) Finish(ctx context.Context, parts ...any) error {
	if err := s.Send(ctx, parts...); err != nil {
		return err
	}
	return ErrFinished
}

// SetPathArg binds value to path, shadowing the parse result.
func (s *Session) SetPathArg(path string, value any) {
	s.vars.mu.Lock()
	defer s.vars.mu.Unlock()
	s.vars.values[s.matcher.resolve(path)] = value
}

// Query resolves path against the values set on the session first, then the
// parse result. A leading "~" is relative to the dispatching path.
func (s *Session) Query(path string) (any, bool) {
	path = s.matcher.resolve(path)
	s.vars.mu.Lock()
	v, ok := s.vars.values[path]
	s.vars.mu.Unlock()
	if ok {
		return v, true
	}
	if s.result == nil {
		return nil, false
	}
	if v, ok := s.result.Query(path); ok {
		return v, true
	}
	if s.result.Matched || strings.Contains(path, ".") {
		return nil, false
	}
	// unmatched results still expose the arguments bound so far
	v, ok = s.result.Args[path]
	return v, ok
}

func (s *Session) Find(path string) bool {
	_, ok := s.Query(path)
	return ok
}

// Query returns the value at path converted to T.
func Query[T any](s *Session, path string) (T, bool) {
	var zero T
	v, ok := s.Query(path)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func QueryOr[T any](s *Session, path string, def T) T {
	if v, ok := Query[T](s, path); ok {
		return v
	}
	return def
}

// Prompt sends parts and returns the next message event of the same user in
// the same chat.
func (s *Session) Prompt(ctx context.Context, parts ...any) (*Event, error) {
	w := s.registry.listen(s.event)
	defer w.close()
	if err := s.Send(ctx, parts...); err != nil {
		return nil, err
	}
	return w.wait(ctx, s.matcher.promptWait())
}

func (s *Session) with(m *Matcher) *Session {
	return &Session{
		bot:      s.bot,
		event:    s.event,
		result:   s.result,
		registry: s.registry,
		matcher:  m,
		vars:     s.vars,
	}
}
