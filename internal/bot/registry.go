package bot

import (
	"context"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"

	"github.com/iamwavecut/cmdbot/internal/command"
	"github.com/iamwavecut/cmdbot/internal/infra"
	"github.com/iamwavecut/cmdbot/internal/message"
	"github.com/iamwavecut/cmdbot/internal/observability"
)

const (
	UpdateTimeout = 5 * time.Minute

	maxCompletionRounds = 16
)

var tracer = otel.Tracer("github.com/iamwavecut/cmdbot/internal/bot")

// Registry holds the matchers and dispatches events to them.
type Registry struct {
	mu         sync.RWMutex
	matchers   []*Matcher
	extensions []Extension
	manager    *command.Manager

	wmu     sync.Mutex
	waiters map[string]chan *Event

	concurrency int
	staleAfter  time.Duration
	now         func() time.Time
}

type RegistryOption func(*Registry)

// WithConcurrency bounds the events processed at once by Run. Prompts need
// at least two slots, smaller values are raised to two.
func WithConcurrency(n int) RegistryOption {
	return func(r *Registry) { r.concurrency = n }
}

// WithStaleAfter sets the age after which events are dropped.
func WithStaleAfter(d time.Duration) RegistryOption {
	return func(r *Registry) { r.staleAfter = d }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		manager:     command.NewManager(),
		waiters:     make(map[string]chan *Event),
		concurrency: 16,
		staleAfter:  UpdateTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.concurrency < 2 {
		r.concurrency = 2
	}
	return r
}

func (r *Registry) Manager() *command.Manager {
	return r.manager
}

// AddGlobalExtension applies ext to every matcher.
func (r *Registry) AddGlobalExtension(ext Extension) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extensions = append(r.extensions, ext)
}

// OnCommand registers cmd and returns its matcher. The command is recorded
// in the manager with the matcher source under "matcher.source".
func (r *Registry) OnCommand(cmd *command.Command, opts ...MatcherOption) *Matcher {
	return r.newMatcher(cmd, callerSource(2), opts)
}

// FuncCommand registers cmd with a single handler whose non nil return value
// is sent back.
func (r *Registry) FuncCommand(cmd *command.Command, fn func(ctx context.Context, s *Session) (any, error), opts ...MatcherOption) *Matcher {
	m := r.newMatcher(cmd, callerSource(2), opts)
	return m.Handle(func(ctx context.Context, s *Session) error {
		out, err := fn(ctx, s)
		if err != nil || out == nil {
			return err
		}
		return s.Send(ctx, out)
	})
}

func (r *Registry) newMatcher(cmd *command.Command, source string, opts []MatcherOption) *Matcher {
	m := &Matcher{
		id:             uuid.New(),
		cmd:            cmd,
		registry:       r,
		skipForUnmatch: true,
		autoSendOutput: true,
		source:         source,
	}
	for _, opt := range opts {
		opt(m)
	}
	r.manager.Register(m.cmd, map[string]any{
		"matcher.source": m.source,
		"matcher.id":     m.id,
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	r.matchers = append(r.matchers, m)
	sort.SliceStable(r.matchers, func(i, j int) bool { return r.matchers[i].priority < r.matchers[j].priority })
	return m
}

func callerSource(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	name := fn.Name()
	slash := strings.LastIndex(name, "/")
	if dot := strings.Index(name[slash+1:], "."); dot >= 0 {
		return name[:slash+1+dot]
	}
	return name
}

// Process runs ev through the matchers in priority order.
func (r *Registry) Process(ctx context.Context, b Bot, ev *Event) (err error) {
	if ev == nil {
		return errors.New("event is nil")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if r.stale(ev) {
		r.getLogEntry().WithFields(log.Fields{
			"event_time": ev.Time,
			"age":        r.now().Sub(ev.Time),
		}).Debug("Skipping outdated event")
		return nil
	}
	if r.answer(ev) {
		return nil
	}

	done := observability.StartEventProcessing()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		done(status)
	}()

	r.mu.RLock()
	matchers := append([]*Matcher(nil), r.matchers...)
	global := append([]Extension(nil), r.extensions...)
	r.mu.RUnlock()

	for _, m := range matchers {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		proceed, err := r.runMatcher(ctx, b, ev, m, sortExtensions(append(global, m.extensions...)))
		if err != nil {
			return errors.WithMessagef(err, "handling %s", m.cmd.Name())
		}
		if !proceed {
			log.Trace("not proceeding")
			return nil
		}
	}
	return nil
}

func (r *Registry) runMatcher(ctx context.Context, b Bot, ev *Event, m *Matcher, exts []Extension) (bool, error) {
	msg, err := r.provideMessage(ctx, b, ev, m, exts)
	if err != nil {
		return false, errors.WithMessage(err, "provide message")
	}
	if len(msg) == 0 {
		return true, nil
	}

	res := m.cmd.Parse(msg)
	if !res.Header.Matched {
		return true, nil
	}
	if m.compTimeout > 0 && errors.Is(res.Error, command.ErrMissingArgument) {
		if res, err = r.complete(ctx, b, ev, m, msg, res); err != nil {
			return false, err
		}
	}

	ctx, span := tracer.Start(ctx, "matcher "+m.cmd.Name())
	defer span.End()
	span.SetAttributes(
		attribute.String("command", m.cmd.Path()),
		attribute.Bool("matched", res.Matched),
	)

	s := &Session{
		bot:      b,
		event:    ev,
		result:   res,
		registry: r,
		matcher:  m,
		vars:     &pathVars{values: make(map[string]any)},
	}

	if errors.Is(res.Error, command.ErrHelpRequested) {
		return false, r.sendOutput(ctx, s, exts, OutputHelp, res.Output)
	}
	if !res.Matched && m.skipForUnmatch {
		return true, nil
	}
	if res.Matched {
		observability.RecordCommandMatch(m.cmd.Path())
		if res.Output != "" && m.autoSendOutput {
			if err := r.sendOutput(ctx, s, exts, OutputAction, res.Output); err != nil {
				return false, err
			}
		}
	}

	err = r.runHandlers(ctx, s, m)
	if errors.Is(err, ErrFinished) {
		err = nil
	}
	if err != nil {
		observability.RecordHandlerError(m.cmd.Path())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	return !m.block, nil
}

func (r *Registry) runHandlers(ctx context.Context, s *Session, m *Matcher) error {
	r.mu.RLock()
	children := append([]*Matcher(nil), m.children...)
	handlers := append([]handlerEntry(nil), m.handlers...)
	r.mu.RUnlock()

	for _, child := range children {
		if !s.Find(child.dispatch) {
			continue
		}
		if err := r.runHandlers(ctx, s.with(child), child); err != nil {
			return err
		}
	}

	for _, h := range handlers {
		pass := true
		for _, check := range h.checks {
			ok, err := check(ctx, s)
			if err != nil {
				return errors.WithMessage(err, "check")
			}
			if !ok {
				pass = false
				break
			}
		}
		if !pass {
			continue
		}
		if h.got != nil {
			if err := r.ensurePath(ctx, s, h.got); err != nil {
				return err
			}
		}
		if err := h.fn(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) provideMessage(ctx context.Context, b Bot, ev *Event, m *Matcher, exts []Extension) (message.Message, error) {
	for _, ext := range exts {
		provider, ok := ext.(MessageProvider)
		if !ok {
			continue
		}
		msg, ok, err := provider.ProvideMessage(ctx, ev, b, m.useOrigin)
		if err != nil {
			return nil, errors.WithMessagef(err, "extension %s", ext.ID())
		}
		if ok {
			return msg, nil
		}
	}
	if ev.Kind != EventMessage {
		return nil, nil
	}
	if m.useOrigin && len(ev.Origin) > 0 {
		return ev.Origin, nil
	}
	return ev.Message, nil
}

func (r *Registry) sendOutput(ctx context.Context, s *Session, exts []Extension, kind OutputKind, content string) error {
	if content == "" {
		return nil
	}
	for _, ext := range exts {
		conv, ok := ext.(OutputConverter)
		if !ok {
			continue
		}
		msg, err := conv.ConvertOutput(ctx, kind, content)
		if err != nil {
			return errors.WithMessagef(err, "extension %s", ext.ID())
		}
		if len(msg) > 0 {
			return s.Send(ctx, msg)
		}
	}
	return s.Send(ctx, content)
}

// complete asks for missing arguments one at a time and parses again with
// the answers appended.
func (r *Registry) complete(ctx context.Context, b Bot, ev *Event, m *Matcher, msg message.Message, res *command.Result) (*command.Result, error) {
	for round := 0; round < maxCompletionRounds; round++ {
		var bindErr *command.BindError
		if !errors.As(res.Error, &bindErr) || !errors.Is(bindErr, command.ErrMissingArgument) {
			return res, nil
		}
		hint := "请输入 " + bindErr.Arg
		if arg, ok := m.cmd.ArgAt(bindErr.Path); ok && arg.Completion != nil {
			hint = arg.Completion()
		}
		w := r.listen(ev)
		if err := b.Send(ctx, ev.ChatID, message.New(hint)); err != nil {
			w.close()
			return nil, errors.WithMessage(err, "send completion hint")
		}
		next, err := w.wait(ctx, m.compTimeout)
		w.close()
		if errors.Is(err, ErrPromptTimeout) {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		msg = message.New(msg, " ", next.Message)
		res = m.cmd.Parse(msg)
	}
	return res, nil
}

func (r *Registry) ensurePath(ctx context.Context, s *Session, g *gotPath) error {
	if s.Find(g.path) {
		return nil
	}
	arg, hasArg := s.matcher.cmd.ArgAt(g.path)
	for {
		next, err := s.Prompt(ctx, g.prompt)
		if errors.Is(err, ErrPromptTimeout) {
			r.getLogEntry().WithField("path", g.path).Debug("prompt timed out")
			return ErrFinished
		}
		if err != nil {
			return err
		}

		var value any = next.Message
		if hasArg {
			tokens := command.Tokenize(next.Message)
			if len(tokens) != 1 {
				continue
			}
			if value, err = arg.Pattern.Match(tokens[0]); err != nil {
				continue
			}
		}
		for _, mw := range g.middleware {
			if value, err = mw(ctx, s, value); err != nil {
				return errors.WithMessagef(err, "middleware for %s", g.path)
			}
		}
		s.SetPathArg(g.path, value)
		return nil
	}
}

type waiter struct {
	r   *Registry
	key string
	ch  chan *Event
}

// listen registers a waiter for the next message of the event's user in the
// event's chat. It must be closed.
func (r *Registry) listen(ev *Event) *waiter {
	w := &waiter{r: r, key: ev.key(), ch: make(chan *Event, 1)}
	r.wmu.Lock()
	r.waiters[w.key] = w.ch
	r.wmu.Unlock()
	return w
}

func (w *waiter) wait(ctx context.Context, timeout time.Duration) (*Event, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case next := <-w.ch:
		return next, nil
	case <-timer.C:
		return nil, ErrPromptTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *waiter) close() {
	w.r.wmu.Lock()
	defer w.r.wmu.Unlock()
	if w.r.waiters[w.key] == w.ch {
		delete(w.r.waiters, w.key)
	}
}

func (r *Registry) stale(ev *Event) bool {
	return !ev.Time.IsZero() && r.now().Sub(ev.Time) > r.staleAfter
}

// answer hands a fresh message to the prompt waiting for it, if any.
func (r *Registry) answer(ev *Event) bool {
	return ev.Kind == EventMessage && !r.stale(ev) && r.deliver(ev)
}

func (r *Registry) deliver(ev *Event) bool {
	r.wmu.Lock()
	ch, ok := r.waiters[ev.key()]
	if ok {
		delete(r.waiters, ev.key())
	}
	r.wmu.Unlock()
	if ok {
		ch <- ev
	}
	return ok
}

// Run processes events until ctx is done or events is closed.
func (r *Registry) Run(ctx context.Context, b Bot, events <-chan *Event) error {
	sem := semaphore.NewWeighted(int64(r.concurrency))
	defer func() {
		_ = sem.Acquire(context.Background(), int64(r.concurrency))
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			// prompt answers bypass the semaphore, their handlers already hold a slot
			if ev != nil && r.answer(ev) {
				continue
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			go func() {
				defer sem.Release(1)
				infra.Recover("process event", func() {
					if err := r.Process(ctx, b, ev); err != nil {
						r.getLogEntry().WithError(err).Error("cant process event")
					}
				})
			}()
		}
	}
}

func (r *Registry) getLogEntry() *log.Entry {
	return log.WithField("object", "Registry")
}
