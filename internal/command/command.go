package command

import (
	"sort"
	"strings"
	"sync"

	"github.com/iamwavecut/cmdbot/internal/pattern"
)

// Meta is descriptive data attached to a command.
type Meta struct {
	Description string
	Usage       string
	Example     string
	// Compact lets the first argument follow the header without a separator.
	Compact bool
	Extra   map[string]any
}

// Namespace groups commands sharing headers and help option names.
type Namespace struct {
	Name      string
	Headers   []string
	HelpNames []string
}

const DefaultNamespace = "default"

var defaultHelpNames = []string{"-h", "--help"}

func NewNamespace(name string, headers ...string) *Namespace {
	return &Namespace{Name: name, Headers: headers, HelpNames: append([]string(nil), defaultHelpNames...)}
}

func (ns *Namespace) helpNames() []string {
	if ns == nil || len(ns.HelpNames) == 0 {
		return defaultHelpNames
	}
	return ns.HelpNames
}

// Command is an immutable command descriptor. Only its shortcut table may
// change after declaration.
type Command struct {
	name          string
	aliases       []string
	headers       []string
	headerPattern pattern.Pattern
	namespace     *Namespace
	args          Args
	options       []*Option
	subcommands   []*Subcommand
	meta          Meta
	action        func(*Result) string

	mu        sync.RWMutex
	shortcuts map[string]Shortcut
}

func Headers(headers ...string) Part {
	return func(s *partSet) {
		s.headers = headers
		s.hasHeaders = true
	}
}

func Aliases(aliases ...string) Part {
	return func(s *partSet) { s.aliases = append(s.aliases, aliases...) }
}

// HeaderPattern makes the header a pattern instead of header+name literals.
func HeaderPattern(p pattern.Pattern) Part {
	return func(s *partSet) { s.headerPat = p }
}

func InNamespace(ns *Namespace) Part {
	return func(s *partSet) { s.namespace = ns }
}

func WithMeta(meta Meta) Part {
	return func(s *partSet) { s.meta = meta }
}

func Description(text string) Part {
	return func(s *partSet) { s.meta.Description = text }
}

func Compact() Part {
	return func(s *partSet) { s.meta.Compact = true }
}

// Action sets a function whose return value becomes Result.Output of a match.
func Action(fn func(*Result) string) Part {
	return func(s *partSet) { s.action = fn }
}

// New declares a command. It panics if two arguments share a name or an
// option name is declared twice.
func New(name string, parts ...Part) *Command {
	s := &partSet{}
	for _, p := range parts {
		p(s)
	}
	c := &Command{
		name:          name,
		aliases:       s.aliases,
		headers:       s.headers,
		headerPattern: s.headerPat,
		namespace:     s.namespace,
		args:          s.args,
		options:       s.options,
		subcommands:   s.subcommands,
		meta:          s.meta,
		action:        s.action,
		shortcuts:     make(map[string]Shortcut),
	}
	if !s.hasHeaders && c.namespace != nil {
		c.headers = append([]string(nil), c.namespace.Headers...)
	}
	if s.help != "" && c.meta.Description == "" {
		c.meta.Description = s.help
	}
	c.meta.Extra = copyMap(c.meta.Extra)
	validateNode(name, c.args, c.options, c.subcommands)
	return c
}

func (c *Command) Name() string                   { return c.name }
func (c *Command) Aliases() []string              { return append([]string(nil), c.aliases...) }
func (c *Command) Headers() []string              { return append([]string(nil), c.headers...) }
func (c *Command) HeaderPattern() pattern.Pattern { return c.headerPattern }
func (c *Command) Args() Args                     { return append(Args(nil), c.args...) }
func (c *Command) Options() []*Option             { return append([]*Option(nil), c.options...) }
func (c *Command) Subcommands() []*Subcommand     { return append([]*Subcommand(nil), c.subcommands...) }

func (c *Command) Meta() Meta {
	m := c.meta
	m.Extra = copyMap(c.meta.Extra)
	return m
}

func (c *Command) Namespace() string {
	if c.namespace == nil {
		return DefaultNamespace
	}
	return c.namespace.Name
}

// Path identifies the command inside a Manager.
func (c *Command) Path() string {
	return c.Namespace() + "::" + c.name
}

// WithAliases returns a copy of c answering to extra names.
func (c *Command) WithAliases(aliases ...string) *Command {
	cp := &Command{
		name:          c.name,
		aliases:       append(append([]string(nil), c.aliases...), aliases...),
		headers:       c.headers,
		headerPattern: c.headerPattern,
		namespace:     c.namespace,
		args:          c.args,
		options:       c.options,
		subcommands:   c.subcommands,
		meta:          c.Meta(),
		action:        c.action,
		shortcuts:     c.shortcutTable(),
	}
	return cp
}

// Literals lists every literal header the command answers to, longest first.
func (c *Command) Literals() []string {
	if c.headerPattern != nil {
		return nil
	}
	names := append([]string{c.name}, c.aliases...)
	headers := c.headers
	if len(headers) == 0 {
		headers = []string{""}
	}
	out := make([]string, 0, len(names)*len(headers))
	for _, h := range headers {
		for _, n := range names {
			out = append(out, h+n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

func (c *Command) helpNames() []string {
	return c.namespace.helpNames()
}

func (c *Command) isHelp(token any) bool {
	s, ok := token.(string)
	if !ok {
		return false
	}
	for _, n := range c.helpNames() {
		if n == s {
			return true
		}
	}
	return false
}

// Shortcut registers key as a whole-input rewrite to this command.
func (c *Command) Shortcut(key string, sc Shortcut) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shortcuts[key] = sc
}

func (c *Command) Shortcuts() map[string]Shortcut {
	return c.shortcutTable()
}

func (c *Command) shortcutTable() map[string]Shortcut {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Shortcut, len(c.shortcuts))
	for k, v := range c.shortcuts {
		out[k] = v
	}
	return out
}

func (c *Command) node() *Subcommand {
	return &Subcommand{name: c.name, args: c.args, options: c.options, subcommands: c.subcommands}
}

// ArgAt finds the argument declared at a dotted path such as "img",
// "install.pak" or "add.group_id".
func (c *Command) ArgAt(path string) (Arg, bool) {
	parts := strings.Split(path, ".")
	args, options, subs := c.args, c.options, c.subcommands
	for _, part := range parts[:len(parts)-1] {
		found := false
		for _, sub := range subs {
			if sub.name == part {
				args, options, subs = sub.args, sub.options, sub.subcommands
				found = true
				break
			}
		}
		if found {
			continue
		}
		for _, opt := range options {
			if opt.dest == part {
				args, options, subs = opt.args, nil, nil
				found = true
				break
			}
		}
		if !found {
			return Arg{}, false
		}
	}
	return args.Get(parts[len(parts)-1])
}
