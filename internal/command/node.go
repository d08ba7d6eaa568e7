package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iamwavecut/cmdbot/internal/pattern"
)

// Part configures a Command, an Option or a Subcommand. Parts that do not
// apply to the declared element are ignored.
type Part func(*partSet)

type partSet struct {
	args        Args
	options     []*Option
	subcommands []*Subcommand
	help        string

	dest       string
	store      any
	hasStore   bool
	def        any
	hasDef     bool
	fixedArgs  map[string]any
	headers    []string
	aliases    []string
	headerPat  pattern.Pattern
	namespace  *Namespace
	meta       Meta
	action     func(*Result) string
	hasHeaders bool
}

func WithArgs(args ...Arg) Part {
	return func(s *partSet) { s.args = append(s.args, args...) }
}

func WithOptions(opts ...*Option) Part {
	return func(s *partSet) { s.options = append(s.options, opts...) }
}

func WithSubcommands(subs ...*Subcommand) Part {
	return func(s *partSet) { s.subcommands = append(s.subcommands, subs...) }
}

func Help(text string) Part {
	return func(s *partSet) { s.help = text }
}

// Dest sets the result key of an option. Several options may share one dest.
func Dest(dest string) Part {
	return func(s *partSet) { s.dest = dest }
}

// StoreTrue makes a present option store true.
func StoreTrue() Part {
	return StoreValue(true)
}

func StoreValue(v any) Part {
	return func(s *partSet) {
		s.store = v
		s.hasStore = true
	}
}

// Default is the value an absent option reports.
func Default(v any) Part {
	return func(s *partSet) {
		s.def = v
		s.hasDef = true
	}
}

// FixedArgs are merged into the option arguments when the option is present.
func FixedArgs(args map[string]any) Part {
	return func(s *partSet) { s.fixedArgs = args }
}

// Option is a named flag of a command or subcommand, with optional arguments.
type Option struct {
	names     []string
	dest      string
	args      Args
	store     any
	hasStore  bool
	def       any
	hasDef    bool
	fixedArgs map[string]any
	help      string
}

// Opt declares an option. names is a "|" separated list such as "-r|--recall".
func Opt(names string, parts ...Part) *Option {
	s := &partSet{}
	for _, p := range parts {
		p(s)
	}
	o := &Option{
		names:     splitNames(names),
		dest:      s.dest,
		args:      s.args,
		store:     s.store,
		hasStore:  s.hasStore,
		def:       s.def,
		hasDef:    s.hasDef,
		fixedArgs: copyMap(s.fixedArgs),
		help:      s.help,
	}
	if len(o.names) == 0 {
		panic("option without name")
	}
	if o.dest == "" {
		o.dest = destOf(o.names)
	}
	o.args.validate(o.dest)
	return o
}

func (o *Option) Names() []string { return append([]string(nil), o.names...) }
func (o *Option) Dest() string    { return o.dest }
func (o *Option) Args() Args      { return append(Args(nil), o.args...) }

func (o *Option) String() string {
	s := strings.Join(o.names, "|")
	if len(o.args) > 0 {
		s += " " + o.args.String()
	}
	return s
}

func (o *Option) has(name string) bool {
	for _, n := range o.names {
		if n == name {
			return true
		}
	}
	return false
}

// Subcommand is a nested command with its own arguments, options and subcommands.
type Subcommand struct {
	name        string
	args        Args
	options     []*Option
	subcommands []*Subcommand
	def         any
	hasDef      bool
	help        string
}

func Sub(name string, parts ...Part) *Subcommand {
	s := &partSet{}
	for _, p := range parts {
		p(s)
	}
	sc := &Subcommand{
		name:        name,
		args:        s.args,
		options:     s.options,
		subcommands: s.subcommands,
		def:         s.def,
		hasDef:      s.hasDef,
		help:        s.help,
	}
	validateNode(name, sc.args, sc.options, sc.subcommands)
	return sc
}

func (s *Subcommand) Name() string               { return s.name }
func (s *Subcommand) Args() Args                 { return append(Args(nil), s.args...) }
func (s *Subcommand) Options() []*Option         { return append([]*Option(nil), s.options...) }
func (s *Subcommand) Subcommands() []*Subcommand { return append([]*Subcommand(nil), s.subcommands...) }

func validateNode(owner string, args Args, options []*Option, subs []*Subcommand) {
	args.validate(owner)
	names := make(map[string]struct{})
	for _, o := range options {
		for _, n := range o.names {
			if _, dup := names[n]; dup {
				panic(fmt.Sprintf("command %s: option %s already declared", owner, n))
			}
			names[n] = struct{}{}
		}
	}
	for _, sc := range subs {
		if _, dup := names[sc.name]; dup {
			panic(fmt.Sprintf("command %s: subcommand %s clashes with another name", owner, sc.name))
		}
		names[sc.name] = struct{}{}
	}
}

func splitNames(names string) []string {
	var out []string
	for _, n := range strings.Split(names, "|") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func destOf(names []string) string {
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	return strings.TrimLeft(sorted[0], "-")
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
