package command

import (
	"fmt"
	"strings"

	"github.com/iamwavecut/cmdbot/internal/pattern"
)

// Builder assembles a Command from short textual option declarations:
//
//	Build("book", "test").
//		Option("writer", "-w <id:int>").
//		Option("writer", "--anonymous", map[string]any{"id": 0}).
//		Build()
type Builder struct {
	name      string
	desc      string
	usage     string
	example   string
	headers   []string
	ns        *Namespace
	args      Args
	options   []*Option
	shortcuts map[string]Shortcut
	keys      []string
	action    func(options map[string]any) string
}

func Build(name, description string) *Builder {
	return &Builder{name: name, desc: description, shortcuts: make(map[string]Shortcut)}
}

// Option adds an option declared as "names <arg:type> [arg:type]". Options
// sharing dest are alternatives writing the same result. fixed is merged into
// the option arguments when it is present.
func (b *Builder) Option(dest, decl string, fixed ...map[string]any) *Builder {
	fields := strings.Fields(decl)
	if len(fields) == 0 {
		panic(fmt.Sprintf("command %s: empty option declaration", b.name))
	}
	parts := []Part{Dest(dest)}
	for _, f := range fields[1:] {
		parts = append(parts, WithArgs(parseArgDecl(b.name, f)))
	}
	merged := make(map[string]any)
	for _, m := range fixed {
		for k, v := range m {
			merged[k] = v
		}
	}
	if len(merged) > 0 {
		parts = append(parts, FixedArgs(merged))
	}
	b.options = append(b.options, Opt(fields[0], parts...))
	return b
}

// Arg adds a main argument declared as "<name:type>" or "[name:type]".
func (b *Builder) Arg(decl string) *Builder {
	b.args = append(b.args, parseArgDecl(b.name, decl))
	return b
}

func (b *Builder) Usage(usage string) *Builder {
	b.usage = usage
	return b
}

func (b *Builder) Example(example string) *Builder {
	b.example = example
	return b
}

func (b *Builder) Headers(headers ...string) *Builder {
	b.headers = headers
	return b
}

func (b *Builder) Namespace(ns *Namespace) *Builder {
	b.ns = ns
	return b
}

func (b *Builder) Shortcut(key string, sc Shortcut) *Builder {
	if _, ok := b.shortcuts[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.shortcuts[key] = sc
	return b
}

// Action receives the option results keyed by dest. Each value is the
// option's argument map.
func (b *Builder) Action(fn func(options map[string]any) string) *Builder {
	b.action = fn
	return b
}

func (b *Builder) Build() *Command {
	parts := []Part{
		WithArgs(b.args...),
		WithOptions(b.options...),
		WithMeta(Meta{Description: b.desc, Usage: b.usage, Example: b.example}),
	}
	if b.headers != nil {
		parts = append(parts, Headers(b.headers...))
	}
	if b.ns != nil {
		parts = append(parts, InNamespace(b.ns))
	}
	if fn := b.action; fn != nil {
		parts = append(parts, Action(func(r *Result) string {
			opts := make(map[string]any, len(r.Options))
			for dest, o := range r.Options {
				opts[dest] = o.Args
			}
			return fn(opts)
		}))
	}
	cmd := New(b.name, parts...)
	for _, k := range b.keys {
		cmd.Shortcut(k, b.shortcuts[k])
	}
	return cmd
}

func parseArgDecl(owner, decl string) Arg {
	optional := false
	switch {
	case strings.HasPrefix(decl, "<") && strings.HasSuffix(decl, ">"):
	case strings.HasPrefix(decl, "[") && strings.HasSuffix(decl, "]"):
		optional = true
	default:
		panic(fmt.Sprintf("command %s: malformed argument %q", owner, decl))
	}
	body := decl[1 : len(decl)-1]
	name, typ, _ := strings.Cut(body, ":")
	typ, def, hasDef := strings.Cut(typ, "=")
	p, ok := pattern.ByName(strings.TrimSpace(typ))
	if !ok {
		panic(fmt.Sprintf("command %s: unknown type %q", owner, typ))
	}
	var opts []ArgOption
	if hasDef {
		v, err := p.Match(def)
		if err != nil {
			panic(fmt.Sprintf("command %s: default %q of %s: %v", owner, def, name, err))
		}
		opts = append(opts, WithDefault(v))
	}
	a := NewArg(strings.TrimSpace(name), p, opts...)
	a.Optional = a.Optional || optional
	return a
}
