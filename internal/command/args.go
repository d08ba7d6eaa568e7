package command

import (
	"fmt"
	"strings"

	"github.com/iamwavecut/cmdbot/internal/pattern"
)

type ArgKind int

const (
	Positional ArgKind = iota
	// Variadic binds every remaining token accepted by the pattern into a []any.
	Variadic
	// Keyword binds key=value tokens into a map[string]any.
	Keyword
)

// Arg is one typed argument slot.
type Arg struct {
	Name       string
	Pattern    pattern.Pattern
	Kind       ArgKind
	Optional   bool
	Default    any
	HasDefault bool
	// Completion returns the hint shown when the argument is prompted for.
	Completion func() string
}

type ArgOption func(*Arg)

func WithDefault(v any) ArgOption {
	return func(a *Arg) {
		a.Default = v
		a.HasDefault = true
		a.Optional = true
	}
}

func WithCompletion(hint func() string) ArgOption {
	return func(a *Arg) { a.Completion = hint }
}

// AsVariadic marks the argument as consuming all remaining matching tokens.
func AsVariadic() ArgOption {
	return func(a *Arg) { a.Kind = Variadic }
}

// AsKeyword marks the argument as collecting key=value tokens.
func AsKeyword() ArgOption {
	return func(a *Arg) { a.Kind = Keyword }
}

// NewArg declares an argument. A trailing "?" in name marks it optional.
func NewArg(name string, p pattern.Pattern, opts ...ArgOption) Arg {
	a := Arg{Name: name, Pattern: p}
	if strings.HasSuffix(name, "?") {
		a.Name = strings.TrimSuffix(name, "?")
		a.Optional = true
	}
	if a.Pattern == nil {
		a.Pattern = pattern.Any
	}
	for _, opt := range opts {
		opt(&a)
	}
	if a.Kind != Positional {
		a.Optional = true
	}
	return a
}

// MultiVar declares a variadic argument.
func MultiVar(name string, p pattern.Pattern, opts ...ArgOption) Arg {
	return NewArg(name, p, append([]ArgOption{AsVariadic()}, opts...)...)
}

// KeywordVar declares a key=value collecting argument.
func KeywordVar(name string, p pattern.Pattern, opts ...ArgOption) Arg {
	return NewArg(name, p, append([]ArgOption{AsKeyword()}, opts...)...)
}

func (a Arg) String() string {
	alias := a.Pattern.Alias()
	switch a.Kind {
	case Variadic:
		return fmt.Sprintf("[%s:%s...]", a.Name, alias)
	case Keyword:
		return fmt.Sprintf("[%s=%s...]", a.Name, alias)
	}
	if a.Optional {
		if a.HasDefault {
			return fmt.Sprintf("[%s:%s=%v]", a.Name, alias, a.Default)
		}
		return fmt.Sprintf("[%s:%s]", a.Name, alias)
	}
	return fmt.Sprintf("<%s:%s>", a.Name, alias)
}

// Args is an ordered argument list.
type Args []Arg

func (as Args) Get(name string) (Arg, bool) {
	for _, a := range as {
		if a.Name == name {
			return a, true
		}
	}
	return Arg{}, false
}

func (as Args) validate(owner string) {
	seen := make(map[string]struct{}, len(as))
	for _, a := range as {
		if a.Name == "" {
			panic(fmt.Sprintf("command %s: empty argument name", owner))
		}
		if _, dup := seen[a.Name]; dup {
			panic(fmt.Sprintf("command %s: argument %s already declared", owner, a.Name))
		}
		seen[a.Name] = struct{}{}
	}
}

func (as Args) String() string {
	parts := make([]string, 0, len(as))
	for _, a := range as {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, " ")
}
