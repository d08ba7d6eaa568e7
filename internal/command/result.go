package command

import (
	"strings"

	"github.com/iamwavecut/cmdbot/internal/message"
)

type OptionResult struct {
	Value any
	Args  map[string]any
}

type SubcommandResult struct {
	Value       any
	Args        map[string]any
	Options     map[string]*OptionResult
	Subcommands map[string]*SubcommandResult
}

func newSubcommandResult() *SubcommandResult {
	return &SubcommandResult{
		Args:        make(map[string]any),
		Options:     make(map[string]*OptionResult),
		Subcommands: make(map[string]*SubcommandResult),
	}
}

// HeaderMatch describes how the first token matched the command header.
type HeaderMatch struct {
	Origin  any
	Result  any
	Matched bool
}

// Result is the outcome of parsing one message against one command.
type Result struct {
	SubcommandResult

	Source  *Command
	Origin  message.Message
	Matched bool
	Header  HeaderMatch
	// Error is set when the header matched but the body did not bind.
	Error error
	// Output holds help text or the command action output.
	Output string
}

// Query resolves a dotted path such as "install.pak", "default.value" or
// "writer.id". A single name also finds arguments of options and subcommands.
func (r *Result) Query(path string) (any, bool) {
	if r == nil || !r.Matched {
		return nil, false
	}
	path = strings.Trim(path, ".")
	if path == "" {
		return nil, false
	}
	if v, ok := r.SubcommandResult.query(strings.Split(path, ".")); ok {
		return v, true
	}
	if !strings.Contains(path, ".") {
		v, ok := r.AllArgs()[path]
		return v, ok
	}
	return nil, false
}

// Find reports whether path resolves.
func (r *Result) Find(path string) bool {
	_, ok := r.Query(path)
	return ok
}

// AllArgs merges the arguments of the command, its options and its
// subcommands. Outer arguments win over nested ones.
func (r *Result) AllArgs() map[string]any {
	out := make(map[string]any)
	if r == nil {
		return out
	}
	r.SubcommandResult.collect(out)
	return out
}

func (s *SubcommandResult) collect(out map[string]any) {
	for k, v := range s.Args {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	for _, o := range s.Options {
		for k, v := range o.Args {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	for _, sub := range s.Subcommands {
		sub.collect(out)
	}
}

func (s *SubcommandResult) query(parts []string) (any, bool) {
	head, rest := parts[0], parts[1:]
	if sub, ok := s.Subcommands[head]; ok {
		if len(rest) == 0 {
			return sub, true
		}
		return sub.query(rest)
	}
	if opt, ok := s.Options[head]; ok {
		if len(rest) == 0 {
			return opt, true
		}
		return opt.query(rest)
	}
	if len(rest) == 0 {
		if v, ok := s.Args[head]; ok {
			return v, true
		}
	}
	switch head {
	case "value":
		if len(rest) == 0 {
			return s.Value, true
		}
	case "args":
		if len(rest) == 0 {
			return s.Args, true
		}
		if len(rest) == 1 {
			v, ok := s.Args[rest[0]]
			return v, ok
		}
	}
	return nil, false
}

func (o *OptionResult) query(parts []string) (any, bool) {
	if len(parts) == 1 {
		if v, ok := o.Args[parts[0]]; ok {
			return v, true
		}
	}
	switch {
	case len(parts) == 1 && parts[0] == "value":
		return o.Value, true
	case len(parts) == 1 && parts[0] == "args":
		return o.Args, true
	case len(parts) == 2 && parts[0] == "args":
		v, ok := o.Args[parts[1]]
		return v, ok
	}
	return nil, false
}

// Query returns the value at path converted to T.
func Query[T any](r *Result, path string) (T, bool) {
	var zero T
	v, ok := r.Query(path)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// QueryOr returns the value at path, or def when it is absent or of another type.
func QueryOr[T any](r *Result, path string, def T) T {
	if v, ok := Query[T](r, path); ok {
		return v
	}
	return def
}
