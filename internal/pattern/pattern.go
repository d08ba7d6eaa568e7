package pattern

import (
	"regexp"
	"strings"
)

// Pattern binds a raw input to a typed value.
type Pattern interface {
	Alias() string
	Match(input any) (any, error)
}

// Model selects how a BasePattern turns its input into a value.
type Model int

const (
	// Keep returns the accepted input unchanged.
	Keep Model = iota
	// RegexMatch accepts strings fully matching the expression and returns them.
	RegexMatch
	// RegexConvert passes the submatches of a full match to the converter.
	RegexConvert
	// TypeConvert passes the accepted input to the converter.
	TypeConvert
)

func (m Model) String() string {
	switch m {
	case Keep:
		return "keep"
	case RegexMatch:
		return "regex_match"
	case RegexConvert:
		return "regex_convert"
	case TypeConvert:
		return "type_convert"
	}
	return "unknown"
}

// Converter produces the bound value. For RegexConvert the input is the
// []string of submatches, otherwise the accepted value.
type Converter func(p *BasePattern, input any) (any, error)

type BasePattern struct {
	model      Model
	alias      string
	regex      *regexp.Regexp
	accepts    []Pattern
	converter  Converter
	validators []func(any) bool
}

type Option func(*BasePattern)

func WithAlias(alias string) Option {
	return func(p *BasePattern) { p.alias = alias }
}

// WithAccepts restricts the input shapes; the first accepted pattern's value is converted.
func WithAccepts(accepts ...Pattern) Option {
	return func(p *BasePattern) { p.accepts = append(p.accepts, accepts...) }
}

func WithConverter(c Converter) Option {
	return func(p *BasePattern) { p.converter = c }
}

func WithValidator(v func(any) bool) Option {
	return func(p *BasePattern) { p.validators = append(p.validators, v) }
}

// New builds a pattern without a regular expression.
func New(model Model, opts ...Option) *BasePattern {
	p := &BasePattern{model: model}
	for _, opt := range opts {
		opt(p)
	}
	if p.alias == "" {
		p.alias = model.String()
	}
	return p
}

// Regex builds a regex based pattern. The expression is anchored on both ends.
// String inputs are always accepted; WithAccepts adds more shapes.
func Regex(model Model, expr string, opts ...Option) *BasePattern {
	p := New(model, opts...)
	if !strings.HasPrefix(expr, "^") {
		expr = "^(?:" + expr + ")"
	}
	if !strings.HasSuffix(expr, "$") {
		expr += "$"
	}
	p.regex = regexp.MustCompile(expr)
	if p.alias == model.String() {
		p.alias = expr
	}
	return p
}

func (p *BasePattern) Alias() string {
	return p.alias
}

func (p *BasePattern) Model() Model {
	return p.model
}

// As returns a copy of p with another alias.
func (p *BasePattern) As(alias string) *BasePattern {
	cp := *p
	cp.alias = alias
	return &cp
}

func (p *BasePattern) Match(input any) (any, error) {
	value, err := p.accept(input)
	if err != nil {
		return nil, err
	}

	var out any
	switch p.model {
	case Keep:
		if s, ok := value.(string); ok && p.regex != nil && !p.regex.MatchString(s) {
			return nil, mismatch(p, input, nil)
		}
		out = value
	case RegexMatch, RegexConvert:
		s, ok := value.(string)
		if !ok || p.regex == nil {
			return nil, mismatch(p, input, nil)
		}
		groups := p.regex.FindStringSubmatch(s)
		if groups == nil {
			return nil, mismatch(p, input, nil)
		}
		if p.model == RegexMatch {
			out = groups[0]
			break
		}
		if p.converter == nil {
			out = groups
			break
		}
		if out, err = p.converter(p, groups); err != nil {
			return nil, mismatch(p, input, err)
		}
	case TypeConvert:
		out = value
		if p.converter != nil {
			if out, err = p.converter(p, value); err != nil {
				return nil, mismatch(p, input, err)
			}
		}
	}

	for _, valid := range p.validators {
		if !valid(out) {
			return nil, mismatch(p, input, nil)
		}
	}
	return out, nil
}

func (p *BasePattern) accept(input any) (any, error) {
	if p.regex != nil {
		if s, ok := input.(string); ok {
			return s, nil
		}
	}
	if len(p.accepts) == 0 {
		if p.regex != nil {
			return nil, mismatch(p, input, nil)
		}
		return input, nil
	}
	for _, acc := range p.accepts {
		if v, err := acc.Match(input); err == nil {
			return v, nil
		}
	}
	return nil, mismatch(p, input, nil)
}
