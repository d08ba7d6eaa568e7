package pattern

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TypePattern accepts values whose dynamic type is T.
type TypePattern[T any] struct {
	alias string
}

func Type[T any](alias string) *TypePattern[T] {
	return &TypePattern[T]{alias: alias}
}

func (p *TypePattern[T]) Alias() string {
	return p.alias
}

func (p *TypePattern[T]) Match(input any) (any, error) {
	v, ok := input.(T)
	if !ok {
		return nil, mismatch(p, input, nil)
	}
	return v, nil
}

type anyPattern struct{}

func (anyPattern) Alias() string                { return "any" }
func (anyPattern) Match(input any) (any, error) { return input, nil }

var (
	// Any binds every input unchanged.
	Any Pattern = anyPattern{}

	// String binds string tokens.
	String Pattern = Type[string]("str")

	// AnyString binds strings unchanged and renders anything else with fmt.
	AnyString Pattern = New(TypeConvert, WithAlias("any_str"), WithConverter(func(_ *BasePattern, x any) (any, error) {
		if s, ok := x.(string); ok {
			return s, nil
		}
		if s, ok := x.(fmt.Stringer); ok {
			return s.String(), nil
		}
		return fmt.Sprint(x), nil
	}))

	// Integer binds Go integers and decimal strings to int.
	Integer Pattern = New(TypeConvert, WithAlias("int"), WithConverter(func(_ *BasePattern, x any) (any, error) {
		return toInt(x)
	}))

	// Float binds numbers and numeric strings to float64.
	Float Pattern = New(TypeConvert, WithAlias("float"), WithConverter(func(_ *BasePattern, x any) (any, error) {
		return toFloat(x)
	}))

	// Bool binds bools and the strings true/false (case insensitive).
	Bool Pattern = New(TypeConvert, WithAlias("bool"), WithConverter(func(_ *BasePattern, x any) (any, error) {
		switch v := x.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(v) {
			case "true":
				return true, nil
			case "false":
				return false, nil
			}
		}
		return nil, fmt.Errorf("not a bool")
	}))

	// URL binds strings that look like a web address and returns them unchanged.
	URL Pattern = Regex(
		RegexMatch,
		`(?:[a-zA-Z][a-zA-Z0-9+.-]*://)?(?:[\w-]+\.)+[\w-]+(?::\d+)?(?:[/?#][\w\-./?%&=~#+:@!$'()*,;]*)?`,
		WithAlias("url"),
	)
)

func toInt(x any) (int, error) {
	switch v := x.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("integer overflow")
		}
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("integer overflow")
		}
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	}
	return 0, fmt.Errorf("not an integer")
}

func toFloat(x any) (float64, error) {
	switch v := x.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	if i, err := toInt(x); err == nil {
		return float64(i), nil
	}
	return 0, fmt.Errorf("not a number")
}

// ChoicePattern accepts one of a fixed set of literal strings.
type ChoicePattern struct {
	values []string
}

func Choice(values ...string) *ChoicePattern {
	return &ChoicePattern{values: append([]string(nil), values...)}
}

func (c *ChoicePattern) Alias() string {
	return strings.Join(c.values, "|")
}

func (c *ChoicePattern) Values() []string {
	return append([]string(nil), c.values...)
}

func (c *ChoicePattern) Match(input any) (any, error) {
	s, ok := input.(string)
	if ok {
		for _, v := range c.values {
			if v == s {
				return s, nil
			}
		}
	}
	return nil, mismatch(c, input, nil)
}

// ByName resolves the type names accepted by the command builder DSL.
func ByName(name string) (Pattern, bool) {
	switch name {
	case "", "str", "string":
		return String, true
	case "int", "integer":
		return Integer, true
	case "float", "number":
		return Float, true
	case "bool":
		return Bool, true
	case "url":
		return URL, true
	case "any":
		return Any, true
	case "any_str":
		return AnyString, true
	}
	return nil, false
}
