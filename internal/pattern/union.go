package pattern

import (
	"errors"
	"strings"
)

// UnionPattern accepts any of its alternatives, first match wins.
type UnionPattern struct {
	alternatives []Pattern
	alias        string
}

// Union returns a pattern trying alts in the given order.
func Union(alts ...Pattern) *UnionPattern {
	names := make([]string, 0, len(alts))
	for _, alt := range alts {
		names = append(names, alt.Alias())
	}
	return &UnionPattern{
		alternatives: append([]Pattern(nil), alts...),
		alias:        strings.Join(names, "|"),
	}
}

// As names the union, e.g. Union(...).As("img_url").
func (u *UnionPattern) As(alias string) *UnionPattern {
	return &UnionPattern{alternatives: u.alternatives, alias: alias}
}

func (u *UnionPattern) Alias() string {
	return u.alias
}

func (u *UnionPattern) Alternatives() []Pattern {
	return append([]Pattern(nil), u.alternatives...)
}

func (u *UnionPattern) Match(input any) (any, error) {
	var errs []error
	for _, alt := range u.alternatives {
		v, err := alt.Match(input)
		if err == nil {
			return v, nil
		}
		errs = append(errs, err)
	}
	return nil, mismatch(u, input, errors.Join(errs...))
}
