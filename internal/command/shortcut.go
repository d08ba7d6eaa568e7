package command

import "strings"

// Shortcut rewrites an input starting with its key into a command invocation.
type Shortcut struct {
	// Command is the header literal to substitute. Empty means the command's
	// primary literal.
	Command string
	Args    []string
	// Strict rejects inputs carrying tokens after the key.
	Strict bool
}

func (c *Command) expandShortcut(tokens []any) ([]any, bool) {
	if len(tokens) == 0 {
		return nil, false
	}
	first, ok := tokens[0].(string)
	if !ok {
		return nil, false
	}
	table := c.shortcutTable()
	sc, ok := table[first]
	if !ok {
		for _, h := range c.headers {
			if h != "" && strings.HasPrefix(first, h) {
				if sc, ok = table[first[len(h):]]; ok {
					break
				}
			}
		}
	}
	if !ok || (sc.Strict && len(tokens) > 1) {
		return nil, false
	}

	head := sc.Command
	if head == "" {
		head = c.primaryLiteral()
	}
	out := make([]any, 0, len(tokens)+len(sc.Args))
	out = append(out, head)
	for _, a := range sc.Args {
		out = append(out, a)
	}
	return append(out, tokens[1:]...), true
}

func (c *Command) primaryLiteral() string {
	if len(c.headers) == 0 {
		return c.name
	}
	return c.headers[0] + c.name
}
