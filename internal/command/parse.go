package command

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/iamwavecut/cmdbot/internal/message"
)

// Parse matches msg against the command. A header mismatch returns a result
// with Matched false and Error wrapping ErrHeaderMismatch.
func (c *Command) Parse(msg message.Message) *Result {
	return c.ParseTokens(msg, Tokenize(msg))
}

// ParseTokens matches already tokenized input. origin is kept on the result.
func (c *Command) ParseTokens(origin message.Message, tokens []any) *Result {
	res := &Result{
		SubcommandResult: *newSubcommandResult(),
		Source:           c,
		Origin:           origin,
	}
	if expanded, ok := c.expandShortcut(tokens); ok {
		tokens = expanded
	}
	if len(tokens) == 0 {
		res.Error = ErrHeaderMismatch
		return res
	}

	rest, ok := c.matchHeader(tokens, &res.Header)
	if !ok {
		res.Error = errors.Wrapf(ErrHeaderMismatch, "command %s", c.name)
		return res
	}

	p := &parser{cmd: c, tokens: rest}
	if err := p.parseNode(c.node(), &res.SubcommandResult, ""); err != nil {
		if errors.Is(err, ErrHelpRequested) {
			res.Output = c.Help()
		}
		res.Error = err
		return res
	}
	if p.pos < len(p.tokens) {
		res.Error = &BindError{Path: c.name, Input: p.tokens[p.pos], Err: ErrUnexpectedToken}
		return res
	}

	res.Matched = true
	if c.action != nil {
		res.Output = c.action(res)
	}
	return res
}

func (c *Command) matchHeader(tokens []any, hm *HeaderMatch) ([]any, bool) {
	first := tokens[0]
	hm.Origin = first
	rest := tokens[1:]

	if c.headerPattern != nil {
		if v, err := c.headerPattern.Match(first); err == nil {
			hm.Result, hm.Matched = v, true
			return rest, true
		}
		s, ok := first.(string)
		if !ok || !c.meta.Compact {
			return nil, false
		}
		for i := len(s) - 1; i > 0; i-- {
			if !utf8.RuneStart(s[i]) {
				continue
			}
			if v, err := c.headerPattern.Match(s[:i]); err == nil {
				hm.Result, hm.Matched = v, true
				return pushFront(rest, s[i:]), true
			}
		}
		return nil, false
	}

	s, ok := first.(string)
	if !ok {
		return nil, false
	}
	for _, lit := range c.Literals() {
		if s == lit {
			hm.Result, hm.Matched = lit, true
			return rest, true
		}
	}
	if c.meta.Compact {
		for _, lit := range c.Literals() {
			if lit != "" && strings.HasPrefix(s, lit) {
				hm.Result, hm.Matched = lit, true
				return pushFront(rest, s[len(lit):]), true
			}
		}
	}
	return nil, false
}

func pushFront(tokens []any, tok any) []any {
	out := make([]any, 0, len(tokens)+1)
	return append(append(out, tok), tokens...)
}

type parser struct {
	cmd    *Command
	tokens []any
	pos    int
}

func (p *parser) peek() (any, bool) {
	if p.pos >= len(p.tokens) {
		return nil, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) parseNode(n *Subcommand, res *SubcommandResult, path string) error {
	argIdx := 0
	for {
		tok, ok := p.peek()
		if !ok {
			break
		}
		if p.cmd.isHelp(tok) {
			return ErrHelpRequested
		}
		if s, isStr := tok.(string); isStr {
			if sub := findSub(n, s); sub != nil {
				p.pos++
				sr := newSubcommandResult()
				if err := p.parseNode(sub, sr, join(path, sub.name)); err != nil {
					return err
				}
				sr.Value = true
				res.Subcommands[sub.name] = sr
				continue
			}
			if opt, inline := findOpt(n, s); opt != nil {
				p.pos++
				if inline != "" {
					p.tokens = append(p.tokens[:p.pos], pushFront(p.tokens[p.pos:], inline)...)
				}
				if err := p.parseOption(opt, res, join(path, opt.dest)); err != nil {
					return err
				}
				continue
			}
			if name, value, isKV := strings.Cut(s, "="); isKV && name != "" {
				if bound, err := p.bindKeyword(n, res, path, name, value); bound || err != nil {
					if err != nil {
						return err
					}
					p.pos++
					continue
				}
			}
		}

		for argIdx < len(n.args) {
			if _, done := res.Args[n.args[argIdx].Name]; done {
				argIdx++
				continue
			}
			break
		}
		if argIdx >= len(n.args) {
			if path == "" {
				return &BindError{Path: p.cmd.name, Input: tok, Err: ErrUnexpectedToken}
			}
			break
		}

		arg := n.args[argIdx]
		switch arg.Kind {
		case Variadic:
			res.Args[arg.Name] = p.collectVariadic(n, arg)
			argIdx++
		case Keyword:
			// keyword slots only take key=value tokens
			argIdx++
		default:
			v, err := arg.Pattern.Match(tok)
			if err != nil {
				if arg.Optional {
					if arg.HasDefault {
						res.Args[arg.Name] = arg.Default
					}
					argIdx++
					continue
				}
				return &BindError{Path: join(path, arg.Name), Arg: arg.Name, Input: tok, Err: err}
			}
			res.Args[arg.Name] = v
			p.pos++
			argIdx++
		}
	}
	return fillDefaults(n, res, path)
}

func (p *parser) collectVariadic(n *Subcommand, arg Arg) []any {
	values := []any{}
	for {
		tok, ok := p.peek()
		if !ok || p.cmd.isHelp(tok) {
			break
		}
		if s, isStr := tok.(string); isStr {
			if findSub(n, s) != nil {
				break
			}
			if opt, _ := findOpt(n, s); opt != nil {
				break
			}
			if name, _, isKV := strings.Cut(s, "="); isKV && name != "" {
				if _, declared := n.args.Get(name); declared || hasKeyword(n.args) {
					break
				}
			}
		}
		v, err := arg.Pattern.Match(tok)
		if err != nil {
			break
		}
		values = append(values, v)
		p.pos++
	}
	return values
}

func (p *parser) bindKeyword(n *Subcommand, res *SubcommandResult, path, name, value string) (bool, error) {
	if arg, ok := n.args.Get(name); ok && arg.Kind == Positional {
		v, err := arg.Pattern.Match(value)
		if err != nil {
			return false, &BindError{Path: join(path, name), Arg: name, Input: value, Err: err}
		}
		res.Args[name] = v
		return true, nil
	}
	for _, arg := range n.args {
		if arg.Kind != Keyword {
			continue
		}
		v, err := arg.Pattern.Match(value)
		if err != nil {
			return false, &BindError{Path: join(path, arg.Name), Arg: arg.Name, Input: value, Err: err}
		}
		kw, _ := res.Args[arg.Name].(map[string]any)
		if kw == nil {
			kw = make(map[string]any)
			res.Args[arg.Name] = kw
		}
		kw[name] = v
		return true, nil
	}
	return false, nil
}

func (p *parser) parseOption(opt *Option, res *SubcommandResult, path string) error {
	or := &OptionResult{Args: make(map[string]any)}
	for _, arg := range opt.args {
		tok, ok := p.peek()
		if !ok || p.cmd.isHelp(tok) {
			break
		}
		v, err := arg.Pattern.Match(tok)
		if err != nil {
			if arg.Optional {
				continue
			}
			return &BindError{Path: join(path, arg.Name), Arg: arg.Name, Input: tok, Err: err}
		}
		or.Args[arg.Name] = v
		p.pos++
	}
	if err := fillArgDefaults(opt.args, or.Args, path); err != nil {
		return err
	}
	for k, v := range opt.fixedArgs {
		or.Args[k] = v
	}
	switch {
	case opt.hasStore:
		or.Value = opt.store
	case len(opt.args) == 0:
		or.Value = true
	}
	res.Options[opt.dest] = or
	return nil
}

func fillDefaults(n *Subcommand, res *SubcommandResult, path string) error {
	for _, opt := range n.options {
		if _, ok := res.Options[opt.dest]; ok || !opt.hasDef {
			continue
		}
		res.Options[opt.dest] = &OptionResult{Value: opt.def, Args: make(map[string]any)}
	}
	for _, sub := range n.subcommands {
		if _, ok := res.Subcommands[sub.name]; ok || !sub.hasDef {
			continue
		}
		sr := newSubcommandResult()
		sr.Value = sub.def
		res.Subcommands[sub.name] = sr
	}
	return fillArgDefaults(n.args, res.Args, path)
}

func fillArgDefaults(args Args, bound map[string]any, path string) error {
	for _, arg := range args {
		if _, ok := bound[arg.Name]; ok {
			continue
		}
		switch {
		case arg.HasDefault:
			bound[arg.Name] = arg.Default
		case arg.Kind == Variadic:
			bound[arg.Name] = []any{}
		case arg.Kind == Keyword:
			bound[arg.Name] = map[string]any{}
		case arg.Optional:
		default:
			return &BindError{Path: join(path, arg.Name), Arg: arg.Name, Err: ErrMissingArgument}
		}
	}
	return nil
}

func hasKeyword(args Args) bool {
	for _, a := range args {
		if a.Kind == Keyword {
			return true
		}
	}
	return false
}

func findSub(n *Subcommand, name string) *Subcommand {
	for _, sub := range n.subcommands {
		if sub.name == name {
			return sub
		}
	}
	return nil
}

// findOpt also accepts "--name=value" forms and returns the inline value.
func findOpt(n *Subcommand, token string) (*Option, string) {
	for _, opt := range n.options {
		if opt.has(token) {
			return opt, ""
		}
	}
	if name, value, ok := strings.Cut(token, "="); ok && strings.HasPrefix(name, "-") {
		for _, opt := range n.options {
			if opt.has(name) && len(opt.args) > 0 {
				return opt, value
			}
		}
	}
	return nil, ""
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
