package command

import (
	"fmt"
	"strings"
)

// Help renders the usage text shown for the help option.
func (c *Command) Help() string {
	var b strings.Builder
	header := c.primaryLiteral()
	if c.headerPattern != nil {
		header = "[" + c.headerPattern.Alias() + "]"
	}
	if c.meta.Usage != "" {
		b.WriteString(c.meta.Usage)
	} else {
		b.WriteString(header)
		if len(c.args) > 0 {
			b.WriteString(" " + c.args.String())
		}
	}
	b.WriteString("\n")
	if c.meta.Description != "" {
		b.WriteString(c.meta.Description + "\n")
	}
	if len(c.aliases) > 0 {
		fmt.Fprintf(&b, "aliases: %s\n", strings.Join(c.aliases, ", "))
	}
	writeNodeHelp(&b, c.options, c.subcommands, "")
	if c.meta.Example != "" {
		b.WriteString("example:\n" + c.meta.Example + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeNodeHelp(b *strings.Builder, options []*Option, subs []*Subcommand, indent string) {
	for _, sub := range subs {
		line := indent + "  " + sub.name
		if len(sub.args) > 0 {
			line += " " + sub.args.String()
		}
		if sub.help != "" {
			line += "  " + sub.help
		}
		b.WriteString(line + "\n")
		writeNodeHelp(b, sub.options, sub.subcommands, indent+"  ")
	}
	for _, opt := range options {
		line := indent + "  " + opt.String()
		if opt.help != "" {
			line += "  " + opt.help
		}
		b.WriteString(line + "\n")
	}
}
