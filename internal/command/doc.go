// Package command describes chat commands and matches messages against them.
//
// A Command is declared once, usually at plugin registration, and is not
// modified afterwards. Parsing a message.Message yields a Result holding the
// header match, bound arguments, options and subcommands. Arguments are bound
// through pattern.Pattern values, so a single argument can accept both rich
// segments and plain text.
package command
