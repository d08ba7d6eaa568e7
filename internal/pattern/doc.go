// Package pattern implements typed argument matchers. A Pattern takes a raw
// input (a string token or a message segment) and either binds it to a value
// or fails with an error wrapping ErrNoMatch.
//
// Union patterns try their alternatives in declaration order; the first
// alternative that structurally matches wins, even when a later one would
// also match.
package pattern
