// Package process streams the output of allow-listed local commands.
//
// Each registered command becomes a Signal of its stdout lines. Arguments are
// passed through the environment so callers cannot inject flags.
package process
