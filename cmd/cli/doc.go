// Package cli constructs the minibash command-line interface. It wires the
// Cobra root command to the configuration loader and the session logger, picks
// a script source for the invocation, and feeds each script to the
// interpreter until the input is exhausted.
package cli
