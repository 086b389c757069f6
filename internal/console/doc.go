// Package console supplies the script sources consumed by the minibash read-eval loop.
//
// A WholeScriptReader hands back an entire file or pipe as one script. An
// InteractivePrompt reads one line per script from the terminal through liner
// and keeps an optional history file.
package console
