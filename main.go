package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/temirov/minibash/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
	fatalExitCodeConstant     = 1
)

// main executes the minibash command-line application and exits with the shell's last exit status.
func main() {
	executionError := cli.Execute()
	if executionError == nil {
		return
	}

	var exitStatusError cli.ExitStatusError
	if errors.As(executionError, &exitStatusError) {
		os.Exit(exitStatusError.Code)
	}

	fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
	os.Exit(fatalExitCodeConstant)
}
