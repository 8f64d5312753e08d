package main

import (
	"fmt"
	"os"

	"github.com/trustblock/trustblock-cli/cmd/cli"
)

const (
	applicationNameConstant   = "trustblock"
	failureExitCodeConstant   = 1
	exitErrorTemplateConstant = "%s: %v\n"
)

func main() {
	executionError := cli.Execute()
	if executionError == nil {
		return
	}
	fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, applicationNameConstant, executionError)
	os.Exit(failureExitCodeConstant)
}
