// Package main provides the entry point for the unfolder CLI.
package main

import (
	"fmt"
	"os"

	"github.com/jamesainslie/unfolder/pkg/unfolder/logging"
	"github.com/jamesainslie/unfolder/pkg/unfolder/output"
)

func main() {
	err := Execute()
	_ = logging.Close()
	if err != nil {
		fmt.Fprint(os.Stderr, output.RenderError(err, styledErrors()))
		os.Exit(1)
	}
}
