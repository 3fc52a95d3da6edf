package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess   = 0 // All dispatched scouts completed
	ExitRunFailed = 1 // One or more scout runs ended in error
	ExitError     = 2 // Configuration or runtime error
)

// RunFailureError indicates that dispatch itself worked, but at least one
// scout run ended with an error status.
type RunFailureError struct {
	Message string
}

func (e *RunFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var runErr *RunFailureError
		if errors.As(err, &runErr) {
			os.Exit(ExitRunFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
