package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/strands/strands/internal/errs"
)

// Exit codes per spec.md section 6: 0 success, 1 configuration error,
// 2 runtime error, 3 upstream unavailable.
const (
	exitOK                  = 0
	exitConfigError         = 1
	exitRuntimeError        = 2
	exitUpstreamUnavailable = 3
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	var configErr *configError
	if errors.As(err, &configErr) {
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}
	switch errs.ClassOf(err) {
	case errs.UpstreamUnavailable, errs.CircuitOpen, errs.NoProviderAvailable:
		fmt.Fprintln(os.Stderr, err)
		return exitUpstreamUnavailable
	default:
		fmt.Fprintln(os.Stderr, err)
		return exitRuntimeError
	}
}

// configError marks an error as a startup configuration failure
// (exit code 1), distinguishing it from a runtime failure encountered
// once the controller is already serving.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func wrapConfigError(err error) error {
	if err == nil {
		return nil
	}
	return &configError{err: err}
}
