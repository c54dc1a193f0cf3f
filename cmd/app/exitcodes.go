package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/arumata/linkback/internal/usecase"
)

// Exit codes. 76 is EX_PROTOCOL from sysexits.h, used by cron wrappers to
// tell "another run is active" apart from failures.
const (
	exitSuccess       = 0
	exitCriticalError = 1
	exitUnhealthy     = 1
	exitUsageError    = 2
	exitLockBusy      = 76
	exitInterrupted   = 130
)

// exitCodes is checked in order; the first matching sentinel wins.
var exitCodes = []struct {
	err  error
	code int
}{
	{usecase.ErrUsage, exitUsageError},
	{usecase.ErrLockBusy, exitLockBusy},
	{usecase.ErrInterrupted, exitInterrupted},
	{context.Canceled, exitInterrupted},
	{usecase.ErrUnhealthy, exitUnhealthy},
}

func mapExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	for _, e := range exitCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return exitCriticalError
}

// handleCmdError prints err to stderr and records its exit code.
// Unhealthy results were already printed by the command itself.
func handleCmdError(exitCode *int, err error) {
	*exitCode = mapExitCode(err)
	if err == nil || errors.Is(err, usecase.ErrUnhealthy) {
		return
	}
	fmt.Fprintln(os.Stderr, "linkback:", err)
}
