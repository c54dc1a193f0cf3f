package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/arumata/linkback/internal/usecase"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected int
	}{
		{"exitSuccess", exitSuccess, 0},
		{"exitCriticalError", exitCriticalError, 1},
		{"exitUnhealthy", exitUnhealthy, 1},
		{"exitLockBusy", exitLockBusy, 76},
		{"exitUsageError", exitUsageError, 2},
		{"exitInterrupted", exitInterrupted, 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.expected {
				t.Errorf("Expected %s to be %d, got %d", tt.name, tt.expected, tt.code)
			}
		})
	}
}

func TestMapExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"usage", fmt.Errorf("bad flag: %w", usecase.ErrUsage), exitUsageError},
		{"lock", fmt.Errorf("held: %w", usecase.ErrLockBusy), exitLockBusy},
		{"interrupted", fmt.Errorf("stop: %w", usecase.ErrInterrupted), exitInterrupted},
		{"canceled", context.Canceled, exitInterrupted},
		{"unhealthy", usecase.ErrUnhealthy, exitUnhealthy},
		{"critical", fmt.Errorf("disk: %w", usecase.ErrCritical), exitCriticalError},
		{"unknown", errors.New("boom"), exitCriticalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapExitCode(tt.err); got != tt.want {
				t.Errorf("mapExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestHandleCmdError(t *testing.T) {
	code := 99
	handleCmdError(&code, nil)
	if code != exitSuccess {
		t.Fatalf("expected success, got %d", code)
	}
	handleCmdError(&code, usecase.ErrLockBusy)
	if code != exitLockBusy {
		t.Fatalf("expected lock busy, got %d", code)
	}
}

func TestMapExitCode_WrappedOrder(t *testing.T) {
	// A usage error wrapped together with a lock error reports the usage code.
	err := errors.Join(fmt.Errorf("a: %w", usecase.ErrLockBusy), fmt.Errorf("b: %w", usecase.ErrUsage))
	if got := mapExitCode(err); got != exitUsageError {
		t.Fatalf("expected usage code first, got %d", got)
	}
}
