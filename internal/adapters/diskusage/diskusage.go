// Package diskusage implements DiskUsagePort on top of du(1).
package diskusage

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/arumata/linkback/internal/usecase"
)

// DefaultBinary is used when no explicit tool path is configured.
const DefaultBinary = "du"

// Adapter implements DiskUsagePort using du
type Adapter struct {
	logger *slog.Logger
	binary string
}

var _ usecase.DiskUsagePort = (*Adapter)(nil)

// New creates a new disk usage adapter.
func New(logger *slog.Logger, binary string) *Adapter {
	if logger == nil {
		panic("diskusage adapter requires logger")
	}
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	return &Adapter{logger: logger, binary: binary}
}

// Measure runs a single du invocation over all paths so hardlinked files
// are charged only to the first path that reaches them.
func (a *Adapter) Measure(ctx context.Context, paths []string) ([]int64, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	args := append([]string{"-s", "-k", "--"}, paths...)
	a.logger.Debug("running du", "command", shellescape.QuoteCommand(append([]string{a.binary}, args...)))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, a.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("du exited with code %d: %s", exitErr.ExitCode(), msg)
		}
		return nil, fmt.Errorf("run du: %w", err)
	}
	return ParseOutput(stdout.String(), len(paths))
}

// ParseOutput reads "size<TAB>path" lines and returns the sizes in order.
// The number of lines must equal want.
func ParseOutput(output string, want int) ([]int64, error) {
	sizes := make([]int64, 0, want)
	scanner := bufio.NewScanner(strings.NewReader(output))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		field, _, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("du output line %d: missing tab separator", lineNo)
		}
		size, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
		if err != nil || size < 0 {
			return nil, fmt.Errorf("du output line %d: invalid size %q", lineNo, field)
		}
		sizes = append(sizes, size)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read du output: %w", err)
	}
	if len(sizes) != want {
		return nil, fmt.Errorf("du reported %d sizes for %d paths", len(sizes), want)
	}
	return sizes, nil
}
