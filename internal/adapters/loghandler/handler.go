// Package loghandler renders slog records as short single-line entries
// for terminals and the daily log file.
package loghandler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

const (
	colorReset   = "\033[0m"
	colorDim     = "\033[2m"
	colorCyan    = "\033[36m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBoldRed = "\033[1;31m"
	colorRed     = "\033[31m"
	colorBlue    = "\033[34m"
)

const (
	// ErrorKey is highlighted when color output is enabled.
	ErrorKey = "error"
	// ComponentKey, when bound with Logger.With outside any group, is
	// rendered as a "[name]" tag after the level instead of key=value.
	ComponentKey = "component"
)

const (
	clockLayout     = "15:04:05"
	datedLayout     = "2006-01-02 15:04:05"
	attrTimeLayout  = "2006-01-02T15:04:05"
	initialBufBytes = 256
)

var levelStyles = []struct {
	min   slog.Level
	label string
	color string
}{
	{slog.LevelError, "ERR", colorBoldRed},
	{slog.LevelWarn, "WRN", colorYellow},
	{slog.LevelInfo, "INF", colorGreen},
}

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, initialBufBytes)
		return &b
	},
}

// Options configures the Handler.
type Options struct {
	Level    slog.Level
	UseColor bool
	// WithDate prefixes each entry with the calendar date. Used for log
	// files, which outlive a single day of terminal output.
	WithDate bool
}

// Handler is a compact, optionally colored slog.Handler for CLI output.
type Handler struct {
	w    io.Writer
	mu   *sync.Mutex
	opts Options

	component string
	// bound holds attrs from WithAttrs, already rendered.
	bound []byte
	// prefix is the dotted group path applied to attr keys.
	prefix string
}

// NewHandler creates a new Handler writing to w.
func NewHandler(w io.Writer, opts *Options) *Handler {
	h := &Handler{w: w, mu: &sync.Mutex{}}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

// Handle formats and writes the log record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	bp := bufPool.Get().(*[]byte)
	buf := (*bp)[:0]
	defer func() {
		*bp = buf
		bufPool.Put(bp)
	}()

	layout := clockLayout
	if h.opts.WithDate {
		layout = datedLayout
	}
	buf = h.colored(buf, colorDim, func(b []byte) []byte { return r.Time.AppendFormat(b, layout) })
	buf = append(buf, ' ')
	label, color := levelStyle(r.Level)
	buf = h.colored(buf, color, func(b []byte) []byte { return append(b, label...) })
	if h.component != "" {
		buf = append(buf, ' ')
		buf = h.colored(buf, colorBlue, func(b []byte) []byte {
			b = append(b, '[')
			b = append(b, h.component...)
			return append(b, ']')
		})
	}
	if r.Message != "" {
		buf = append(buf, ' ')
		buf = append(buf, r.Message...)
	}
	buf = append(buf, h.bound...)
	r.Attrs(func(a slog.Attr) bool {
		buf = h.appendAttr(buf, h.prefix, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.bound = append([]byte(nil), h.bound...)
	for _, a := range attrs {
		if h.prefix == "" && a.Key == ComponentKey {
			h2.component = a.Value.Resolve().String()
			continue
		}
		h2.bound = h.appendAttr(h2.bound, h.prefix, a)
	}
	return &h2
}

// WithGroup returns a new Handler with the given group name appended.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

func levelStyle(level slog.Level) (string, string) {
	for _, s := range levelStyles {
		if level >= s.min {
			return s.label, s.color
		}
	}
	return "DBG", colorCyan
}

// colored wraps the bytes appended by fn in color codes when enabled.
func (h *Handler) colored(buf []byte, color string, fn func([]byte) []byte) []byte {
	if !h.opts.UseColor {
		return fn(buf)
	}
	buf = append(buf, color...)
	buf = fn(buf)
	return append(buf, colorReset...)
}

func (h *Handler) appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	color := colorDim
	if a.Key == ErrorKey {
		color = colorRed
	}
	buf = append(buf, ' ')
	return h.colored(buf, color, func(b []byte) []byte {
		b = append(b, prefix...)
		b = append(b, a.Key...)
		b = append(b, '=')
		return appendValue(b, a.Value)
	})
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		return appendMaybeQuoted(buf, v.String())
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, roundDuration(v.Duration()).String()...)
	case slog.KindTime:
		return v.Time().AppendFormat(buf, attrTimeLayout)
	case slog.KindGroup:
		for i, a := range v.Group() {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = append(buf, a.Key...)
			buf = append(buf, '=')
			buf = appendValue(buf, a.Value.Resolve())
		}
		return buf
	default:
		return appendMaybeQuoted(buf, fmt.Sprint(v.Any()))
	}
}

func appendMaybeQuoted(buf []byte, s string) []byte {
	if needsQuoting(s) {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for i := range len(s) {
		c := s[i]
		if c <= ' ' || c == '"' || c == '\\' || c == '=' {
			return true
		}
	}
	return false
}

// roundDuration trims sub-millisecond noise from elapsed times.
func roundDuration(d time.Duration) time.Duration {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond)
	case d >= time.Millisecond:
		return d.Round(time.Microsecond)
	default:
		return d
	}
}

var _ slog.Handler = (*Handler)(nil)
