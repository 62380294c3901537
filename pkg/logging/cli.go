package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const (
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
)

// CLIHandler renders records as a single colored line:
// "[group] message: key=value key=value".
type CLIHandler struct {
	mu     *sync.Mutex
	writer io.Writer
	level  slog.Leveler
	color  bool
	prefix string
	attrs  []string
}

func NewCLIHandler(w io.Writer, level slog.Leveler, color bool) *CLIHandler {
	return &CLIHandler{
		mu:     &sync.Mutex{},
		writer: w,
		level:  level,
		color:  color,
	}
}

func (h *CLIHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *CLIHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	if h.prefix != "" {
		sb.WriteString("[" + h.prefix + "] ")
	}
	sb.WriteString(r.Message)

	attrs := append([]string(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, formatAttr(a))
		return true
	})
	if len(attrs) > 0 {
		sb.WriteString(": ")
		sb.WriteString(strings.Join(attrs, " "))
	}

	msg := sb.String()
	if h.color {
		msg = levelColor(r.Level) + msg + colorReset
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.writer, msg)
	return err
}

func (h *CLIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := h.clone()
	for _, a := range attrs {
		c.attrs = append(c.attrs, formatAttr(a))
	}
	return c
}

func (h *CLIHandler) WithGroup(name string) slog.Handler {
	c := h.clone()
	c.prefix = name
	return c
}

func (h *CLIHandler) clone() *CLIHandler {
	return &CLIHandler{
		mu:     h.mu,
		writer: h.writer,
		level:  h.level,
		color:  h.color,
		prefix: h.prefix,
		attrs:  append([]string(nil), h.attrs...),
	}
}

func formatAttr(a slog.Attr) string {
	return fmt.Sprintf("%s=%v", a.Key, a.Value.Resolve())
}

func levelColor(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return colorRed
	case l >= slog.LevelWarn:
		return colorYellow
	default:
		return colorGreen
	}
}

// NewCLILogger writes to stderr so command output on stdout stays clean.
func NewCLILogger(level string) *slog.Logger {
	return slog.New(NewCLIHandler(os.Stderr, ParseLogLevel(level), true))
}

func SetDefaultCLILogger(level string) {
	slog.SetDefault(NewCLILogger(level))
}

// ParseLogLevel converts a string log level to slog.Level.
// Defaults to slog.LevelInfo for unrecognized strings.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
