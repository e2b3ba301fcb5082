// Package logger configures the process-wide slog logger of the webhook service.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	Level string
	// Console switches to text output for local runs (LOG_FORMAT=console).
	Console bool
	// Service and DispatchMode are stamped on every record.
	Service      string
	DispatchMode string
	// Output defaults to stdout.
	Output io.Writer
}

// Setup installs New(opts) as the slog default.
func Setup(opts Options) {
	slog.SetDefault(New(opts))
}

// New builds a logger that adds the correlation id and any attributes attached
// to the context with With.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     parseLevel(opts.Level),
		AddSource: !opts.Console,
	}

	var handler slog.Handler = slog.NewJSONHandler(out, handlerOpts)
	if opts.Console {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	var base []slog.Attr
	if opts.Service != "" {
		base = append(base, slog.String("service", opts.Service))
	}
	if opts.DispatchMode != "" {
		base = append(base, slog.String("dispatch_mode", opts.DispatchMode))
	}
	if len(base) > 0 {
		handler = handler.WithAttrs(base)
	}

	return slog.New(NewContextHandler(handler))
}

// parseLevel accepts slog level names in any case plus "warning".
// Unknown values fall back to info.
func parseLevel(level string) slog.Level {
	if strings.EqualFold(strings.TrimSpace(level), "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}
