// Package logging configures the process-wide slog logger and carries a
// request-scoped logger through context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"

	"github.com/ppiankov/compliancewatch/internal/model"
)

// Secret marks a value that must never reach log output verbatim.
type Secret string

// freeTextKeys are payload fields that may carry contract text or other
// business-sensitive prose.
var freeTextKeys = []string{"contract_text", "single_source_reason", "text"}

var defaultLogger atomic.Pointer[slog.Logger]

func init() {
	defaultLogger.Store(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// Config selects the handler.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // console, json
	Writer io.Writer
}

// New builds a logger. Output defaults to stderr; stdout is reserved for
// the MCP stdio transport.
func New(cfg Config) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	redact := masq.New(masq.WithType[Secret]())

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "console":
		h = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithColor(isTerminal(w)),
			clog.WithReplaceAttr(redact),
		)
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: redact,
		})
	default:
		return nil, goerr.New("unknown log format", goerr.V("format", cfg.Format))
	}
	return slog.New(h), nil
}

// Configure builds a logger and installs it as the default.
func Configure(cfg Config) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}
	SetDefault(logger)
	return nil
}

// Default returns the process-wide logger.
func Default() *slog.Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger *slog.Logger) {
	defaultLogger.Store(logger)
}

type ctxKey struct{}

// With returns a context carrying logger.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// From returns the logger in ctx, or the default logger.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return Default()
}

// Payload returns a copy of p suitable for logging, with free-text fields
// wrapped as Secret.
func Payload(p model.Payload) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, k := range freeTextKeys {
		if s, ok := out[k].(string); ok {
			out[k] = Secret(s)
		}
	}
	return out
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, goerr.New("unknown log level", goerr.V("level", s))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
