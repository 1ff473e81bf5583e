package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/fatih/color"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Options configures Handler.
type Options struct {
	// Level reports the minimum level to log. Defaults to slog.LevelInfo.
	Level slog.Leveler

	TimeFormat string

	// ShortSource prints file:line of the log call.
	ShortSource bool

	// NoColor disables ANSI colors, for non-terminal output.
	NoColor bool
}

var DefaultOptions = &Options{
	Level:       slog.LevelInfo,
	TimeFormat:  time.DateTime,
	ShortSource: true,
}

// Handler is a human readable slog.Handler with colored level badges.
type Handler struct {
	opts   Options
	attrs  []slog.Attr
	groups []string

	mu  *sync.Mutex
	out io.Writer
}

// NewHandler creates a Handler. If opts is nil, DefaultOptions is used.
func NewHandler(out io.Writer, opts *Options) *Handler {
	h := &Handler{out: out, mu: &sync.Mutex{}}
	if opts == nil {
		opts = DefaultOptions
	}
	h.opts = *opts
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	if h.opts.TimeFormat == "" {
		h.opts.TimeFormat = time.DateTime
	}
	return h
}

func (h *Handler) clone() *Handler {
	return &Handler{
		opts:   h.opts,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
		mu:     h.mu,
		out:    h.out,
	}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

// Handle implements slog.Handler.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	paint := func(c *color.Color, s string) string {
		if h.opts.NoColor {
			return s
		}
		return c.Sprint(s)
	}

	var bf bytes.Buffer
	if !r.Time.IsZero() {
		bf.WriteString(paint(color.New(color.Faint), r.Time.Format(h.opts.TimeFormat)))
		bf.WriteByte(' ')
	}

	switch {
	case r.Level >= slog.LevelError:
		bf.WriteString(paint(color.New(color.BgRed, color.FgHiWhite), "ERROR"))
	case r.Level >= slog.LevelWarn:
		bf.WriteString(paint(color.New(color.BgYellow, color.FgHiWhite), "WARN "))
	case r.Level >= slog.LevelInfo:
		bf.WriteString(paint(color.New(color.BgGreen, color.FgHiWhite), "INFO "))
	default:
		bf.WriteString(paint(color.New(color.BgCyan, color.FgHiWhite), "DEBUG"))
	}
	bf.WriteByte(' ')

	if h.opts.ShortSource && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fmt.Fprintf(&bf, "%s:%d ", filepath.Base(f.File), f.Line)
	}

	if id := RequestIDFromContext(ctx); id != "" {
		bf.WriteString(paint(color.New(color.FgMagenta), id))
		bf.WriteByte(' ')
	}

	bf.WriteString("| ")
	bf.WriteString(r.Message)

	write := func(a slog.Attr, prefix string) {
		if a.Equal(slog.Attr{}) {
			return
		}
		key := prefix + a.Key
		kc := color.New(color.FgCyan)
		if a.Key == "err" {
			kc = color.New(color.FgRed)
		}
		bf.WriteByte(' ')
		bf.WriteString(paint(kc, key+"="))
		bf.WriteString(a.Value.Resolve().String())
	}
	for _, a := range h.attrs {
		write(a, "")
	}
	prefix := groupPrefix(h.groups)
	r.Attrs(func(a slog.Attr) bool {
		write(a, prefix)
		return true
	})
	bf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(bf.Bytes())
	return err
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()
	prefix := groupPrefix(h.groups)
	for _, a := range attrs {
		a.Key = prefix + a.Key
		h2.attrs = append(h2.attrs, a)
	}
	return h2
}

func groupPrefix(groups []string) string {
	var p string
	for _, g := range groups {
		p += g + "."
	}
	return p
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

// Err wraps an error as a log attribute.
func Err(err error) slog.Attr {
	return slog.Any("err", err)
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
