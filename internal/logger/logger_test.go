package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, &Options{Level: slog.LevelDebug, NoColor: true}))

	ctx := ContextWithRequestID(context.Background(), "req-1")
	log.With("svc", "api").WithGroup("http").InfoContext(ctx, "served", "status", 200, Err(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "INFO ")
	assert.Contains(t, out, "req-1")
	assert.Contains(t, out, "| served")
	assert.Contains(t, out, " svc=api")
	assert.Contains(t, out, "http.status=200")
	assert.Contains(t, out, "http.err=boom")
	assert.NotContains(t, out, "\x1b[")
}

func TestHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, &Options{Level: slog.LevelWarn, NoColor: true}))

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN ")
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}
