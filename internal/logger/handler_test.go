package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPrettyHandler(t *testing.T) {
	color.NoColor = true

	t.Run("renders level, message and attributes", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

		log.Info("classification published", "label", "Feature", "confidence", 0.8)

		out := buf.String()
		assert.Contains(t, out, "[INFO]")
		assert.Contains(t, out, "classification published")
		assert.Contains(t, out, "label=Feature")
		assert.Contains(t, out, "confidence=0.8")
	})

	t.Run("filters records below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

		log.Info("hidden")
		log.Debug("hidden too")

		assert.Empty(t, buf.String())
	})

	t.Run("shortens fingerprints and keeps With attributes", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})).
			With("cycle_id", "0123456789abcdef0123")

		log.Warn("duplicate change", "fingerprint", "aaaaaaaaaaaaaaaaaaaaaaaa")

		out := buf.String()
		assert.Contains(t, out, "cycle_id=0123456789ab ")
		assert.Contains(t, out, "fingerprint=aaaaaaaaaaaa\n")
	})

	t.Run("applies group prefix", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(NewPrettyHandler(&buf, nil)).WithGroup("fanout")

		log.Error("port failed", "category", "Refactor")

		assert.Contains(t, buf.String(), "fanout.category=Refactor")
	})
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, false, true)

	ctx := WithLogger(context.Background(), base)
	ctx = With(ctx, "workspace", "demo")

	Info(ctx, "watching")
	Error(ctx, "cycle failed", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "workspace=demo")
	assert.Contains(t, out, "error=boom")
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
