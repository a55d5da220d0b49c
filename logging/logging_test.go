package logging

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"DEBUG", zerolog.DebugLevel},
		{" warn ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestSelectWriterAutoFallsBackToJSON(t *testing.T) {
	prev := isTerminalFn
	isTerminalFn = func(int) bool { return false }
	t.Cleanup(func() { isTerminalFn = prev })

	assert.Equal(t, os.Stderr, selectWriter("auto"))
	assert.IsType(t, zerolog.ConsoleWriter{}, selectWriter("console"))
}

func TestWithRequestID(t *testing.T) {
	ctx, id := WithRequestID(context.Background(), "")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, RequestID(ctx))

	ctx, id = WithRequestID(context.Background(), " abc ")
	assert.Equal(t, "abc", id)
	assert.Equal(t, "abc", RequestID(ctx))

	assert.Empty(t, RequestID(context.Background()))
}
