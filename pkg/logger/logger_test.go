package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// ─────────────────────────────────────────────────────────────────────────────
// Niveles y campos fijos
// ─────────────────────────────────────────────────────────────────────────────

func TestParseLevel(t *testing.T) {
	casos := []struct {
		entrada string
		nivel   zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"cualquiera", zerolog.InfoLevel},
	}
	for _, c := range casos {
		assert.Equal(t, c.nivel, parseLevel(c.entrada), "nivel %q", c.entrada)
	}
}

func TestNew_AplicaNivelConfigurado(t *testing.T) {
	l := New(Config{Env: "production", Level: "warn", Service: "farmacore"})
	assert.Equal(t, zerolog.WarnLevel, l.Zerolog().GetLevel())
}
