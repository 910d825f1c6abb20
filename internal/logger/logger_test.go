// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Out: &buf})

	log.Info().Msg("hidden")
	log.Warn().Str("ticker", "PLTR").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"ticker":"PLTR"`)
	assert.Contains(t, out, `"message":"shown"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}
