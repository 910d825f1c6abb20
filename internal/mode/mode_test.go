// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-brief/pkg/types"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	tests := []struct {
		name    string
		mode    types.Mode
		dir     string
		wantErr bool
	}{
		{name: "live needs no fixtures", mode: types.ModeLive, dir: filepath.Join(dir, "missing")},
		{name: "probe needs no fixtures", mode: types.ModeProbe, dir: ""},
		{name: "fixture with directory", mode: types.ModeFixture, dir: dir},
		{name: "fixture with missing directory", mode: types.ModeFixture, dir: filepath.Join(dir, "missing"), wantErr: true},
		{name: "fixture path is a file", mode: types.ModeFixture, dir: file, wantErr: true},
		{name: "unknown mode", mode: types.Mode("replay"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.mode, tt.dir, types.Credentials{})
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mode, c.Mode())
		})
	}
}

func TestModeFlags(t *testing.T) {
	live, err := New(types.ModeLive, "", types.Credentials{})
	require.NoError(t, err)
	assert.False(t, live.UseFixtures())
	assert.True(t, live.Generates())

	probe, err := New(types.ModeProbe, "", types.Credentials{})
	require.NoError(t, err)
	assert.False(t, probe.UseFixtures())
	assert.False(t, probe.Generates())

	fixture, err := New(types.ModeFixture, t.TempDir(), types.Credentials{})
	require.NoError(t, err)
	assert.True(t, fixture.UseFixtures())
	assert.True(t, fixture.Generates())
}

func TestFixture(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "price_PLTR.json"), []byte(`{"currency":"USD"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "news_PLTR.json"), []byte(`{not json`), 0o644))

	c, err := New(types.ModeFixture, dir, types.Credentials{})
	require.NoError(t, err)

	var v struct{ Currency string }
	require.NoError(t, c.FixtureJSON(types.KindPrice, "pltr", &v))
	assert.Equal(t, "USD", v.Currency)

	err = c.FixtureJSON(types.KindNews, "PLTR", &v)
	assert.Equal(t, types.CodeMalformed, types.CodeOf(err))

	_, err = c.Fixture(types.KindFiling, "PLTR", "html")
	assert.Equal(t, types.CodeMissingFixture, types.CodeOf(err))
}

func TestRequire(t *testing.T) {
	c, err := New(types.ModeLive, "", types.Credentials{})
	require.NoError(t, err)
	assert.NoError(t, c.Require("SEC_UA", "Jane jane@example.com"))
	assert.Equal(t, types.CodeMissingCredential, types.CodeOf(c.Require("SEC_UA", " ")))
}
