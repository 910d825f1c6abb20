// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mode decides, per invocation, whether adapters fetch live data,
// read canned fixtures, or fetch live in probe mode. A Controller is created
// once per run and passed explicitly to every adapter.
package mode

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/research-brief/pkg/types"
)

// Controller carries the selected mode and what each mode needs.
type Controller struct {
	mode        types.Mode
	fixturesDir string
	creds       types.Credentials
}

// New validates the mode selection. Fixture mode requires an existing
// fixtures directory; anything else wrong here is a configuration failure.
func New(m types.Mode, fixturesDir string, creds types.Credentials) (*Controller, error) {
	switch m {
	case types.ModeLive, types.ModeProbe:
	case types.ModeFixture:
		info, err := os.Stat(fixturesDir)
		if err != nil {
			return nil, fmt.Errorf("%w: fixtures directory %s: %v", types.ErrConfiguration, fixturesDir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: fixtures path %s is not a directory", types.ErrConfiguration, fixturesDir)
		}
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", types.ErrConfiguration, m)
	}
	return &Controller{mode: m, fixturesDir: fixturesDir, creds: creds}, nil
}

// Mode returns the selected mode.
func (c *Controller) Mode() types.Mode { return c.mode }

// UseFixtures reports whether adapters read fixtures instead of the network.
func (c *Controller) UseFixtures() bool { return c.mode == types.ModeFixture }

// Generates reports whether the run goes on to assemble and persist briefs.
// Probe runs stop after collection.
func (c *Controller) Generates() bool { return c.mode != types.ModeProbe }

// Credentials returns the resolved credentials.
func (c *Controller) Credentials() types.Credentials { return c.creds }

// Require returns a missing_credential adapter error when value is empty.
// Missing credentials fail only the adapter that needs them.
func (c *Controller) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return types.AdapterErrorf(types.CodeMissingCredential, "%s is not configured", name)
	}
	return nil
}

// FixturePath returns the path of the fixture for (kind, ticker) with ext.
func (c *Controller) FixturePath(kind types.SourceKind, ticker, ext string) string {
	return filepath.Join(c.fixturesDir, fmt.Sprintf("%s_%s.%s", kind, strings.ToUpper(ticker), ext))
}

// Fixture reads the fixture for (kind, ticker). A missing file is a
// missing_fixture adapter error.
func (c *Controller) Fixture(kind types.SourceKind, ticker, ext string) ([]byte, error) {
	path := c.FixturePath(kind, ticker, ext)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, types.AdapterErrorf(types.CodeMissingFixture, "no %s fixture for %s at %s", kind, ticker, path)
	}
	if err != nil {
		return nil, types.AdapterErr(types.CodeMissingFixture, fmt.Errorf("reading fixture %s: %w", path, err))
	}
	return data, nil
}

// FixtureJSON decodes the JSON fixture for (kind, ticker) into v.
func (c *Controller) FixtureJSON(kind types.SourceKind, ticker string, v any) error {
	data, err := c.Fixture(kind, ticker, "json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return types.AdapterErr(types.CodeMalformed, fmt.Errorf("decoding %s fixture for %s: %w", kind, ticker, err))
	}
	return nil
}
