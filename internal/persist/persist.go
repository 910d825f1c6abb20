// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package persist writes brief artifacts under a per-run directory. Each
// ticker's files are written into a staging directory and renamed into
// place in one step, so a reader sees either both files or neither.
package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/research-brief/pkg/types"
)

// Artifact file names.
const (
	JSONFile     = "brief.json"
	MarkdownFile = "brief.md"
)

const runIDLayout = "20060102T150405.000Z"

// RunIDs issues run identifiers derived from the wall clock. Identifiers
// are strictly increasing within a process even when the clock stalls or
// steps backwards.
type RunIDs struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewRunIDs returns a generator using now, or time.Now when nil.
func NewRunIDs(now func() time.Time) *RunIDs {
	if now == nil {
		now = time.Now
	}
	return &RunIDs{now: now}
}

// Next returns a new run identifier.
func (r *RunIDs) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.now().UTC().Truncate(time.Millisecond)
	if !t.After(r.last) {
		t = r.last.Add(time.Millisecond)
	}
	r.last = t
	return t.Format(runIDLayout)
}

// Persister writes artifacts below a runs directory.
type Persister struct {
	root string
}

// New returns a Persister rooted at runsDir.
func New(runsDir string) *Persister {
	return &Persister{root: runsDir}
}

// Dir returns the final directory for ticker in runID. It fails when
// either would place the directory anywhere but directly under the run.
func (p *Persister) Dir(runID, ticker string) (string, error) {
	t, err := types.NormalizeTicker(ticker)
	if err != nil {
		return "", err
	}
	if runID == "" || runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) {
		return "", fmt.Errorf("invalid run id %q", runID)
	}
	final := filepath.Join(p.root, runID, t)
	rel, err := filepath.Rel(p.root, final)
	if err != nil || rel != filepath.Join(runID, t) {
		return "", fmt.Errorf("%s escapes %s", final, p.root)
	}
	return final, nil
}

// Write stores the JSON and Markdown artifacts for ticker in runID and
// returns the final directory. Failures leave no partial output in the
// final location and are reported as ErrPersistence.
func (p *Persister) Write(runID, ticker string, jsonDoc, markdown []byte) (string, error) {
	final, err := p.Dir(runID, ticker)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrPersistence, err)
	}
	runDir := filepath.Dir(final)

	if _, err := os.Stat(final); err == nil {
		return "", fmt.Errorf("%w: %s already exists", types.ErrPersistence, final)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: checking %s: %v", types.ErrPersistence, final, err)
	}

	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating run directory: %v", types.ErrPersistence, err)
	}

	stage := filepath.Join(runDir, fmt.Sprintf(".staging-%s-%s", filepath.Base(final), uuid.NewString()))
	if err := os.Mkdir(stage, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating staging directory: %v", types.ErrPersistence, err)
	}

	if err := writeStaged(stage, jsonDoc, markdown); err != nil {
		os.RemoveAll(stage)
		return "", fmt.Errorf("%w: %v", types.ErrPersistence, err)
	}

	if err := os.Rename(stage, final); err != nil {
		os.RemoveAll(stage)
		return "", fmt.Errorf("%w: moving %s into place: %v", types.ErrPersistence, filepath.Base(final), err)
	}
	return final, nil
}

// writeFile writes one staged artifact. Overridden in tests.
var writeFile = writeSynced

func writeStaged(dir string, jsonDoc, markdown []byte) error {
	if err := writeFile(filepath.Join(dir, JSONFile), jsonDoc); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, MarkdownFile), markdown)
}

// writeSynced writes data and flushes it to disk before closing.
func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	return nil
}
