/*
Package statefile persists the ledger as a single JSON flat file.

PURPOSE:
  The ledger document lives in one human-readable JSON file next to the
  attendance data. Writes go through a temp file and an atomic rename, so a
  crash mid-save never leaves a half-written ledger behind.

KEY BEHAVIORS:
  - A missing file loads as an empty document, not an error.
  - A corrupt or unreadable file loads as an empty document with a warning;
    the next save overwrites it. History is lost, correctness is not: the
    affected dates re-analyze.
  - Saves are atomic: write tmp, fsync, rename.

SEE ALSO:
  - ledger:       the document shape and the only caller of Save
  - store/memory: the in-process implementation used in tests
*/
package statefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/fhr/attendance-engine/ledger"
)

// Store reads and writes one ledger document at a fixed path.
type Store struct {
	path string
	log  zerolog.Logger
}

func New(path string, log zerolog.Logger) *Store {
	return &Store{
		path: path,
		log:  log.With().Str("component", "statefile").Str("path", path).Logger(),
	}
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Load reads the document. Missing, unreadable and corrupt files all yield
// an empty document; failures are logged so the operator can recover a
// backup.
func (s *Store) Load(ctx context.Context) (*ledger.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return ledger.NewDocument(), nil
	}
	if err != nil {
		// Unreadable is handled like corrupt: the run proceeds from an
		// empty ledger and the affected dates simply re-analyze.
		s.log.Warn().Err(err).Msg("state file is unreadable, starting from an empty ledger")
		return ledger.NewDocument(), nil
	}

	var doc ledger.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn().Err(err).Msg("state file is corrupt, starting from an empty ledger")
		return ledger.NewDocument(), nil
	}
	if doc.Users == nil {
		doc.Users = make(map[string]*ledger.EmployeeState)
	}
	return &doc, nil
}

// Save writes the document atomically: temp file in the same directory,
// fsync, then rename over the target.
func (s *Store) Save(ctx context.Context, doc *ledger.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
