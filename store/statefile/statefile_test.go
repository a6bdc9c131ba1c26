package statefile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fhr/attendance-engine/ledger"
	"github.com/fhr/attendance-engine/store/statefile"
)

func TestLoad_MissingFileYieldsEmptyDocument(t *testing.T) {
	// GIVEN a path that does not exist
	s := statefile.New(filepath.Join(t.TempDir(), "state.json"), zerolog.Nop())

	// WHEN loaded
	doc, err := s.Load(context.Background())

	// THEN an empty document comes back instead of an error
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Empty(t, doc.Users)
}

func TestLoad_CorruptFileYieldsEmptyDocument(t *testing.T) {
	// GIVEN a file with broken JSON
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	s := statefile.New(path, zerolog.Nop())

	// WHEN loaded
	doc, err := s.Load(context.Background())

	// THEN the corruption is swallowed and the ledger starts fresh
	require.NoError(t, err)
	assert.Empty(t, doc.Users)
}

func TestLoad_UnreadableFileYieldsEmptyDocument(t *testing.T) {
	// GIVEN a path occupied by a directory, so the read fails outright
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.Mkdir(path, 0o755))
	s := statefile.New(path, zerolog.Nop())

	// WHEN loaded
	doc, err := s.Load(context.Background())

	// THEN the failure is swallowed and the ledger starts fresh
	require.NoError(t, err)
	assert.Empty(t, doc.Users)
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s := statefile.New(path, zerolog.Nop())
	ctx := context.Background()

	// GIVEN a document with one committed range and quota usage
	doc := ledger.NewDocument()
	doc.Users["alice"] = &ledger.EmployeeState{
		ProcessedRanges: []ledger.ProcessedRange{{
			StartDate:        "2025-07-01",
			EndDate:          "2025-07-07",
			SourceFile:       "250701-250707-alice.txt",
			LastAnalysisTime: "2025-07-08T09:00:00Z",
		}},
		ForgetPunchUsage: map[string]int{"2025-07": 1},
	}

	// WHEN saved and loaded back
	require.NoError(t, s.Save(ctx, doc))
	loaded, err := s.Load(ctx)

	// THEN the persisted shape survives intact
	require.NoError(t, err)
	state := loaded.User("alice")
	require.NotNil(t, state)
	require.Len(t, state.ProcessedRanges, 1)
	assert.Equal(t, "250701-250707-alice.txt", state.ProcessedRanges[0].SourceFile)
	assert.Equal(t, 1, state.Usage("2025-07"))
}

func TestSave_OverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := statefile.New(path, zerolog.Nop())
	ctx := context.Background()

	doc := ledger.NewDocument()
	doc.Users["alice"] = &ledger.EmployeeState{}
	require.NoError(t, s.Save(ctx, doc))
	require.NoError(t, s.Save(ctx, ledger.NewDocument()))

	// THEN the second save fully replaces the first and leaves no temp files
	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Users)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
