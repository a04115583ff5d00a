package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *JSONStore {
	t.Helper()
	dir := t.TempDir()
	return NewJSONStore(filepath.Join(dir, "movies.json"), filepath.Join(dir, "backups"), nil)
}

func TestEnsureExists_CreatesEmptyCatalog(t *testing.T) {
	store := newTestStore(t)
	store.EnsureExists()

	records, err := store.Read()
	require.NoError(t, err)
	assert.Empty(t, records)

	data, err := os.ReadFile(store.path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestEnsureExists_HealsCorruptFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.path), 0o755))
	require.NoError(t, os.WriteFile(store.path, []byte("{not json"), 0o644))

	store.EnsureExists()

	records, err := store.Read()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestEnsureExists_LeavesValidCatalogAlone(t *testing.T) {
	store := newTestStore(t)
	store.EnsureExists()
	require.NoError(t, store.Write([]Record{{ID: 1, Title: "Heat", Category: CategoryMovie}}))

	store.EnsureExists()

	records, err := store.Read()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Heat", records[0].Title)
}

func TestRead_CorruptAfterEnsure(t *testing.T) {
	store := newTestStore(t)
	store.EnsureExists()
	require.NoError(t, os.WriteFile(store.path, []byte("][["), 0o644))

	_, err := store.Read()
	assert.ErrorIs(t, err, ErrStoreCorrupt)
}

func TestWriteRead_RoundTripPreservesOrder(t *testing.T) {
	store := newTestStore(t)
	store.EnsureExists()

	in := []Record{
		{ID: 2, Title: "Alien", Category: CategoryMovie, FilePath: "/uploads/movie/a.mp4", Genres: []string{"Horror"}},
		{ID: 1, Title: "Aliens", Category: CategoryMovie, FilePath: "/uploads/movie/b.mp4", Genres: []string{}},
		{ID: 5, Title: "The Wire", Category: CategoryTVSeries, Genres: []string{"Crime", "Drama"}},
	}
	require.NoError(t, store.Write(in))

	out, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWrite_PrettyPrinted(t *testing.T) {
	store := newTestStore(t)
	store.EnsureExists()
	require.NoError(t, store.Write([]Record{{ID: 1, Title: "Heat", Category: CategoryMovie, Genres: []string{}}}))

	data, err := os.ReadFile(store.path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  ")
}

func TestBackup_CreatesTimestampedSnapshot(t *testing.T) {
	store := newTestStore(t)
	store.EnsureExists()
	require.NoError(t, store.Write([]Record{{ID: 1, Title: "Heat", Category: CategoryMovie, Genres: []string{}}}))

	require.NoError(t, store.Backup())

	entries, err := os.ReadDir(store.backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	name := entries[0].Name()
	assert.True(t, strings.HasPrefix(name, "movies-backup-"), "got %q", name)
	assert.True(t, strings.HasSuffix(name, ".json"), "got %q", name)
	assert.NotContains(t, name, ":")

	// The snapshot is a full copy of the catalog.
	data, err := os.ReadFile(filepath.Join(store.backupDir, name))
	require.NoError(t, err)
	var records []Record
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Heat", records[0].Title)
}

func TestBackup_MissingCatalogFails(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.Backup())
}

func TestPruneBackups_KeepsNewest(t *testing.T) {
	store := newTestStore(t)
	store.EnsureExists()

	require.NoError(t, os.MkdirAll(store.backupDir, 0o755))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 13; i++ {
		ts := base.Add(time.Duration(i) * time.Minute).Format("2006-01-02T15-04-05-000Z")
		name := filepath.Join(store.backupDir, "movies-backup-"+ts+".json")
		require.NoError(t, os.WriteFile(name, []byte("[]"), 0o644))
	}
	// Unrelated files are never pruned.
	keep := filepath.Join(store.backupDir, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))

	store.PruneBackups(10)

	entries, err := os.ReadDir(store.backupDir)
	require.NoError(t, err)

	var backups []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "movies-backup-") {
			backups = append(backups, e.Name())
		}
	}
	assert.Len(t, backups, 10)
	assert.FileExists(t, keep)

	// The three oldest snapshots are the ones gone.
	for _, name := range backups {
		assert.Greater(t, name, "movies-backup-2024-01-01T00-02-05-000Z.json")
	}
}

func TestPruneBackups_MissingDirIsLoggedNotFatal(t *testing.T) {
	store := newTestStore(t)
	assert.NotPanics(t, func() { store.PruneBackups(10) })
}
