package users

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarrel/kinotek/internal/auth"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "users.json"), nil)
}

func TestCreate_FirstUserIsAdmin(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Create("Ada", "ada@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, first.Role)

	second, err := store.Create("Bob", "bob@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, second.Role)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Create("Ada", "ada@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = store.Create("Imposter", "ADA@example.com ", "different-pass")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthenticate(t *testing.T) {
	store := newTestStore(t)

	created, err := store.Create("Ada", "ada@example.com", "hunter2hunter2")
	require.NoError(t, err)

	user, err := store.Authenticate("Ada@Example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = store.Authenticate("ada@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = store.Authenticate("nobody@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	store := NewStore(path, nil)

	_, err := store.Create("Ada", "ada@example.com", "hunter2hunter2")
	require.NoError(t, err)

	reopened := NewStore(path, nil)
	_, err = reopened.Authenticate("ada@example.com", "hunter2hunter2")
	assert.NoError(t, err)

	// Hashes are on disk, plaintext is not.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2hunter2")
	assert.Contains(t, string(data), "password_hash")
}

func TestStore_BrokenFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o600))

	store := NewStore(path, nil)
	count, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}
