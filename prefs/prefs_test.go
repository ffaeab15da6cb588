package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func testStore(t *testing.T, store Store) {
	t.Helper()

	_, ok, err := store.Bool("LauncherIntegration", "signedInStatus")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SetBool("LauncherIntegration", "signedInStatus", true))
	value, ok, err := store.Bool("LauncherIntegration", "signedInStatus")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, value)

	require.NoError(t, store.SetBool("LauncherIntegration", "signedInStatus", false))
	value, ok, err = store.Bool("LauncherIntegration", "signedInStatus")
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, value)

	_, ok, err = store.Bool("Other", "signedInStatus")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	t.Log("read, write and reopen")
	{
		pth := filepath.Join(t.TempDir(), "prefs.json")
		testStore(t, NewFileStore(pth))

		value, ok, err := NewFileStore(pth).Bool("LauncherIntegration", "signedInStatus")
		require.NoError(t, err)
		require.True(t, ok)
		require.False(t, value)
	}

	t.Log("corrupt document")
	{
		pth := filepath.Join(t.TempDir(), "prefs.json")
		require.NoError(t, os.WriteFile(pth, []byte("{"), 0600))

		_, _, err := NewFileStore(pth).Bool("LauncherIntegration", "signedInStatus")
		require.Error(t, err)
		require.Error(t, NewFileStore(pth).SetBool("LauncherIntegration", "signedInStatus", true))
	}
}

func TestSQLiteStore(t *testing.T) {
	testStore(t, setupSQLiteStore(t))
}

func TestSQLiteStoreReopen(t *testing.T) {
	pth := filepath.Join(t.TempDir(), "prefs.db")

	store, err := OpenSQLite(pth)
	require.NoError(t, err)
	require.NoError(t, store.SetBool("LauncherIntegration", "signedInStatus", true))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(pth)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, reopened.Close())
	}()

	value, ok, err := reopened.Bool("LauncherIntegration", "signedInStatus")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, value)
}
