package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_EphemeralMode(t *testing.T) {
	mgr := NewManager(t.TempDir())
	require.NoError(t, mgr.Create())

	ws := mgr.GetPath()
	require.NotEmpty(t, ws)
	assert.True(t, strings.HasPrefix(filepath.Base(ws), "blogbuilder-"), ws)
	assert.DirExists(t, ws)

	sub, err := mgr.CreateSubdir("site")
	require.NoError(t, err)
	assert.DirExists(t, sub)

	require.NoError(t, mgr.Cleanup())
	assert.NoDirExists(t, ws)
	assert.Empty(t, mgr.GetPath())
}

func TestManager_TwoEphemeralWorkspacesDiffer(t *testing.T) {
	base := t.TempDir()
	a, b := NewManager(base), NewManager(base)
	require.NoError(t, a.Create())
	require.NoError(t, b.Create())
	assert.NotEqual(t, a.GetPath(), b.GetPath())
}

func TestManager_PersistentMode(t *testing.T) {
	base := t.TempDir()
	mgr := NewPersistentManager(base, "pages")
	require.NoError(t, mgr.Create())
	assert.Equal(t, filepath.Join(base, "pages"), mgr.GetPath())
	assert.True(t, mgr.Persistent())

	require.NoError(t, os.WriteFile(filepath.Join(mgr.GetPath(), "keep"), []byte("x"), 0o600))
	require.NoError(t, mgr.Cleanup())
	assert.FileExists(t, filepath.Join(base, "pages", "keep"))
}

func TestManager_CreateSubdirBeforeCreate(t *testing.T) {
	_, err := NewManager(t.TempDir()).CreateSubdir("x")
	require.Error(t, err)
}
