package hostfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootAbs(t *testing.T) {
	p, err := Root("/host").Abs("/home/alice/../bob")
	require.NoError(t, err)
	assert.Equal(t, "/host/home/bob", p)

	p, err = Root("/").Abs("/etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "/etc/passwd", p)

	p, err = Root("").Abs("/etc/group")
	require.NoError(t, err)
	assert.Equal(t, "/etc/group", p)

	_, err = Root("/host").Abs("etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestEnsureFile_NarrowsModeWithoutTruncating(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.txt")
	require.NoError(t, os.WriteFile(path, []byte("keep\n"), 0644))

	require.NoError(t, EnsureFile(path, 0600))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), st.Mode().Perm())
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep\n", string(b))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir, 0700))
	st, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, st.IsDir())
	assert.Equal(t, os.FileMode(0700), st.Mode().Perm())

	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0600))
	assert.Error(t, EnsureDir(file, 0700))
}

func TestEnsureDir_LeavesExistingModeAlone(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shared")
	require.NoError(t, os.Mkdir(dir, 0755))
	require.NoError(t, os.Chmod(dir, 0755))

	require.NoError(t, EnsureDir(dir, 0700))
	st, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), st.Mode().Perm())
}

func TestAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0666))

	a, err := OpenAppender(path, 0600)
	require.NoError(t, err)
	require.NoError(t, a.Append("one"))
	require.NoError(t, a.Append("two\n"))
	require.NoError(t, a.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\none\ntwo\n", string(b))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), st.Mode().Perm())
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "group")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, WriteFileAtomic(path, []byte("root:x:0:\n"), 0644))
	b, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "root:x:0:\n", string(b))
}
