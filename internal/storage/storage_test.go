package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Panahifarah/kalpak/internal/utils"
)

func TestSaveWritesFiles(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "out")
	results := map[string][]byte{
		"http://a.test/d/x.bin": []byte("abc"),
		"http://a.test":         []byte("no path"),
	}
	require.NoError(t, Save(results, dir))

	data, err := os.ReadFile(filepath.Join(dir, "x.bin"))
	require.NoError(t, err)
	require.Equal(t, "abc", string(data))

	data, err = os.ReadFile(filepath.Join(dir, utils.DefaultFileName))
	require.NoError(t, err)
	require.Equal(t, "no path", string(data))
}

func TestSaveDirCollidesWithFile(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(dir, []byte("i am a file"), 0644))

	err := Save(map[string][]byte{"http://a.test/x.bin": []byte("abc")}, dir)
	require.Error(t, err)
}

func TestSaveSkipsUnwritableEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// a directory occupying the target filename makes that write fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, "x.bin"), 0755))

	results := map[string][]byte{
		"http://a.test/x.bin": []byte("blocked"),
		"http://a.test/y.bin": []byte("fine"),
	}
	require.NoError(t, Save(results, dir))

	data, err := os.ReadFile(filepath.Join(dir, "y.bin"))
	require.NoError(t, err)
	require.Equal(t, "fine", string(data))
}

func TestSaveEmptyResults(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Save(map[string][]byte{}, dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
