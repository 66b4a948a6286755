package testfs

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTempDir creates a scratch directory and returns it along with a func
// that removes it.
func NewTempDir(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir("", "uttptest_")
	require.NoError(t, err)
	return dir, func() {
		require.NoError(t, os.RemoveAll(dir))
	}
}

// NewTempFile creates a scratch file holding data, positioned at its start.
func NewTempFile(t *testing.T, data []byte) (*os.File, func()) {
	f, err := ioutil.TempFile("", "uttptest_")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	_, err = f.Seek(0, 0)
	require.NoError(t, err)
	return f, func() {
		require.NoError(t, f.Close())
		require.NoError(t, os.Remove(f.Name()))
	}
}
