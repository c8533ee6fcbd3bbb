package csvutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeyFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadKeysCSVWithHeader(t *testing.T) {
	path := writeKeyFile(t, "keys.csv", "cep,city\n01310-100,São Paulo\n89010-025,Blumenau\n")

	keys, err := ReadKeys(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"01310-100", "89010-025"}, keys)
}

func TestReadKeysCSVWithoutHeader(t *testing.T) {
	path := writeKeyFile(t, "keys.csv", "11.222.333/0001-81\n06233-030\n")

	keys, err := ReadKeys(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"11.222.333/0001-81", "06233-030"}, keys)
}

func TestReadKeysCSVSkipsBlankFirstColumn(t *testing.T) {
	path := writeKeyFile(t, "keys.csv", "01310-100,first\n,missing key\n89010-025,last\n")

	keys, err := ReadKeys(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"01310-100", "89010-025"}, keys)
}

func TestReadKeysPlainLines(t *testing.T) {
	path := writeKeyFile(t, "keys.txt", "# postal codes to refresh\n01310-100\n\n  89010-025  \n")

	keys, err := ReadKeys(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"01310-100", "89010-025"}, keys)
}

func TestReadKeysEmptyFile(t *testing.T) {
	path := writeKeyFile(t, "keys.txt", "")

	_, err := ReadKeys(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestReadKeysFileNotFound(t *testing.T) {
	_, err := ReadKeys(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open key file")
}
