package cartonv1

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge/carton/pkg/common"
)

func writeDummyExecutable(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "player")
	content := make([]byte, size)
	for i := range content {
		content[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(path, content, 0755))
	return path
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := writeDummyExecutable(t, 100)
	payload := []byte(`{"v":1,"title":"demo"}`)

	require.NoError(t, Write(path, payload))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	expectedSize := int64(100 + len(payload) + common.LengthFieldSize + len(common.V1MagicBytes))
	assert.Equal(t, expectedSize, fi.Size())
}

func TestWriteEmptyPayload(t *testing.T) {
	path := writeDummyExecutable(t, 10)
	require.NoError(t, Write(path, []byte{}))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteDoesNotTouchExistingBytes(t *testing.T) {
	path := writeDummyExecutable(t, 64)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, Write(path, []byte("payload")))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after[:64])
}

func TestReadNoMarker(t *testing.T) {
	path := writeDummyExecutable(t, 100)

	_, err := Read(path)
	assert.ErrorIs(t, err, common.ErrFormatNotFound)
}

func TestReadFileSmallerThanFooter(t *testing.T) {
	path := writeDummyExecutable(t, 3)

	_, err := Read(path)
	assert.ErrorIs(t, err, common.ErrFormatNotFound)
}

func TestReadOversizedLength(t *testing.T) {
	path := writeDummyExecutable(t, 10)

	// A length field claiming more payload than the file can hold.
	trailer := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00}
	trailer = append(trailer, common.V1MagicBytes...)
	require.NoError(t, os.WriteFile(path, append(make([]byte, 10), trailer...), 0644))

	_, err := Read(path)
	assert.ErrorIs(t, err, common.ErrCorruptFormat)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrFormatNotFound)
}
