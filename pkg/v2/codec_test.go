package cartonv2

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
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
	_, err := rand.Read(content)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, content, 0755))
	return path
}

func writeMediaFiles(t *testing.T, contents map[string][]byte) []common.MediaSource {
	t.Helper()
	dir := t.TempDir()

	var media []common.MediaSource
	for id, content := range contents {
		path := filepath.Join(dir, id+".bin")
		require.NoError(t, os.WriteFile(path, content, 0644))
		media = append(media, common.MediaSource{
			ID:         id,
			Name:       id + ".bin",
			MimeType:   "application/octet-stream",
			SourcePath: path,
		})
	}
	return media
}

func TestRoundTrip(t *testing.T) {
	path := writeDummyExecutable(t, 256)
	projectJSON := `{"title":"my tutorial","steps":[1,2,3]}`

	contents := map[string][]byte{
		"img1":  []byte("first image"),
		"img2":  make([]byte, 4096),
		"video": []byte("video bytes"),
	}
	rand.Read(contents["img2"])
	media := writeMediaFiles(t, contents)

	manifest, err := Write(path, projectJSON, media)
	require.NoError(t, err)
	require.Len(t, manifest.Media, 3)

	readBack, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, manifest, readBack)

	got, err := ReadProjectJSON(path, readBack)
	require.NoError(t, err)
	assert.Equal(t, projectJSON, got)

	for _, src := range media {
		data, err := ReadAsset(path, readBack, src.ID)
		require.NoError(t, err)
		assert.Equal(t, contents[src.ID], data, "content mismatch for %s", src.ID)
	}
}

func TestRoundTripNoMedia(t *testing.T) {
	path := writeDummyExecutable(t, 64)

	manifest, err := Write(path, `{"v":1}`, nil)
	require.NoError(t, err)
	assert.Empty(t, manifest.Media)

	readBack, err := ReadManifest(path)
	require.NoError(t, err)

	got, err := ReadProjectJSON(path, readBack)
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, got)
}

// Scenario from the format definition: a 100-byte dummy executable, project
// JSON {"v":1}, one 3-byte media blob "ABC". Every part of the resulting file
// size is accounted for.
func TestWriteSizeArithmetic(t *testing.T) {
	path := writeDummyExecutable(t, 100)
	projectJSON := `{"v":1}`

	srcPath := filepath.Join(t.TempDir(), "img1.bin")
	require.NoError(t, os.WriteFile(srcPath, []byte("ABC"), 0644))

	manifest, err := Write(path, projectJSON, []common.MediaSource{
		{ID: "img1", Name: "img1.bin", MimeType: "image/png", SourcePath: srcPath},
	})
	require.NoError(t, err)

	manifestBytes, err := json.Marshal(manifest)
	require.NoError(t, err)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	expected := int64(100 + 3 + len(projectJSON) + len(manifestBytes) + common.LengthFieldSize + len(common.V2MagicBytes))
	assert.Equal(t, expected, fi.Size())

	readBack, err := ReadManifest(path)
	require.NoError(t, err)

	data, err := ReadAsset(path, readBack, "img1")
	require.NoError(t, err)
	assert.Equal(t, []byte("ABC"), data)

	got, err := ReadProjectJSON(path, readBack)
	require.NoError(t, err)
	assert.Equal(t, projectJSON, got)

	_, err = ReadAsset(path, readBack, "missing")
	assert.ErrorIs(t, err, common.ErrAssetNotFound)
}

func TestManifestOffsetsAreContiguous(t *testing.T) {
	path := writeDummyExecutable(t, 50)

	dir := t.TempDir()
	var media []common.MediaSource
	for i := 0; i < 4; i++ {
		srcPath := filepath.Join(dir, fmt.Sprintf("m%d.bin", i))
		require.NoError(t, os.WriteFile(srcPath, make([]byte, 10*(i+1)), 0644))
		media = append(media, common.MediaSource{ID: fmt.Sprintf("m%d", i), SourcePath: srcPath})
	}

	manifest, err := Write(path, `{}`, media)
	require.NoError(t, err)
	require.Len(t, manifest.Media, 4)

	assert.Equal(t, uint64(50), manifest.Media[0].Offset)
	for i := 1; i < len(manifest.Media); i++ {
		prev := manifest.Media[i-1]
		assert.Equal(t, prev.Offset+prev.Size, manifest.Media[i].Offset)
	}
	last := manifest.Media[len(manifest.Media)-1]
	assert.Equal(t, last.Offset+last.Size, manifest.ProjectJSONOffset)
}

func TestMissingSourceIsSkipped(t *testing.T) {
	path := writeDummyExecutable(t, 100)

	srcPath := filepath.Join(t.TempDir(), "real.bin")
	require.NoError(t, os.WriteFile(srcPath, []byte("real content"), 0644))

	manifest, err := Write(path, `{"v":1}`, []common.MediaSource{
		{ID: "a", SourcePath: srcPath},
		{ID: "gone", SourcePath: filepath.Join(t.TempDir(), "does-not-exist.bin")},
		{ID: "b", SourcePath: srcPath},
	})
	require.NoError(t, err)

	require.Len(t, manifest.Media, 2)
	assert.Equal(t, "a", manifest.Media[0].ID)
	assert.Equal(t, "b", manifest.Media[1].ID)

	readBack, err := ReadManifest(path)
	require.NoError(t, err)

	for _, id := range []string{"a", "b"} {
		data, err := ReadAsset(path, readBack, id)
		require.NoError(t, err)
		assert.Equal(t, []byte("real content"), data)
	}

	_, err = ReadAsset(path, readBack, "gone")
	assert.ErrorIs(t, err, common.ErrAssetNotFound)
}

func TestReadManifestNoMarker(t *testing.T) {
	path := writeDummyExecutable(t, 200)

	_, err := ReadManifest(path)
	assert.ErrorIs(t, err, common.ErrFormatNotFound)
}

func TestTruncationSafety(t *testing.T) {
	path := writeDummyExecutable(t, 100)

	srcPath := filepath.Join(t.TempDir(), "img.bin")
	require.NoError(t, os.WriteFile(srcPath, []byte("ABC"), 0644))

	_, err := Write(path, `{"v":1}`, []common.MediaSource{{ID: "img", SourcePath: srcPath}})
	require.NoError(t, err)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, fi.Size()-1))

	_, err = ReadManifest(path)
	require.Error(t, err)
	assert.True(t,
		errors.Is(err, common.ErrFormatNotFound) || errors.Is(err, common.ErrCorruptFormat),
		"truncated container must fail format checks, got: %v", err)
}

func TestCorruptManifestJSON(t *testing.T) {
	path := writeDummyExecutable(t, 100)

	// Hand-build a footer whose manifest bytes are not JSON.
	garbage := []byte("not json at all")
	footer := append([]byte{}, garbage...)
	footer = append(footer, byte(len(garbage)), 0, 0, 0, 0, 0, 0, 0)
	footer = append(footer, common.V2MagicBytes...)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.Write(footer)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = ReadManifest(path)
	assert.ErrorIs(t, err, common.ErrCorruptFormat)
}

func TestWriteIsStrictAppend(t *testing.T) {
	path := writeDummyExecutable(t, 128)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = Write(path, `{"v":2}`, nil)
	require.NoError(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after[:128])
}
