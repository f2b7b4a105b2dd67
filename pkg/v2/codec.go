// Package cartonv2 implements the manifest-indexed container format. The
// writer appends media blobs, then the project JSON, then a serialized
// manifest, then a fixed footer:
//
//	[ media blob 0 ]...[ media blob N-1 ]
//	[ project JSON bytes  ]
//	[ manifest JSON bytes ]
//	[ u64 manifest_length ] (little-endian)
//	[ V2 magic marker     ]
//
// The reader walks the footer backwards from end-of-file, recovers the
// manifest, and resolves any embedded item to an absolute byte range without
// re-parsing the rest of the file.
package cartonv2

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/playforge/carton/pkg/common"
	"github.com/playforge/carton/pkg/rangeio"
)

// Write appends projectJSON and the given media files to path in one strictly
// append-only pass and returns the manifest describing what was embedded.
// Each blob's address is fixed at write time and never revisited, so an
// interrupted write leaves a file that fails both format checks instead of a
// silently-wrong container.
//
// Media sources that do not exist are skipped: the manifest simply omits the
// entry. Callers that care about the mismatch can diff the returned manifest
// against their request.
func Write(path string, projectJSON string, media []common.MediaSource) (*common.Manifest, error) {
	a, err := rangeio.OpenAppender(path)
	if err != nil {
		return nil, err
	}

	manifest, err := writeBody(a, projectJSON, media)
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := a.Close(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func writeBody(a *rangeio.Appender, projectJSON string, media []common.MediaSource) (*common.Manifest, error) {
	manifest := &common.Manifest{Media: []common.MediaEntry{}}

	for _, src := range media {
		f, err := os.Open(src.SourcePath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		offset := a.Offset()
		copied, err := a.WriteFrom(f)
		f.Close()
		if err != nil {
			return nil, err
		}

		manifest.Media = append(manifest.Media, common.MediaEntry{
			ID:       src.ID,
			Name:     src.Name,
			MimeType: src.MimeType,
			Offset:   offset,
			Size:     uint64(copied),
		})
	}

	manifest.ProjectJSONOffset = a.Offset()
	manifest.ProjectJSONSize = uint64(len(projectJSON))
	if _, err := a.Write([]byte(projectJSON)); err != nil {
		return nil, err
	}

	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		return nil, err
	}
	if _, err := a.Write(manifestBytes); err != nil {
		return nil, err
	}

	footer := binary.LittleEndian.AppendUint64(nil, uint64(len(manifestBytes)))
	footer = append(footer, common.V2MagicBytes...)
	if _, err := a.Write(footer); err != nil {
		return nil, err
	}

	return manifest, nil
}

// ReadManifest verifies the V2 marker at the tail of path and deserializes
// the manifest. Marker mismatch yields common.ErrFormatNotFound; inconsistent
// length arithmetic or unparseable manifest JSON yields
// common.ErrCorruptFormat.
func ReadManifest(path string) (*common.Manifest, error) {
	size, err := rangeio.Size(path)
	if err != nil {
		return nil, err
	}

	markerLen := uint64(len(common.V2MagicBytes))
	if size < markerLen+common.LengthFieldSize {
		return nil, common.ErrFormatNotFound
	}

	marker, err := rangeio.ReadRange(path, size-markerLen, markerLen)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(marker, common.V2MagicBytes) {
		return nil, common.ErrFormatNotFound
	}

	lenBytes, err := rangeio.ReadRange(path, size-markerLen-common.LengthFieldSize, common.LengthFieldSize)
	if err != nil {
		return nil, err
	}
	manifestLen := binary.LittleEndian.Uint64(lenBytes)

	if manifestLen > size || manifestLen+common.LengthFieldSize+markerLen > size {
		return nil, fmt.Errorf("manifest length %d exceeds file size %d: %w", manifestLen, size, common.ErrCorruptFormat)
	}

	manifestBytes, err := rangeio.ReadRange(path, size-markerLen-common.LengthFieldSize-manifestLen, manifestLen)
	if err != nil {
		return nil, err
	}

	manifest := &common.Manifest{}
	if err := json.Unmarshal(manifestBytes, manifest); err != nil {
		return nil, fmt.Errorf("unable to decode manifest: %v: %w", err, common.ErrCorruptFormat)
	}
	return manifest, nil
}

// ReadAsset returns the bytes of the media entry with the given id.
func ReadAsset(path string, manifest *common.Manifest, id string) ([]byte, error) {
	entry := manifest.FindMedia(id)
	if entry == nil {
		return nil, fmt.Errorf("no media entry %q: %w", id, common.ErrAssetNotFound)
	}
	return rangeio.ReadRange(path, entry.Offset, entry.Size)
}

// ReadProjectJSON returns the embedded project JSON as a string. The bytes
// must be valid UTF-8.
func ReadProjectJSON(path string, manifest *common.Manifest) (string, error) {
	data, err := rangeio.ReadRange(path, manifest.ProjectJSONOffset, manifest.ProjectJSONSize)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("project JSON is not valid UTF-8: %w", common.ErrDecode)
	}
	return string(data), nil
}
