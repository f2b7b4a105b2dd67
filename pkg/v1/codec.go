// Package cartonv1 implements the legacy single-blob trailer format, kept for
// backward read compatibility. The trailer is anchored at end-of-file:
//
//	[ payload bytes      ]
//	[ u64 payload_length ] (little-endian)
//	[ V1 magic marker    ]
//
// There is no leading signature -- appending the trailer must not disturb any
// byte of the host executable.
package cartonv1

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/playforge/carton/pkg/common"
	"github.com/playforge/carton/pkg/rangeio"
)

// Write appends payload, its length, and the V1 marker to the file at path.
// Strict append: existing bytes are never touched.
func Write(path string, payload []byte) error {
	trailer := make([]byte, 0, len(payload)+common.LengthFieldSize+len(common.V1MagicBytes))
	trailer = append(trailer, payload...)
	trailer = binary.LittleEndian.AppendUint64(trailer, uint64(len(payload)))
	trailer = append(trailer, common.V1MagicBytes...)
	return rangeio.Append(path, trailer)
}

// Read recovers the payload from a V1 container. It returns
// common.ErrFormatNotFound when the trailing marker does not match (the
// expected signal for dispatcher fallback) and common.ErrCorruptFormat when
// the marker matches but the recorded length cannot fit in the file.
func Read(path string) ([]byte, error) {
	size, err := rangeio.Size(path)
	if err != nil {
		return nil, err
	}

	markerLen := uint64(len(common.V1MagicBytes))
	if size < markerLen+common.LengthFieldSize {
		return nil, common.ErrFormatNotFound
	}

	marker, err := rangeio.ReadRange(path, size-markerLen, markerLen)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(marker, common.V1MagicBytes) {
		return nil, common.ErrFormatNotFound
	}

	lenBytes, err := rangeio.ReadRange(path, size-markerLen-common.LengthFieldSize, common.LengthFieldSize)
	if err != nil {
		return nil, err
	}
	payloadLen := binary.LittleEndian.Uint64(lenBytes)

	if payloadLen > size || payloadLen+common.LengthFieldSize+markerLen > size {
		return nil, fmt.Errorf("payload length %d exceeds file size %d: %w", payloadLen, size, common.ErrCorruptFormat)
	}

	return rangeio.ReadRange(path, size-markerLen-common.LengthFieldSize-payloadLen, payloadLen)
}
