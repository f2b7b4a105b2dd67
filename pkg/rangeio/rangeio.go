// Package rangeio provides the seek/read primitives the container codecs are
// built on. A file is treated as an addressable byte array: reads return
// exactly the requested span or fail, appends land at end-of-file and never
// touch existing bytes.
package rangeio

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Size returns the current size of the file at path.
func Size(path string) (uint64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return uint64(fi.Size()), nil
}

// ReadRange opens the file read-only and returns exactly length bytes
// starting at offset. It fails if the span extends past end-of-file; it never
// returns a short read.
func ReadRange(path string, offset uint64, length uint64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := uint64(fi.Size())
	if offset > size || length > size-offset {
		return nil, fmt.Errorf("range %d+%d exceeds file size %d: %w", offset, length, fi.Size(), io.ErrUnexpectedEOF)
	}

	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("unable to read range %d+%d: %w", offset, length, err)
	}
	return buf, nil
}

// Append opens the file in append-only mode (creating it if absent) and
// writes data at end-of-file in a single call.
func Append(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Appender is a buffered append-only handle used for the one-pass container
// write. It tracks the absolute offset of the next byte so the writer can
// record each blob's address as it goes.
type Appender struct {
	f      *os.File
	w      *bufio.Writer
	offset uint64
}

func OpenAppender(path string) (*Appender, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Appender{
		f:      f,
		w:      bufio.NewWriterSize(f, 512*1024),
		offset: uint64(fi.Size()),
	}, nil
}

// Offset returns the absolute file offset the next write will land at.
func (a *Appender) Offset() uint64 {
	return a.offset
}

func (a *Appender) Write(p []byte) (int, error) {
	n, err := a.w.Write(p)
	a.offset += uint64(n)
	return n, err
}

// WriteFrom streams r to the end of the file and returns the number of bytes
// copied.
func (a *Appender) WriteFrom(r io.Reader) (int64, error) {
	n, err := io.Copy(a.w, r)
	a.offset += uint64(n)
	return n, err
}

// Close flushes buffered data and closes the file. A flush or close failure
// is reported so a partial trailer is never silently taken as complete.
func (a *Appender) Close() error {
	flushErr := a.w.Flush()
	closeErr := a.f.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
