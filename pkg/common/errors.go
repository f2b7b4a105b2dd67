package common

import "errors"

var (
	// ErrFormatNotFound means the trailing magic marker did not match. It is
	// the recoverable signal that drives dispatcher fallback and is never a
	// corruption report.
	ErrFormatNotFound = errors.New("container format not found")

	// ErrCorruptFormat means the marker matched but the length/offset
	// arithmetic is inconsistent or the manifest failed to parse. Fatal:
	// falling back to an older format here could return garbage data.
	ErrCorruptFormat = errors.New("container format corrupt")

	// ErrAssetNotFound means the manifest is valid but the requested id is
	// not in it.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrDecode means bytes were recovered but are not valid text where text
	// was expected.
	ErrDecode = errors.New("text decode failed")

	// ErrNoProjectData is the single terminal dispatcher failure after every
	// format candidate has been exhausted.
	ErrNoProjectData = errors.New("no project data found")
)
