package lszip

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/snabb/lszip/pkg/zipfmt"
)

var (
	// ErrValidationFailed error is returned if the archive changed under
	// our feet between two requests.
	ErrValidationFailed = errors.New("validation failed")

	// ErrNoRange error is returned if the server does not support range
	// requests and there is no Store defined for buffering the archive.
	ErrNoRange = errors.New("server does not support range requests")

	// ErrArchiveFormat is returned when the archive has no usable End of
	// Central Directory record. Nothing in the archive can be trusted after
	// it.
	ErrArchiveFormat = errors.New("not a valid zip archive")

	// ErrDirectoryExtraction is returned when asked to extract a directory
	// entry.
	ErrDirectoryExtraction = errors.New("extracting directories is not supported")

	// ErrEncrypted is returned when asked to extract an encrypted entry.
	ErrEncrypted = errors.New("encrypted entries are not supported")

	// ErrNoSuchEntry is returned for an entry index outside the listing.
	ErrNoSuchEntry = errors.New("no such entry")
)

// TransportError reports a failed range request: either the request itself
// failed or the server answered with something that cannot be used.
type TransportError struct {
	Range      string
	Status     string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("http request error (%s): %v", e.Range, e.Err)
	}
	return fmt.Sprintf("http request error (%s): %s", e.Range, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CountMismatchError is returned when the Central Directory does not hold
// as many entries as the End of Central Directory record declares.
type CountMismatchError struct {
	Declared int
	Decoded  int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("central directory holds %d entries, end record declares %d",
		e.Decoded, e.Declared)
}

// LocalHeaderError is returned when the Local File Header of an entry
// cannot be decoded.
type LocalHeaderError struct {
	Name   string
	Offset int64
	Err    error
}

func (e *LocalHeaderError) Error() string {
	return fmt.Sprintf("%s: bad local file header at offset %d: %v", e.Name, e.Offset, e.Err)
}

func (e *LocalHeaderError) Unwrap() error { return e.Err }

// UnsupportedCompressionError is returned when an entry uses a compression
// method other than store or deflate.
type UnsupportedCompressionError struct {
	Name   string
	Method zipfmt.Method
}

func (e *UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("%s: unsupported compression %s", e.Name, e.Method)
}

// ChecksumError is returned when extracted data does not match the size or
// CRC-32 recorded in the archive.
type ChecksumError struct {
	Name                string
	WantSize, GotSize   int64
	WantCRC32, GotCRC32 uint32
}

func (e *ChecksumError) Error() string {
	if e.WantSize != e.GotSize {
		return fmt.Sprintf("%s: extracted %d bytes, want %d", e.Name, e.GotSize, e.WantSize)
	}
	return fmt.Sprintf("%s: checksum %08x, want %08x", e.Name, e.GotCRC32, e.WantCRC32)
}
