// Package zipfmt decodes the fixed-layout records of the ZIP file format
// that are needed to list and extract an archive piecemeal: the End of
// Central Directory record, Central Directory headers and Local File
// Headers.
//
// All functions work on byte slices that were fetched elsewhere; nothing
// here performs I/O. Offsets stored in the records are relative to the
// first byte of the whole archive. Multi-disk archives, ZIP64 and
// encryption are not handled.
package zipfmt

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Record sizes, excluding variable-length trailing fields.
const (
	EndOfCentralDirectoryLen = 22
	DirectoryHeaderLen       = 46
	LocalFileHeaderLen       = 30

	// MaxCommentLen is the largest archive comment the two byte length
	// field of the End of Central Directory record can describe.
	MaxCommentLen = 1<<16 - 1
)

// Record signatures.
const (
	EndOfCentralDirectorySignature = 0x06054b50
	DirectoryHeaderSignature       = 0x02014b50
	LocalFileHeaderSignature       = 0x04034b50
)

// General purpose bit flags.
const (
	FlagEncrypted      = 0x1
	FlagDataDescriptor = 0x8
	FlagUTF8           = 0x800
)

var (
	// ErrShortBuffer is returned when a buffer is smaller than the fixed
	// part of the record being decoded.
	ErrShortBuffer = errors.New("zipfmt: buffer too short for record")

	// ErrSignature is returned when a record does not start with the
	// expected signature.
	ErrSignature = errors.New("zipfmt: bad record signature")
)

// readBuf consumes little-endian integers from the front of a slice.
type readBuf []byte

func (b *readBuf) uint16() uint16 {
	v := binary.LittleEndian.Uint16(*b)
	*b = (*b)[2:]
	return v
}

func (b *readBuf) uint32() uint32 {
	v := binary.LittleEndian.Uint32(*b)
	*b = (*b)[4:]
	return v
}

func checkRecord(b []byte, size int, sig uint32) error {
	if len(b) < size {
		return errors.Wrapf(ErrShortBuffer, "have %d bytes, need %d", len(b), size)
	}
	if got := binary.LittleEndian.Uint32(b); got != sig {
		return errors.Wrapf(ErrSignature, "got %#08x, want %#08x", got, sig)
	}
	return nil
}
