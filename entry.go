package lszip

import (
	"time"

	"github.com/snabb/lszip/pkg/zipfmt"
)

// Entry is one file or directory listed in the Central Directory.
type Entry struct {
	// Index is the position of the entry in the Central Directory. It is
	// what callers use to select entries for extraction.
	Index int

	Name    string
	Comment string

	// Method is taken from the Central Directory until the entry has been
	// extracted, after which it holds the method from the Local File
	// Header. Some producers only get it right there.
	Method zipfmt.Method

	Flags             uint16
	CRC32             uint32
	CompressedSize    int64
	UncompressedSize  int64
	LocalHeaderOffset int64
	Modified          time.Time
	ExternalAttrs     uint32

	dir       bool
	recordLen int
}

func newEntry(r *zipfmt.DirectoryRecord) Entry {
	h := &r.Header
	return Entry{
		Index:             r.Index,
		Name:              r.Name,
		Comment:           r.Comment,
		Method:            h.Method,
		Flags:             h.Flags,
		CRC32:             h.CRC32,
		CompressedSize:    int64(h.CompressedSize),
		UncompressedSize:  int64(h.UncompressedSize),
		LocalHeaderOffset: int64(h.LocalHeaderOffset),
		Modified:          zipfmt.DOSTime(h.ModifiedDate, h.ModifiedTime),
		ExternalAttrs:     h.ExternalAttrs,
		dir:               r.IsDir(),
		recordLen:         h.RecordLen(),
	}
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.dir }

// RecordLen is the size of the entry's Central Directory record.
func (e Entry) RecordLen() int { return e.recordLen }
