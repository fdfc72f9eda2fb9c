package zipfmt

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Host systems recorded in the upper byte of VersionMadeBy whose external
// attributes carry a Unix mode.
const (
	creatorUnix = 3
	creatorOSX  = 19
)

const (
	msdosDir = 0x10
	sIFMT    = 0xf000
	sIFDIR   = 0x4000
)

// DirectoryRecord is one decoded Central Directory record.
type DirectoryRecord struct {
	// Index is the position of the record within the directory.
	Index   int
	Header  DirectoryHeader
	Name    string
	Extra   []byte
	Comment string
}

// IsDir reports whether the record describes a directory: its name ends
// in a slash, or its external attributes carry the MS-DOS directory bit or
// a Unix directory mode. A file with no data is not a directory.
func (r *DirectoryRecord) IsDir() bool {
	if strings.HasSuffix(r.Name, "/") {
		return true
	}
	if r.Header.ExternalAttrs&msdosDir != 0 {
		return true
	}
	switch r.Header.VersionMadeBy >> 8 {
	case creatorUnix, creatorOSX:
		return (r.Header.ExternalAttrs>>16)&sIFMT == sIFDIR
	}
	return false
}

// DecodeCentralDirectory walks buf, which must start at the first Central
// Directory record, and decodes consecutive records until fewer than a
// header's worth of bytes remain, a signature does not match, or a record's
// variable fields would run past the end of buf. It returns the records in
// file order and the number of bytes they occupy.
//
// Running into something that is not a directory record ends the walk
// without an error; the caller compares the count against the End of
// Central Directory record to detect truncation.
func DecodeCentralDirectory(buf []byte) ([]DirectoryRecord, int) {
	var records []DirectoryRecord
	cursor := 0
	for len(buf)-cursor >= DirectoryHeaderLen {
		h, err := DecodeDirectoryHeader(buf[cursor:])
		if err != nil {
			break
		}
		n := h.RecordLen()
		if n > len(buf)-cursor {
			break
		}
		records = append(records, newDirectoryRecord(len(records), h, buf[cursor+DirectoryHeaderLen:cursor+n]))
		cursor += n
	}
	return records, cursor
}

func newDirectoryRecord(index int, h *DirectoryHeader, tail []byte) DirectoryRecord {
	name := tail[:h.NameLen]
	extra := tail[h.NameLen : int(h.NameLen)+int(h.ExtraLen)]
	comment := tail[int(h.NameLen)+int(h.ExtraLen):]
	utf := h.Flags&FlagUTF8 != 0
	return DirectoryRecord{
		Index:   index,
		Header:  *h,
		Name:    DecodeName(name, utf),
		Extra:   append([]byte(nil), extra...),
		Comment: DecodeName(comment, utf),
	}
}

// DecodeName decodes a file name or comment. Without the UTF-8 flag the
// bytes are taken as IBM code page 437 unless they already form valid
// UTF-8, which is what most producers that omit the flag actually write.
func DecodeName(b []byte, utf bool) string {
	if utf || utf8.Valid(b) {
		return string(b)
	}
	s, err := charmap.CodePage437.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}
