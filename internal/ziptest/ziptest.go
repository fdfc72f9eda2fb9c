// Package ziptest builds small ZIP archives byte by byte for tests,
// including the irregular layouts real producers emit: local-only extra
// fields, data descriptors, compression methods that differ between the
// local and central headers, and archive comments.
package ziptest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/snabb/lszip/pkg/zipfmt"
)

// File describes one archive member.
type File struct {
	Name    string
	Body    []byte
	Method  zipfmt.Method
	Comment string

	// Extra is written to both headers, LocalExtra only to the local one.
	Extra      []byte
	LocalExtra []byte

	Modified time.Time

	// ExternalAttrs is copied to the central header verbatim.
	ExternalAttrs uint32

	// DataDescriptor zeroes the sizes and CRC in the local header and
	// appends them after the data instead.
	DataDescriptor bool

	// CentralMethod, if set, is written to the central header in place of
	// Method.
	CentralMethod *zipfmt.Method
}

// Archive describes a whole archive.
type Archive struct {
	Files   []File
	Comment string

	// Prefix is written before the first local header, like the stub of
	// a self-extracting archive.
	Prefix []byte

	// Entries overrides the entry count declared in the End of Central
	// Directory record when positive.
	Entries int
}

// MethodPtr returns a pointer to m, for File.CentralMethod.
func MethodPtr(m zipfmt.Method) *zipfmt.Method {
	return &m
}

// Compress returns body encoded with method. Unknown methods return body
// unchanged, which is enough to exercise rejection paths.
func Compress(method zipfmt.Method, body []byte) []byte {
	if method != zipfmt.Deflate {
		return body
	}
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		panic(err)
	}
	if _, err := w.Write(body); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Build encodes a.
func Build(a Archive) []byte {
	out := append([]byte(nil), a.Prefix...)
	var central []byte
	for _, f := range a.Files {
		offset := uint32(len(out))
		data := Compress(f.Method, f.Body)
		crc := crc32.ChecksumIEEE(f.Body)
		modified := f.Modified
		if modified.IsZero() {
			modified = time.Date(2020, time.January, 2, 3, 4, 6, 0, time.UTC)
		}
		date, tm := zipfmt.DOSDateTime(modified)

		var flags uint16 = zipfmt.FlagUTF8
		if f.DataDescriptor {
			flags |= zipfmt.FlagDataDescriptor
		}
		localExtra := append(append([]byte(nil), f.Extra...), f.LocalExtra...)
		lfh := &zipfmt.LocalFileHeader{
			VersionNeeded:    20,
			Flags:            flags,
			Method:           f.Method,
			ModifiedTime:     tm,
			ModifiedDate:     date,
			CRC32:            crc,
			CompressedSize:   uint32(len(data)),
			UncompressedSize: uint32(len(f.Body)),
			NameLen:          uint16(len(f.Name)),
			ExtraLen:         uint16(len(localExtra)),
		}
		if f.DataDescriptor {
			lfh.CRC32, lfh.CompressedSize, lfh.UncompressedSize = 0, 0, 0
		}
		out = lfh.Append(out)
		out = append(out, f.Name...)
		out = append(out, localExtra...)
		out = append(out, data...)
		if f.DataDescriptor {
			out = binary.LittleEndian.AppendUint32(out, 0x08074b50)
			out = binary.LittleEndian.AppendUint32(out, crc)
			out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
			out = binary.LittleEndian.AppendUint32(out, uint32(len(f.Body)))
		}

		method := f.Method
		if f.CentralMethod != nil {
			method = *f.CentralMethod
		}
		cdh := &zipfmt.DirectoryHeader{
			VersionMadeBy:     3<<8 | 20,
			VersionNeeded:     20,
			Flags:             flags,
			Method:            method,
			ModifiedTime:      tm,
			ModifiedDate:      date,
			CRC32:             crc,
			CompressedSize:    uint32(len(data)),
			UncompressedSize:  uint32(len(f.Body)),
			NameLen:           uint16(len(f.Name)),
			ExtraLen:          uint16(len(f.Extra)),
			CommentLen:        uint16(len(f.Comment)),
			ExternalAttrs:     f.ExternalAttrs,
			LocalHeaderOffset: offset,
		}
		central = cdh.Append(central)
		central = append(central, f.Name...)
		central = append(central, f.Extra...)
		central = append(central, f.Comment...)
	}

	entries := len(a.Files)
	if a.Entries > 0 {
		entries = a.Entries
	}
	ecd := &zipfmt.EndOfCentralDirectory{
		DiskEntries:     uint16(entries),
		TotalEntries:    uint16(entries),
		DirectorySize:   uint32(len(central)),
		DirectoryOffset: uint32(len(out)),
		CommentLen:      uint16(len(a.Comment)),
	}
	out = append(out, central...)
	out = ecd.Append(out)
	return append(out, a.Comment...)
}
