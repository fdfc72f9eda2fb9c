package zipfmt

import "encoding/binary"

// EndOfCentralDirectory is the record that terminates every ZIP archive.
type EndOfCentralDirectory struct {
	DiskNumber      uint16
	DirectoryDisk   uint16
	DiskEntries     uint16
	TotalEntries    uint16
	DirectorySize   uint32
	DirectoryOffset uint32
	CommentLen      uint16

	// Comment is only set by FindEndOfCentralDirectory.
	Comment []byte
}

// DecodeEndOfCentralDirectory decodes the fixed 22 byte part of an End of
// Central Directory record at the start of b.
func DecodeEndOfCentralDirectory(b []byte) (*EndOfCentralDirectory, error) {
	if err := checkRecord(b, EndOfCentralDirectoryLen, EndOfCentralDirectorySignature); err != nil {
		return nil, err
	}
	r := readBuf(b[4:EndOfCentralDirectoryLen])
	return &EndOfCentralDirectory{
		DiskNumber:      r.uint16(),
		DirectoryDisk:   r.uint16(),
		DiskEntries:     r.uint16(),
		TotalEntries:    r.uint16(),
		DirectorySize:   r.uint32(),
		DirectoryOffset: r.uint32(),
		CommentLen:      r.uint16(),
	}, nil
}

// Append appends the encoded record to b. The comment is not written.
func (e *EndOfCentralDirectory) Append(b []byte) []byte {
	le := binary.LittleEndian
	b = le.AppendUint32(b, EndOfCentralDirectorySignature)
	b = le.AppendUint16(b, e.DiskNumber)
	b = le.AppendUint16(b, e.DirectoryDisk)
	b = le.AppendUint16(b, e.DiskEntries)
	b = le.AppendUint16(b, e.TotalEntries)
	b = le.AppendUint32(b, e.DirectorySize)
	b = le.AppendUint32(b, e.DirectoryOffset)
	b = le.AppendUint16(b, e.CommentLen)
	return b
}

// DirectoryHeader is the fixed part of a Central Directory record.
type DirectoryHeader struct {
	VersionMadeBy     uint16
	VersionNeeded     uint16
	Flags             uint16
	Method            Method
	ModifiedTime      uint16
	ModifiedDate      uint16
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	NameLen           uint16
	ExtraLen          uint16
	CommentLen        uint16
	DiskStart         uint16
	InternalAttrs     uint16
	ExternalAttrs     uint32
	LocalHeaderOffset uint32
}

// DecodeDirectoryHeader decodes the fixed 46 byte part of a Central
// Directory record at the start of b.
func DecodeDirectoryHeader(b []byte) (*DirectoryHeader, error) {
	if err := checkRecord(b, DirectoryHeaderLen, DirectoryHeaderSignature); err != nil {
		return nil, err
	}
	r := readBuf(b[4:DirectoryHeaderLen])
	return &DirectoryHeader{
		VersionMadeBy:     r.uint16(),
		VersionNeeded:     r.uint16(),
		Flags:             r.uint16(),
		Method:            Method(r.uint16()),
		ModifiedTime:      r.uint16(),
		ModifiedDate:      r.uint16(),
		CRC32:             r.uint32(),
		CompressedSize:    r.uint32(),
		UncompressedSize:  r.uint32(),
		NameLen:           r.uint16(),
		ExtraLen:          r.uint16(),
		CommentLen:        r.uint16(),
		DiskStart:         r.uint16(),
		InternalAttrs:     r.uint16(),
		ExternalAttrs:     r.uint32(),
		LocalHeaderOffset: r.uint32(),
	}, nil
}

// RecordLen is the size of the whole record including the name, extra
// field and comment that follow the fixed header.
func (h *DirectoryHeader) RecordLen() int {
	return DirectoryHeaderLen + int(h.NameLen) + int(h.ExtraLen) + int(h.CommentLen)
}

// Append appends the fixed part of the record to b.
func (h *DirectoryHeader) Append(b []byte) []byte {
	le := binary.LittleEndian
	b = le.AppendUint32(b, DirectoryHeaderSignature)
	b = le.AppendUint16(b, h.VersionMadeBy)
	b = le.AppendUint16(b, h.VersionNeeded)
	b = le.AppendUint16(b, h.Flags)
	b = le.AppendUint16(b, uint16(h.Method))
	b = le.AppendUint16(b, h.ModifiedTime)
	b = le.AppendUint16(b, h.ModifiedDate)
	b = le.AppendUint32(b, h.CRC32)
	b = le.AppendUint32(b, h.CompressedSize)
	b = le.AppendUint32(b, h.UncompressedSize)
	b = le.AppendUint16(b, h.NameLen)
	b = le.AppendUint16(b, h.ExtraLen)
	b = le.AppendUint16(b, h.CommentLen)
	b = le.AppendUint16(b, h.DiskStart)
	b = le.AppendUint16(b, h.InternalAttrs)
	b = le.AppendUint32(b, h.ExternalAttrs)
	b = le.AppendUint32(b, h.LocalHeaderOffset)
	return b
}

// LocalFileHeader precedes every file's data in the archive body. It is
// the authoritative source for where the data starts.
type LocalFileHeader struct {
	VersionNeeded    uint16
	Flags            uint16
	Method           Method
	ModifiedTime     uint16
	ModifiedDate     uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLen          uint16
	ExtraLen         uint16
}

// DecodeLocalFileHeader decodes the fixed 30 byte part of a Local File
// Header at the start of b.
func DecodeLocalFileHeader(b []byte) (*LocalFileHeader, error) {
	if err := checkRecord(b, LocalFileHeaderLen, LocalFileHeaderSignature); err != nil {
		return nil, err
	}
	r := readBuf(b[4:LocalFileHeaderLen])
	return &LocalFileHeader{
		VersionNeeded:    r.uint16(),
		Flags:            r.uint16(),
		Method:           Method(r.uint16()),
		ModifiedTime:     r.uint16(),
		ModifiedDate:     r.uint16(),
		CRC32:            r.uint32(),
		CompressedSize:   r.uint32(),
		UncompressedSize: r.uint32(),
		NameLen:          r.uint16(),
		ExtraLen:         r.uint16(),
	}, nil
}

// DataOffset is the distance from the start of the header to the first
// byte of file data.
func (h *LocalFileHeader) DataOffset() int64 {
	return LocalFileHeaderLen + int64(h.NameLen) + int64(h.ExtraLen)
}

// Append appends the fixed part of the header to b.
func (h *LocalFileHeader) Append(b []byte) []byte {
	le := binary.LittleEndian
	b = le.AppendUint32(b, LocalFileHeaderSignature)
	b = le.AppendUint16(b, h.VersionNeeded)
	b = le.AppendUint16(b, h.Flags)
	b = le.AppendUint16(b, uint16(h.Method))
	b = le.AppendUint16(b, h.ModifiedTime)
	b = le.AppendUint16(b, h.ModifiedDate)
	b = le.AppendUint32(b, h.CRC32)
	b = le.AppendUint32(b, h.CompressedSize)
	b = le.AppendUint32(b, h.UncompressedSize)
	b = le.AppendUint16(b, h.NameLen)
	b = le.AppendUint16(b, h.ExtraLen)
	return b
}
