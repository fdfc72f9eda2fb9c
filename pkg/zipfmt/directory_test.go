package zipfmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	name, extra, comment string
	flags                uint16
	madeBy               uint16
	attrs                uint32
	size                 uint32
}

func (r testRecord) encode(offset uint32) []byte {
	h := &DirectoryHeader{
		VersionMadeBy:     r.madeBy,
		Flags:             r.flags,
		Method:            Deflate,
		CompressedSize:    r.size,
		UncompressedSize:  r.size * 2,
		NameLen:           uint16(len(r.name)),
		ExtraLen:          uint16(len(r.extra)),
		CommentLen:        uint16(len(r.comment)),
		ExternalAttrs:     r.attrs,
		LocalHeaderOffset: offset,
	}
	b := h.Append(nil)
	b = append(b, r.name...)
	b = append(b, r.extra...)
	return append(b, r.comment...)
}

func TestDecodeCentralDirectory(t *testing.T) {
	in := []testRecord{
		{name: "a.txt", size: 10},
		{name: "dir/", extra: "\x0a\x00\x04\x00abcd"},
		{name: "dir/b.bin", comment: "second file", size: 3},
		{name: "", size: 1},
	}
	var buf []byte
	for i, r := range in {
		buf = append(buf, r.encode(uint32(i*100))...)
	}

	records, n := DecodeCentralDirectory(buf)
	require.Len(t, records, len(in))
	assert.Equal(t, len(buf), n)

	total := 0
	for i, rec := range records {
		assert.Equal(t, i, rec.Index)
		assert.Equal(t, in[i].name, rec.Name)
		assert.Equal(t, in[i].comment, rec.Comment)
		assert.Equal(t, []byte(in[i].extra), rec.Extra)
		assert.EqualValues(t, i*100, rec.Header.LocalHeaderOffset)
		total += rec.Header.RecordLen()
	}
	assert.Equal(t, len(buf), total)
}

func TestDecodeCentralDirectoryStopsAtEndRecord(t *testing.T) {
	buf := testRecord{name: "one"}.encode(0)
	buf = append(buf, testRecord{name: "two"}.encode(10)...)
	cdLen := len(buf)
	buf = append(buf, ecdBytes(2, "comment")...)

	records, n := DecodeCentralDirectory(buf)
	assert.Len(t, records, 2)
	assert.Equal(t, cdLen, n)
}

func TestDecodeCentralDirectoryTruncated(t *testing.T) {
	buf := testRecord{name: "one"}.encode(0)
	second := testRecord{name: "two", comment: "cut short"}.encode(10)
	buf = append(buf, second[:len(second)-3]...)

	records, n := DecodeCentralDirectory(buf)
	require.Len(t, records, 1)
	assert.Equal(t, "one", records[0].Name)
	assert.Equal(t, DirectoryHeaderLen+3, n)
}

func TestDecodeCentralDirectoryEmpty(t *testing.T) {
	records, n := DecodeCentralDirectory(nil)
	assert.Empty(t, records)
	assert.Zero(t, n)

	records, _ = DecodeCentralDirectory(make([]byte, DirectoryHeaderLen-1))
	assert.Empty(t, records)
}

func TestDirectoryRecordIsDir(t *testing.T) {
	tests := []struct {
		name string
		rec  testRecord
		want bool
	}{
		{name: "trailing slash", rec: testRecord{name: "docs/"}, want: true},
		{name: "empty file", rec: testRecord{name: "empty.txt", size: 0}, want: false},
		{name: "msdos attribute", rec: testRecord{name: "folder", attrs: 0x10}, want: true},
		{name: "unix directory mode", rec: testRecord{name: "folder", madeBy: 3 << 8, attrs: 0o40755 << 16}, want: true},
		{name: "unix regular file", rec: testRecord{name: "file", madeBy: 3 << 8, attrs: 0o100644 << 16}, want: false},
		{name: "unix mode ignored for fat", rec: testRecord{name: "file", madeBy: 0, attrs: 0o40755 << 16}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, _ := DecodeCentralDirectory(tt.rec.encode(0))
			require.Len(t, records, 1)
			assert.Equal(t, tt.want, records[0].IsDir())
		})
	}
}

func TestDecodeName(t *testing.T) {
	assert.Equal(t, "héllo.txt", DecodeName([]byte("héllo.txt"), true))
	assert.Equal(t, "plain.txt", DecodeName([]byte("plain.txt"), false))
	// 0x81 is u-umlaut in code page 437 and invalid on its own in UTF-8.
	assert.Equal(t, "ü.txt", DecodeName([]byte{0x81, '.', 't', 'x', 't'}, false))
}

func TestDOSTime(t *testing.T) {
	want := time.Date(2024, time.March, 17, 13, 45, 30, 0, time.UTC)
	date, tm := DOSDateTime(want)
	assert.Equal(t, want, DOSTime(date, tm))

	date, tm = DOSDateTime(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC), DOSTime(date, tm))
}
