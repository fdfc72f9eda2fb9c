package zipfmt

import "bytes"

var ecdSignature = []byte{0x50, 0x4b, 0x05, 0x06}

// FindEndOfCentralDirectory searches window, a complete trailing slice of
// an archive, for the End of Central Directory record. It returns the
// record, its offset within window and whether one was found.
//
// Candidates are tried from the end backwards. A candidate is accepted
// only if its declared comment fills the rest of window exactly, so a
// signature appearing inside a comment is not mistaken for the record.
func FindEndOfCentralDirectory(window []byte) (*EndOfCentralDirectory, int, bool) {
	if len(window) < EndOfCentralDirectoryLen {
		return nil, -1, false
	}
	// The signature of the last possible candidate ends here.
	end := len(window) - EndOfCentralDirectoryLen + len(ecdSignature)
	for {
		s := bytes.LastIndex(window[:end], ecdSignature)
		if s < 0 {
			return nil, -1, false
		}
		ecd, err := DecodeEndOfCentralDirectory(window[s:])
		if err == nil && EndOfCentralDirectoryLen+int(ecd.CommentLen) == len(window)-s {
			ecd.Comment = bytes.Clone(window[s+EndOfCentralDirectoryLen:])
			return ecd, s, true
		}
		end = s + len(ecdSignature) - 1
	}
}
