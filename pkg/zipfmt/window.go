package zipfmt

// LiesWithinFetchedWindow reports whether the archive offset off falls
// inside the trailing windowSize bytes of an archive of archiveSize bytes.
// The caller guarantees windowSize <= archiveSize.
func LiesWithinFetchedWindow(off, windowSize, archiveSize int64) bool {
	return off >= archiveSize-windowSize
}

// LocalIndex converts the archive offset off into an index into the
// trailing window. It is only meaningful when LiesWithinFetchedWindow
// holds.
func LocalIndex(off, windowSize, archiveSize int64) int64 {
	return off - (archiveSize - windowSize)
}
