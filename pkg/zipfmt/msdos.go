package zipfmt

import "time"

// DOSTime converts an MS-DOS date and time pair to a time in UTC. The
// format has a two second resolution and no time zone.
func DOSTime(date, tm uint16) time.Time {
	return time.Date(
		int(date>>9)+1980,
		time.Month(date>>5&0xf),
		int(date&0x1f),
		int(tm>>11),
		int(tm>>5&0x3f),
		int(tm&0x1f)*2,
		0,
		time.UTC,
	)
}

// DOSDateTime is the inverse of DOSTime. Times before 1980 are clamped.
func DOSDateTime(t time.Time) (date, tm uint16) {
	if t.Year() < 1980 {
		t = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	date = uint16(t.Day() + int(t.Month())<<5 + (t.Year()-1980)<<9)
	tm = uint16(t.Second()/2 + t.Minute()<<5 + t.Hour()<<11)
	return date, tm
}
