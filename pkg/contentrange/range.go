package contentrange

import "strconv"

// Open marks a range without an upper bound ("to the end of the resource").
const Open int64 = -1

// Range returns the value of a Range request header for the inclusive
// byte range [low, high].
//
// A negative low asks for the last -low bytes of the resource and high is
// ignored. A negative high leaves the range open-ended. Neither bound is
// checked against the resource size; the server reports that through the
// response status.
func Range(low, high int64) string {
	if low < 0 {
		return "bytes=" + strconv.FormatInt(low, 10)
	}
	if high < 0 {
		return "bytes=" + strconv.FormatInt(low, 10) + "-"
	}
	return "bytes=" + strconv.FormatInt(low, 10) + "-" + strconv.FormatInt(high, 10)
}

