package frame

import "bytes"

// NotFound is returned by Index when the needle does not occur.
const NotFound = -1

// StartMarker is the two-byte sequence that begins every JPEG image.
const StartMarker = "\xFF\xD8"

// Index returns the lowest offset i at which needle occurs in haystack.
//
// Only offsets i < len(haystack)-len(needle) are checked, so a needle ending on the
// last byte of haystack is never reported. Callers scanning a growing buffer must
// re-scan from len(haystack)-len(needle) once more bytes arrive.
func Index(haystack, needle []byte) int {
	if len(needle) == 0 || len(haystack) <= len(needle) {
		return NotFound
	}
	return bytes.Index(haystack[:len(haystack)-1], needle)
}

// Resume returns the offset from which a scan for a needle of length n must continue
// after a miss over haystack[from:end].
func Resume(from, end, n int) int {
	if next := end - n; next > from {
		return next
	}
	return from
}
