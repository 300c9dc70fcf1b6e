package frame

import (
	"errors"
	"strings"
)

const (
	boundaryParam  = "boundary="
	boundaryPrefix = "--"
)

var ErrMissingBoundary = errors.New("content type has no boundary parameter")

// ParseBoundary derives the multipart delimiter from a Content-Type header value such as
// `multipart/x-mixed-replace; boundary=myBoundary`. Quotes are stripped and the token is
// prefixed with "--" unless it already is.
func ParseBoundary(contentType string) ([]byte, error) {
	i := strings.Index(strings.ToLower(contentType), boundaryParam)
	if i < 0 {
		return nil, ErrMissingBoundary
	}
	token := contentType[i+len(boundaryParam):]
	if j := strings.IndexByte(token, ';'); j >= 0 {
		token = token[:j]
	}
	token = strings.TrimSpace(strings.ReplaceAll(token, `"`, ""))
	if token == "" || token == boundaryPrefix {
		return nil, ErrMissingBoundary
	}
	if !strings.HasPrefix(token, boundaryPrefix) {
		token = boundaryPrefix + token
	}
	return []byte(token), nil
}
