// Package fetch provides the "fetch document" capability used by the
// pipeline: a polite HTTP fetcher, a directory-backed replay fetcher and a
// redirect resolver for shortened map links.
package fetch

import (
	"context"
	"errors"
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// ErrNotFound is returned when the document does not exist.
var ErrNotFound = errors.New("document not found")

// Fetcher retrieves the raw document stored at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// toUTF8 converts body to UTF-8 using the declared charset, falling back to
// content sniffing for bodies that are not already valid UTF-8.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if cs := strings.ToLower(params["charset"]); cs != "" && cs != "utf-8" && cs != "utf8" {
			if enc, _ := charset.Lookup(cs); enc != nil {
				return enc.NewDecoder().Bytes(body)
			}
		}
	}
	if utf8.Valid(body) {
		return body, nil
	}
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	return enc.NewDecoder().Bytes(body)
}
