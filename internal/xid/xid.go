// Package xid builds prefixed opaque identifiers for requests and tokens.
package xid

import (
	"strings"

	"github.com/google/uuid"
)

func New(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Valid reports whether id looks like something New produced for prefix.
// Incoming X-Request-ID headers that fail this check are replaced.
func Valid(prefix string, id string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"-")
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}
