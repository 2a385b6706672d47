// Package identifier issues the opaque and human-readable identifiers used
// across the gallery API.
package identifier

import (
	"crypto/rand"
	"encoding/hex"
)

// New creates a short entropy-backed identifier with a stable prefix, used
// for session and request scoped values that never appear in URLs.
func New(prefix string) string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	if prefix == "" {
		return hex.EncodeToString(buf)
	}
	return prefix + "_" + hex.EncodeToString(buf)
}
