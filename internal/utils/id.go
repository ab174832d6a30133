package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// NewID returns a best-effort unique identifier for connections and requests,
// optionally prefixed ("ws_3f9a...").
func NewID(prefix string) string {
	const size = 8

	buf := make([]byte, size)
	id := ""
	if _, err := rand.Read(buf); err == nil {
		id = hex.EncodeToString(buf)
	} else {
		// Fallback to timestamp if crypto/rand is unavailable.
		id = strconv.FormatInt(time.Now().UnixNano(), 36)
	}

	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
