// Package identity derives stable attention ids.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Length is the number of hex characters in a derived id (128 bits).
const Length = 32

// Derive returns the attention id for a (source type, source id, attention
// type, reason code) tuple. The result depends only on those four values, so
// state recorded against an id is recognised on every later run.
func Derive(sourceType, sourceID, attentionType, reasonCode string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{sourceType, sourceID, attentionType, reasonCode}, ":")))
	return hex.EncodeToString(sum[:])[:Length]
}
