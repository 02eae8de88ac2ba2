// Package integrity checks fetched content against declared digests.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rabit-sh/rabit/pkg/types"
)

// Digest returns the lowercase hex SHA-256 of data.
func Digest(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Verify compares data against an expected hex SHA-256 digest. An empty
// expected digest passes: absence of an integrity contract is not a
// failure. The comparison is case-sensitive over lowercase hex.
func Verify(data []byte, expected string) bool {
	if expected == "" {
		return true
	}
	return Digest(data) == expected
}

// VerifyEntry verifies data against an entry's declared digest and
// returns a hash-mismatch error on failure. The mismatch is never
// downgraded or retried here; a fresh fetch is the caller's decision.
func VerifyEntry(data []byte, entry types.Entry) error {
	if Verify(data, entry.SHA256) {
		return nil
	}
	return types.Errorf(types.ErrHashMismatch, entry.URI,
		"sha256 %s does not match declared %s", Digest(data), entry.SHA256)
}
