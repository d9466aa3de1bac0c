// package crypto generates the random credential material used for
// client ids and client secrets.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
)

// TokenLength is the number of random bytes in a generated token.
const TokenLength = 32

// Token returns a freshly generated random token, 32 bytes of entropy
// encoded as 64 hex characters, enough to make a collision between two
// generated tokens negligible.
// Token panics if the platform's entropy source fails, the same way
// uuid.New does; running out of entropy is not a recoverable condition.
func Token() string {
	buf := make([]byte, TokenLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
