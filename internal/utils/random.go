package utils // package utils provides small helper functions shared across layers

import (
	"crypto/rand"   // secure random number generation
	"encoding/hex"  // hex encoding for token values
)

// RandomToken returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.  It is used to produce the
// email verification and password reset tokens.  If the random number
// generator fails, an error is returned.
func RandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
