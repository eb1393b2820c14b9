package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and verifies the HS256 bearer tokens.  Tokens carry
// only the user id claim: embedding roles or permissions would bypass the
// cache invalidation contract and serve stale authorization until expiry.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService builds a token service signing with the given secret.
// ttlMin is the access token lifetime in minutes.
func NewTokenService(secret string, ttlMin int) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: time.Duration(ttlMin) * time.Minute}
}

// Sign returns a signed token whose subject is the user id.  Standard exp
// and iat claims are included.
func (s *TokenService) Sign(userID uint64) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"id":  userID,
		"exp": now.Add(s.ttl).Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify parses and validates a token and extracts the user id claim.  Any
// failure (bad signature, wrong algorithm, malformed, expired, missing
// claim) reports ok=false; verification problems are never errors, callers
// degrade to "no identity" and let the guard reject.
func (s *TokenService) Verify(raw string) (userID uint64, ok bool) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject any signing method other than HMAC to close the
		// alg-substitution hole.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return 0, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	// JWT numbers decode as float64.
	id, ok := claims["id"].(float64)
	if !ok || id <= 0 {
		return 0, false
	}
	return uint64(id), true
}
