package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// GenerateInviteToken returns a 32-byte random token in URL-safe base64
// without padding, so it can be embedded directly in a path segment.
func GenerateInviteToken() string {
	buf := make([]byte, 32)
	_, err := rand.Read(buf)
	if err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// HashInviteToken derives the lookup hash for a token. Only the hash is ever
// persisted; raw tokens are shown once at creation and then discarded.
func HashInviteToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func VerifyInviteToken(token, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashInviteToken(token)), []byte(hash)) == 1
}

// GenerateFileSuffix returns a short random suffix appended to object keys
// to avoid collisions between uploads of the same filename.
func GenerateFileSuffix() string {
	buf := make([]byte, 4)
	_, err := rand.Read(buf)
	if err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
