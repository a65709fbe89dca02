// Package session maps opaque web session tokens to numeric store identities.
package session

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/google/uuid"
)

const (
	TokenPrefix = "web_"

	// maxID is the largest positive int32; ids are reduced modulo it.
	maxID = 2147483647
)

// NewToken returns a fresh random session token.
func NewToken() string {
	return TokenPrefix + uuid.NewString()
}

// ToUserID hashes the token to an id in [1, 2^31-2]. Distinct tokens may collide; that is accepted.
func ToUserID(token string) int64 {
	sum := sha256.Sum256([]byte(token))
	n := int64(binary.BigEndian.Uint32(sum[:4])) % maxID
	if n == 0 {
		return 1
	}
	return n
}
