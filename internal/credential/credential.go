package credential

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Stored credential format shared by owners, centers and employees
const (
	SaltBytes  = 16
	Iterations = 10000
	KeyLength  = 64
)

// Hash derives a fresh salt and the password hash. The salt is the hex encoding of
// SaltBytes random bytes and is used as text by the KDF.
func Hash(password string) (string, []byte, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return "", nil, err
	}
	return salt, Derive(password, salt), nil
}

// GenerateSalt returns SaltBytes random bytes, hex encoded
func GenerateSalt() (string, error) {
	b := make([]byte, SaltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Derive runs PBKDF2-HMAC-SHA512
func Derive(password, salt string) []byte {
	return pbkdf2.Key([]byte(password), []byte(salt), Iterations, KeyLength, sha512.New)
}

// Verify reports whether password derives to hash under salt
func Verify(password, salt string, hash []byte) bool {
	return Equal(Derive(password, salt), hash)
}

// Equal compares in time independent of where a and b differ. Only a length
// mismatch returns early.
func Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}

// dummy material used to spend the same KDF time when no account exists
var (
	dummySalt = "00000000000000000000000000000000"
	dummyHash = make([]byte, KeyLength)
)

// Burn runs one verification against throwaway material
func Burn(password string) {
	_ = Verify(password, dummySalt, dummyHash)
}
