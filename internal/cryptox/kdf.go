// Package cryptox implements the client-side cryptography: password-based
// key derivation and AES-CBC encryption of byte buffers and file streams.
//
// The server issues the salt and the initialization vector per account; the
// IV is therefore fixed for the lifetime of an account rather than generated
// per message. That is a property of the wire format this client speaks, not
// a choice made here.
package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// Iterations is the fixed PBKDF2 iteration count. The server derives
	// the same key independently, so this value is part of the protocol
	// and must not change.
	Iterations = 120_000
)

// DeriveKey derives a 256-bit symmetric key from a password and a per-account
// salt using PBKDF2 with HMAC-SHA256. Deterministic: the same inputs always
// produce the same key. Empty passwords are accepted; validation belongs to
// the caller.
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeySize, sha256.New)
}
