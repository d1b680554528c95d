// Package crypto seals history snapshots with a passphrase.
//
// A 32-byte NaCl secretbox key is derived from the passphrase with Argon2id
// and a random per-snapshot salt. The sealed form is:
//
//	[ 16-byte salt ][ 24-byte nonce ][ ciphertext ]
//
// With an empty passphrase callers should not use this package; snapshots
// are then written as plain JSON.
package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
	saltSize  = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// ErrDecrypt is returned when a sealed snapshot cannot be opened, typically
// because the passphrase is wrong.
var ErrDecrypt = errors.New("decryption failed (wrong passphrase?)")

// DeriveKey derives a secretbox key from passphrase and salt.
func DeriveKey(passphrase string, salt []byte) *[keySize]byte {
	var key [keySize]byte
	copy(key[:], argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, keySize))
	return &key
}

// Seal encrypts plaintext under passphrase. Returns salt+nonce+ciphertext.
func Seal(plaintext []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("salt generation: %w", err)
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}
	key := DeriveKey(passphrase, salt)
	out := make([]byte, 0, saltSize+nonceSize+len(plaintext)+secretbox.Overhead)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plaintext, &nonce, key), nil
}

// Open decrypts the output of Seal.
func Open(sealed []byte, passphrase string) ([]byte, error) {
	if len(sealed) < saltSize+nonceSize+secretbox.Overhead {
		return nil, errors.New("ciphertext too short")
	}
	salt := sealed[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[saltSize:saltSize+nonceSize])
	key := DeriveKey(passphrase, salt)
	plain, ok := secretbox.Open(nil, sealed[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return nil, ErrDecrypt
	}
	return plain, nil
}
