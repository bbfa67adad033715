/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package crypt provides the symmetric encryption and key derivation used to
// protect notebooks, notes and sessions
package crypt

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the size of every symmetric key in bytes
	KeySize = chacha20poly1305.KeySize
	// SaltSize is the size of the key derivation salt in bytes
	SaltSize = 16

	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

var (
	// ErrInvalidKey is an error for a key of the wrong size
	ErrInvalidKey = errors.New("invalid key size")
	// ErrMalformed is an error for a sealed payload that is too short to be valid
	ErrMalformed = errors.New("malformed ciphertext")
)

// Keys holds the keys derived from a password
type Keys struct {
	// AuthKey proves the knowledge of the password to the server
	AuthKey []byte
	// EncryptionKey seals the account data and never leaves the client
	EncryptionKey []byte
}

// RandomBytes returns n cryptographically random bytes
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, errors.Wrap(err, "reading random bytes")
	}

	return b, nil
}

// RandomKey returns a fresh random symmetric key
func RandomKey() ([]byte, error) {
	return RandomBytes(KeySize)
}

// DeriveKeys derives the authentication and encryption keys for the user from
// the password using Argon2id. Both keys use distinct contexts so that one
// cannot be computed from the other.
func DeriveKeys(username, password string, salt []byte) (Keys, error) {
	if password == "" {
		return Keys{}, errors.New("empty password")
	}
	if len(salt) != SaltSize {
		return Keys{}, errors.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}

	base := username + ":" + password
	authKey := argon2.IDKey([]byte(base+":auth"), salt, argon2Time, argon2Memory, argon2Threads, KeySize)
	encKey := argon2.IDKey([]byte(base+":encrypt"), salt, argon2Time, argon2Memory, argon2Threads, KeySize)

	return Keys{
		AuthKey:       authKey,
		EncryptionKey: encKey,
	}, nil
}

// HashAuthKey returns the hex encoded digest of the auth key as stored by the server
func HashAuthKey(authKey []byte) string {
	sum := sha256.Sum256(authKey)
	return hex.EncodeToString(sum[:])
}

// VerifyAuthKey checks the auth key against the stored digest in constant time
func VerifyAuthKey(authKey []byte, digest string) bool {
	got := HashAuthKey(authKey)
	return subtle.ConstantTimeCompare([]byte(got), []byte(digest)) == 1
}

// Seal encrypts the plaintext with XChaCha20-Poly1305. The output is the
// random nonce followed by the ciphertext and tag.
func Seal(key, plaintext []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, errors.Wrapf(ErrInvalidKey, "got %d bytes", len(key))
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errors.Wrap(err, "initializing cipher")
	}

	nonce, err := RandomBytes(aead.NonceSize())
	if err != nil {
		return nil, errors.Wrap(err, "generating nonce")
	}

	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)

	return aead.Seal(out, nonce, plaintext, nil), nil
}

// Open decrypts and authenticates a payload produced by Seal
func Open(key, sealed []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, errors.Wrapf(ErrInvalidKey, "got %d bytes", len(key))
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errors.Wrap(err, "initializing cipher")
	}

	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrMalformed
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.Wrap(err, "decrypting")
	}

	return plaintext, nil
}
