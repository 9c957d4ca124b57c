// Package security provides AES encryption, key derivation, and token
// utilities for the gateway platform.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrDecryption covers any failure to open a sealed value: bad base64,
// truncated ciphertext, or authentication failure. Callers treat it as
// "invalid token" and must not distinguish further.
var ErrDecryption = errors.New("decryption failed")

// DeriveKey derives a 256-bit AES key from a tenant secret and a salt
// using HKDF-SHA256. The secret is never used as key material directly;
// rotating the salt invalidates every token sealed under the old key.
func DeriveKey(secret, salt string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("empty encryption secret")
	}

	reader := hkdf.New(sha256.New, []byte(secret), []byte(salt), []byte("stage-token"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt seals data using AES-GCM with the provided key. The random
// nonce is prepended to the ciphertext and the whole value is base64
// encoded, so Decrypt is a pure function of (token, key).
func Encrypt(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, data, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt opens a value sealed by Encrypt. Any malformed or tampered
// input returns ErrDecryption, never a panic.
func Decrypt(encrypted string, key []byte) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, ErrDecryption
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrDecryption
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}

	return plaintext, nil
}
