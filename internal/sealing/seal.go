// Package sealing encrypts a disposable Solana private key at rest between
// the moment the Orchestrator generates it and the moment the bridge
// monitor's stage 2 needs to sign with it. It stands in for the "treat as a
// seal(plaintext,key)/open(sealed,key) pair" external collaborator: the
// credential-encryption primitive itself is in scope here, but key
// management (where the 32-byte wallet key comes from) is not.
package sealing

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Sealer seals and opens ciphertexts with a single 32-byte key.
type Sealer struct {
	key [chacha20poly1305.KeySize]byte
}

// NewSealer builds a Sealer from a 32-byte hex-encoded key, as produced by
// internal/config's encryption.walletKey validation.
func NewSealer(hexKey string) (*Sealer, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("sealing: decode key: %w", err)
	}
	if len(raw) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("sealing: key must be %d bytes, got %d", chacha20poly1305.KeySize, len(raw))
	}
	s := &Sealer{}
	copy(s.key[:], raw)
	return s, nil
}

// Seal encrypts plaintext, returning a base64 string carrying a random
// nonce prefixed to the ciphertext. Safe to store as the record's
// temp_private_key_sealed field.
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	aead, err := chacha20poly1305.New(s.key[:])
	if err != nil {
		return "", fmt.Errorf("sealing: build aead: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("sealing: generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal, recovering the original plaintext.
func (s *Sealer) Open(sealed string) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.key[:])
	if err != nil {
		return nil, fmt.Errorf("sealing: build aead: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("sealing: decode ciphertext: %w", err)
	}

	nonceSize := aead.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("sealing: ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("sealing: open: %w", err)
	}
	return plaintext, nil
}
