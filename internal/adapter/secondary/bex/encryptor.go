package bex

import (
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/cashflow/bkm-gateway/internal/core"
)

const nonceKeyLabel = "bkm-vpos-nonce"

// VposEncryptor seals vPOS configs with XChaCha20-Poly1305.
// The nonce is a keyed BLAKE2b hash of the plaintext, so a given config and key always
// produce the same ciphertext. Output is base64(nonce || ciphertext).
type VposEncryptor struct {
	aead     cipher.AEAD
	nonceKey []byte
}

// NewVposEncryptor creates an encryptor from a 32 byte key
func NewVposEncryptor(key []byte) (*VposEncryptor, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create vpos cipher: %w", err)
	}
	nonceKey := blake2b.Sum256(append([]byte(nonceKeyLabel), key...))
	return &VposEncryptor{aead: aead, nonceKey: nonceKey[:]}, nil
}

// Encrypt serializes and seals a config
func (e *VposEncryptor) Encrypt(config core.BankConfig) (string, error) {
	plaintext, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal vpos config: %w", err)
	}

	h, err := blake2b.New(e.aead.NonceSize(), e.nonceKey)
	if err != nil {
		return "", fmt.Errorf("failed to derive nonce: %w", err)
	}
	h.Write(plaintext)
	nonce := h.Sum(make([]byte, 0, e.aead.NonceSize()+len(plaintext)+e.aead.Overhead()))

	sealed := e.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}
