package output

import (
	"github.com/cashflow/bkm-gateway/internal/core"
)

// VposEncryptor is an output port that turns a plaintext vPOS config into gateway ciphertext
type VposEncryptor interface {
	Encrypt(config core.BankConfig) (string, error)
}

// SignatureVerifier is an output port that checks gateway signatures over an identifier
type SignatureVerifier interface {
	Verify(identifier, signature string) bool
}
