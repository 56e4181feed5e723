package bex

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"

	"github.com/cashflow/bkm-gateway/internal/port/output"
)

// RSAVerifier checks SHA256withRSA signatures made with the gateway's private key
type RSAVerifier struct {
	publicKey *rsa.PublicKey
}

// NewRSAVerifier creates a signature verifier for the gateway public key
func NewRSAVerifier(publicKey *rsa.PublicKey) output.SignatureVerifier {
	return &RSAVerifier{publicKey: publicKey}
}

// Verify reports whether signature is a valid base64 signature over identifier
func (v *RSAVerifier) Verify(identifier, signature string) bool {
	if identifier == "" || signature == "" {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	sum := sha256.Sum256([]byte(identifier))
	return rsa.VerifyPKCS1v15(v.publicKey, crypto.SHA256, sum[:], sig) == nil
}
