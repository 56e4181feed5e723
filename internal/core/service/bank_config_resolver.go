package service

import (
	"fmt"

	"github.com/cashflow/bkm-gateway/internal/core"
	"github.com/cashflow/bkm-gateway/internal/port/output"
)

// BankConfigResolver builds the encrypted vPOS config for a bank code
type BankConfigResolver struct {
	banks     *core.Banks
	templates *core.TemplateSet
	encryptor output.VposEncryptor
}

// NewBankConfigResolver creates a resolver over an immutable banks table and template set
func NewBankConfigResolver(banks *core.Banks, templates *core.TemplateSet, encryptor output.VposEncryptor) *BankConfigResolver {
	return &BankConfigResolver{
		banks:     banks,
		templates: templates,
		encryptor: encryptor,
	}
}

// Resolve returns the plaintext config for a bank code.
// Codes missing from the banks table fail with core.ErrUnknownBankCode; known banks
// without a dedicated template get the default template.
func (r *BankConfigResolver) Resolve(bankCode string) (core.BankConfig, error) {
	name, ok := r.banks.Name(bankCode)
	if !ok {
		return core.BankConfig{}, fmt.Errorf("%w: %q", core.ErrUnknownBankCode, bankCode)
	}
	return core.NewBankConfig(bankCode, r.templates.Select(name)), nil
}

// ResolveAndEncrypt resolves the config for a bank code and returns only its ciphertext
func (r *BankConfigResolver) ResolveAndEncrypt(bankCode string) (string, error) {
	config, err := r.Resolve(bankCode)
	if err != nil {
		return "", err
	}

	ciphertext, err := r.encryptor.Encrypt(config)
	if err != nil {
		return "", fmt.Errorf("%w: bank code %q: %v", core.ErrEncryptionFailure, bankCode, err)
	}
	return ciphertext, nil
}
