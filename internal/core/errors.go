package core

import "errors"

var (
	// ErrMalformedAmount is returned when a localized amount string cannot be parsed
	ErrMalformedAmount = errors.New("malformed amount")
	// ErrMalformedBankCode is returned when a bank code has no numeric suffix
	ErrMalformedBankCode = errors.New("malformed bank code")
	// ErrUnknownBankCode is returned when a bank code is absent from the banks table
	ErrUnknownBankCode = errors.New("unknown bank code")
	// ErrEncryptionFailure wraps failures of the vPOS config encryptor
	ErrEncryptionFailure = errors.New("encryption failure")
	// ErrSignatureVerification is returned when a gateway signature does not verify
	ErrSignatureVerification = errors.New("signature verification failed")
	// ErrInvalidRequest is returned when required request fields are missing
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNonceAlreadyProcessed is returned when a ticket's nonce was already answered
	ErrNonceAlreadyProcessed = errors.New("nonce already processed")
	// ErrNonceInProgress is returned when another worker holds a live claim on the ticket
	ErrNonceInProgress = errors.New("nonce in progress")
)
