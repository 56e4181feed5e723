package core

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// bankCodeSuffixOffset is where the numeric part of a bank code starts
	bankCodeSuffixOffset = 3
	// installmentExtension is added to the bank code suffix to get the maximum count
	installmentExtension = 3
)

// BinBankPair associates a card BIN with the bank code that issued it
type BinBankPair struct {
	Bin      string
	BankCode string
}

// ParseBinBankPair parses the gateway's "bin@bankCode" notation
func ParseBinBankPair(s string) (BinBankPair, error) {
	bin, bankCode, ok := strings.Cut(strings.TrimSpace(s), "@")
	if !ok || bin == "" || bankCode == "" {
		return BinBankPair{}, fmt.Errorf("%w: bin entry %q", ErrInvalidRequest, s)
	}
	return BinBankPair{Bin: bin, BankCode: bankCode}, nil
}

// InstallmentOption is a single installment choice offered for a BIN
type InstallmentOption struct {
	NumberOfInstallment int
	InstallmentAmount   string
	TotalAmount         string
	VposConfig          string
}

// InstallmentOffer maps a BIN to its options, ordered by ascending installment count
type InstallmentOffer map[string][]InstallmentOption

// InstallmentCount derives the maximum installment count from a bank code
func InstallmentCount(bankCode string) (int, error) {
	if len(bankCode) <= bankCodeSuffixOffset {
		return 0, fmt.Errorf("%w: %q is too short", ErrMalformedBankCode, bankCode)
	}
	suffix := bankCode[bankCodeSuffixOffset:]
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q has a non-numeric suffix", ErrMalformedBankCode, bankCode)
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformedBankCode, bankCode, err)
	}
	return n + installmentExtension, nil
}
