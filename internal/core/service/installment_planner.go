package service

import (
	"github.com/cashflow/bkm-gateway/internal/core"
)

// VposConfigSource supplies the encrypted vPOS config for a bank code
type VposConfigSource interface {
	ResolveAndEncrypt(bankCode string) (string, error)
}

// InstallmentPlanner computes installment offers per BIN
type InstallmentPlanner struct {
	configs VposConfigSource
}

// NewInstallmentPlanner creates a new installment planner
func NewInstallmentPlanner(configs VposConfigSource) *InstallmentPlanner {
	return &InstallmentPlanner{configs: configs}
}

// ComputeOffers builds the offers for every pair. Any failure aborts the whole batch.
// A BIN appearing twice keeps the options of its last pair.
func (p *InstallmentPlanner) ComputeOffers(totalAmount string, pairs []core.BinBankPair) (core.InstallmentOffer, error) {
	total, err := core.ParseAmount(totalAmount)
	if err != nil {
		return nil, err
	}
	formattedTotal := core.FormatLira(total)

	offer := make(core.InstallmentOffer, len(pairs))
	for _, pair := range pairs {
		count, err := core.InstallmentCount(pair.BankCode)
		if err != nil {
			return nil, err
		}

		vposConfig, err := p.configs.ResolveAndEncrypt(pair.BankCode)
		if err != nil {
			return nil, err
		}

		options := make([]core.InstallmentOption, 0, count)
		for i := 1; i <= count; i++ {
			options = append(options, core.InstallmentOption{
				NumberOfInstallment: i,
				InstallmentAmount:   core.FormatLira(total.Divide(i)),
				TotalAmount:         formattedTotal,
				VposConfig:          vposConfig,
			})
		}
		offer[pair.Bin] = options
	}
	return offer, nil
}
