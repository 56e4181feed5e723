package config

import (
	"github.com/cashflow/bkm-gateway/internal/core"
)

// NewBankDirectory builds the immutable banks table and vPOS template set from the config
func NewBankDirectory(cfg *Config) (*core.Banks, *core.TemplateSet, error) {
	names := make(map[string]string, len(cfg.Banks))
	for _, b := range cfg.Banks {
		names[b.Code] = b.Name
	}

	templates := make([]core.VposTemplate, 0, len(cfg.VposTemplates))
	for _, t := range cfg.VposTemplates {
		extras := make([]core.Extra, 0, len(t.Extras))
		for _, e := range t.Extras {
			extras = append(extras, core.Extra{Key: e.Key, Value: e.Value})
		}
		templates = append(templates, core.VposTemplate{
			BankName:   t.BankName,
			UserID:     t.UserID,
			Password:   t.Password,
			ServiceURL: t.ServiceURL,
			Extras:     extras,
		})
	}

	set, err := core.NewTemplateSet(templates)
	if err != nil {
		return nil, nil, err
	}
	return core.NewBanks(names), set, nil
}
