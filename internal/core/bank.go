package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultTemplateName names the vPOS template used for banks without a dedicated one
const DefaultTemplateName = "default"

// Banks maps bank codes to canonical bank names. It is immutable once built.
type Banks struct {
	names map[string]string
}

// NewBanks copies the given code to name table
func NewBanks(names map[string]string) *Banks {
	copied := make(map[string]string, len(names))
	for code, name := range names {
		copied[code] = name
	}
	return &Banks{names: copied}
}

// Name returns the canonical bank name for a bank code
func (b *Banks) Name(code string) (string, bool) {
	name, ok := b.names[code]
	return name, ok
}

// Extra is one vendor-specific vPOS parameter
type Extra struct {
	Key   string
	Value string
}

// VposTemplate holds the static gateway credentials for one bank
type VposTemplate struct {
	BankName   string
	UserID     string
	Password   string
	ServiceURL string
	Extras     []Extra
}

// TemplateSet selects vPOS templates by bank name, falling back to the default template
type TemplateSet struct {
	byName   map[string]VposTemplate
	fallback VposTemplate
}

// NewTemplateSet builds a template set. Exactly one template must be named DefaultTemplateName.
func NewTemplateSet(templates []VposTemplate) (*TemplateSet, error) {
	set := &TemplateSet{byName: make(map[string]VposTemplate, len(templates))}
	hasDefault := false
	for _, t := range templates {
		if _, dup := set.byName[t.BankName]; dup {
			return nil, fmt.Errorf("duplicate vpos template for bank %q", t.BankName)
		}
		t.Extras = append([]Extra(nil), t.Extras...)
		set.byName[t.BankName] = t
		if t.BankName == DefaultTemplateName {
			set.fallback = t
			hasDefault = true
		}
	}
	if !hasDefault {
		return nil, fmt.Errorf("vpos templates must include a %q template", DefaultTemplateName)
	}
	return set, nil
}

// Select returns the template whose bank name equals name exactly, or the default template
func (s *TemplateSet) Select(name string) VposTemplate {
	if t, ok := s.byName[name]; ok {
		return t
	}
	return s.fallback
}

// BankConfig is the plaintext vPOS configuration sent, encrypted, with every installment option
type BankConfig struct {
	BankIndicator string
	VposUserID    string
	VposPassword  string
	ServiceURL    string
	Extras        []Extra
}

// NewBankConfig builds a fresh config for bankCode from a template
func NewBankConfig(bankCode string, t VposTemplate) BankConfig {
	return BankConfig{
		BankIndicator: bankCode,
		VposUserID:    t.UserID,
		VposPassword:  t.Password,
		ServiceURL:    t.ServiceURL,
		Extras:        append([]Extra(nil), t.Extras...),
	}
}

// AddExtra appends an extra parameter, keeping insertion order
func (c *BankConfig) AddExtra(key, value string) {
	c.Extras = append(c.Extras, Extra{Key: key, Value: value})
}

// MarshalJSON encodes the config with extras as an object in insertion order
func (c BankConfig) MarshalJSON() ([]byte, error) {
	var extra bytes.Buffer
	extra.WriteByte('{')
	for i, e := range c.Extras {
		if i > 0 {
			extra.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		extra.Write(k)
		extra.WriteByte(':')
		extra.Write(v)
	}
	extra.WriteByte('}')

	return json.Marshal(struct {
		BankIndicator string          `json:"bankIndicator"`
		VposUserID    string          `json:"vposUserId"`
		VposPassword  string          `json:"vposPassword"`
		Extra         json.RawMessage `json:"extra"`
		ServiceURL    string          `json:"serviceUrl"`
	}{
		BankIndicator: c.BankIndicator,
		VposUserID:    c.VposUserID,
		VposPassword:  c.VposPassword,
		Extra:         extra.Bytes(),
		ServiceURL:    c.ServiceURL,
	})
}
