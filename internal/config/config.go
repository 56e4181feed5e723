package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cashflow/bkm-gateway/internal/core"
)

const (
	EnvPilot = "pilot"
	EnvLive  = "live"
)

type Config struct {
	Env              string           `json:"env" mapstructure:"env"`
	Port             string           `json:"port" mapstructure:"port"`
	MerchantID       string           `json:"merchant_id" mapstructure:"merchant_id"`
	PrivateKeyPath   string           `json:"private_key_path" mapstructure:"private_key_path"`
	BexPublicKeyPath string           `json:"bex_public_key_path" mapstructure:"bex_public_key_path"`
	VposKey          string           `json:"vpos_key" mapstructure:"vpos_key"`
	InstallmentURL   string           `json:"installment_url" mapstructure:"installment_url"`
	NonceURL         string           `json:"nonce_url" mapstructure:"nonce_url"`
	DatabaseURL      string           `json:"database_url" mapstructure:"database_url"`
	RabbitMQURL      string           `json:"rabbitmq_url" mapstructure:"rabbitmq_url"`
	Database         DatabasePool     `json:"database" mapstructure:"database"`
	Gateway          GatewayConfig    `json:"gateway" mapstructure:"gateway"`
	Banks            []BankEntry      `json:"banks" mapstructure:"banks"`
	VposTemplates    []TemplateConfig `json:"vpos_templates" mapstructure:"vpos_templates"`
}

type DatabasePool struct {
	MaxOpenConns           int `json:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns           int `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int `json:"conn_max_lifetime_minutes" mapstructure:"conn_max_lifetime_minutes"`
}

type GatewayConfig struct {
	PreprodURL      string `json:"preprod_url" mapstructure:"preprod_url"`
	ProductionURL   string `json:"production_url" mapstructure:"production_url"`
	PreprodJsURL    string `json:"preprod_js_url" mapstructure:"preprod_js_url"`
	ProductionJsURL string `json:"production_js_url" mapstructure:"production_js_url"`
	TimeoutSeconds  int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// BankEntry maps a gateway bank code to its canonical bank name
type BankEntry struct {
	Code string `json:"code" mapstructure:"code"`
	Name string `json:"name" mapstructure:"name"`
}

// TemplateConfig is a vPOS credential template. Extras are a list so their order survives.
type TemplateConfig struct {
	BankName   string        `json:"bank_name" mapstructure:"bank_name"`
	UserID     string        `json:"user_id" mapstructure:"user_id"`
	Password   string        `json:"password" mapstructure:"password"`
	ServiceURL string        `json:"service_url" mapstructure:"service_url"`
	Extras     []ExtraConfig `json:"extras" mapstructure:"extras"`
}

type ExtraConfig struct {
	Key   string `json:"key" mapstructure:"key"`
	Value string `json:"value" mapstructure:"value"`
}

// LoadConfig reads config.json from configPath; BKM_ prefixed environment variables override it
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(configPath)
	v.SetConfigType("json")
	v.SetConfigName("config")
	v.SetEnvPrefix("BKM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "preprod")
	v.SetDefault("port", "8080")
	v.SetDefault("gateway.timeout_seconds", 30)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	result := &Config{}
	if err := v.Unmarshal(result); err != nil {
		return nil, err
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// Production reports whether the gateway production environment should be used
func (c *Config) Production() bool {
	env := strings.ToLower(c.Env)
	return env == EnvPilot || env == EnvLive
}

// GatewayURL returns the gateway API base URL for the environment
func (c *Config) GatewayURL() string {
	if c.Production() {
		return c.Gateway.ProductionURL
	}
	return c.Gateway.PreprodURL
}

// GatewayJsURL returns the checkout script URL for the environment
func (c *Config) GatewayJsURL() string {
	if c.Production() {
		return c.Gateway.ProductionJsURL
	}
	return c.Gateway.PreprodJsURL
}

// GatewayTimeout returns the HTTP timeout for gateway calls
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

// Validate checks the fields every process needs
func (c *Config) Validate() error {
	if c.MerchantID == "" {
		return fmt.Errorf("config: merchant_id is required")
	}
	seen := make(map[string]bool, len(c.Banks))
	for _, b := range c.Banks {
		if b.Code == "" || b.Name == "" {
			return fmt.Errorf("config: bank entries need both code and name")
		}
		if seen[b.Code] {
			return fmt.Errorf("config: duplicate bank code %q", b.Code)
		}
		seen[b.Code] = true
	}
	if !c.hasDefaultTemplate() {
		return fmt.Errorf("config: vpos_templates needs a %q entry", core.DefaultTemplateName)
	}
	return nil
}

func (c *Config) hasDefaultTemplate() bool {
	for _, t := range c.VposTemplates {
		if t.BankName == core.DefaultTemplateName {
			return true
		}
	}
	return false
}
