package config

import (
	"net/netip"

	"wapi/common"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	Service Service      `toml:"service" json:"service" yaml:"service"`
	Log     Log          `toml:"log" json:"log" yaml:"log"`
	Cache   Cache        `toml:"cache" json:"cache" yaml:"cache"`
	Engine  Engine       `toml:"engine" json:"engine" yaml:"engine"`
	Account []Account    `toml:"account" json:"account" yaml:"account"`
	Address []IPAddress  `toml:"address" json:"address" yaml:"address"`
	Record  []RecordSpec `toml:"record" json:"record" yaml:"record"`
}

type Service struct {
	Name        string          `toml:"name" json:"name" yaml:"name"`
	RefreshRate common.Duration `toml:"refresh_rate" json:"refresh_rate" yaml:"refresh_rate"`
}

type Log struct {
	Level     *zapcore.Level `toml:"level" json:"level" yaml:"level"`
	Encoding  *string        `toml:"encoding" json:"encoding" yaml:"encoding"`
	InfoPath  *[]string      `toml:"info_path" json:"info_path" yaml:"info_path"`
	ErrorPath *[]string      `toml:"error_path" json:"error_path" yaml:"error_path"`
}

// Cache selects the record cache backend. The file backend survives process
// restarts; the memory backend forgets everything on exit and forces a
// provider round-trip on the first cycle of every run.
type Cache struct {
	Backend     string `toml:"backend" json:"backend" yaml:"backend"`
	Path        string `toml:"path" json:"path" yaml:"path"`
	MemoryLimit int    `toml:"memory_limit" json:"memory_limit" yaml:"memory_limit"`
}

type Engine struct {
	Workers      int             `toml:"workers" json:"workers" yaml:"workers"`
	MaxAttempts  int             `toml:"max_attempts" json:"max_attempts" yaml:"max_attempts"`
	CallTimeout  common.Duration `toml:"call_timeout" json:"call_timeout" yaml:"call_timeout"`
	RetryInitial common.Duration `toml:"retry_initial" json:"retry_initial" yaml:"retry_initial"`
	RetryMax     common.Duration `toml:"retry_max" json:"retry_max" yaml:"retry_max"`
}

// Account holds one provider login. Credentials are opaque to everything but
// the provider client constructed from them and are never logged or cached.
type Account struct {
	Name        string            `toml:"name" json:"name" yaml:"name"`
	Provider    string            `toml:"provider" json:"provider" yaml:"provider"`
	TTL         int               `toml:"ttl" json:"ttl" yaml:"ttl"`
	Credentials map[string]string `toml:"credentials" json:"credentials" yaml:"credentials"`
	Settings    map[string]any    `toml:"settings,omitempty" json:"settings,omitempty" yaml:"settings,omitempty"`
}

// ID is the provider identifier records reference; it defaults to the
// provider name for configs with a single account per provider.
func (a Account) ID() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Provider
}

type IPAddress struct {
	Name         string          `toml:"name" json:"name" yaml:"name"`
	Sources      []IPSource      `toml:"sources" json:"sources" yaml:"sources"`
	Transformers []IPTransformer `toml:"transformers,omitempty" json:"transformers,omitempty" yaml:"transformers,omitempty"`
}

type IPSource struct {
	Type   string         `toml:"type" json:"type" yaml:"type"`
	Source string         `toml:"source" json:"source" yaml:"source"`
	Config map[string]any `toml:"config,omitempty" json:"config,omitempty" yaml:"config,omitempty"`
}

type IPSourceSimpleConfig struct {
	Type    common.Family   `mapstructure:"type"`
	Timeout common.Duration `mapstructure:"timeout"`
}

type IPSourceInterfaceConfig struct {
	Type    common.Family         `mapstructure:"type"`
	Select  common.IPSelectMode   `mapstructure:"select"`
	Flags   []common.IPFilterFlag `mapstructure:"flags"`
	Exclude []netip.Prefix        `mapstructure:"exclude"`
	Include []netip.Prefix        `mapstructure:"include"`
}

type IPTransformer struct {
	Type   string         `toml:"type" json:"type" yaml:"type"`
	Config map[string]any `toml:"config,omitempty" json:"config,omitempty" yaml:"config"`
}

type IPTransformerMaskRewriteConfig struct {
	Mask      string     `mapstructure:"mask"`
	Overwrite netip.Addr `mapstructure:"overwrite"`
}

// RecordSpec names one DNS record this process keeps current: which account
// manages it, and which resolved address it follows.
type RecordSpec struct {
	Domain  string            `toml:"domain" json:"domain" yaml:"domain"`
	Type    common.RecordType `toml:"type" json:"type" yaml:"type"`
	Account string            `toml:"account" json:"account" yaml:"account"`
	Address string            `toml:"address" json:"address" yaml:"address"`
	TTL     int               `toml:"ttl,omitempty" json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// Credential decode targets, one per provider. Factories fill these from the
// opaque account maps via common.WeakDecodeMap.

type PorkbunCredentials struct {
	APIKey       string `mapstructure:"api_key"`
	SecretAPIKey string `mapstructure:"secret_api_key"`
}

type PorkbunSettings struct {
	BaseURL string `mapstructure:"base_url"`
}

type CloudflareCredentials struct {
	APIToken string `mapstructure:"api_token"`
}

type CloudflareSettings struct {
	ZoneNames []string `mapstructure:"zone_names"`
}

type GoDaddyCredentials struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

type GoDaddySettings struct {
	BaseURL string `mapstructure:"base_url"`
}
