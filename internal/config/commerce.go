package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CommerceConfig describes the external store whose cost-of-goods field the
// service writes to. The nonce is the per-session credential the store hands
// out for its REST API.
type CommerceConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"baseUrl"`
	Nonce   string        `mapstructure:"nonce"`
	Timeout time.Duration `mapstructure:"timeout"`

	// CostMetaKey is the product meta key holding the cost-of-goods value.
	CostMetaKey string `mapstructure:"costMetaKey"`
}

func DefaultCommerceConfig() CommerceConfig {
	return CommerceConfig{
		Enabled:     false,
		Timeout:     10 * time.Second,
		CostMetaKey: "_cogs_total_value",
	}
}

// CommerceConfigHolder exposes the current commerce config with hot reload.
type CommerceConfigHolder struct {
	current atomic.Value // holds CommerceConfig
}

func NewCommerceConfigHolder() (*CommerceConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("commerce")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/recipecost/config") // Volume-mounted config
	v.AddConfigPath("/etc/recipecost")            // System config
	v.AddConfigPath(".")                          // Current directory (dev mode)

	v.SetEnvPrefix("RECIPECOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultCommerceConfig()
		v.SetDefault("commerce.enabled", defaults.Enabled)
		v.SetDefault("commerce.timeout", defaults.Timeout)
		v.SetDefault("commerce.costMetaKey", defaults.CostMetaKey)
	}

	var cfg CommerceConfig
	if err := v.UnmarshalKey("commerce", &cfg); err != nil {
		return nil, err
	}
	applyCommerceDefaults(&cfg)
	if err := validateCommerceConfig(cfg); err != nil {
		return nil, err
	}

	holder := &CommerceConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated CommerceConfig
		if err := v.UnmarshalKey("commerce", &updated); err != nil {
			log.Printf("[commerce-config] reload failed: %v", err)
			return
		}
		applyCommerceDefaults(&updated)
		if err := validateCommerceConfig(updated); err != nil {
			log.Printf("[commerce-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[commerce-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *CommerceConfigHolder) Get() CommerceConfig {
	return h.current.Load().(CommerceConfig)
}

// NewStaticCommerceHolder wraps a fixed config, used by tests.
func NewStaticCommerceHolder(cfg CommerceConfig) *CommerceConfigHolder {
	applyCommerceDefaults(&cfg)
	holder := &CommerceConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func applyCommerceDefaults(cfg *CommerceConfig) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCommerceConfig().Timeout
	}
	if strings.TrimSpace(cfg.CostMetaKey) == "" {
		cfg.CostMetaKey = DefaultCommerceConfig().CostMetaKey
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
}

func validateCommerceConfig(cfg CommerceConfig) error {
	if cfg.Enabled && cfg.BaseURL == "" {
		return errors.New("commerce.baseUrl is required when commerce.enabled")
	}
	return nil
}
