package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// QuoteConfig holds operator-tunable quoting defaults.
type QuoteConfig struct {
	ValidityDays    int      `mapstructure:"validityDays"`
	Currencies      []string `mapstructure:"currencies"`
	TrialPeriodDays int      `mapstructure:"trialPeriodDays"`
}

func DefaultQuoteConfig() QuoteConfig {
	return QuoteConfig{
		ValidityDays:    30,
		Currencies:      []string{"USD", "CAD"},
		TrialPeriodDays: 0,
	}
}

// QuoteConfigHolder serves the current quote config and hot-reloads it
// when the underlying file changes.
type QuoteConfigHolder struct {
	current atomic.Value // holds QuoteConfig
}

func NewQuoteConfigHolder() (*QuoteConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("quotes")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/vyoniq")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VYONIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultQuoteConfig()
		v.SetDefault("quotes.validityDays", defaults.ValidityDays)
		v.SetDefault("quotes.currencies", defaults.Currencies)
		v.SetDefault("quotes.trialPeriodDays", defaults.TrialPeriodDays)
	}

	var cfg QuoteConfig
	if err := v.UnmarshalKey("quotes", &cfg); err != nil {
		return nil, err
	}
	if err := validateQuoteConfig(cfg); err != nil {
		return nil, err
	}

	holder := &QuoteConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated QuoteConfig
		if err := v.UnmarshalKey("quotes", &updated); err != nil {
			log.Printf("[quote-config] reload failed: %v", err)
			return
		}
		if err := validateQuoteConfig(updated); err != nil {
			log.Printf("[quote-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[quote-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticQuoteConfigHolder wraps a fixed config with no file watching.
func NewStaticQuoteConfigHolder(cfg QuoteConfig) *QuoteConfigHolder {
	holder := &QuoteConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *QuoteConfigHolder) Get() QuoteConfig {
	return h.current.Load().(QuoteConfig)
}

func validateQuoteConfig(cfg QuoteConfig) error {
	if cfg.ValidityDays <= 0 {
		return errors.New("quotes.validityDays must be positive")
	}
	if len(cfg.Currencies) == 0 {
		return errors.New("quotes.currencies cannot be empty")
	}
	return nil
}
