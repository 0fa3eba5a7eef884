// Package config loads the runtime tunables that may change without a
// restart: per-account cost markups and the inventory refresh schedule.
package config

import (
	"fmt"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const DefaultInventorySchedule = "@every 1h"

// Markup is an account's cost markup in percent.
type Markup struct {
	AccountID string  `mapstructure:"accountId"`
	Percent   float64 `mapstructure:"percent"`
}

type Inventory struct {
	Accounts []string `mapstructure:"accounts"`
	// Schedule is a robfig/cron spec.
	Schedule string `mapstructure:"schedule"`
}

// File is the content of the config file. Markups are a list rather than a
// map because viper lower-cases map keys and account ids are case sensitive.
type File struct {
	Markups   []Markup  `mapstructure:"markups"`
	Inventory Inventory `mapstructure:"inventory"`
}

func Default() File {
	return File{
		Markups: []Markup{
			{AccountID: "UVxMDMhNQxOCvroqqImWdQ", Percent: 5.04},
		},
		Inventory: Inventory{Schedule: DefaultInventorySchedule},
	}
}

// Holder serves the latest valid File. It satisfies billing.MarkupSource.
type Holder struct {
	logger  log.FieldLogger
	current atomic.Value // holds File
}

// NewStaticHolder returns a Holder that never reloads.
func NewStaticHolder(logger log.FieldLogger, cfg File) (*Holder, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	h := &Holder{logger: logger}
	h.current.Store(cfg)
	return h, nil
}

// Load reads path and keeps watching it. Edits that fail to parse or
// validate are logged and the previous config is kept. An empty path
// yields the defaults.
func Load(logger log.FieldLogger, path string) (*Holder, error) {
	if path == "" {
		return NewStaticHolder(logger, Default())
	}

	v := viper.New()
	v.SetConfigFile(path)
	defaults := Default()
	v.SetDefault("inventory.schedule", defaults.Inventory.Schedule)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file %s: %v", path, err)
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	h, err := NewStaticHolder(logger, cfg)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if err := h.apply(v); err != nil {
			h.logger.WithError(err).Errorf("invalid config in %s ignored", e.Name)
			return
		}
		h.logger.Infof("reloaded config from %s", e.Name)
	})
	v.WatchConfig()
	return h, nil
}

func (h *Holder) Get() File {
	return h.current.Load().(File)
}

func (h *Holder) Markup(accountID string) (float64, bool) {
	for _, m := range h.Get().Markups {
		if m.AccountID == accountID {
			return m.Percent, true
		}
	}
	return 0, false
}

func (h *Holder) apply(v *viper.Viper) error {
	cfg, err := decode(v)
	if err != nil {
		return err
	}
	if err := validate(cfg); err != nil {
		return err
	}
	h.current.Store(cfg)
	return nil
}

func decode(v *viper.Viper) (File, error) {
	var cfg File
	if err := v.Unmarshal(&cfg); err != nil {
		return File{}, fmt.Errorf("unable to decode config: %v", err)
	}
	return cfg, nil
}

func validate(cfg File) error {
	seen := make(map[string]bool, len(cfg.Markups))
	for _, m := range cfg.Markups {
		if m.AccountID == "" {
			return fmt.Errorf("markup entry is missing accountId")
		}
		if m.Percent < 0 {
			return fmt.Errorf("markup for %s must not be negative, got %v", m.AccountID, m.Percent)
		}
		if seen[m.AccountID] {
			return fmt.Errorf("duplicate markup for %s", m.AccountID)
		}
		seen[m.AccountID] = true
	}
	if cfg.Inventory.Schedule == "" {
		return fmt.Errorf("inventory.schedule cannot be empty")
	}
	if _, err := cron.Parse(cfg.Inventory.Schedule); err != nil {
		return fmt.Errorf("invalid inventory.schedule %q: %v", cfg.Inventory.Schedule, err)
	}
	return nil
}
