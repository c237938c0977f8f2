// Package app composes the hotels bot from its configuration.
package app

import (
	"fmt"

	coreconfig "github.com/Rzhek/TelegramHotelsBot/core/config"
	coredatabase "github.com/Rzhek/TelegramHotelsBot/core/database"
	"github.com/Rzhek/TelegramHotelsBot/core/telegram/state"
	"github.com/Rzhek/TelegramHotelsBot/internal/conversation"
	"github.com/Rzhek/TelegramHotelsBot/internal/directory"
	"github.com/Rzhek/TelegramHotelsBot/internal/metrics"
)

// Config is the full bot configuration: the core sections plus the hotel search ones.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database     coredatabase.Config `yaml:"database"`
	Hotels       directory.Config    `yaml:"hotels"`
	Conversation conversation.Config `yaml:"conversation"`
	State        state.Config        `yaml:"state"`
	Metrics      metrics.Config      `yaml:"metrics"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// LoadConfig reads path, the .env file and the environment, then validates
// every section.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	c.Database.Normalize()
	if err := c.Hotels.Normalize(); err != nil {
		return fmt.Errorf("hotels: %w", err)
	}
	if err := c.Conversation.Normalize(); err != nil {
		return err
	}
	if err := c.State.Normalize(); err != nil {
		return err
	}
	return nil
}
