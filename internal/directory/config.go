package directory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rzhek/TelegramHotelsBot/internal/hotels"
)

const dateLayout = "2006-01-02"

// Config holds the hotels API settings.
type Config struct {
	APIKey  string        `yaml:"api_key" envconfig:"RAPIDAPI_KEY"`
	BaseURL string        `yaml:"base_url" envconfig:"HOTELS_BASE_URL"`
	Host    string        `yaml:"host" envconfig:"HOTELS_HOST"`
	Timeout time.Duration `yaml:"timeout" envconfig:"HOTELS_TIMEOUT"`
	// RatePerSecond and Burst throttle outbound calls across all users.
	RatePerSecond float64 `yaml:"rate_per_second" envconfig:"HOTELS_RATE_PER_SECOND"`
	Burst         int     `yaml:"burst" envconfig:"HOTELS_BURST"`

	Locale   string `yaml:"locale" envconfig:"HOTELS_LOCALE"`
	Currency string `yaml:"currency" envconfig:"HOTELS_CURRENCY"`
	SiteID   int    `yaml:"site_id" envconfig:"HOTELS_SITE_ID"`
	EAPID    int    `yaml:"eapid" envconfig:"HOTELS_EAPID"`
	LangID   int    `yaml:"lang_id" envconfig:"HOTELS_LANG_ID"`
	Adults   int    `yaml:"adults" envconfig:"HOTELS_ADULTS"`
	// CheckIn and CheckOut are YYYY-MM-DD dates sent with every search.
	CheckIn  string `yaml:"check_in" envconfig:"HOTELS_CHECK_IN"`
	CheckOut string `yaml:"check_out" envconfig:"HOTELS_CHECK_OUT"`
}

// Normalize validates the config and fills defaults.
func (c *Config) Normalize() error {
	c.APIKey = strings.TrimSpace(c.APIKey)
	if c.APIKey == "" {
		return errors.New("RAPIDAPI_KEY is required")
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://hotels4.p.rapidapi.com"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Host == "" {
		c.Host = "hotels4.p.rapidapi.com"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 5
	}
	if c.Burst <= 0 {
		c.Burst = 5
	}
	if c.Locale == "" {
		c.Locale = "en_US"
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if c.SiteID == 0 {
		c.SiteID = 300000001
	}
	if c.EAPID == 0 {
		c.EAPID = 1
	}
	if c.LangID == 0 {
		c.LangID = 1033
	}
	if c.Adults <= 0 {
		c.Adults = 2
	}
	if c.CheckIn == "" {
		c.CheckIn = "2022-10-10"
	}
	if c.CheckOut == "" {
		c.CheckOut = "2022-10-15"
	}
	stay, err := c.Stay()
	if err != nil {
		return err
	}
	if !stay.CheckOut.After(stay.CheckIn) {
		return fmt.Errorf("hotels.check_out %s must be after check_in %s", c.CheckOut, c.CheckIn)
	}
	return nil
}

// Stay parses the configured check-in/check-out dates.
func (c Config) Stay() (hotels.Stay, error) {
	in, err := time.Parse(dateLayout, c.CheckIn)
	if err != nil {
		return hotels.Stay{}, fmt.Errorf("hotels.check_in: %w", err)
	}
	out, err := time.Parse(dateLayout, c.CheckOut)
	if err != nil {
		return hotels.Stay{}, fmt.Errorf("hotels.check_out: %w", err)
	}
	return hotels.Stay{CheckIn: in, CheckOut: out}, nil
}
