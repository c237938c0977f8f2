package conversation

import (
	"fmt"

	"github.com/Rzhek/TelegramHotelsBot/internal/hotels"
)

// MaxImages caps photos per hotel card; Telegram albums hold at most ten items.
const MaxImages = 10

// Config tunes the search conversation.
type Config struct {
	// MaxHotels is the largest accepted hotel count, at most hotels.MaxHotels.
	MaxHotels int `yaml:"max_hotels" envconfig:"CONVERSATION_MAX_HOTELS"`
	// ImageCount is how many photos go with each hotel card.
	ImageCount int `yaml:"image_count" envconfig:"CONVERSATION_IMAGE_COUNT"`
	// TextOnly sends hotel cards without photos.
	TextOnly bool `yaml:"text_only" envconfig:"CONVERSATION_TEXT_ONLY"`
	// MaxCountAttempts is how many invalid hotel counts end the conversation.
	MaxCountAttempts int `yaml:"max_count_attempts" envconfig:"CONVERSATION_MAX_COUNT_ATTEMPTS"`
}

// Normalize validates the config and fills defaults.
func (c *Config) Normalize() error {
	if c.MaxHotels == 0 {
		c.MaxHotels = hotels.MaxHotels
	}
	if c.MaxHotels < 1 || c.MaxHotels > hotels.MaxHotels {
		return fmt.Errorf("conversation.max_hotels must be within 1..%d, got %d", hotels.MaxHotels, c.MaxHotels)
	}
	if c.ImageCount == 0 {
		c.ImageCount = 1
	}
	if c.ImageCount < 1 || c.ImageCount > MaxImages {
		return fmt.Errorf("conversation.image_count must be within 1..%d, got %d", MaxImages, c.ImageCount)
	}
	if c.MaxCountAttempts <= 0 {
		c.MaxCountAttempts = 5
	}
	return nil
}

func (c Config) images() int {
	if c.TextOnly {
		return 0
	}
	return c.ImageCount
}
