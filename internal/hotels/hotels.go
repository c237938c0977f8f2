// Package hotels holds the domain model shared by the directory client,
// the history store and the conversation engine.
package hotels

import (
	"strings"
	"time"
)

// MaxHotels caps how many hotels a single search may ask for.
const MaxHotels = 15

// CityID is the opaque destination identifier used by the hotels API.
type CityID string

// Command names a top-level search command.
type Command string

const (
	// CommandLowPrice lists the cheapest hotels first.
	CommandLowPrice Command = "/lowprice"
	// CommandHighPrice lists the most expensive hotels first.
	CommandHighPrice Command = "/highprice"
)

// SortMode is the price ordering requested from the upstream search.
type SortMode int

const (
	// PriceAsc orders results from low to high price.
	PriceAsc SortMode = iota
	// PriceDesc orders results from high to low price.
	PriceDesc
)

// String returns the sort value understood by the hotels API.
func (s SortMode) String() string {
	if s == PriceDesc {
		return "PRICE_HIGH_TO_LOW"
	}
	return "PRICE_LOW_TO_HIGH"
}

// Sort maps a command to its price ordering.
func (c Command) Sort() SortMode {
	if c == CommandHighPrice {
		return PriceDesc
	}
	return PriceAsc
}

// Valid reports whether c is one of the known search commands.
func (c Command) Valid() bool {
	return c == CommandLowPrice || c == CommandHighPrice
}

// ParseCommand normalises user input like " /LowPrice " into a Command.
func ParseCommand(s string) (Command, bool) {
	c := Command(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Hotel is a single search result. Address and Rating are nil when the
// detail lookup could not provide them.
type Hotel struct {
	ID       string
	Name     string
	Address  *string
	Price    string
	Rating   *float64
	Distance float64
	Photos   []string
}

// Request is a completed search as persisted in the history store.
type Request struct {
	ID        int64
	UserID    int64
	Command   Command
	City      string
	CreatedAt time.Time
	Hotels    []Hotel
}

// Stay is the check-in/check-out window sent with a search.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// SearchQuery describes one hotel list request.
type SearchQuery struct {
	CityID CityID
	Count  int
	Sort   SortMode
}

// HotelIDs returns the ids of hs in order.
func HotelIDs(hs []Hotel) []string {
	ids := make([]string, 0, len(hs))
	for _, h := range hs {
		ids = append(ids, h.ID)
	}
	return ids
}
