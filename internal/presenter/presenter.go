// Package presenter renders hotels, search results and history as message text.
package presenter

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf16"

	"github.com/Rzhek/TelegramHotelsBot/core/telegram/format"
	"github.com/Rzhek/TelegramHotelsBot/internal/hotels"
)

const (
	// MessageLimit is Telegram's maximum text length in UTF-16 code units.
	MessageLimit = 4096
	// CaptionLimit is Telegram's maximum media caption length.
	CaptionLimit = 1024

	undefined  = "undefined"
	star       = "⭐️"
	dateLayout = "2006-01-02 15:04:05"
)

// Greeting welcomes the user by name.
func Greeting(name string) string {
	return strings.TrimSpace("👋 Hi, " + name)
}

// CountReprompt asks again for a hotel count in 1..max.
func CountReprompt(max int) string {
	return fmt.Sprintf("☝️ The number of hotels should not exceed %d\nEnter the number of hotels one more time:", max)
}

// Stars renders a rating as star glyphs rounded half to even. Ratings below
// 0.5 render as "0" and a missing rating as "undefined".
func Stars(rating *float64) string {
	if rating == nil {
		return undefined
	}
	if *rating < 0.5 {
		return "0"
	}
	return strings.Repeat(star, int(math.RoundToEven(*rating)))
}

// HotelCard renders a hotel as a multi-line card.
func HotelCard(h hotels.Hotel) string {
	return fmt.Sprintf("🏨 Hotel: %s\n💵 Price: %s\n🌟 Rating: %s\n🗺 Address: %s",
		h.Name, h.Price, Stars(h.Rating), format.Deref(h.Address, undefined))
}

// NumberedCard prefixes the card with its 1-based position in the results.
func NumberedCard(n int, h hotels.Hotel) string {
	return fmt.Sprintf("%d) %s", n, HotelCard(h))
}

// Caption is NumberedCard cut to fit a photo caption.
func Caption(n int, h hotels.Hotel) string {
	return truncateUTF16(NumberedCard(n, h), CaptionLimit)
}

// ResultsHeader frames a result set: no results, a partial set or a full set.
// ok is false when nothing was found and no cards should follow.
func ResultsHeader(found, requested int) (text string, ok bool) {
	switch {
	case found == 0:
		return TextNoResults, false
	case found < requested:
		return TextPartialResults, true
	default:
		return TextFullResults, true
	}
}

// Photos picks the photos to attach to a hotel card, at most limit.
// An empty result means the card goes out as plain text.
func Photos(h hotels.Hotel, limit int) []string {
	if limit <= 0 {
		return nil
	}
	out := make([]string, 0, min(limit, len(h.Photos)))
	for _, p := range h.Photos {
		if len(out) == limit {
			break
		}
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// RequestSummary renders a stored request as a header line plus a bullet
// list of hotel names.
func RequestSummary(r hotels.Request) string {
	names := make([]string, 0, len(r.Hotels))
	for _, h := range r.Hotels {
		names = append(names, h.Name)
	}
	return fmt.Sprintf("✅ The result of the request based on the %s command in %s at %s:\n• %s",
		r.Command, r.City, r.CreatedAt.Format(dateLayout), strings.Join(names, "\n• "))
}

// HistoryMessages renders the history as one or more messages, each within
// MessageLimit. Requests are never split across messages unless a single one
// is too long on its own.
func HistoryMessages(reqs []hotels.Request) []string {
	if len(reqs) == 0 {
		return []string{TextHistoryEmpty}
	}
	var (
		out []string
		b   strings.Builder
	)
	b.WriteString(TextHistoryHeader)
	sep := "\n\n"
	for _, r := range reqs {
		s := RequestSummary(r)
		s = truncateUTF16(s, MessageLimit)
		if textLen(b.String())+textLen(sep)+textLen(s) > MessageLimit {
			out = append(out, b.String())
			b.Reset()
			b.WriteString(s)
			continue
		}
		b.WriteString(sep)
		b.WriteString(s)
	}
	return append(out, b.String())
}

func textLen(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// truncateUTF16 cuts s to at most limit UTF-16 code units, ellipsis included.
func truncateUTF16(s string, limit int) string {
	n := textLen(s)
	if n <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && n > limit-1 {
		n -= utf16.RuneLen(r[len(r)-1])
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
