// Package directory talks to the hotels4 RapidAPI: city lookup, hotel search
// with per-hotel details, and photos.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Rzhek/TelegramHotelsBot/core/logger"
	"github.com/Rzhek/TelegramHotelsBot/core/telegram/netutil"
	"github.com/Rzhek/TelegramHotelsBot/internal/hotels"
	"github.com/Rzhek/TelegramHotelsBot/internal/metrics"
)

const (
	endpointSearch = "locations/v3/search"
	endpointList   = "properties/v2/list"
	endpointDetail = "properties/v2/detail"
	endpointPhotos = "properties/get-hotel-photos"
)

// Client is a HotelDirectory backed by the hotels4 API. Calls are never retried.
type Client struct {
	cfg  Config
	stay hotels.Stay
	hc   *http.Client
	rl   *rate.Limiter
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	stay, err := cfg.Stay()
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:  cfg,
		stay: stay,
		hc: &http.Client{Transport: netutil.NewTransport(netutil.TransportOptions{
			ResponseHeaderTimeout: cfg.Timeout,
		})},
		rl: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
	}, nil
}

type locationResponse struct {
	SR []struct {
		EssID struct {
			SourceID string `json:"sourceId"`
		} `json:"essId"`
	} `json:"sr"`
}

// ResolveCity maps a free-form city name to the first matching destination id.
func (c *Client) ResolveCity(ctx context.Context, name string) (hotels.CityID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", hotels.ErrCityNotFound
	}
	q := url.Values{}
	q.Set("q", name)
	q.Set("locale", c.cfg.Locale)
	q.Set("langid", strconv.Itoa(c.cfg.LangID))
	q.Set("siteid", strconv.Itoa(c.cfg.SiteID))

	var resp locationResponse
	if err := c.do(ctx, http.MethodGet, endpointSearch, q, nil, &resp); err != nil {
		return "", err
	}
	for _, r := range resp.SR {
		if id := strings.TrimSpace(r.EssID.SourceID); id != "" {
			logger.Debug(ctx, logger.CompDirectory, "city.resolved",
				slog.String("city", logger.SanitizeLimit(name, 64)),
				slog.String("city_id", id),
			)
			return hotels.CityID(id), nil
		}
	}
	return "", hotels.ErrCityNotFound
}

type date struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

func toDate(t time.Time) date {
	return date{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}
}

type room struct {
	Adults   int   `json:"adults"`
	Children []int `json:"children"`
}

type listRequest struct {
	Currency    string `json:"currency"`
	EAPID       int    `json:"eapid"`
	Locale      string `json:"locale"`
	SiteID      int    `json:"siteId"`
	Destination struct {
		RegionID string `json:"regionId"`
	} `json:"destination"`
	CheckInDate          date   `json:"checkInDate"`
	CheckOutDate         date   `json:"checkOutDate"`
	Rooms                []room `json:"rooms"`
	ResultsStartingIndex int    `json:"resultsStartingIndex"`
	ResultsSize          int    `json:"resultsSize"`
	Sort                 string `json:"sort"`
}

type listResponse struct {
	Data struct {
		PropertySearch struct {
			Properties []struct {
				ID        string `json:"id"`
				Name      string `json:"name"`
				MapMarker struct {
					Label string `json:"label"`
				} `json:"mapMarker"`
				PropertyImage struct {
					Image struct {
						URL string `json:"url"`
					} `json:"image"`
				} `json:"propertyImage"`
			} `json:"properties"`
		} `json:"propertySearch"`
	} `json:"data"`
}

type detailRequest struct {
	Currency   string `json:"currency"`
	EAPID      int    `json:"eapid"`
	Locale     string `json:"locale"`
	SiteID     int    `json:"siteId"`
	PropertyID string `json:"propertyId"`
}

type detailResponse struct {
	Errors []json.RawMessage `json:"errors"`
	Data   struct {
		PropertyInfo struct {
			Summary struct {
				Overview struct {
					PropertyRating *struct {
						Rating *float64 `json:"rating"`
					} `json:"propertyRating"`
				} `json:"overview"`
				Location struct {
					Address struct {
						AddressLine *string `json:"addressLine"`
					} `json:"address"`
				} `json:"location"`
			} `json:"summary"`
		} `json:"propertyInfo"`
	} `json:"data"`
}

// SearchHotels lists up to q.Count hotels in q.Sort order, then fetches each
// hotel's rating and address one by one. A failed detail lookup leaves both nil.
func (c *Client) SearchHotels(ctx context.Context, q hotels.SearchQuery) ([]hotels.Hotel, error) {
	if q.Count < 1 || q.Count > hotels.MaxHotels {
		return nil, hotels.ErrInvalidHotelCount
	}
	body := listRequest{
		Currency:     c.cfg.Currency,
		EAPID:        c.cfg.EAPID,
		Locale:       c.cfg.Locale,
		SiteID:       c.cfg.SiteID,
		CheckInDate:  toDate(c.stay.CheckIn),
		CheckOutDate: toDate(c.stay.CheckOut),
		Rooms:        []room{{Adults: c.cfg.Adults, Children: []int{}}},
		ResultsSize:  q.Count,
		Sort:         q.Sort.String(),
	}
	body.Destination.RegionID = string(q.CityID)

	var resp listResponse
	if err := c.do(ctx, http.MethodPost, endpointList, nil, body, &resp); err != nil {
		return nil, err
	}

	props := resp.Data.PropertySearch.Properties
	if len(props) > q.Count {
		props = props[:q.Count]
	}
	out := make([]hotels.Hotel, 0, len(props))
	for _, p := range props {
		if err := ctx.Err(); err != nil {
			return nil, hotels.ErrDirectoryUnavailable.Wrap(err)
		}
		// Distance is not taken from the listing and stays 0.
		h := hotels.Hotel{
			ID:    p.ID,
			Name:  p.Name,
			Price: p.MapMarker.Label,
		}
		if u := p.PropertyImage.Image.URL; u != "" {
			h.Photos = []string{u}
		}
		h.Rating, h.Address = c.details(ctx, p.ID)
		out = append(out, h)
	}
	logger.Debug(ctx, logger.CompDirectory, "hotels.found",
		slog.String("city_id", string(q.CityID)),
		slog.Int("count", q.Count),
		slog.Int("hotels", len(out)),
	)
	return out, nil
}

func (c *Client) details(ctx context.Context, hotelID string) (*float64, *string) {
	body := detailRequest{
		Currency:   c.cfg.Currency,
		EAPID:      c.cfg.EAPID,
		Locale:     c.cfg.Locale,
		SiteID:     c.cfg.SiteID,
		PropertyID: hotelID,
	}
	var resp detailResponse
	if err := c.do(ctx, http.MethodPost, endpointDetail, nil, body, &resp); err != nil {
		logger.Warn(ctx, logger.CompDirectory, "hotel.detail_failed",
			append([]slog.Attr{slog.String("hotel_id", hotelID)}, logger.Err(err)...)...)
		return nil, nil
	}
	if len(resp.Errors) > 0 {
		logger.Debug(ctx, logger.CompDirectory, "hotel.detail_errors",
			slog.String("hotel_id", hotelID),
			slog.Int("count", len(resp.Errors)),
		)
		return nil, nil
	}
	sum := resp.Data.PropertyInfo.Summary
	var rating *float64
	if pr := sum.Overview.PropertyRating; pr != nil {
		rating = pr.Rating
	}
	return rating, sum.Location.Address.AddressLine
}

type photosResponse struct {
	HotelImages []struct {
		BaseURL string `json:"baseUrl"`
		Sizes   []struct {
			Suffix string `json:"suffix"`
		} `json:"sizes"`
	} `json:"hotelImages"`
}

// FetchPhotos returns at most count photo URLs for the hotel. count <= 0 makes no call.
func (c *Client) FetchPhotos(ctx context.Context, hotelID string, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("id", hotelID)

	var resp photosResponse
	if err := c.do(ctx, http.MethodGet, endpointPhotos, q, nil, &resp); err != nil {
		return nil, err
	}
	urls := make([]string, 0, min(count, len(resp.HotelImages)))
	for _, img := range resp.HotelImages {
		if len(urls) == count {
			break
		}
		if img.BaseURL == "" {
			continue
		}
		suffix := ""
		if len(img.Sizes) > 0 {
			suffix = img.Sizes[0].Suffix
		}
		urls = append(urls, strings.ReplaceAll(img.BaseURL, "{size}", suffix))
	}
	return urls, nil
}

// do sends one request and decodes the JSON reply into out. Every failure is
// reported as hotels.ErrDirectoryUnavailable.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, payload, out any) error {
	start := time.Now()
	status := "error"
	code := 0
	defer func() {
		took := logger.Took(start)
		metrics.ObserveDirectory(endpoint, status, took)
		logger.Debug(ctx, logger.CompDirectory, "api.call",
			slog.String("endpoint", endpoint),
			slog.Int("http_code", code),
			slog.Duration("duration", took),
		)
	}()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	if err := c.rl.Wait(ctx); err != nil {
		return hotels.ErrDirectoryUnavailable.Wrap(fmt.Errorf("%s: rate wait: %w", endpoint, err))
	}

	u := c.cfg.BaseURL + "/" + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return hotels.ErrDirectoryUnavailable.Wrap(fmt.Errorf("%s: encode: %w", endpoint, err))
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return hotels.ErrDirectoryUnavailable.Wrap(fmt.Errorf("%s: %w", endpoint, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
	req.Header.Set("X-RapidAPI-Host", c.cfg.Host)

	resp, err := c.hc.Do(req)
	if err != nil {
		return hotels.ErrDirectoryUnavailable.Wrap(fmt.Errorf("%s: %w", endpoint, err))
	}
	defer resp.Body.Close()
	code = resp.StatusCode
	status = strconv.Itoa(code)

	if code < 200 || code > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return hotels.ErrDirectoryUnavailable.Wrap(
			fmt.Errorf("%s: bad status %d: %s", endpoint, code, strings.TrimSpace(string(b))))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return hotels.ErrDirectoryUnavailable.Wrap(fmt.Errorf("%s: decode: %w", endpoint, err))
	}
	return nil
}
