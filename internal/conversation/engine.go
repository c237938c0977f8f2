// Package conversation drives the per-user hotel search dialogue:
// city, then hotel count, then results.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Rzhek/TelegramHotelsBot/core/logger"
	"github.com/Rzhek/TelegramHotelsBot/core/telegram/format"
	"github.com/Rzhek/TelegramHotelsBot/core/telegram/state"
	"github.com/Rzhek/TelegramHotelsBot/internal/hotels"
	"github.com/Rzhek/TelegramHotelsBot/internal/metrics"
	"github.com/Rzhek/TelegramHotelsBot/internal/presenter"
)

const (
	// StateAwaitingCity waits for the city name.
	StateAwaitingCity state.State = "awaiting_city"
	// StateAwaitingHotelCount waits for the number of hotels.
	StateAwaitingHotelCount state.State = "awaiting_hotel_count"
)

// maxCityLen bounds the stored city name in runes.
const maxCityLen = 100

// Outcome summarises what a conversation step did.
type Outcome string

const (
	// OutcomeNone means the message was not part of a conversation.
	OutcomeNone Outcome = ""
	// OutcomeOK means the step succeeded or all requested hotels were shown.
	OutcomeOK Outcome = "ok"
	// OutcomePartial means fewer hotels were found than requested.
	OutcomePartial Outcome = "partial"
	// OutcomeNoResults means the search found nothing.
	OutcomeNoResults Outcome = "no_results"
	// OutcomeNotFound means the city could not be resolved.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeFail means the step failed and the user got an apology.
	OutcomeFail Outcome = "fail"
	// OutcomeReprompt means the hotel count was invalid and asked again.
	OutcomeReprompt Outcome = "reprompt"
	// OutcomeAbandoned means the conversation was dropped unfinished.
	OutcomeAbandoned Outcome = "abandoned"
	// OutcomeCancelled means the user cancelled the conversation.
	OutcomeCancelled Outcome = "cancelled"
)

// Search is the per-user data collected during a conversation.
type Search struct {
	Command    hotels.Command  `json:"command"`
	Sort       hotels.SortMode `json:"sort"`
	CityID     hotels.CityID   `json:"city_id,omitempty"`
	CityName   string          `json:"city_name,omitempty"`
	HotelCount int             `json:"hotel_count,omitempty"`
	ImageCount int             `json:"image_count"`
	// PriceRange and DistanceRange are reserved filters; searches ignore them.
	PriceRange    []string `json:"price_range,omitempty"`
	DistanceRange []string `json:"distance_range,omitempty"`
	Attempts      int      `json:"attempts,omitempty"`
}

// Directory is the hotel lookup the engine depends on.
type Directory interface {
	ResolveCity(ctx context.Context, name string) (hotels.CityID, error)
	SearchHotels(ctx context.Context, q hotels.SearchQuery) ([]hotels.Hotel, error)
	FetchPhotos(ctx context.Context, hotelID string, count int) ([]string, error)
}

// History records completed searches.
type History interface {
	RecordRequest(ctx context.Context, userID int64, cmd hotels.Command, city string, hs []hotels.Hotel) (int64, error)
}

// Messenger delivers messages to the user of the current update.
type Messenger interface {
	SendText(text string) error
	SendAlbum(photos []string, caption string) error
}

// Engine runs search conversations. Steps of one user are serialised;
// different users proceed independently.
type Engine struct {
	dir      Directory
	hist     History
	sessions state.Manager[Search]
	cfg      Config

	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewEngine builds an Engine. sessions defaults to an in-memory store.
func NewEngine(dir Directory, hist History, sessions state.Manager[Search], cfg Config) (*Engine, error) {
	if dir == nil || hist == nil {
		return nil, errors.New("conversation: directory and history are required")
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = state.NewMemoryManager[Search]()
	}
	return &Engine{
		dir:      dir,
		hist:     hist,
		sessions: sessions,
		cfg:      cfg,
		locks:    make(map[int64]*userLock),
	}, nil
}

func (e *Engine) lock(userID int64) func() {
	e.mu.Lock()
	l := e.locks[userID]
	if l == nil {
		l = &userLock{}
		e.locks[userID] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, userID)
		}
		e.mu.Unlock()
	}
}

// InProgress reports whether the user is in the middle of a search.
func (e *Engine) InProgress(ctx context.Context, userID int64) bool {
	return e.sessions.InProgress(ctx, userID)
}

// Start begins a search for cmd, replacing any conversation in progress.
func (e *Engine) Start(ctx context.Context, m Messenger, userID int64, cmd hotels.Command) (Outcome, error) {
	if !cmd.Valid() {
		return OutcomeFail, fmt.Errorf("conversation: unknown command %q", cmd)
	}
	unlock := e.lock(userID)
	defer unlock()

	prev, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return e.storeFailed(ctx, m, userID, Search{Command: cmd}, "load session", err)
	}
	if prev.Active() {
		e.finish(ctx, prev.Data.Command, OutcomeAbandoned)
	}

	s := state.Session[Search]{
		State: StateAwaitingCity,
		Data: Search{
			Command:    cmd,
			Sort:       cmd.Sort(),
			ImageCount: e.cfg.images(),
		},
	}
	if err := e.sessions.Set(ctx, userID, s); err != nil {
		return e.storeFailed(ctx, m, userID, s.Data, "save session", err)
	}
	logger.Debug(ctx, logger.CompConversation, "search.started",
		slog.String("command", string(cmd)),
		slog.String("state", string(s.State)),
	)
	return OutcomeOK, m.SendText(presenter.TextAskCity)
}

// Abort ends the user's conversation. It reports whether one was active.
func (e *Engine) Abort(ctx context.Context, userID int64) (bool, error) {
	unlock := e.lock(userID)
	defer unlock()

	s, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if !s.Active() {
		return false, nil
	}
	if err := e.sessions.Clear(ctx, userID); err != nil {
		return false, fmt.Errorf("clear session: %w", err)
	}
	e.finish(ctx, s.Data.Command, OutcomeCancelled)
	return true, nil
}

// Handle feeds one text message into the user's conversation.
func (e *Engine) Handle(ctx context.Context, m Messenger, userID int64, text string) (Outcome, error) {
	unlock := e.lock(userID)
	defer unlock()

	s, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return e.storeFailed(ctx, m, userID, Search{}, "load session", err)
	}
	switch s.State {
	case StateAwaitingCity:
		return e.onCity(ctx, m, userID, s, text)
	case StateAwaitingHotelCount:
		return e.onHotelCount(ctx, m, userID, s, text)
	default:
		return OutcomeNone, nil
	}
}

func (e *Engine) onCity(ctx context.Context, m Messenger, userID int64, s state.Session[Search], text string) (Outcome, error) {
	city := format.Truncate(strings.TrimSpace(text), maxCityLen)
	id, err := e.dir.ResolveCity(ctx, city)
	switch {
	case errors.Is(err, hotels.ErrCityNotFound):
		return e.end(ctx, m, userID, s.Data, OutcomeNotFound, presenter.TextCityNotFound)
	case err != nil:
		e.logFailure(ctx, "city.resolve_failed", s.Data, err)
		return e.end(ctx, m, userID, s.Data, OutcomeFail, presenter.TextApology)
	}

	s.State = StateAwaitingHotelCount
	s.Data.CityID = id
	s.Data.CityName = city
	if err := e.sessions.Set(ctx, userID, s); err != nil {
		return e.storeFailed(ctx, m, userID, s.Data, "save session", err)
	}
	logger.Debug(ctx, logger.CompConversation, "city.accepted",
		slog.String("city", logger.SanitizeLimit(city, 64)),
		slog.String("city_id", string(id)),
	)
	return OutcomeOK, m.SendText(presenter.TextAskCount)
}

func (e *Engine) onHotelCount(ctx context.Context, m Messenger, userID int64, s state.Session[Search], text string) (Outcome, error) {
	n, err := ParseHotelCount(text, e.cfg.MaxHotels)
	if err != nil {
		s.Data.Attempts++
		if s.Data.Attempts >= e.cfg.MaxCountAttempts {
			return e.end(ctx, m, userID, s.Data, OutcomeAbandoned, presenter.TextAbandoned)
		}
		if err := e.sessions.Set(ctx, userID, s); err != nil {
			return e.storeFailed(ctx, m, userID, s.Data, "save session", err)
		}
		logger.Debug(ctx, logger.CompConversation, "count.rejected",
			slog.Int("attempts", s.Data.Attempts),
		)
		return OutcomeReprompt, m.SendText(presenter.CountReprompt(e.cfg.MaxHotels))
	}
	s.Data.HotelCount = n
	return e.complete(ctx, m, userID, s.Data)
}

// ParseHotelCount accepts an integer in 1..max.
func ParseHotelCount(text string, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 || n > max {
		return 0, hotels.ErrInvalidHotelCount
	}
	return n, nil
}

func (e *Engine) complete(ctx context.Context, m Messenger, userID int64, d Search) (Outcome, error) {
	start := time.Now()
	found, err := e.dir.SearchHotels(ctx, hotels.SearchQuery{CityID: d.CityID, Count: d.HotelCount, Sort: d.Sort})
	if err != nil {
		e.logFailure(ctx, "search.failed", d, err)
		return e.end(ctx, m, userID, d, OutcomeFail, presenter.TextApology)
	}
	if len(found) > d.HotelCount {
		found = found[:d.HotelCount]
	}
	header, ok := presenter.ResultsHeader(len(found), d.HotelCount)
	if !ok {
		return e.end(ctx, m, userID, d, OutcomeNoResults, header)
	}

	if _, err := e.hist.RecordRequest(ctx, userID, d.Command, d.CityName, found); err != nil {
		logger.Error(ctx, logger.CompConversation, "history.write_failed",
			append([]slog.Attr{slog.String("command", string(d.Command))}, logger.Err(err)...)...)
	}

	outcome := OutcomeOK
	if len(found) < d.HotelCount {
		outcome = OutcomePartial
	}
	if err := e.sessions.Clear(ctx, userID); err != nil {
		logger.Warn(ctx, logger.CompConversation, "session.clear_failed", logger.Err(err)...)
	}
	e.finish(ctx, d.Command, outcome)

	if err := m.SendText(header); err != nil {
		return outcome, err
	}
	for i, h := range found {
		if err := e.deliver(ctx, m, i+1, h, d.ImageCount); err != nil {
			return outcome, err
		}
	}
	logger.Info(ctx, logger.CompConversation, "search.completed",
		slog.String("command", string(d.Command)),
		slog.String("city_id", string(d.CityID)),
		slog.Int("count", d.HotelCount),
		slog.Int("hotels", len(found)),
		slog.String("outcome", string(outcome)),
		slog.Duration("duration", logger.Took(start)),
	)
	return outcome, nil
}

// deliver sends one hotel card, as an album when photos are available.
func (e *Engine) deliver(ctx context.Context, m Messenger, n int, h hotels.Hotel, images int) error {
	photos := presenter.Photos(h, images)
	if len(photos) == 0 && images > 0 {
		extra, err := e.dir.FetchPhotos(ctx, h.ID, images)
		if err != nil {
			logger.Warn(ctx, logger.CompConversation, "photos.fetch_failed",
				append([]slog.Attr{slog.String("hotel_id", h.ID)}, logger.Err(err)...)...)
		}
		photos = presenter.Photos(hotels.Hotel{Photos: extra}, images)
	}
	if len(photos) == 0 {
		return m.SendText(presenter.NumberedCard(n, h))
	}
	if err := m.SendAlbum(photos, presenter.Caption(n, h)); err != nil {
		logger.Warn(ctx, logger.CompConversation, "album.send_failed",
			append([]slog.Attr{slog.String("hotel_id", h.ID), slog.Int("photos", len(photos))}, logger.Err(err)...)...)
		return m.SendText(presenter.NumberedCard(n, h))
	}
	return nil
}

// end clears the session, records the outcome and sends a closing message.
func (e *Engine) end(ctx context.Context, m Messenger, userID int64, d Search, outcome Outcome, text string) (Outcome, error) {
	if err := e.sessions.Clear(ctx, userID); err != nil {
		logger.Warn(ctx, logger.CompConversation, "session.clear_failed", logger.Err(err)...)
	}
	e.finish(ctx, d.Command, outcome)
	return outcome, m.SendText(text)
}

// storeFailed apologises and resets the user to idle after a session store
// error. The returned error carries the store failure.
func (e *Engine) storeFailed(ctx context.Context, m Messenger, userID int64, d Search, op string, err error) (Outcome, error) {
	err = fmt.Errorf("%s: %w", op, err)
	e.logFailure(ctx, "session.store_failed", d, err)
	out, sendErr := e.end(ctx, m, userID, d, OutcomeFail, presenter.TextApology)
	return out, errors.Join(err, sendErr)
}

func (e *Engine) finish(ctx context.Context, cmd hotels.Command, outcome Outcome) {
	metrics.ObserveConversation(string(cmd), string(outcome))
	logger.Debug(ctx, logger.CompConversation, "search.finished",
		slog.String("command", string(cmd)),
		slog.String("outcome", string(outcome)),
	)
}

func (e *Engine) logFailure(ctx context.Context, event string, d Search, err error) {
	attrs := []slog.Attr{
		slog.String("command", string(d.Command)),
		slog.String("city_id", string(d.CityID)),
	}
	logger.Warn(ctx, logger.CompConversation, event, append(attrs, logger.Err(err)...)...)
}
