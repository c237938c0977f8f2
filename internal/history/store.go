// Package history persists completed searches in postgres.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Rzhek/TelegramHotelsBot/core/database"
	"github.com/Rzhek/TelegramHotelsBot/core/logger"
	"github.com/Rzhek/TelegramHotelsBot/internal/hotels"
	"github.com/Rzhek/TelegramHotelsBot/internal/metrics"
	"github.com/Rzhek/TelegramHotelsBot/migrations"
)

// idSep joins hotel ids in the requests.hotels column.
const idSep = ", "

// Store is the HistoryStore. The zero value is closed.
type Store struct {
	cfg database.Config

	mu     sync.Mutex
	db     *sqlx.DB
	closed bool
}

// NewStore wraps an already migrated connection pool.
func NewStore(db *sqlx.DB, cfg database.Config) *Store {
	cfg.Normalize()
	return &Store{db: db, cfg: cfg}
}

// Open connects to postgres and applies pending migrations.
func Open(ctx context.Context, cfg database.Config) (*Store, error) {
	cfg.Normalize()
	if err := database.RunMigrations(ctx, cfg, migrations.FS); err != nil {
		return nil, err
	}
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(db, cfg), nil
}

// Close releases the pool. It is safe to call more than once and on a zero Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.db == nil {
		s.closed = true
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) conn() (*sqlx.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.db == nil {
		return nil, errors.New("history store is closed")
	}
	return s.db, nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// RecordRequest stores the hotels (first write wins per hotel id) and one
// request row in a single transaction, returning the new request id.
func (s *Store) RecordRequest(ctx context.Context, userID int64, cmd hotels.Command, city string, hs []hotels.Hotel) (id int64, err error) {
	defer func() { metrics.ObserveHistoryWrite(err) }()

	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	start := time.Now()
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, h := range hs {
		if _, err = tx.ExecContext(ctx, insertHotelSQL,
			h.ID, h.Name, nullString(h.Address), h.Price, nullFloat(h.Rating), h.Distance,
		); err != nil {
			return 0, fmt.Errorf("insert hotel %s: %w", h.ID, err)
		}
	}
	ids := hotels.HotelIDs(hs)
	if err = tx.GetContext(ctx, &id, insertRequestSQL, userID, string(cmd), city, strings.Join(ids, idSep)); err != nil {
		return 0, fmt.Errorf("insert request: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	logger.Info(ctx, logger.CompHistory, "request.recorded",
		slog.Int64("request_id", id),
		slog.String("command", string(cmd)),
		slog.Int("hotels", len(hs)),
		slog.Duration("duration", logger.Took(start)),
	)
	return id, nil
}

type requestRow struct {
	ID        int64     `db:"request_id"`
	UserID    int64     `db:"user_id"`
	Command   string    `db:"command"`
	City      string    `db:"city"`
	CreatedAt time.Time `db:"created_at"`
	Hotels    string    `db:"hotels"`
}

type hotelRow struct {
	ID       string          `db:"hotel_id"`
	Name     string          `db:"name"`
	Address  sql.NullString  `db:"address"`
	Price    string          `db:"price"`
	Rating   sql.NullFloat64 `db:"rating"`
	Distance float64         `db:"distance"`
}

func (r hotelRow) hotel() hotels.Hotel {
	h := hotels.Hotel{ID: r.ID, Name: r.Name, Price: r.Price, Distance: r.Distance}
	if r.Address.Valid {
		a := r.Address.String
		h.Address = &a
	}
	if r.Rating.Valid {
		v := r.Rating.Float64
		h.Rating = &v
	}
	return h
}

// ListRequests returns the user's requests newest first with their hotels
// resolved in stored order. Ids missing from the hotels table are skipped.
func (s *Store) ListRequests(ctx context.Context, userID int64) ([]hotels.Request, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var rows []requestRow
	if err := db.SelectContext(ctx, &rows, listRequestsSQL, userID); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	perRequest := make([][]string, len(rows))
	seen := map[string]struct{}{}
	var all []string
	for i, r := range rows {
		perRequest[i] = splitIDs(r.Hotels)
		for _, id := range perRequest[i] {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				all = append(all, id)
			}
		}
	}

	byID := make(map[string]hotels.Hotel, len(all))
	if len(all) > 0 {
		var hrows []hotelRow
		if err := db.SelectContext(ctx, &hrows, hotelsByIDSQL, pq.Array(all)); err != nil {
			return nil, fmt.Errorf("resolve hotels: %w", err)
		}
		for _, hr := range hrows {
			byID[hr.ID] = hr.hotel()
		}
	}

	out := make([]hotels.Request, 0, len(rows))
	for i, r := range rows {
		req := hotels.Request{
			ID:        r.ID,
			UserID:    r.UserID,
			Command:   hotels.Command(r.Command),
			City:      r.City,
			CreatedAt: r.CreatedAt,
			Hotels:    make([]hotels.Hotel, 0, len(perRequest[i])),
		}
		for _, id := range perRequest[i] {
			h, ok := byID[id]
			if !ok {
				logger.Warn(ctx, logger.CompHistory, "hotel.missing",
					slog.Int64("request_id", r.ID),
					slog.String("hotel_id", id),
				)
				continue
			}
			req.Hotels = append(req.Hotels, h)
		}
		out = append(out, req)
	}
	return out, nil
}

// Reset drops every table and recreates the schema. Lock contention is
// reported as hotels.ErrStoreLocked and leaves the store usable.
func (s *Store) Reset(ctx context.Context) error {
	err := database.ResetSchema(ctx, s.cfg, migrations.FS)
	if err == nil {
		logger.Info(ctx, logger.CompHistory, "store.reset", slog.String("status", "ok"))
		return nil
	}
	if database.IsLockError(err) {
		logger.Warn(ctx, logger.CompHistory, "store.reset", append([]slog.Attr{slog.String("status", "fail")}, logger.Err(err)...)...)
		return hotels.ErrStoreLocked.Wrap(err)
	}
	return err
}

func splitIDs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
