package history

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Rzhek/TelegramHotelsBot/core/database"
	"github.com/Rzhek/TelegramHotelsBot/internal/hotels"
)

func TestSplitIDs(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"1", []string{"1"}},
		{"1, 2, 3", []string{"1", "2", "3"}},
		{"1,2,, 3 ", []string{"1", "2", "3"}},
	}
	for _, tc := range cases {
		got := splitIDs(tc.in)
		if len(got) != len(tc.want) {
			t.Fatalf("splitIDs(%q) = %v, want %v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("splitIDs(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}

func TestHotelRowNulls(t *testing.T) {
	h := hotelRow{ID: "1", Name: "A", Price: "$10"}.hotel()
	if h.Address != nil || h.Rating != nil {
		t.Fatalf("expected nil address and rating, got %+v", h)
	}

	h = hotelRow{
		ID: "2", Name: "B",
		Address: sql.NullString{String: "Main St", Valid: true},
		Rating:  sql.NullFloat64{Float64: 3.5, Valid: true},
	}.hotel()
	if h.Address == nil || *h.Address != "Main St" || h.Rating == nil || *h.Rating != 3.5 {
		t.Fatalf("unexpected hotel %+v", h)
	}
}

func TestNullHelpers(t *testing.T) {
	if v := nullString(nil); v.Valid {
		t.Fatalf("nullString(nil) should be invalid")
	}
	s := "x"
	if v := nullString(&s); !v.Valid || v.String != "x" {
		t.Fatalf("nullString = %+v", v)
	}
	if v := nullFloat(nil); v.Valid {
		t.Fatalf("nullFloat(nil) should be invalid")
	}
	f := 0.0
	if v := nullFloat(&f); !v.Valid || v.Float64 != 0 {
		t.Fatalf("nullFloat = %+v", v)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	var s Store
	if err := s.Close(); err != nil {
		t.Fatalf("close zero store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	st := NewStore(nil, database.Config{})
	if err := st.Close(); err != nil {
		t.Fatalf("close nil pool: %v", err)
	}
}

func TestClosedStoreRejectsCalls(t *testing.T) {
	var s Store
	_ = s.Close()
	ctx := context.Background()
	if _, err := s.RecordRequest(ctx, 1, hotels.CommandLowPrice, "Paris", nil); err == nil {
		t.Fatalf("expected error from closed store")
	}
	if _, err := s.ListRequests(ctx, 1); err == nil {
		t.Fatalf("expected error from closed store")
	}
	if err := s.Ping(ctx); err == nil {
		t.Fatalf("expected error from closed store")
	}
}
