package format

import "testing"

func TestDeref(t *testing.T) {
	s := "Main st. 1"
	if got := Deref(&s, "undefined"); got != s {
		t.Fatalf("Deref = %q", got)
	}
	if got := Deref[string](nil, "undefined"); got != "undefined" {
		t.Fatalf("Deref(nil) = %q", got)
	}
	if got := Deref[float64](nil, -1); got != -1 {
		t.Fatalf("Deref(nil) = %v", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Grand Hotel", 5); got != "Gran…" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("Inn", 5); got != "Inn" {
		t.Fatalf("Truncate = %q", got)
	}
}
