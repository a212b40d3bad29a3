package clock

import (
	"testing"
	"time"
)

func TestSystemClock_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	now := SystemClock{Location: loc}.Now()

	if now.Location() != loc {
		t.Fatalf("location = %v, want %v", now.Location(), loc)
	}
}

func TestFixed(t *testing.T) {
	at := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	if got := Fixed(at).Now(); !got.Equal(at) {
		t.Fatalf("Now() = %v, want %v", got, at)
	}
}
