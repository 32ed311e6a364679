package strava

import (
	"net/http"
	"testing"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		in    string
		short int
		daily int
		ok    bool
	}{
		{"34,512", 34, 512, true},
		{"100, 1000", 100, 1000, true},
		{"", 0, 0, false},
		{"42", 0, 0, false},
		{"a,b", 0, 0, false},
	}
	for _, tt := range tests {
		short, daily, ok := parsePair(tt.in)
		if short != tt.short || daily != tt.daily || ok != tt.ok {
			t.Errorf("parsePair(%q) = %d,%d,%v want %d,%d,%v",
				tt.in, short, daily, ok, tt.short, tt.daily, tt.ok)
		}
	}
}

func TestUpdateFromHeaders(t *testing.T) {
	r := NewRateLimiter()

	h := http.Header{}
	h.Set("X-RateLimit-Limit", "200,2000")
	h.Set("X-RateLimit-Usage", "34,512")
	r.UpdateFromHeaders(h)

	shortRemaining, dailyRemaining := r.Status()
	if shortRemaining != 166 {
		t.Errorf("shortRemaining = %d, want 166", shortRemaining)
	}
	if dailyRemaining != 1488 {
		t.Errorf("dailyRemaining = %d, want 1488", dailyRemaining)
	}
}

func TestUpdateFromHeadersIgnoresGarbage(t *testing.T) {
	r := NewRateLimiter()
	before1, before2 := r.Status()

	h := http.Header{}
	h.Set("X-RateLimit-Usage", "not,numbers")
	r.UpdateFromHeaders(h)

	after1, after2 := r.Status()
	if after1 != before1 || after2 != before2 {
		t.Error("malformed headers changed limiter state")
	}
}
