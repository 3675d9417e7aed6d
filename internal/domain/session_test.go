package domain

import (
	"testing"
	"time"
)

func TestSessionExpiredAt(t *testing.T) {
	expires := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := Session{Value: "tok", Expires: expires}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "before expiry", now: expires.Add(-time.Minute), want: false},
		{name: "exactly at expiry", now: expires, want: true},
		{name: "after expiry", now: expires.Add(time.Minute), want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := session.ExpiredAt(tc.now); got != tc.want {
				t.Errorf("ExpiredAt(%s) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}
