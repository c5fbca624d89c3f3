package wallet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldNotifyLowBalance(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		lastNotifiedAt *time.Time
		want           bool
	}{
		{"never notified", nil, true},
		{"notified just now", timePtr(now), false},
		{"notified an hour ago", timePtr(now.Add(-time.Hour)), false},
		{"notified just under 24h ago", timePtr(now.Add(-24*time.Hour + time.Second)), false},
		{"notified exactly 24h ago", timePtr(now.Add(-24 * time.Hour)), true},
		{"notified two days ago", timePtr(now.Add(-48 * time.Hour)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldNotifyLowBalance(tt.lastNotifiedAt, now))
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
