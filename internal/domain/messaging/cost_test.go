package messaging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegments(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty body", "", 0},
		{"single char", "a", 1},
		{"exactly one segment", strings.Repeat("a", 160), 1},
		{"one over the boundary", strings.Repeat("a", 161), 2},
		{"short reminder", strings.Repeat("a", 150), 1},
		{"two full segments", strings.Repeat("a", 320), 2},
		{"long broadcast", strings.Repeat("a", 500), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Segments(tt.body))
		})
	}
}

func TestQuoteCost(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		recipients int
		want       int
	}{
		{"one recipient one segment", strings.Repeat("a", 150), 1, 1},
		{"three recipients one segment", strings.Repeat("a", 150), 3, 3},
		{"two recipients two segments", strings.Repeat("a", 200), 2, 4},
		{"no recipients", strings.Repeat("a", 150), 0, 0},
		{"negative recipients", "hi", -1, 0},
		{"empty body", "", 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteCost(tt.body, tt.recipients))
		})
	}
}
