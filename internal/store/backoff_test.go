package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 30_000 * time.Millisecond},
		{1, 60_000 * time.Millisecond},
		{2, 120_000 * time.Millisecond},
		{3, 240_000 * time.Millisecond},
		{4, 480_000 * time.Millisecond},
		{5, 600_000 * time.Millisecond},
		{10, 600_000 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.attempts), "attempts=%d", tt.attempts)
	}
}
