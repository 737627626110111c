package apikey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	key := New()
	assert.True(t, Valid(key), "generated key should match ak_[0-9a-f]{32}, got %q", key)
	assert.Len(t, key, len(Prefix)+32)
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		key := New()
		_, dup := seen[key]
		assert.False(t, dup, "duplicate key generated: %s", key)
		seen[key] = struct{}{}
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		valid bool
	}{
		{"well formed", "ak_0123456789abcdef0123456789abcdef", true},
		{"empty", "", false},
		{"missing prefix", "0123456789abcdef0123456789abcdef", false},
		{"wrong prefix", "sk_0123456789abcdef0123456789abcdef", false},
		{"too short", "ak_0123456789abcdef", false},
		{"too long", "ak_0123456789abcdef0123456789abcdef00", false},
		{"uppercase hex", "ak_0123456789ABCDEF0123456789ABCDEF", false},
		{"non-hex chars", "ak_0123456789abcdef0123456789abcdeg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, Valid(tt.key))
		})
	}
}
