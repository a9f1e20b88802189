package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostOf(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"example.com", "example.com"},
		{"https://example.com", "example.com"},
		{"https://example.com:8443/path?q=1", "example.com"},
		{"example.com:443", "example.com"},
		{"example.com/path", "example.com"},
		{"10.0.0.5", "10.0.0.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hostOf(tt.target), "target %q", tt.target)
	}
}
