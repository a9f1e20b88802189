package unit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	assert.Equal(t, 300*time.Second, opts.Timeout())
	assert.Equal(t, 10, opts.Niceness())
	assert.False(t, opts.Verbose())
	assert.False(t, opts.PingGate())
}

func TestOptionsCoercion(t *testing.T) {
	// Config file values arrive as strings or ints depending on the source;
	// both must coerce.
	opts := Options{"timeout": "45", "niceness": 5, "verbose": "true", "ping_gate": true}
	assert.Equal(t, 45*time.Second, opts.Timeout())
	assert.Equal(t, 5, opts.Niceness())
	assert.True(t, opts.Verbose())
	assert.True(t, opts.PingGate())
}

func TestOptionsInvalidTimeoutFallsBack(t *testing.T) {
	opts := Options{"timeout": "not-a-number"}
	assert.Equal(t, 300*time.Second, opts.Timeout())

	opts = Options{"timeout": -3}
	assert.Equal(t, 300*time.Second, opts.Timeout())
}

func TestVersionOfDefaultsToUnknown(t *testing.T) {
	u := newFakeUnit("plain", "true")
	assert.Equal(t, "unknown", VersionOf(u))
}
