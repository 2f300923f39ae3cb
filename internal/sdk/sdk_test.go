package sdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFakeOnReadyDefersUntilReady(t *testing.T) {
	f := NewFake()
	fired := 0
	f.OnReady(func() { fired++ })
	assert.Equal(t, 0, fired)

	f.SetReady()
	assert.Equal(t, 1, fired)

	// SetReady is idempotent; listeners fire once
	f.SetReady()
	assert.Equal(t, 1, fired)
}

func TestFakeOnReadyFiresImmediatelyWhenReady(t *testing.T) {
	f := NewFake()
	f.SetReady()

	fired := false
	f.OnReady(func() { fired = true })
	assert.True(t, fired)
}

func TestFakeLiveConfig(t *testing.T) {
	f := NewFake()
	_, ok := f.LiveConfig()
	assert.False(t, ok)

	f.Publish([]byte(`{"params":{}}`))
	raw, ok := f.LiveConfig()
	assert.True(t, ok)
	assert.JSONEq(t, `{"params":{}}`, string(raw))
}
