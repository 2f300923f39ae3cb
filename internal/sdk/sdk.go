// Package sdk defines the boundary to the identity SDK that computes
// cohorts and writes them to the signal store. The engine only needs
// to know whether the SDK has finished its first evaluation and, once
// it has, whether it published a live module configuration.
package sdk

import "sync"

// Client is the identity SDK as seen by the engine.
type Client interface {
	// Ready reports whether the SDK has completed its first
	// evaluation and the store contents are current.
	Ready() bool
	// OnReady registers a one-shot listener invoked when the SDK
	// becomes ready. If the SDK is already ready the listener fires
	// synchronously. Listeners cannot be cancelled.
	OnReady(fn func())
	// LiveConfig returns the platform-pushed module configuration as
	// raw JSON, if the SDK has one. The second return is false when
	// the SDK is unreachable or has published nothing.
	LiveConfig() ([]byte, bool)
}

// Fake is an in-process Client for tests and local runs. Readiness and
// the published config are driven explicitly.
type Fake struct {
	mu        sync.Mutex
	ready     bool
	config    []byte
	listeners []func()
}

// NewFake returns a Fake that is not yet ready and has no config.
func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *Fake) OnReady(fn func()) {
	f.mu.Lock()
	if f.ready {
		f.mu.Unlock()
		fn()
		return
	}
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
}

func (f *Fake) LiveConfig() ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.config == nil {
		return nil, false
	}
	return f.config, true
}

// Publish sets the live configuration returned by LiveConfig.
func (f *Fake) Publish(raw []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.config = raw
}

// SetReady flips the fake to ready and fires pending listeners in
// registration order.
func (f *Fake) SetReady() {
	f.mu.Lock()
	if f.ready {
		f.mu.Unlock()
		return
	}
	f.ready = true
	pending := f.listeners
	f.listeners = nil
	f.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}
