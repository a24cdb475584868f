package run

import (
	"time"

	"github.com/vk/flowgrid/internal/cache"
)

const (
	defaultWorkers     = 4
	defaultKeepAlive   = 10 * time.Second
	defaultEventBuffer = 64
)

// Options configures a single run.
type Options struct {
	// Outputs is the subset of vertex ids whose results the caller wants.
	// Empty means every interface-output vertex, falling back to all
	// in-scope vertices when the flow declares none.
	Outputs []string

	// StartID and StopID bound a partial rerun; either may be empty.
	StartID string
	StopID  string

	// Workers caps how many same-layer vertices build concurrently.
	Workers int

	// KeepAlive is the idle interval after which a keep-alive event is
	// emitted. Zero disables keep-alives.
	KeepAlive time.Duration

	// EventBuffer sizes the event channel handed to the consumer.
	EventBuffer int

	// Cache carries build results across resumed runs. Nil means a fresh
	// per-run cache.
	Cache *cache.Store
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = defaultEventBuffer
	}
	if o.Cache == nil {
		o.Cache = cache.New()
	}
	return o
}
