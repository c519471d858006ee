package server

import "sync/atomic"

// ReloadSignal is the shared flag between the build trigger and the reload
// endpoint. The producer raises it after a watched rebuild; the first poll to
// consume it observes true and clears it, so exactly one poll sees each
// raised signal no matter how many browser sessions are polling. Delivery is
// shared, not per-client, and a client polling between two rebuilds may miss
// an intermediate signal; that is acceptable for a development reload loop.
type ReloadSignal struct {
	flag atomic.Bool
}

// NewReloadSignal creates an unraised signal.
func NewReloadSignal() *ReloadSignal {
	return &ReloadSignal{}
}

// Raise marks a reload as pending.
func (s *ReloadSignal) Raise() {
	s.flag.Store(true)
}

// Consume reports whether a reload was pending and clears it atomically.
func (s *ReloadSignal) Consume() bool {
	return s.flag.Swap(false)
}
