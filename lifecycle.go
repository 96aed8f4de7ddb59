// lifecycle.go: foreground/background transitions and footprint shrinking
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import "sync"

// AppState is the host application's visibility state.
type AppState string

const (
	StateForeground AppState = "foreground"
	StateBackground AppState = "background"
	StateInactive   AppState = "inactive"
)

// SubscriptionHandle identifies a LifecycleSource subscription.
type SubscriptionHandle uint64

// LifecycleSource delivers AppState transitions to subscribers.
type LifecycleSource interface {
	Subscribe(callback func(state AppState)) SubscriptionHandle
	Unsubscribe(handle SubscriptionHandle)
}

// Lifecycle is a LifecycleSource driven by the host through Transition.
type Lifecycle struct {
	mu    sync.Mutex
	next  SubscriptionHandle
	subs  map[SubscriptionHandle]func(AppState)
	state AppState
}

// NewLifecycle returns a Lifecycle starting in the foreground state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		subs:  make(map[SubscriptionHandle]func(AppState)),
		state: StateForeground,
	}
}

// Subscribe registers callback for future transitions.
func (l *Lifecycle) Subscribe(callback func(state AppState)) SubscriptionHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.subs[l.next] = callback
	return l.next
}

// Unsubscribe removes a subscription. Unknown handles are ignored.
func (l *Lifecycle) Unsubscribe(handle SubscriptionHandle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.subs, handle)
}

// State returns the last state passed to Transition.
func (l *Lifecycle) State() AppState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Transition records state and synchronously notifies every subscriber.
// Repeating the current state is not a transition and notifies nobody.
func (l *Lifecycle) Transition(state AppState) {
	l.mu.Lock()
	if state == l.state {
		l.mu.Unlock()
		return
	}
	l.state = state
	callbacks := make([]func(AppState), 0, len(l.subs))
	for _, cb := range l.subs {
		callbacks = append(callbacks, cb)
	}
	l.mu.Unlock()

	for _, cb := range callbacks {
		cb(state)
	}
}

// Subscribers returns the number of active subscriptions.
func (l *Lifecycle) Subscribers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

// onTransition is the Service's lifecycle callback.
func (s *Service) onTransition(state AppState) {
	if state != StateBackground && state != StateInactive {
		return
	}
	if s.destroyed.Load() {
		return
	}
	s.mu.Lock()
	resident := s.memory.len()
	removed := 0
	if resident > s.shrinkThreshold {
		removed = s.memory.shrinkToFootprint(s.shrinkTarget)
	}
	s.mu.Unlock()

	if removed > 0 {
		s.stats.recordEvictions(removed)
		s.logger.Info("hot tier shrunk", "state", string(state), "resident", resident, "removed", removed)
	}
}
