// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/sync.go
// Summary: Completion token returned by finished frames.

package render

import (
	"sync"
	"time"
)

// SyncPoint signals completion of a rendering operation. Backends signal it
// once the frame's effects are visible in the target; CPU backends signal
// immediately, GPU backends may signal from a fence callback.
type SyncPoint struct {
	done chan struct{}
	once sync.Once
}

// NewSyncPoint returns an unsignaled sync point.
func NewSyncPoint() *SyncPoint {
	return &SyncPoint{done: make(chan struct{})}
}

// Signaled returns an already-signaled sync point, used when there was
// nothing to render.
func Signaled() *SyncPoint {
	s := NewSyncPoint()
	s.Signal()
	return s
}

// Signal marks the sync point as reached. Safe to call more than once.
func (s *SyncPoint) Signal() {
	s.once.Do(func() { close(s.done) })
}

// IsSignaled reports whether the sync point has been reached.
func (s *SyncPoint) IsSignaled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done exposes the completion channel for select loops.
func (s *SyncPoint) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the sync point is signaled.
func (s *SyncPoint) Wait() {
	<-s.done
}

// WaitTimeout blocks up to d and reports whether the sync point was
// signaled in time.
func (s *SyncPoint) WaitTimeout(d time.Duration) bool {
	select {
	case <-s.done:
		return true
	case <-time.After(d):
		return false
	}
}
