// Package activity tracks discord voice chat sessions.
package activity

import (
	"sync"
	"time"
)

// VoiceTracker tracks how long discord users have been in voice
// chat. Safe for concurrent use.
type VoiceTracker struct {
	mu       sync.Mutex
	sessions map[int64]time.Time
	now      func() time.Time
}

// NewVoiceTracker creates an empty tracker
func NewVoiceTracker() *VoiceTracker {
	return &VoiceTracker{
		sessions: make(map[int64]time.Time),
		now:      time.Now,
	}
}

// Track begins tracking a user, or, if they are already tracked,
// returns the duration since the last mark and restarts it.
func (vt *VoiceTracker) Track(id int64) (time.Duration, bool) {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	now := vt.now()
	started, ok := vt.sessions[id]
	vt.sessions[id] = now
	if !ok {
		return 0, false
	}
	return now.Sub(started), true
}

// Untrack stops tracking a user and returns the duration since their
// last mark, false if they were not tracked.
func (vt *VoiceTracker) Untrack(id int64) (time.Duration, bool) {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	started, ok := vt.sessions[id]
	if !ok {
		return 0, false
	}
	delete(vt.sessions, id)
	return vt.now().Sub(started), true
}

// Flush returns the accumulated duration of every tracked session
// and restarts their marks. Called periodically so long sessions are
// credited incrementally.
func (vt *VoiceTracker) Flush() map[int64]time.Duration {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	now := vt.now()
	out := make(map[int64]time.Duration, len(vt.sessions))
	for id, started := range vt.sessions {
		out[id] = now.Sub(started)
		vt.sessions[id] = now
	}
	return out
}
