package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance time manually.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *fakeClock) now() time.Time          { return c.t }

func newTestTracker() (*VoiceTracker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	vt := NewVoiceTracker()
	vt.now = clock.now
	return vt, clock
}

func TestTrackUntrack(t *testing.T) {
	vt, clock := newTestTracker()

	_, wasTracked := vt.Track(1)
	assert.False(t, wasTracked)

	clock.advance(90 * time.Second)
	dur, ok := vt.Untrack(1)
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, dur)

	_, ok = vt.Untrack(1)
	assert.False(t, ok)
}

func TestTrackRestartsMark(t *testing.T) {
	vt, clock := newTestTracker()

	vt.Track(1)
	clock.advance(30 * time.Second)

	dur, wasTracked := vt.Track(1)
	require.True(t, wasTracked)
	assert.Equal(t, 30*time.Second, dur)

	clock.advance(10 * time.Second)
	dur, ok := vt.Untrack(1)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, dur, "mark was restarted by Track")
}

func TestFlush(t *testing.T) {
	vt, clock := newTestTracker()

	vt.Track(1)
	vt.Track(2)
	clock.advance(60 * time.Second)

	durs := vt.Flush()
	require.Len(t, durs, 2)
	assert.Equal(t, 60*time.Second, durs[1])
	assert.Equal(t, 60*time.Second, durs[2])

	// Marks restarted: a second flush right away yields zeros.
	durs = vt.Flush()
	require.Len(t, durs, 2)
	assert.Zero(t, durs[1])

	clock.advance(30 * time.Second)
	dur, ok := vt.Untrack(1)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, dur)
}
