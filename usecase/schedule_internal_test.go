package usecase

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A job that outlasts its tick must never run twice at once; overdue
// ticks are dropped instead of piling up concurrent firings.
func TestIntervalCron_SlowFiringsNeverOverlap(t *testing.T) {
	c := newIntervalCron(time.UTC)

	var active, maxActive, fired int32
	_, err := c.AddFunc("@every 1s", func() {
		cur := atomic.AddInt32(&active, 1)
		for {
			seen := atomic.LoadInt32(&maxActive)
			if cur <= seen || atomic.CompareAndSwapInt32(&maxActive, seen, cur) {
				break
			}
		}
		time.Sleep(1500 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		atomic.AddInt32(&fired, 1)
	})
	require.NoError(t, err)

	c.Start()
	time.Sleep(4 * time.Second)
	<-c.Stop().Done()

	assert.EqualValues(t, 1, atomic.LoadInt32(&maxActive), "firings ran concurrently")
	assert.GreaterOrEqual(t, atomic.LoadInt32(&fired), int32(1))
}
