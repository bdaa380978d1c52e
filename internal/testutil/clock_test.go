package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_Stopped(t *testing.T) {
	start := Date(2026, time.October, 18, 9, 30)
	clock := NewClock(start)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start, clock.Now())
}

func TestClock_SetAndAdvance(t *testing.T) {
	clock := NewClock(Date(2026, time.October, 31, 23, 0))

	clock.Advance(2 * time.Hour)
	assert.Equal(t, Date(2026, time.November, 1, 1, 0), clock.Now())

	clock.Set(Date(2026, time.January, 1, 0, 0))
	assert.Equal(t, Date(2026, time.January, 1, 0, 0), clock.Now())
}

func TestClock_ThreadSafe(t *testing.T) {
	clock := NewClock(Date(2026, time.October, 18, 0, 0))
	const numGoroutines = 100

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Minute)
			_ = clock.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, Date(2026, time.October, 18, 1, 40), clock.Now())
}
