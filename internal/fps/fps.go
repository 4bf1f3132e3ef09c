// Package fps measures frame processing rate of the frame loop.
package fps

import "time"

// Counter calculates frames per second, refreshing the value once
// more than a second has elapsed since the last refresh.
type Counter struct {
	now        func() time.Time
	start      time.Time
	frameCount int
	fps        float64
}

// NewCounter creates counter using time.Now
func NewCounter() *Counter {
	return NewCounterWithClock(time.Now)
}

// NewCounterWithClock creates counter with custom time source
func NewCounterWithClock(now func() time.Time) *Counter {
	return &Counter{
		now:   now,
		start: now(),
	}
}

// Update registers one processed frame
func (c *Counter) Update() {
	c.frameCount++
	elapsed := c.now().Sub(c.start)
	if elapsed > time.Second {
		c.fps = float64(c.frameCount) / elapsed.Seconds()
		c.frameCount = 0
		c.start = c.now()
	}
}

// FPS returns last computed rate truncated to integer
func (c *Counter) FPS() int {
	return int(c.fps)
}
