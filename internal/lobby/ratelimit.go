package lobby

import "time"

// rateLimiter enforces the authenticated-phase inbound frame rate limit:
// a connection sending more than the configured frames-per-second for a
// sustained run of seconds is disconnected. It is not safe for concurrent
// use — each Conn owns one, driven only from its own readLoop.
type rateLimiter struct {
	windowStart  time.Time
	windowCount  int
	overLimitRun int
}

// onFrame records one inbound frame and reports whether the connection
// has now exceeded its sustained over-limit budget and should be closed.
// limit is the frames/second threshold; overLimitSecondsToKick is how
// many consecutive over-limit seconds are tolerated before closing.
func (rl *rateLimiter) onFrame(limit, overLimitSecondsToKick int) bool {
	if limit <= 0 {
		return false
	}

	now := time.Now()
	if rl.windowStart.IsZero() || now.Sub(rl.windowStart) >= time.Second {
		if !rl.windowStart.IsZero() {
			if rl.windowCount > limit {
				rl.overLimitRun++
			} else {
				rl.overLimitRun = 0
			}
		}
		rl.windowStart = now
		rl.windowCount = 0
	}
	rl.windowCount++

	return overLimitSecondsToKick > 0 && rl.overLimitRun >= overLimitSecondsToKick
}
