package scanner

import "time"

// Entries older than this many cooldown windows are evicted on each sweep,
// so the map stays bounded over long uptimes.
const cooldownEvictAfter = 4

// cooldownState tracks the last alert time per pair+direction key. It is
// owned by the scanner loop and never shared, so no locking is needed.
type cooldownState struct {
	lastAlert map[string]time.Time
}

func newCooldownState() *cooldownState {
	return &cooldownState{lastAlert: make(map[string]time.Time)}
}

// ready reports whether the key is outside its cooldown window. A key seen
// exactly window ago is ready again.
func (c *cooldownState) ready(key string, now time.Time, window time.Duration) bool {
	last, ok := c.lastAlert[key]
	if !ok {
		return true
	}
	return now.Sub(last) >= window
}

func (c *cooldownState) stamp(key string, now time.Time) {
	c.lastAlert[key] = now
}

// sweep drops entries so old they can no longer suppress anything.
func (c *cooldownState) sweep(now time.Time, window time.Duration) {
	maxAge := time.Duration(cooldownEvictAfter) * window
	for key, last := range c.lastAlert {
		if now.Sub(last) > maxAge {
			delete(c.lastAlert, key)
		}
	}
}

func (c *cooldownState) size() int {
	return len(c.lastAlert)
}
