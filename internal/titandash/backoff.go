package titandash

import "time"

// backoff doubles the delay on each call up to max
type backoff struct {
	base time.Duration
	cur  time.Duration
	max  time.Duration
}

func newBackoff(base, max time.Duration) *backoff {
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = base
	}
	return &backoff{base: base, cur: base, max: max}
}

// Next returns the delay to wait before the next attempt
func (b *backoff) Next() time.Duration {
	d := b.cur
	b.cur *= 2
	if b.cur > b.max {
		b.cur = b.max
	}
	return d
}

// Reset starts over from the base delay
func (b *backoff) Reset() {
	b.cur = b.base
}
