package feed

import "time"

// backoff computes reconnect waits: the base interval doubles on each
// consecutive failure, capped, and resets to the base on success.
type backoff struct {
	base time.Duration
	max  time.Duration
	next time.Duration
}

func newBackoff(base, max time.Duration) *backoff {
	return &backoff{base: base, max: max, next: base}
}

// Next returns the wait for the current failure and advances the schedule.
func (b *backoff) Next() time.Duration {
	wait := b.next
	b.next *= 2
	if b.next > b.max {
		b.next = b.max
	}
	return wait
}

// Reset restores the base interval after a successful reconnect.
func (b *backoff) Reset() {
	b.next = b.base
}
