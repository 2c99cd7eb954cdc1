package worker

import "time"

// Backoff is a linear retry schedule: attempt n waits n*Base. Any positive
// Base yields a strictly increasing delay.
type Backoff struct {
	Base time.Duration
}

func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * b.Base
}
