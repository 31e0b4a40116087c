package statemachine

import "go.uber.org/atomic"

// Stats counts move attempts over a machine's lifetime.
type Stats struct {
	Attempts    int64
	Transitions int64
	Rejections  int64
}

type counters struct {
	attempts    atomic.Int64
	transitions atomic.Int64
	rejections  atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Attempts:    c.attempts.Load(),
		Transitions: c.transitions.Load(),
		Rejections:  c.rejections.Load(),
	}
}
