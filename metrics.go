package mqbridge

import "sync/atomic"

// Stats holds lock-free counters describing bridge engine activity since
// the Context was created. Values are snapshots: subsequent activity may
// continue to change the live counters the instant after Stats returns.
type Stats struct {
	// Registered counts sockets that completed registration with the poller.
	Registered uint64
	// Closed counts sockets torn down individually after Socket.Close.
	// Sockets still registered when the Context shuts down are not counted.
	Closed uint64
	// Sent counts messages successfully handed to a native socket.
	Sent uint64
	// Dropped counts messages discarded under never-block semantics: a
	// Send with no ready receiver on in, an inbound message arriving while
	// out is full, or a native send that failed. Dropped command results
	// are not counted.
	Dropped uint64
	// Commands counts closures whose command round trip returned without
	// an error.
	Commands uint64
}

// statsCounters is the live, mutable counterpart to Stats.
type statsCounters struct {
	registered atomic.Uint64
	closed     atomic.Uint64
	sent       atomic.Uint64
	dropped    atomic.Uint64
	commands   atomic.Uint64
}

func (c *statsCounters) snapshot() Stats {
	return Stats{
		Registered: c.registered.Load(),
		Closed:     c.closed.Load(),
		Sent:       c.sent.Load(),
		Dropped:    c.dropped.Load(),
		Commands:   c.commands.Load(),
	}
}
