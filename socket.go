package mqbridge

import (
	"sync"
	"sync/atomic"

	zmq "github.com/pebbe/zmq4"
)

// Socket is the user-facing handle bundling the four channels the bridge
// engine wires to one native socket: in/ctl_in (read by the injector) and
// out/ctl_out (written by the poller). A Socket is safe to use from any
// number of goroutines concurrently.
type Socket struct {
	id  string
	typ zmq.Type
	ctx *Context

	in     chan Message
	out    chan Message
	ctlIn  chan CommandFunc
	ctlOut chan commandResult

	// cmdMu serializes Command round trips, so each caller reads the
	// result of its own closure from the single-slot ctl_out.
	cmdMu sync.Mutex

	live      *atomic.Bool
	closeOnce sync.Once
	closed    atomic.Bool
}

// ID returns the Socket Id assigned at registration, stable for the
// lifetime of the socket and unique within its Context's process.
func (s *Socket) ID() string { return s.id }

// Type returns the ZeroMQ socket type this handle was created with.
func (s *Socket) Type() zmq.Type { return s.typ }

// Send enqueues one message onto the socket's input side without
// blocking. A single frame produces a single-frame Message; multiple
// frames produce a multipart Message. If the injector has no ready
// receiver for in right now (buffer full, or not yet registered), the
// message is dropped and Send returns false.
func (s *Socket) Send(frames ...[]byte) bool {
	if len(frames) == 0 {
		return false
	}
	msg := make(Message, len(frames))
	copy(msg, frames)
	select {
	case s.in <- msg:
		return true
	default:
		s.ctx.stats.dropped.Add(1)
		s.ctx.log.Debug().Str("socket", s.id).Log("dropped send: no ready receiver")
		return false
	}
}

// Recv blocks until a message arrives on the socket's output side, or the
// socket is torn down. ok is false exactly when the socket (or its
// Context) has closed out.
func (s *Socket) Recv() (msg Message, ok bool) {
	msg, ok = <-s.out
	return msg, ok
}

// TryRecv is the non-blocking counterpart to Recv.
func (s *Socket) TryRecv() (msg Message, ok bool) {
	select {
	case msg, ok = <-s.out:
		return msg, ok
	default:
		return nil, false
	}
}

// Command runs fn on the poller goroutine with exclusive access to the
// native socket, blocking until it completes. A nil, nil return from fn
// comes back as (nil, nil) here too — the nil-sentinel translation is
// invisible to callers in Go, since nil already is the empty value.
// If fn returned a non-nil error, Command returns it wrapped in
// *CommandError.
func (s *Socket) Command(fn CommandFunc) (any, error) {
	s.cmdMu.Lock()
	s.ctlIn <- fn
	res := <-s.ctlOut
	s.cmdMu.Unlock()
	if res.err != nil {
		return nil, &CommandError{Err: res.err}
	}
	s.ctx.stats.commands.Add(1)
	return res.value, nil
}

// Terminated reports whether the socket has completed teardown. It is a
// cheap, non-blocking check backed by a flag the poller flips during
// Close(id) handling or context shutdown — no round trip required.
func (s *Socket) Terminated() bool {
	if s.live == nil {
		return s.closed.Load()
	}
	return !s.live.Load()
}

// Close requests orderly teardown of the socket: closing in causes the
// injector to notice on its next select iteration and drive the rest of
// §4.4's teardown path. Close is idempotent; subsequent calls are no-ops.
func (s *Socket) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.in)
	})
}
