package mqbridge

import (
	"sync/atomic"

	zmq "github.com/pebbe/zmq4"
)

// Message is an ordered sequence of ZeroMQ frames. A single-frame message
// is a length-1 Message; multipart messages preserve frame order.
type Message [][]byte

// CommandFunc is a closure submitted via Socket.Command. It runs on the
// poller goroutine with exclusive access to the native socket, and may
// return an arbitrary result value or an error.
type CommandFunc func(sock *zmq.Socket) (any, error)

// commandResult is what travels back over a socket's ctl_out channel.
// value is the nil-sentinel translation target: a CommandFunc returning
// (nil, nil) still produces exactly one commandResult, so the blocking
// caller of Socket.Command always unblocks.
type commandResult struct {
	value any
	err   error
}

// commandKind discriminates the Command tagged union exchanged over the
// command queue, injector to poller.
type commandKind int

const (
	cmdRegister commandKind = iota
	cmdClose
	cmdInvoke
	cmdSend
)

// registerRequest is what travels over a Context's ctlChan, from the
// goroutine calling NewSocket to the injector. It carries the freshly
// created native socket plus all four channels of the Socket handle; the
// injector splits it into an input side (kept for itself) and an output
// side (forwarded to the poller via the command queue).
type registerRequest struct {
	typ    zmq.Type
	sock   *zmq.Socket
	in     chan Message
	out    chan Message
	ctlIn  chan CommandFunc
	ctlOut chan commandResult
	// live is flipped false by the poller during teardown (§4.3 Close(id)
	// handling, once the native socket is closed, and for every remaining
	// entry during shutdown), backing Socket.Terminated with a cheap,
	// round-trip-free check.
	live *atomic.Bool
	// registered carries the assigned Socket Id back once the injector
	// has inserted the socket into its own registry and queued the
	// Register command for the poller, so any later command for the
	// socket is dispatched after its registration.
	registered chan string
}

// Command is the tagged variant carried by the command queue. Exactly one
// of its payload fields is meaningful, selected by kind.
type Command struct {
	kind commandKind

	id string

	// cmdRegister
	sock   *zmq.Socket
	out    chan Message
	ctlOut chan commandResult
	live   *atomic.Bool

	// cmdInvoke
	fn CommandFunc

	// cmdSend
	payload Message
}
