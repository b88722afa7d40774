// Package mqbridge provides a thread-safe bridge between ZeroMQ sockets
// (via github.com/pebbe/zmq4) and Go channels.
//
// # Architecture
//
// ZeroMQ sockets are strictly single-threaded: a given socket handle must
// only ever be touched by one goroutine. mqbridge solves this by running
// exactly two long-lived goroutines per [Context]:
//
//   - the poller, the single owner of every native socket, blocked in
//     zmq4's multi-socket readiness call except when dispatching a
//     command or forwarding received frames;
//   - the injector, the single owner of the read side of every user
//     input channel, translating user intent (sends, commands, socket
//     registration/teardown) into a one-way command stream consumed only
//     by the poller.
//
// The two goroutines are coupled by a one-way signaling pair (an
// in-process PUSH/PULL ZeroMQ pair) plus a shared command queue. There is
// no channel running in the other direction, which is what makes the
// design deadlock-free: the poller never waits on the injector, and the
// injector never waits on the poller except to hand off a command, which
// the poller always eventually drains.
//
// # Usage
//
//	ctx := mqbridge.NewContext()
//	defer ctx.Close()
//
//	rep, err := ctx.NewSocket(zmq4.REP, mqbridge.WithBind("inproc://example"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer rep.Close()
//
//	msg, ok := rep.Recv()
//	if ok {
//		rep.Send(msg[0])
//	}
//
// # Thread safety
//
// [Socket] and [Context] methods are safe to call from any goroutine.
// Native sockets themselves are never exposed outside the poller
// goroutine; all socket manipulation happens via [Socket.Command] and the
// thin wrappers in helpers.go, which marshal a closure to the poller and
// wait for its result.
package mqbridge
