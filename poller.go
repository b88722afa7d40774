package mqbridge

import (
	"fmt"
	"math/rand/v2"

	zmq "github.com/pebbe/zmq4"
)

// runPoller is the poller task: single owner of every native socket in
// the Context, blocked in ZeroMQ's multi-socket readiness call except
// when dispatching a command or forwarding received frames. It never
// reads from a user channel, so no user-channel closure can stall it.
func (c *Context) runPoller() {
	reg := newPollerRegistry(c.pull)

	for {
		ids, poller := buildPoller(reg)

		polled, err := poller.Poll(-1)
		if err != nil {
			c.log.Err().Err(err).Log("poller readiness call failed")
			continue
		}

		ready := make([]int, 0, len(polled))
		for i, p := range polled {
			if p.Events&zmq.POLLIN != 0 {
				ready = append(ready, i)
			}
		}
		if len(ready) == 0 {
			continue
		}
		idx := ready[rand.IntN(len(ready))]
		id := ids[idx]
		sock := reg.socks[id]

		frames, err := recvAll(sock)
		if err != nil {
			c.log.Warning().Err(err).Str("socket", id).Log("failed to receive message")
			continue
		}

		if id == injectSignalID {
			if done := c.handleSignal(reg, frames); done {
				return
			}
			continue
		}

		chans, ok := reg.chans[id]
		if !ok {
			continue
		}
		select {
		case chans.out <- Message(frames):
		default:
			c.stats.dropped.Add(1)
			c.log.Debug().Str("socket", id).Log("dropped inbound message: out buffer full")
		}
	}
}

// buildPoller constructs a fresh readiness object over every socket
// currently registered, returning the ids in the same order the sockets
// were added so Poll's result slice can be matched back to an id by
// index.
func buildPoller(reg *pollerRegistry) ([]string, *zmq.Poller) {
	ids := make([]string, 0, len(reg.socks))
	poller := zmq.NewPoller()
	for id, sock := range reg.socks {
		ids = append(ids, id)
		poller.Add(sock, zmq.POLLIN)
	}
	return ids, poller
}

// recvAll reads every frame of the current message on sock, following
// the "more" flag until it clears.
func recvAll(sock *zmq.Socket) (Message, error) {
	var msg Message
	for {
		frame, err := sock.RecvBytes(0)
		if err != nil {
			return nil, err
		}
		msg = append(msg, frame)
		more, err := sock.GetRcvmore()
		if err != nil {
			return nil, err
		}
		if !more {
			return msg, nil
		}
	}
}

// handleSignal dispatches whichever tag arrived over the signaling pair.
// It returns true once the shutdown path has been fully handled and the
// poller loop should exit.
func (c *Context) handleSignal(reg *pollerRegistry, frames Message) bool {
	if len(frames) != 1 || len(frames[0]) != 1 {
		c.log.Err().Log("malformed signal frame: invariant breach")
		panic("mqbridge: malformed signal frame")
	}

	switch frames[0][0] {
	case signalMessage:
		c.dispatchCommand(reg)
		return false
	case signalShutdown:
		c.handleShutdown(reg)
		return true
	default:
		c.log.Err().Log("unrecognized signal tag: invariant breach")
		panic("mqbridge: unrecognized signal tag")
	}
}

// dispatchCommand drains exactly one Command from the queue — the signal
// guarantees one is present — and applies it.
func (c *Context) dispatchCommand(reg *pollerRegistry) {
	cmd, ok := c.cmdQueue.pop()
	if !ok {
		c.log.Err().Log("message signal with no queued command: invariant breach")
		panic("mqbridge: message signal observed with empty command queue")
	}

	switch cmd.kind {
	case cmdRegister:
		reg.register(cmd.id, cmd.sock, pollerChans{out: cmd.out, ctlOut: cmd.ctlOut, live: cmd.live})
		c.stats.registered.Add(1)
		c.log.Debug().Str("socket", cmd.id).Log("socket registered")

	case cmdClose:
		c.closeRegisteredSocket(reg, cmd.id)

	case cmdInvoke:
		c.invokeCommand(reg, cmd)

	case cmdSend:
		c.sendPayload(reg, cmd)

	default:
		c.log.Err().Log("unrecognized command kind: invariant breach")
		panic("mqbridge: unrecognized command kind")
	}
}

func (c *Context) closeRegisteredSocket(reg *pollerRegistry, id string) {
	sock, ok := reg.socks[id]
	if !ok {
		return
	}
	if err := sock.Close(); err != nil {
		c.log.Warning().Err(err).Str("socket", id).Log("failed to close native socket")
	}
	chans := reg.chans[id]
	if chans.live != nil {
		chans.live.Store(false)
	}
	close(chans.out)
	close(chans.ctlOut)
	reg.remove(id)
	c.stats.closed.Add(1)
	c.log.Debug().Str("socket", id).Log("socket torn down")
}

func (c *Context) invokeCommand(reg *pollerRegistry, cmd Command) {
	sock, ok := reg.socks[cmd.id]
	chans, chansOK := reg.chans[cmd.id]
	if !ok || !chansOK {
		c.log.Debug().Str("socket", cmd.id).Log("command dropped: socket no longer registered")
		return
	}

	res := runCommandFunc(cmd.fn, sock)
	select {
	case chans.ctlOut <- res:
	default:
		c.log.Warning().Str("socket", cmd.id).Log("command result dropped: ctl_out not ready")
	}
}

// runCommandFunc executes fn with panic recovery, so a misbehaving user
// closure cannot take down the poller goroutine.
func runCommandFunc(fn CommandFunc, sock *zmq.Socket) commandResult {
	var res commandResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				res = commandResult{err: fmt.Errorf("mqbridge: command panicked: %v", r)}
			}
		}()
		value, err := fn(sock)
		res = commandResult{value: value, err: err}
	}()
	return res
}

func (c *Context) sendPayload(reg *pollerRegistry, cmd Command) {
	sock, ok := reg.socks[cmd.id]
	if !ok {
		return
	}
	for i, frame := range cmd.payload {
		flags := zmq.DONTWAIT
		if i < len(cmd.payload)-1 {
			flags |= zmq.SNDMORE
		}
		if _, err := sock.SendBytes(frame, flags); err != nil {
			c.stats.dropped.Add(1)
			c.log.Warning().Err(err).Str("socket", cmd.id).Log("transient send failure, message dropped")
			return
		}
	}
	c.stats.sent.Add(1)
}

func (c *Context) handleShutdown(reg *pollerRegistry) {
	owned := reg.userSockets()
	for id, chans := range reg.chans {
		if chans.live != nil {
			chans.live.Store(false)
		}
		close(chans.out)
		close(chans.ctlOut)
		reg.remove(id)
	}
	c.pollerTerm <- owned
	close(c.pollerDone)
}
