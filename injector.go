package mqbridge

import "reflect"

// injectorCaseKind tags what a dynamic reflect.Select case represents, so
// the result of a select can be routed without re-deriving it from the
// channel value itself.
type injectorCaseKind int

const (
	caseCtl injectorCaseKind = iota
	caseIn
	caseCtlIn
)

type injectorCase struct {
	kind injectorCaseKind
	id   string
}

// runInjector is the injector task: single owner of the read side of
// every user input channel, translating user intent into Commands
// dispatched to the poller through the command queue. It never
// synchronously awaits a poller response, so no cycle exists between the
// two tasks.
func (c *Context) runInjector() {
	reg := newInjectorRegistry()

	for {
		cases := []reflect.SelectCase{
			{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(c.ctlChan)},
		}
		meta := []injectorCase{{kind: caseCtl}}

		for id, chans := range reg.entries {
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(chans.in)})
			meta = append(meta, injectorCase{kind: caseIn, id: id})
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(chans.ctlIn)})
			meta = append(meta, injectorCase{kind: caseCtlIn, id: id})
		}

		chosen, value, ok := reflect.Select(cases)
		m := meta[chosen]

		switch m.kind {
		case caseCtl:
			if !ok {
				c.shutdownInjector(reg)
				return
			}
			req := value.Interface().(*registerRequest)
			c.registerSocket(reg, req)

		case caseIn:
			if !ok {
				c.teardownSocket(reg, m.id)
				continue
			}
			payload := value.Interface().(Message)
			c.cmdQueue.push(Command{kind: cmdSend, id: m.id, payload: payload})
			c.signal(signalMessage)

		case caseCtlIn:
			if !ok {
				// ctl_in is only ever closed by the injector itself
				// (during teardown/shutdown), at which point its entry
				// is already gone from reg — this case is unreachable
				// in normal operation.
				continue
			}
			fn := value.Interface().(CommandFunc)
			c.cmdQueue.push(Command{kind: cmdInvoke, id: m.id, fn: fn})
			c.signal(signalMessage)
		}
	}
}

func (c *Context) registerSocket(reg *injectorRegistry, req *registerRequest) {
	id := c.idGen.next(req.typ)
	reg.register(id, injectorChans{in: req.in, ctlIn: req.ctlIn})

	c.cmdQueue.push(Command{
		kind:   cmdRegister,
		id:     id,
		sock:   req.sock,
		out:    req.out,
		ctlOut: req.ctlOut,
		live:   req.live,
	})
	c.signal(signalMessage)

	req.registered <- id
}

// teardownSocket handles the "chans[id].in closed" path: in is already
// closed by the user (that's the event we just observed), so only
// ctl_in — which the injector itself owns the closing of — needs
// closing here.
func (c *Context) teardownSocket(reg *injectorRegistry, id string) {
	chans, ok := reg.entries[id]
	if !ok {
		return
	}
	close(chans.ctlIn)
	reg.remove(id)

	c.cmdQueue.push(Command{kind: cmdClose, id: id})
	c.signal(signalMessage)
}

// shutdownInjector handles ctl_chan closing: every remaining socket's
// input side is closed (in, if the user hasn't already closed it, plus
// ctl_in, which is always still open at this point), then the shutdown
// signal is sent and injector_term is raised.
func (c *Context) shutdownInjector(reg *injectorRegistry) {
	for _, chans := range reg.entries {
		closeIfOpen(chans.in)
		close(chans.ctlIn)
	}
	c.signal(signalShutdown)
	close(c.injectorTerm)
}

// closeIfOpen closes ch unless it has already been closed by someone
// else, discarding at most one in-flight value in the process. in is
// unbuffered, so a concurrent sender can have at most one value pending;
// dropping it during shutdown is acceptable.
func closeIfOpen(ch chan Message) {
	select {
	case _, ok := <-ch:
		if ok {
			close(ch)
		}
	default:
		close(ch)
	}
}
