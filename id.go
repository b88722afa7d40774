package mqbridge

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	zmq "github.com/pebbe/zmq4"
)

// idGenerator produces Socket Ids of the form "{thread-tag}-{socket-type}-
// {counter}". The thread-tag is a short uuid prefix computed once per
// Context, so ids stay disambiguated even when several Contexts coexist
// in one process (e.g. under test) and get logged to a shared sink.
type idGenerator struct {
	tag     string
	counter atomic.Uint64
}

func newIDGenerator() *idGenerator {
	return &idGenerator{tag: uuid.New().String()[:8]}
}

func (g *idGenerator) next(typ zmq.Type) string {
	n := g.counter.Add(1)
	return fmt.Sprintf("%s-%s-%d", g.tag, socketTypeName(typ), n)
}

func socketTypeName(typ zmq.Type) string {
	switch typ {
	case zmq.PAIR:
		return "pair"
	case zmq.PUB:
		return "pub"
	case zmq.SUB:
		return "sub"
	case zmq.REQ:
		return "req"
	case zmq.REP:
		return "rep"
	case zmq.DEALER:
		return "dealer"
	case zmq.ROUTER:
		return "router"
	case zmq.XPUB:
		return "xpub"
	case zmq.XSUB:
		return "xsub"
	case zmq.PULL:
		return "pull"
	case zmq.PUSH:
		return "push"
	case zmq.STREAM:
		return "stream"
	default:
		return "unknown"
	}
}
