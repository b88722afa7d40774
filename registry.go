package mqbridge

import (
	"sync/atomic"

	zmq "github.com/pebbe/zmq4"
)

// injectSignalID is the key under which the signaling pair's PULL socket
// is seeded in pollerRegistry.socks. The injector's ctl_chan has no entry
// in injectorRegistry; runInjector selects on it directly.
const injectSignalID = "__inject__"

// injectorRegistry is the injector's thread-confined view: socket id to
// its input-side channel pair. No locking is required — only the
// injector goroutine ever touches this map.
type injectorRegistry struct {
	entries map[string]injectorChans
}

type injectorChans struct {
	in    chan Message
	ctlIn chan CommandFunc
}

func newInjectorRegistry() *injectorRegistry {
	return &injectorRegistry{entries: make(map[string]injectorChans)}
}

func (r *injectorRegistry) register(id string, chans injectorChans) {
	r.entries[id] = chans
}

func (r *injectorRegistry) remove(id string) {
	delete(r.entries, id)
}

func (r *injectorRegistry) ids() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// pollerRegistry is the poller's thread-confined view: socket id to its
// native socket and output-side channel pair.
type pollerRegistry struct {
	socks map[string]*zmq.Socket
	chans map[string]pollerChans
}

type pollerChans struct {
	out    chan Message
	ctlOut chan commandResult
	live   *atomic.Bool
}

func newPollerRegistry(signalPull *zmq.Socket) *pollerRegistry {
	return &pollerRegistry{
		socks: map[string]*zmq.Socket{injectSignalID: signalPull},
		chans: make(map[string]pollerChans),
	}
}

func (r *pollerRegistry) register(id string, sock *zmq.Socket, chans pollerChans) {
	r.socks[id] = sock
	r.chans[id] = chans
}

func (r *pollerRegistry) remove(id string) {
	delete(r.socks, id)
	delete(r.chans, id)
}

// userSockets returns every native socket owned by the poller excluding
// the signaling pull socket, used when publishing the shutdown barrier's
// still-owned list.
func (r *pollerRegistry) userSockets() []*zmq.Socket {
	out := make([]*zmq.Socket, 0, len(r.socks))
	for id, sock := range r.socks {
		if id == injectSignalID {
			continue
		}
		out = append(out, sock)
	}
	return out
}
