package mqbridge

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	zmq "github.com/pebbe/zmq4"
)

// Context is a logical grouping owning one ZeroMQ context, one signaling
// pair, one command queue, one control channel, and the injector/poller
// goroutine pair. Both tasks are either not yet started, both alive, or
// both terminated — never exactly one alive once started.
type Context struct {
	cfg contextConfig
	log *logger

	zctx  *zmq.Context
	idGen *idGenerator

	initMu  sync.Mutex
	started bool

	// closeMu guards the race between Close closing ctlChan and NewSocket
	// sending on it: NewSocket holds a read lock for the duration of its
	// send, Close takes the write lock before closing, so a send can
	// never land on an already-closed channel.
	closeMu sync.RWMutex

	signalAddr string
	push       *zmq.Socket
	pull       *zmq.Socket

	cmdQueue *commandQueue
	ctlChan  chan *registerRequest

	injectorTerm chan struct{}
	pollerDone   chan struct{}
	pollerTerm   chan []*zmq.Socket

	closeOnce sync.Once
	closeDone chan struct{}
	closed    atomic.Bool

	stats statsCounters
}

var (
	defaultCtxOnce sync.Once
	defaultCtx     *Context
)

// DefaultContext returns a process-wide Context, created lazily on first
// use. Unlike a Context returned by NewContext, it is never closed
// automatically; close it explicitly once no more sockets will be
// created against it.
func DefaultContext() *Context {
	defaultCtxOnce.Do(func() {
		defaultCtx = NewContext()
	})
	return defaultCtx
}

// contextAddrCounter disambiguates the inproc signaling address across
// Contexts sharing a process.
var contextAddrCounter atomic.Uint64

// NewContext constructs a Context. The injector and poller goroutines are
// not started until the first call to NewSocket or Init.
func NewContext(opts ...ContextOption) *Context {
	cfg := defaultContextConfig()
	for _, o := range opts {
		o(&cfg)
	}
	switch {
	case cfg.loggerSet && cfg.logger == nil:
		cfg.logger = nopLogger()
	case cfg.logger == nil:
		cfg.logger = defaultLogger()
	}

	n := contextAddrCounter.Add(1)
	return &Context{
		cfg:          cfg,
		log:          cfg.logger,
		idGen:        newIDGenerator(),
		signalAddr:   fmt.Sprintf("inproc://mqbridge-signal-%d", n),
		cmdQueue:     newCommandQueue(),
		ctlChan:      make(chan *registerRequest),
		injectorTerm: make(chan struct{}),
		pollerDone:   make(chan struct{}),
		pollerTerm:   make(chan []*zmq.Socket, 1),
		closeDone:    make(chan struct{}),
	}
}

// Init starts the injector and poller goroutines if they have not already
// started, guarded by a mutex so concurrent callers race safely. It
// reports whether this call actually started them.
func (c *Context) Init() bool {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.started || c.closed.Load() {
		return false
	}

	zctx, err := zmq.NewContext()
	if err != nil {
		// A ZeroMQ context failing to allocate is not a recoverable
		// per-call condition, it's an environment failure; the bridge
		// cannot proceed at all.
		panic(fmt.Errorf("mqbridge: new zmq context: %w", err))
	}
	if c.cfg.ioThreads > 0 {
		if err := zctx.SetIoThreads(c.cfg.ioThreads); err != nil {
			c.log.Warning().Err(err).Log("failed to set io thread count")
		}
	}
	c.zctx = zctx

	pull, err := zctx.NewSocket(zmq.PULL)
	if err != nil {
		panic(fmt.Errorf("mqbridge: new signal pull socket: %w", err))
	}
	_ = pull.SetConflate(true)
	if err := pull.Bind(c.signalAddr); err != nil {
		panic(fmt.Errorf("mqbridge: bind signal pull socket: %w", err))
	}

	push, err := zctx.NewSocket(zmq.PUSH)
	if err != nil {
		panic(fmt.Errorf("mqbridge: new signal push socket: %w", err))
	}
	_ = push.SetConflate(true)
	_ = push.SetImmediate(true)
	if err := push.Connect(c.signalAddr); err != nil {
		panic(fmt.Errorf("mqbridge: connect signal push socket: %w", err))
	}

	c.pull = pull
	c.push = push

	go c.runPoller()
	go c.runInjector()

	c.started = true
	return true
}

// signal sends a one-byte tag through the signaling pair. Conflate is
// enabled on both ends, so this never blocks in practice: a pending,
// unread tag is simply replaced.
func (c *Context) signal(tag signal) {
	if _, err := c.push.SendBytes([]byte{tag}, 0); err != nil {
		c.log.Err().Err(err).Log("failed to send signal")
	}
}

// NewSocket creates a native socket of the given type, applies opts, and
// registers it with the bridge engine. The returned Socket is usable
// immediately: before NewSocket returns, the injector has registered it
// and queued its Register command ahead of any later command for it.
func (c *Context) NewSocket(typ zmq.Type, opts ...SocketOption) (*Socket, error) {
	c.Init()
	if c.closed.Load() {
		return nil, ErrContextTerminated
	}

	var cfg socketConfig
	cfg.outBuffer = c.cfg.outBuffer
	for _, o := range opts {
		if err := o(&cfg); err != nil {
			return nil, err
		}
	}

	sock, err := c.zctx.NewSocket(typ)
	if err != nil {
		return nil, fmt.Errorf("mqbridge: new socket: %w", err)
	}
	if err := applySocketConfig(sock, &cfg); err != nil {
		_ = sock.Close()
		return nil, err
	}

	in := cfg.in
	if in == nil {
		in = make(chan Message)
	}
	out := cfg.out
	if out == nil {
		out = make(chan Message, cfg.outBuffer)
	}
	ctlIn := make(chan CommandFunc)
	ctlOut := make(chan commandResult, 1)
	live := &atomic.Bool{}
	live.Store(true)

	req := &registerRequest{
		typ:        typ,
		sock:       sock,
		in:         in,
		out:        out,
		ctlIn:      ctlIn,
		ctlOut:     ctlOut,
		live:       live,
		registered: make(chan string, 1),
	}

	c.closeMu.RLock()
	if c.closed.Load() {
		c.closeMu.RUnlock()
		_ = sock.Close()
		return nil, ErrContextTerminated
	}
	c.ctlChan <- req
	c.closeMu.RUnlock()

	id := <-req.registered

	return &Socket{
		id:     id,
		typ:    typ,
		ctx:    c,
		in:     in,
		out:    out,
		ctlIn:  ctlIn,
		ctlOut: ctlOut,
		live:   live,
	}, nil
}

// Terminated reports whether both the injector and poller tasks have
// exited.
func (c *Context) Terminated() bool {
	select {
	case <-c.injectorTerm:
	default:
		return false
	}
	select {
	case <-c.pollerDone:
	default:
		return false
	}
	return true
}

// Stats returns a snapshot of the Context's activity counters.
func (c *Context) Stats() Stats { return c.stats.snapshot() }

// Close shuts the Context down: closes ctl_chan, waits for the injector
// then the poller to confirm termination, then closes the owned native
// sockets, the signaling pair, and the ZeroMQ context itself. Close is
// idempotent: it reports true exactly once, false on every later call.
func (c *Context) Close() bool {
	first := false
	c.closeOnce.Do(func() {
		first = true

		c.initMu.Lock()
		started := c.started
		c.initMu.Unlock()

		if started {
			c.closeMu.Lock()
			c.closed.Store(true)
			close(c.ctlChan)
			c.closeMu.Unlock()

			<-c.injectorTerm
			owned := <-c.pollerTerm

			for _, sock := range owned {
				if err := sock.Close(); err != nil {
					c.log.Warning().Err(err).Log("failed to close socket during shutdown")
				}
			}
			_ = c.push.Close()
			_ = c.pull.Close()
			if err := c.zctx.Term(); err != nil {
				c.log.Warning().Err(err).Log("failed to terminate zmq context")
			}
		}

		c.closed.Store(true)
		close(c.closeDone)
	})
	return first
}

// waitShutdown blocks until the Context has fully closed, or timeout
// elapses, whichever comes first. It's primarily useful in
// tests asserting on the shutdown barrier's timing.
func (c *Context) waitShutdown(timeout time.Duration) bool {
	select {
	case <-c.closeDone:
		return true
	case <-time.After(timeout):
		return false
	}
}
