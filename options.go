package mqbridge

import "time"

// ContextOption configures a Context at construction time.
type ContextOption func(*contextConfig)

type contextConfig struct {
	ioThreads int
	logger    *logger
	// loggerSet distinguishes "WithLogger was never called" (fall back to
	// defaultLogger) from "WithLogger(nil) was called" (silence logging),
	// since both leave logger equal to nil.
	loggerSet bool
	outBuffer int
}

func defaultContextConfig() contextConfig {
	return contextConfig{
		ioThreads: 1,
		outBuffer: 1000,
	}
}

// WithIOThreads sets the number of ZeroMQ context IO threads. Default 1.
func WithIOThreads(n int) ContextOption {
	return func(c *contextConfig) { c.ioThreads = n }
}

// WithLogger overrides the structured logger used for lifecycle, drop,
// and error events. Passing nil silences logging entirely.
func WithLogger(l *logger) ContextOption {
	return func(c *contextConfig) {
		c.logger = l
		c.loggerSet = true
	}
}

// WithOutBuffer overrides the default bound (1000) applied to a socket's
// out channel when the socket is created without an out channel of its
// own supplied via WithChannels.
func WithOutBuffer(n int) ContextOption {
	return func(c *contextConfig) { c.outBuffer = n }
}

// SocketOption configures one socket at creation time, mirroring the
// recognized factory option keys of the socket factory options table:
// endpoint binds/connects, identity, HWMs, PLAIN credentials, ZAP domain,
// REQ relaxed/correlate, conflate, immediate, subscriptions, linger, and
// user-supplied in/out channels.
type SocketOption func(*socketConfig) error

type socketConfig struct {
	binds        []string
	connects     []string
	identity     []byte
	plainServer  *bool
	plainUser    string
	plainPass    string
	zapDomain    string
	sndhwm       *int
	rcvhwm       *int
	subscribe    []string
	reqRelaxed   bool
	reqCorrelate bool
	conflate     bool
	immediate    *bool
	linger       *time.Duration
	outBuffer    int
	in           chan Message
	out          chan Message
}

// WithBind binds the socket to addr at creation, before it is registered.
func WithBind(addr string) SocketOption {
	return func(c *socketConfig) error {
		c.binds = append(c.binds, addr)
		return nil
	}
}

// WithConnect connects the socket to addr at creation, before it is
// registered.
func WithConnect(addr string) SocketOption {
	return func(c *socketConfig) error {
		c.connects = append(c.connects, addr)
		return nil
	}
}

// WithAttach applies the @/> endpoint shortcut: a leading '@' binds, a
// leading '>' connects, anything else is rejected with ErrInvalidEndpoint.
func WithAttach(endpoint string) SocketOption {
	return func(c *socketConfig) error {
		if len(endpoint) == 0 {
			return ErrInvalidEndpoint
		}
		switch endpoint[0] {
		case '@':
			c.binds = append(c.binds, endpoint[1:])
		case '>':
			c.connects = append(c.connects, endpoint[1:])
		default:
			return ErrInvalidEndpoint
		}
		return nil
	}
}

// WithIdentity sets the socket's ZMTP identity frame.
func WithIdentity(id []byte) SocketOption {
	return func(c *socketConfig) error {
		c.identity = id
		return nil
	}
}

// WithPlainServer configures PLAIN authentication in server mode.
func WithPlainServer(server bool) SocketOption {
	return func(c *socketConfig) error {
		c.plainServer = &server
		return nil
	}
}

// WithPlainCredentials configures PLAIN authentication in client mode.
func WithPlainCredentials(user, pass string) SocketOption {
	return func(c *socketConfig) error {
		c.plainUser = user
		c.plainPass = pass
		return nil
	}
}

// WithZapDomain sets the ZAP authentication domain.
func WithZapDomain(domain string) SocketOption {
	return func(c *socketConfig) error {
		c.zapDomain = domain
		return nil
	}
}

// WithSendHWM sets the send high-water mark.
func WithSendHWM(n int) SocketOption {
	return func(c *socketConfig) error {
		c.sndhwm = &n
		return nil
	}
}

// WithRecvHWM sets the receive high-water mark.
func WithRecvHWM(n int) SocketOption {
	return func(c *socketConfig) error {
		c.rcvhwm = &n
		return nil
	}
}

// WithSubscribe subscribes a SUB or XSUB socket to topic.
func WithSubscribe(topic string) SocketOption {
	return func(c *socketConfig) error {
		c.subscribe = append(c.subscribe, topic)
		return nil
	}
}

// WithReqRetry enables REQ relaxed mode plus correlation, allowing a REQ
// socket to send again before receiving a reply (e.g. after a timeout).
func WithReqRetry(retry bool) SocketOption {
	return func(c *socketConfig) error {
		c.reqRelaxed = retry
		c.reqCorrelate = retry
		return nil
	}
}

// WithConflate keeps only the latest message in each direction, dropping
// older unread ones.
func WithConflate(conflate bool) SocketOption {
	return func(c *socketConfig) error {
		c.conflate = conflate
		return nil
	}
}

// WithImmediate controls whether outbound messages queue only once a
// connection is actually established.
func WithImmediate(immediate bool) SocketOption {
	return func(c *socketConfig) error {
		c.immediate = &immediate
		return nil
	}
}

// WithLinger overrides the socket's linger period applied on Close.
func WithLinger(d time.Duration) SocketOption {
	return func(c *socketConfig) error {
		c.linger = &d
		return nil
	}
}

// WithOutBufferSize overrides the Context-wide default out channel
// buffer for this socket only.
func WithOutBufferSize(n int) SocketOption {
	return func(c *socketConfig) error {
		c.outBuffer = n
		return nil
	}
}

// WithChannels supplies user-created in/out channels in place of the
// ones NewSocket would otherwise allocate, enabling a caller-owned
// transducer pipeline (see WithPipeline) to sit between the bridge and
// the application. Either may be nil to keep the default.
func WithChannels(in, out chan Message) SocketOption {
	return func(c *socketConfig) error {
		c.in = in
		c.out = out
		return nil
	}
}
