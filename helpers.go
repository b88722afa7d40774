package mqbridge

import (
	"context"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"
)

// Bind binds sock to addr on the poller goroutine, via Command.
func Bind(sock *Socket, addr string) error {
	_, err := sock.Command(func(native *zmq.Socket) (any, error) {
		return nil, native.Bind(addr)
	})
	return err
}

// Unbind unbinds sock from addr on the poller goroutine, via Command.
func Unbind(sock *Socket, addr string) error {
	_, err := sock.Command(func(native *zmq.Socket) (any, error) {
		return nil, native.Unbind(addr)
	})
	return err
}

// Connect connects sock to addr on the poller goroutine, via Command.
func Connect(sock *Socket, addr string) error {
	_, err := sock.Command(func(native *zmq.Socket) (any, error) {
		return nil, native.Connect(addr)
	})
	return err
}

// Disconnect disconnects sock from addr on the poller goroutine, via
// Command.
func Disconnect(sock *Socket, addr string) error {
	_, err := sock.Command(func(native *zmq.Socket) (any, error) {
		return nil, native.Disconnect(addr)
	})
	return err
}

// Subscribe subscribes a SUB or XSUB socket to topic.
func Subscribe(sock *Socket, topic string) error {
	_, err := sock.Command(func(native *zmq.Socket) (any, error) {
		return nil, native.SetSubscribe(topic)
	})
	return err
}

// Unsubscribe removes a subscription added with Subscribe.
func Unsubscribe(sock *Socket, topic string) error {
	_, err := sock.Command(func(native *zmq.Socket) (any, error) {
		return nil, native.SetUnsubscribe(topic)
	})
	return err
}

// SetLinger overrides the socket's linger period.
func SetLinger(sock *Socket, d time.Duration) error {
	_, err := sock.Command(func(native *zmq.Socket) (any, error) {
		return nil, native.SetLinger(d)
	})
	return err
}

// Attach applies the @/> endpoint shortcut to sock: a leading '@' binds,
// a leading '>' connects, anything else is rejected.
func Attach(sock *Socket, endpoint string) error {
	if len(endpoint) == 0 {
		return ErrInvalidEndpoint
	}
	switch endpoint[0] {
	case '@':
		return Bind(sock, endpoint[1:])
	case '>':
		return Connect(sock, endpoint[1:])
	default:
		return ErrInvalidEndpoint
	}
}

// Proxy pipes x's received messages into y's input side and vice versa,
// until ctx is cancelled or either socket is torn down. It works only
// through each Socket's own channels (reading out, enqueuing onto in
// without blocking, as Send does) and never touches a native socket
// directly, matching the XSUB/XPUB proxy usage pattern:
// Proxy(ctx, xsub, xpub).
func Proxy(ctx context.Context, x, y *Socket) error {
	pctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(2)
	go pipe(pctx, cancel, &wg, x, y)
	go pipe(pctx, cancel, &wg, y, x)
	wg.Wait()
	return ctx.Err()
}

// pipe relays from's received messages into to, and cancels the other
// direction when it returns.
func pipe(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup, from, to *Socket) {
	defer wg.Done()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-from.out:
			if !ok {
				return
			}
			to.sendMessage(msg)
		}
	}
}

// sendMessage enqueues a full, already-framed Message, used internally
// by Proxy to preserve multipart boundaries that Socket.Send's variadic
// signature would otherwise have to reconstruct frame by frame.
func (s *Socket) sendMessage(msg Message) bool {
	select {
	case s.in <- msg:
		return true
	default:
		s.ctx.stats.dropped.Add(1)
		return false
	}
}

// PipelineStage transforms one frame, or signals the frame (and its
// enclosing message, if any stage in the chain drops a frame) should be
// discarded by returning keep=false.
type PipelineStage func(frame []byte) (transformed []byte, keep bool)

// PipelineSocket wraps a Socket's inbound path with a chain of
// PipelineStage transforms, standing in for the channel library's
// optional per-channel transducer pipeline. Send, Command, Close, and
// the other Socket operations are inherited unchanged.
type PipelineSocket struct {
	*Socket
	out chan Message
}

// WithPipeline returns sock wrapped so that every message read via the
// returned handle's Recv/TryRecv has passed through stages, in order.
// A message is discarded entirely if any stage rejects any one of its
// frames.
func WithPipeline(sock *Socket, stages ...PipelineStage) *PipelineSocket {
	ps := &PipelineSocket{Socket: sock, out: make(chan Message, cap(sock.out))}
	go ps.run(stages)
	return ps
}

func (ps *PipelineSocket) run(stages []PipelineStage) {
	defer close(ps.out)
	for {
		msg, ok := ps.Socket.Recv()
		if !ok {
			return
		}
		transformed, keep := applyStages(msg, stages)
		if !keep {
			continue
		}
		ps.out <- transformed
	}
}

func applyStages(msg Message, stages []PipelineStage) (Message, bool) {
	out := make(Message, 0, len(msg))
	for _, frame := range msg {
		keep := true
		for _, stage := range stages {
			frame, keep = stage(frame)
			if !keep {
				break
			}
		}
		if !keep {
			return nil, false
		}
		out = append(out, frame)
	}
	return out, true
}

// Recv blocks until a transformed message is available, or the
// underlying socket's output side has been exhausted.
func (ps *PipelineSocket) Recv() (Message, bool) {
	msg, ok := <-ps.out
	return msg, ok
}

// TryRecv is the non-blocking counterpart to Recv.
func (ps *PipelineSocket) TryRecv() (Message, bool) {
	select {
	case msg, ok := <-ps.out:
		return msg, ok
	default:
		return nil, false
	}
}
