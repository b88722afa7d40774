package mqbridge

// signal is the one-byte tag carried over the signaling pair. The pair's
// sole purpose is waking the poller out of its blocking readiness call;
// the payload it carries is never the command itself, only a hint about
// what the poller should do next.
type signal = byte

const (
	// signalMessage tells the poller a Command is waiting in the command
	// queue.
	signalMessage signal = 1
	// signalShutdown tells the poller the context is tearing down and no
	// further commands will be enqueued.
	signalShutdown signal = 2
)
