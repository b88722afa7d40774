package mqbridge_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	zmq "github.com/pebbe/zmq4"

	"github.com/joeycumines/go-mqbridge"
)

func TestPingPongReqRep(t *testing.T) {
	ctx := mqbridge.NewContext()
	defer ctx.Close()

	rep, err := ctx.NewSocket(zmq.REP, mqbridge.WithBind("inproc://ping-pong-rep"))
	require.NoError(t, err)

	req, err := ctx.NewSocket(zmq.REQ, mqbridge.WithConnect("inproc://ping-pong-rep"))
	require.NoError(t, err)

	const iterations = 200
	go func() {
		for i := 0; i < iterations; i++ {
			msg, ok := rep.Recv()
			if !ok {
				return
			}
			rep.Send(append([]byte("pong-"), msg[0]...))
		}
	}()

	for i := 0; i < iterations; i++ {
		payload := []byte(fmt.Sprintf("%d", i))
		for !req.Send(payload) {
			time.Sleep(time.Millisecond)
		}
		reply, ok := req.Recv()
		require.True(t, ok)
		require.Equal(t, "pong-"+string(payload), string(reply[0]))
	}
}

func TestMultipartIntegrity(t *testing.T) {
	ctx := mqbridge.NewContext()
	defer ctx.Close()

	a, err := ctx.NewSocket(zmq.PAIR, mqbridge.WithBind("inproc://multipart-integrity"))
	require.NoError(t, err)
	b, err := ctx.NewSocket(zmq.PAIR, mqbridge.WithConnect("inproc://multipart-integrity"))
	require.NoError(t, err)

	frames := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	require.Eventually(t, func() bool {
		return a.Send(frames...)
	}, time.Second, time.Millisecond)

	msg, ok := b.Recv()
	require.True(t, ok)
	require.Len(t, msg, 3)
	require.Equal(t, "one", string(msg[0]))
	require.Equal(t, "two", string(msg[1]))
	require.Equal(t, "three", string(msg[2]))
}

func TestCommandRoundTrip(t *testing.T) {
	ctx := mqbridge.NewContext()
	defer ctx.Close()

	sock, err := ctx.NewSocket(zmq.PAIR)
	require.NoError(t, err)

	result, err := sock.Command(func(native *zmq.Socket) (any, error) {
		if err := native.SetLinger(0); err != nil {
			return nil, err
		}
		return native.GetLinger()
	})
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), result)
}

func TestCommandErrorIsWrapped(t *testing.T) {
	ctx := mqbridge.NewContext()
	defer ctx.Close()

	sock, err := ctx.NewSocket(zmq.PAIR)
	require.NoError(t, err)

	sentinel := fmt.Errorf("boom")
	_, err = sock.Command(func(native *zmq.Socket) (any, error) {
		return nil, sentinel
	})
	require.Error(t, err)
	var cmdErr *mqbridge.CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.ErrorIs(t, err, sentinel)
}

func TestSendEventuallySucceedsOnceRegistered(t *testing.T) {
	ctx := mqbridge.NewContext()
	defer ctx.Close()

	sock, err := ctx.NewSocket(zmq.PUSH)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return sock.Send([]byte("hello"))
	}, time.Second, time.Millisecond, "Send must succeed once the injector is actively selecting on in")
}

func TestPubSubFanout(t *testing.T) {
	ctx := mqbridge.NewContext()
	defer ctx.Close()

	pub, err := ctx.NewSocket(zmq.PUB, mqbridge.WithBind("inproc://pub-sub-fanout"))
	require.NoError(t, err)

	const subscribers = 10
	subs := make([]*mqbridge.Socket, subscribers)
	for i := range subs {
		sub, err := ctx.NewSocket(zmq.SUB, mqbridge.WithConnect("inproc://pub-sub-fanout"), mqbridge.WithSubscribe(""))
		require.NoError(t, err)
		subs[i] = sub
	}

	// Allow subscriptions to propagate before publishing.
	time.Sleep(50 * time.Millisecond)

	require.Eventually(t, func() bool {
		return pub.Send([]byte("hello"))
	}, time.Second, time.Millisecond)

	for _, sub := range subs {
		msg, ok := sub.Recv()
		require.True(t, ok)
		require.Equal(t, "hello", string(msg[0]))
	}
}

func TestSocketCloseUnblocksRecv(t *testing.T) {
	ctx := mqbridge.NewContext()
	defer ctx.Close()

	sock, err := ctx.NewSocket(zmq.PAIR)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, ok := sock.Recv()
		require.False(t, ok)
	}()

	sock.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Recv did not unblock after Close")
	}
}
