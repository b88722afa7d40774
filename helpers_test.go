package mqbridge_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	zmq "github.com/pebbe/zmq4"

	"github.com/joeycumines/go-mqbridge"
)

func TestAttachRejectsInvalidEndpoint(t *testing.T) {
	ctx := mqbridge.NewContext()
	defer ctx.Close()

	sock, err := ctx.NewSocket(zmq.PAIR)
	require.NoError(t, err)

	err = mqbridge.Attach(sock, "inproc://missing-prefix")
	require.ErrorIs(t, err, mqbridge.ErrInvalidEndpoint)

	err = mqbridge.Attach(sock, "")
	require.ErrorIs(t, err, mqbridge.ErrInvalidEndpoint)
}

func TestAttachBindAndConnect(t *testing.T) {
	ctx := mqbridge.NewContext()
	defer ctx.Close()

	a, err := ctx.NewSocket(zmq.PAIR)
	require.NoError(t, err)
	require.NoError(t, mqbridge.Attach(a, "@inproc://attach-bind-connect"))

	b, err := ctx.NewSocket(zmq.PAIR)
	require.NoError(t, err)
	require.NoError(t, mqbridge.Attach(b, ">inproc://attach-bind-connect"))

	require.Eventually(t, func() bool {
		return a.Send([]byte("hi"))
	}, time.Second, time.Millisecond)

	msg, ok := b.Recv()
	require.True(t, ok)
	require.Equal(t, "hi", string(msg[0]))
}

func TestXSubXPubProxy(t *testing.T) {
	ctx := mqbridge.NewContext()
	defer ctx.Close()

	xpub, err := ctx.NewSocket(zmq.XPUB, mqbridge.WithBind("inproc://proxy-xpub"))
	require.NoError(t, err)
	xsub, err := ctx.NewSocket(zmq.XSUB, mqbridge.WithBind("inproc://proxy-xsub"))
	require.NoError(t, err)

	proxyCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mqbridge.Proxy(proxyCtx, xsub, xpub)

	const publishers = 5
	const subscribers = 20

	pubs := make([]*mqbridge.Socket, publishers)
	for i := range pubs {
		pub, err := ctx.NewSocket(zmq.PUB, mqbridge.WithConnect("inproc://proxy-xsub"))
		require.NoError(t, err)
		pubs[i] = pub
	}

	subs := make([]*mqbridge.Socket, subscribers)
	for i := range subs {
		sub, err := ctx.NewSocket(zmq.SUB, mqbridge.WithConnect("inproc://proxy-xpub"), mqbridge.WithSubscribe(""))
		require.NoError(t, err)
		subs[i] = sub
	}

	time.Sleep(100 * time.Millisecond)

	for _, pub := range pubs {
		require.Eventually(t, func() bool {
			return pub.Send([]byte("fanout"))
		}, time.Second, time.Millisecond)
	}

	for _, sub := range subs {
		msg, ok := sub.Recv()
		require.True(t, ok)
		require.Equal(t, "fanout", string(msg[0]))
	}
}

func TestPipelineTransformsAndFilters(t *testing.T) {
	ctx := mqbridge.NewContext()
	defer ctx.Close()

	a, err := ctx.NewSocket(zmq.PAIR, mqbridge.WithBind("inproc://pipeline-transform"))
	require.NoError(t, err)
	b, err := ctx.NewSocket(zmq.PAIR, mqbridge.WithConnect("inproc://pipeline-transform"))
	require.NoError(t, err)

	upper := func(frame []byte) ([]byte, bool) {
		out := make([]byte, len(frame))
		for i, c := range frame {
			if c >= 'a' && c <= 'z' {
				c -= 'a' - 'A'
			}
			out[i] = c
		}
		return out, true
	}
	dropEmpty := func(frame []byte) ([]byte, bool) {
		return frame, len(frame) > 0
	}

	piped := mqbridge.WithPipeline(b, upper, dropEmpty)

	require.Eventually(t, func() bool { return a.Send([]byte("drop")) }, time.Second, time.Millisecond)
	// An empty frame is rejected by dropEmpty, so its message never reaches piped.
	require.Eventually(t, func() bool { return a.Send([]byte{}) }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return a.Send([]byte("keep")) }, time.Second, time.Millisecond)

	msg, ok := piped.Recv()
	require.True(t, ok)
	require.Equal(t, "DROP", string(msg[0]))

	msg, ok = piped.Recv()
	require.True(t, ok)
	require.Equal(t, "KEEP", string(msg[0]))
}
