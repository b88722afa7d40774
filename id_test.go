package mqbridge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	zmq "github.com/pebbe/zmq4"
)

func TestIDGeneratorProducesUniqueIncreasingIDs(t *testing.T) {
	g := newIDGenerator()

	first := g.next(zmq.REQ)
	second := g.next(zmq.REP)

	require.NotEqual(t, first, second)
	require.True(t, strings.HasSuffix(first, "-req-1"))
	require.True(t, strings.HasSuffix(second, "-rep-2"))
	require.True(t, strings.HasPrefix(second, g.tag))
}

func TestSocketTypeNameCoversKnownTypes(t *testing.T) {
	require.Equal(t, "pair", socketTypeName(zmq.PAIR))
	require.Equal(t, "router", socketTypeName(zmq.ROUTER))
	require.Equal(t, "unknown", socketTypeName(zmq.Type(-1)))
}
