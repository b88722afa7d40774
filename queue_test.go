package mqbridge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandQueueFIFO(t *testing.T) {
	q := newCommandQueue()

	_, ok := q.pop()
	require.False(t, ok, "pop on empty queue reports false")

	q.push(Command{kind: cmdInvoke, id: "a"})
	q.push(Command{kind: cmdInvoke, id: "b"})
	q.push(Command{kind: cmdInvoke, id: "c"})

	first, ok := q.pop()
	require.True(t, ok)
	require.Equal(t, "a", first.id)

	second, ok := q.pop()
	require.True(t, ok)
	require.Equal(t, "b", second.id)

	q.push(Command{kind: cmdInvoke, id: "d"})

	third, ok := q.pop()
	require.True(t, ok)
	require.Equal(t, "c", third.id)

	fourth, ok := q.pop()
	require.True(t, ok)
	require.Equal(t, "d", fourth.id)

	_, ok = q.pop()
	require.False(t, ok)
}
