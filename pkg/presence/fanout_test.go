package presence_test

import (
	"sync"
	"testing"

	"github.com/aussiebroadwan/stranger/pkg/presence"
	"github.com/stretchr/testify/require"
)

func TestFanoutUnsubscribe(t *testing.T) {
	t.Parallel()

	var f presence.Fanout[int]
	var got []int
	unsub, _ := f.Add(func(v int) { got = append(got, v) })
	require.Equal(t, 1, f.Len())

	f.Emit(1)
	unsub()
	unsub()
	f.Emit(2)

	require.Equal(t, []int{1}, got)
	require.Zero(t, f.Len())
}

func TestFanoutDirectDelivery(t *testing.T) {
	t.Parallel()

	var f presence.Fanout[string]
	var a, b []string
	_, deliverA := f.Add(func(v string) { a = append(a, v) })
	f.Add(func(v string) { b = append(b, v) })

	deliverA("only-a")
	f.Emit("both")

	require.Equal(t, []string{"only-a", "both"}, a)
	require.Equal(t, []string{"both"}, b)
}

func TestSerialPreservesOrder(t *testing.T) {
	t.Parallel()

	s := presence.NewSerial()
	var mu sync.Mutex
	var got []int
	for i := range 100 {
		s.Go(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	s.Close()
	s.Close()

	require.Len(t, got, 100)
	for i, v := range got {
		require.Equal(t, i, v)
	}

	// Dropped after close.
	s.Go(func() { t.Error("ran after close") })
}
