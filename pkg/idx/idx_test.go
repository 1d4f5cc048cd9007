package idx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/stranger/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	_, err = idx.Parse("not-a-ulid")
	require.ErrorIs(t, err, idx.ErrInvalid)
	_, err = idx.Parse("  ")
	require.ErrorIs(t, err, idx.ErrInvalid)
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()
	a := idx.NewAt(at)
	b := idx.NewAt(at)
	require.Less(t, a.String(), b.String())
	require.WithinDuration(t, at, a.Time(), time.Millisecond)
}

func TestScanAndValue(t *testing.T) {
	want := idx.MustParse("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV")

	v, err := want.Value()
	require.NoError(t, err)
	require.Equal(t, want.String(), v)

	var got idx.ID
	require.NoError(t, got.Scan([]byte(want.String())))
	require.Equal(t, want, got)

	require.NoError(t, got.Scan(nil))
	require.True(t, got.IsZero())

	require.Error(t, got.Scan(42))
}
