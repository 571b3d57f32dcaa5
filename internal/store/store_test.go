package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInsertThenGetReturnsLatestValue(t *testing.T) {
	s := New()
	s.Insert("k", NewStringEntry([]byte("v1"), 0, false))
	s.Insert("k", NewStringEntry([]byte("v2"), 0, false))

	e, ok := s.Get("k")
	require.True(t, ok)
	require.Equal(t, "v2", string(e.Value))
}

func TestGetMissReturnsFalse(t *testing.T) {
	s := New()
	_, ok := s.Get("nope")
	require.False(t, ok)
}

func TestOverwriteClearsPriorTTL(t *testing.T) {
	s := New()
	s.Insert("k", NewStringEntry([]byte("v1"), time.Millisecond, true))
	s.Insert("k", NewStringEntry([]byte("v2"), 0, false))

	time.Sleep(5 * time.Millisecond)
	e, ok := s.Get("k")
	require.True(t, ok)
	require.Equal(t, "v2", string(e.Value))
}

func TestTTLExpiry(t *testing.T) {
	s := New()
	s.Insert("k", NewStringEntry([]byte("v"), 50*time.Millisecond, true))

	e, ok := s.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", string(e.Value))

	time.Sleep(100 * time.Millisecond)
	_, ok = s.Get("k")
	require.False(t, ok)
}

func TestSetTTLAttachesToExistingEntry(t *testing.T) {
	s := New()
	s.Insert("k", NewStringEntry([]byte("v"), 0, false))

	err := s.SetTTL("k", "50")
	require.NoError(t, err)

	e, ok := s.Get("k")
	require.True(t, ok)
	require.True(t, e.HasTTL)

	time.Sleep(100 * time.Millisecond)
	_, ok = s.Get("k")
	require.False(t, ok)
}

func TestSetTTLRejectsNonIntegerDuration(t *testing.T) {
	s := New()
	s.Insert("k", NewStringEntry([]byte("v"), 0, false))

	err := s.SetTTL("k", "soon")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSetTTLRejectsNegativeDuration(t *testing.T) {
	s := New()
	s.Insert("k", NewStringEntry([]byte("v"), 0, false))

	err := s.SetTTL("k", "-5")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSetTTLOnMissingKeyFails(t *testing.T) {
	s := New()
	err := s.SetTTL("missing", "100")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSnapshotOnlyIncludesLiveEntries(t *testing.T) {
	s := New()
	s.Insert("live", NewStringEntry([]byte("v"), 0, false))
	s.Insert("dead", NewStringEntry([]byte("v"), time.Millisecond, true))

	time.Sleep(5 * time.Millisecond)
	snap := s.Snapshot()

	require.Contains(t, snap, "live")
	require.NotContains(t, snap, "dead")
}

func TestConcurrentInsertsAreSerialized(t *testing.T) {
	s := New()
	done := make(chan struct{})
	for i := 0; i < 50; i++ {
		go func(n int) {
			s.Insert("k", NewStringEntry([]byte{byte(n)}, 0, false))
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 50; i++ {
		<-done
	}

	_, ok := s.Get("k")
	require.True(t, ok)
}
