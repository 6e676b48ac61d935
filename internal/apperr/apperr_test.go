package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	require.Equal(t, InvalidBlockHeight, KindOf(New(InvalidBlockHeight, "bad height")))
	require.Equal(t, DatabaseError, KindOf(errors.New("raw error")))
	require.Equal(t, Kind(""), KindOf(nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(DatabaseError, cause, "failed to query")

	require.True(t, Is(err, DatabaseError))
	require.ErrorIs(t, err, cause)
}

func TestIs(t *testing.T) {
	err := New(MutexTimeout, "timed out")
	require.True(t, Is(err, MutexTimeout))
	require.False(t, Is(err, DatabaseError))
}
