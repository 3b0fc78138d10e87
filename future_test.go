package reqsched

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFutureResolve(t *testing.T) {
	f := newFuture[string]()
	require.Equal(t, OutcomePending, f.Outcome())

	f.resolve("payload")
	require.Equal(t, OutcomeResolved, f.Outcome())

	got, err := f.Result()
	require.NoError(t, err)
	require.Equal(t, "payload", got)
}

func TestFutureReject(t *testing.T) {
	boom := errors.New("boom")
	f := newFuture[string]()
	f.reject(boom)

	_, err := f.Result()
	require.ErrorIs(t, err, boom)
	require.Equal(t, OutcomeRejected, f.Outcome())
}

func TestFutureCancelIsDistinctFromFailure(t *testing.T) {
	f := newFuture[string]()
	f.cancel()

	_, err := f.Result()
	require.ErrorIs(t, err, ErrCancelled)
	require.Equal(t, OutcomeCancelled, f.Outcome())
}

func TestFutureSettlesOnce(t *testing.T) {
	f := newFuture[string]()
	f.resolve("first")
	f.reject(errors.New("late"))
	f.cancel()

	got, err := f.Result()
	require.NoError(t, err)
	require.Equal(t, "first", got)
	require.Equal(t, OutcomeResolved, f.Outcome())
}

func TestFutureWaitHonorsContext(t *testing.T) {
	f := newFuture[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, OutcomePending, f.Outcome())

	f.resolve("late but fine")
	got, err := f.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, "late but fine", got)
}
