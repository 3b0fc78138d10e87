package reqsched

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRequestDefaults(t *testing.T) {
	r := NewRequest("https://a.com/x", func(context.Context) (string, error) { return "", nil })
	require.True(t, r.Throttle)
	require.True(t, r.ThrottleByServer)
	require.Equal(t, StateUnissued, r.State())
	require.False(t, r.CancelRequested())

	r.Cancel()
	require.True(t, r.CancelRequested())
}

func TestRequestStateStrings(t *testing.T) {
	cases := map[RequestState]string{
		StateUnissued:  "Unissued",
		StateIssued:    "Issued",
		StateActive:    "Active",
		StateReceived:  "Received",
		StateFailed:    "Failed",
		StateCancelled: "Cancelled",
	}
	for s, want := range cases {
		require.Equal(t, want, s.String())
	}
	require.False(t, StateActive.Terminal())
	require.True(t, StateReceived.Terminal())
	require.True(t, StateFailed.Terminal())
	require.True(t, StateCancelled.Terminal())
}

func TestServerKeyCachedPerRequest(t *testing.T) {
	r := NewRequest("https://a.com/x", func(context.Context) (string, error) { return "", nil })
	k1, err := r.serverKey(nil)
	require.NoError(t, err)

	// A later URL change does not disturb the cached key.
	r.URL = "https://b.com/x"
	k2, err := r.serverKey(nil)
	require.NoError(t, err)
	require.Equal(t, k1, k2)
}

func TestIsDataURL(t *testing.T) {
	require.True(t, isDataURL("data:image/png;base64,AAAA"))
	require.False(t, isDataURL("https://a.com/x.png"))
	require.False(t, isDataURL("x/data:oops"))
}
