package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFanOutToEverySubscriber(t *testing.T) {
	hub := NewHub(4)
	a, err := hub.Subscribe()
	require.NoError(t, err)
	b, err := hub.Subscribe()
	require.NoError(t, err)

	delivered := hub.Publish(Envelope{ID: "env-1", Type: EnvelopeTypeFrame})
	assert.Equal(t, 2, delivered)

	for _, sub := range []*Subscriber{a, b} {
		select {
		case env := <-sub.C:
			assert.Equal(t, "env-1", env.ID)
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s did not receive envelope", sub.ID)
		}
	}
}

func TestHubPublishDropsOnFullBuffer(t *testing.T) {
	hub := NewHub(1)
	sub, err := hub.Subscribe()
	require.NoError(t, err)

	assert.Equal(t, 1, hub.Publish(Envelope{ID: "first"}))
	assert.Equal(t, 0, hub.Publish(Envelope{ID: "second"}))
	assert.EqualValues(t, 1, sub.Dropped())

	env := <-sub.C
	assert.Equal(t, "first", env.ID)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(0)
	sub, err := hub.Subscribe()
	require.NoError(t, err)
	require.Equal(t, 1, hub.Len())

	hub.Unsubscribe(sub.ID)
	hub.Unsubscribe(sub.ID)
	hub.Unsubscribe("missing")

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Len())
	assert.Equal(t, 0, hub.Publish(Envelope{ID: "nobody"}))
}

func TestHubSubscribersSorted(t *testing.T) {
	hub := NewHub(1)
	for i := 0; i < 5; i++ {
		_, err := hub.Subscribe()
		require.NoError(t, err)
	}
	ids := hub.Subscribers()
	require.Len(t, ids, 5)
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
}

func TestHubCloseRejectsNewSubscribers(t *testing.T) {
	hub := NewHub(1)
	sub, err := hub.Subscribe()
	require.NoError(t, err)

	hub.Close()
	hub.Close()

	_, ok := <-sub.C
	assert.False(t, ok)

	_, err = hub.Subscribe()
	assert.ErrorIs(t, err, ErrHubClosed)
}
