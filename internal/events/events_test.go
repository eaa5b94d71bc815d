package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gupfee/greenhaus/internal/domain"
	"github.com/gupfee/greenhaus/internal/events"
)

type failingNotifier struct {
	err   error
	calls int
}

func (f *failingNotifier) CartUpdated(ctx context.Context, update domain.CartUpdate) error {
	f.calls++
	return f.err
}

func TestFanout_DeliversToSubscribers(t *testing.T) {
	fanout := events.NewFanout()

	var got []int
	fanout.Subscribe(func(update domain.CartUpdate) {
		got = append(got, update.ItemCount)
	})
	fanout.Subscribe(func(update domain.CartUpdate) {
		got = append(got, update.ItemCount*10)
	})

	err := fanout.CartUpdated(context.Background(), domain.CartUpdate{CartID: "cart:a", ItemCount: 3})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 30}, got)
}

func TestFanout_Unsubscribe(t *testing.T) {
	fanout := events.NewFanout()

	calls := 0
	cancel := fanout.Subscribe(func(domain.CartUpdate) { calls++ })

	require.NoError(t, fanout.CartUpdated(context.Background(), domain.CartUpdate{}))
	cancel()
	require.NoError(t, fanout.CartUpdated(context.Background(), domain.CartUpdate{}))

	assert.Equal(t, 1, calls, "cancelled subscribers receive no further events")
}

func TestFanout_ForwardsDownstream(t *testing.T) {
	downstream := &failingNotifier{}
	fanout := events.NewFanout(downstream)

	err := fanout.CartUpdated(context.Background(), domain.CartUpdate{CartID: "cart:a"})
	require.NoError(t, err)
	assert.Equal(t, 1, downstream.calls)
}

func TestFanout_DownstreamErrorDoesNotSkipSubscribers(t *testing.T) {
	boom := errors.New("broker down")
	first := &failingNotifier{err: boom}
	second := &failingNotifier{}

	fanout := events.NewFanout(first)
	fanout.Forward(second)

	delivered := false
	fanout.Subscribe(func(domain.CartUpdate) { delivered = true })

	err := fanout.CartUpdated(context.Background(), domain.CartUpdate{CartID: "cart:a"})
	assert.True(t, errors.Is(err, boom), "first downstream error is reported")
	assert.True(t, delivered, "in-process subscribers always run")
	assert.Equal(t, 1, second.calls, "every downstream is attempted")
}
