package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestPublish_FansOut(t *testing.T) {
	h := New()
	a := h.Subscribe(4)
	b := h.Subscribe(4)
	defer a.Close()
	defer b.Close()

	h.Publish(Event{Kind: KindCaptured, ID: 1})

	for _, s := range []*Subscription{a, b} {
		got := drain(s.Events())
		require.Len(t, got, 1)
		assert.Equal(t, int64(1), got[0].ID)
		assert.False(t, got[0].At.IsZero(), "publish stamps a time")
	}
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestRegister_DeliversLatest(t *testing.T) {
	h := New()
	_, ok := h.Latest()
	assert.False(t, ok)

	h.Publish(Event{Kind: KindTouched, ID: 7})
	s := h.Subscribe(1)
	defer s.Close()

	got := drain(s.Events())
	require.Len(t, got, 1)
	assert.Equal(t, KindTouched, got[0].Kind)

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, int64(7), latest.ID)
}

func TestSubscription_CoalescesKeepingNewest(t *testing.T) {
	h := New()
	s := h.Subscribe(2)
	defer s.Close()

	for i := int64(1); i <= 5; i++ {
		h.Publish(Event{Kind: KindCaptured, ID: i})
	}

	got := drain(s.Events())
	require.Len(t, got, 2)
	assert.Equal(t, int64(4), got[0].ID)
	assert.Equal(t, int64(5), got[1].ID)
}

func TestSubscription_Close(t *testing.T) {
	h := New()
	s := h.Subscribe(0)
	assert.Equal(t, 1, h.Len())

	s.Close()
	s.Close()
	assert.Equal(t, 0, h.Len())

	_, ok := <-s.Events()
	assert.False(t, ok, "channel closed")

	// Publishing after close must not panic.
	s.Send(Event{Kind: KindError, At: time.Now()})
	h.Publish(Event{Kind: KindError})
}
