package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesTopicSubscribersOnly(t *testing.T) {
	h := NewHub()
	punches, stopPunches := h.Subscribe(TopicAttendance)
	other, stopOther := h.Subscribe("other")
	defer stopOther()

	assert.Equal(t, 1, h.SubscriberCount(TopicAttendance))
	assert.Equal(t, 2, h.TotalSubscribers())

	h.Publish(Event{Topic: TopicAttendance, Event: "punch", Data: "E1"})

	got := <-punches
	assert.Equal(t, "punch", got.Event)
	assert.Equal(t, "E1", got.Data)
	assert.Len(t, other, 0)

	stopPunches()
	stopPunches()
	assert.Equal(t, 0, h.SubscriberCount(TopicAttendance))
	_, open := <-punches
	assert.False(t, open)
}

func TestHub_PublishSkipsFullSubscribers(t *testing.T) {
	h := NewHub()
	ch, stop := h.Subscribe(TopicAttendance)
	defer stop()

	for i := 0; i < h.bufferSize+5; i++ {
		h.Publish(Event{Topic: TopicAttendance, Data: i})
	}
	require.Len(t, ch, h.bufferSize)
	assert.Equal(t, 0, (<-ch).Data)
}
