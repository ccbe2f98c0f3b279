package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestProcessMessage_MatchRecorded(t *testing.T) {
	event := MatchRecordedEvent{
		MatchID:      12,
		Season:       3,
		Winner:       "alice",
		Loser:        "bob",
		WinnerRating: 416,
		LoserRating:  384,
		WinnerDelta:  16,
		LoserDelta:   -16,
	}
	data, err := msgpack.Marshal(event)
	require.NoError(t, err)

	var got MatchRecordedEvent
	require.NoError(t, NewNoop().ProcessMessage(data, &got))
	assert.Equal(t, event, got)
}

func TestProcessMessage_InvalidPayload(t *testing.T) {
	var got RatingsRecalculatedEvent
	err := NewNoop().ProcessMessage([]byte{0xc1}, &got)
	assert.Error(t, err)
}

func TestNoop_SendMessage(t *testing.T) {
	err := NewNoop().SendMessage(context.Background(), EventRatingsRecalculated, RatingsRecalculatedEvent{Trigger: "admin", Players: 4})
	assert.NoError(t, err)
}

func TestMock_RecordsCalls(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.SendMessage(context.Background(), EventMatchRecorded, MatchRecordedEvent{MatchID: 1}))

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, EventMatchRecorded, calls[0].Topic)

	m.Reset()
	assert.Empty(t, m.Calls())
}
