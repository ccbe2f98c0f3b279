package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub. It doubles
// as the topic name.
type EventType string

const (
	EventMatchRecorded       EventType = "match-recorded"
	EventRatingsRecalculated EventType = "ratings-recalculated"
)

// MatchRecordedEvent is published after a match and its rating update commit.
type MatchRecordedEvent struct {
	MatchID      int64  `msgpack:"match_id"`
	Season       int    `msgpack:"season"`
	Winner       string `msgpack:"winner"`
	Loser        string `msgpack:"loser"`
	WinnerRating int    `msgpack:"winner_rating"`
	LoserRating  int    `msgpack:"loser_rating"`
	WinnerDelta  int    `msgpack:"winner_delta"`
	LoserDelta   int    `msgpack:"loser_delta"`
	Recalculated bool   `msgpack:"recalculated"`
}

// RatingsRecalculatedEvent is published after a full replay commits.
type RatingsRecalculatedEvent struct {
	Trigger    string `msgpack:"trigger"`
	MatchID    int64  `msgpack:"match_id,omitempty"`
	Players    int    `msgpack:"players"`
	Applied    int    `msgpack:"applied"`
	Anomalies  int    `msgpack:"anomalies"`
	DurationMs int64  `msgpack:"duration_ms"`
}
