package http

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mauv0809/pingpong-elo/internal/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func pushBody(t *testing.T, data []byte) map[string]any {
	t.Helper()
	return map[string]any{
		"subscription": "projects/test/subscriptions/ratings-recalculated",
		"message": map[string]any{
			"data":       base64.StdEncoding.EncodeToString(data),
			"attributes": map[string]string{"event": string(pubsub.EventRatingsRecalculated)},
		},
	}
}

func TestRatingsRecalculatedPushHandler(t *testing.T) {
	server, teardown := setupTestServer(t, "")
	defer teardown()
	server.registerPlayers(t, "alice", "bob")

	var decoded pubsub.RatingsRecalculatedEvent
	server.pubsub.ProcessMessageFunc = func(data []byte, returnValue any) error {
		if err := msgpack.Unmarshal(data, returnValue); err != nil {
			return err
		}
		decoded = *returnValue.(*pubsub.RatingsRecalculatedEvent)
		return nil
	}

	data, err := msgpack.Marshal(pubsub.RatingsRecalculatedEvent{Trigger: "edit", MatchID: 3, Players: 2, Applied: 5})
	require.NoError(t, err)

	rr := server.do(t, http.MethodPost, "/pubsub/ratings-recalculated", pushBody(t, data))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "OK", rr.Body.String())
	assert.Equal(t, "edit", decoded.Trigger)
	assert.Equal(t, int64(3), decoded.MatchID)

	require.Len(t, server.notifier.SendLeaderboardCalls, 1)
	assert.Len(t, server.notifier.SendLeaderboardCalls[0], 2)
}

func TestRatingsRecalculatedPushHandler_BadInput(t *testing.T) {
	server, teardown := setupTestServer(t, "")
	defer teardown()

	t.Run("invalid envelope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/pubsub/ratings-recalculated", strings.NewReader("not json"))
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid base64", func(t *testing.T) {
		body := map[string]any{"message": map[string]any{"data": "%%%"}}
		rr := server.do(t, http.MethodPost, "/pubsub/ratings-recalculated", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("undecodable payload", func(t *testing.T) {
		server.pubsub.ProcessMessageFunc = func([]byte, any) error { return errors.New("bad payload") }
		rr := server.do(t, http.MethodPost, "/pubsub/ratings-recalculated", pushBody(t, []byte{0xc1}))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	assert.Empty(t, server.notifier.SendLeaderboardCalls)
}

func TestPostLeaderboardHandler(t *testing.T) {
	server, teardown := setupTestServer(t, "")
	defer teardown()
	server.registerPlayers(t, "alice")

	rr := server.do(t, http.MethodPost, "/leaderboard/post?dry_run=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, server.notifier.SendLeaderboardCalls, 1)
	require.Len(t, server.notifier.SendLeaderboardCalls[0], 1)
	assert.Equal(t, "alice", server.notifier.SendLeaderboardCalls[0][0].ID)
}
