package feed

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmanldn/pokertool/internal/advisor"
	"github.com/gmanldn/pokertool/internal/decision"
	"github.com/gmanldn/pokertool/internal/equity"
	"github.com/gmanldn/pokertool/internal/tracker"
	"github.com/gmanldn/pokertool/poker"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	srv := NewServer(logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dialFeed(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPublishReachesClient(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dialFeed(t, ts)

	update := advisor.Update{
		State: &tracker.HandState{
			HandID:     "h-1",
			Version:    7,
			Street:     tracker.Flop,
			Board:      poker.MustParseCards("7h8h2c"),
			Pot:        120,
			Confidence: 0.95,
		},
		Snapshot: &equity.Snapshot{Win: 0.6, Tie: 0.1, Lose: 0.3, Trials: 1000},
		Recommendation: &decision.Recommendation{
			Action: tracker.Bet,
			Amount: 80,
			EV:     64,
			Actions: []decision.ActionEV{
				{Action: tracker.Check, EV: 50},
				{Action: tracker.Bet, Amount: 80, EV: 64},
			},
			Rationale: "equity 65.0%, pot odds 0.0%, SPR 8.3",
		},
	}

	// The client registers asynchronously after the HTTP upgrade; publish
	// until the message lands.
	received := make(chan []byte, 1)
	go func() {
		_, msg, err := conn.ReadMessage()
		if err == nil {
			received <- msg
		}
	}()

	deadline := time.After(5 * time.Second)
	var msg []byte
	for msg == nil {
		srv.Publish(update)
		select {
		case msg = <-received:
		case <-deadline:
			t.Fatal("no update received")
		case <-time.After(10 * time.Millisecond):
		}
	}

	var decoded updateMessage
	require.NoError(t, json.Unmarshal(msg, &decoded))
	assert.Equal(t, "update", decoded.Type)
	assert.Equal(t, uint64(7), decoded.Version)
	assert.Equal(t, "h-1", decoded.HandID)
	assert.Equal(t, "flop", decoded.Street)
	assert.Equal(t, []string{"7h", "8h", "2c"}, decoded.Board)
	assert.Equal(t, 120, decoded.Pot)

	require.NotNil(t, decoded.Equity)
	assert.InDelta(t, 0.65, decoded.Equity.Equity, 1e-9)

	require.NotNil(t, decoded.Advice)
	assert.Equal(t, "bet", decoded.Advice.Action)
	assert.Equal(t, 80, decoded.Advice.Amount)
	assert.Len(t, decoded.Advice.Actions, 2)
}

func TestUpdateWithoutAdviceOmitsSections(t *testing.T) {
	msg := wireUpdate(advisor.Update{
		State: &tracker.HandState{Street: tracker.AwaitingHand, Confidence: 1},
	})
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	assert.NotContains(t, string(data), `"equity"`)
	assert.NotContains(t, string(data), `"advice"`)
}
