package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/circle/models"
)

func newTestClient(h *Hub, userID string) *Client {
	return &Client{hub: h, userID: userID, send: make(chan []byte, sendBufferSize)}
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw := <-c.send:
		var e Event
		require.NoError(t, json.Unmarshal(raw, &e))
		return e
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected event %s", raw)
	default:
	}
}

func TestHub_BroadcastToUsers(t *testing.T) {
	h := NewHub(zap.NewNop())
	alice1 := newTestClient(h, "alice")
	alice2 := newTestClient(h, "alice")
	bob := newTestClient(h, "bob")
	carol := newTestClient(h, "carol")
	for _, c := range []*Client{alice1, alice2, bob, carol} {
		h.addClient(c)
	}

	h.BroadcastToUsers([]string{"alice", "bob", "alice", "nobody"}, Event{Op: OpGroupUpdate})

	assert.Equal(t, OpGroupUpdate, receive(t, alice1).Op)
	assert.Equal(t, OpGroupUpdate, receive(t, alice2).Op)
	assert.Equal(t, OpGroupUpdate, receive(t, bob).Op)
	assertNothing(t, alice1)
	assertNothing(t, carol)

	assert.ElementsMatch(t, []string{"alice", "bob", "carol"}, h.GetOnlineUserIDs())
}

func TestHub_BroadcastToAllAssignsSequence(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient(h, "a")
	b := newTestClient(h, "b")
	h.addClient(a)
	h.addClient(b)

	h.BroadcastToAll(Event{Op: OpQuestionCreate})
	h.BroadcastToAll(Event{Op: OpQuestionDelete})

	first, second := receive(t, a), receive(t, a)
	assert.Equal(t, OpQuestionCreate, first.Op)
	assert.Greater(t, second.Seq, first.Seq)
	assert.Equal(t, OpQuestionCreate, receive(t, b).Op)
}

func TestHub_RemoveClientClosesSend(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, "a")
	h.addClient(c)

	h.removeClient(c)
	h.removeClient(c)

	_, open := <-c.send
	assert.False(t, open)
	assert.Empty(t, h.GetOnlineUserIDs())
}

func TestHub_ShutdownStopsRun(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, "a")
	h.addClient(c)

	stopped := make(chan struct{})
	go func() {
		h.Run()
		close(stopped)
	}()

	h.Shutdown()
	h.Shutdown()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}

	_, open := <-c.send
	assert.False(t, open)
	h.requestUnregister(c)
}

// ─── Socket ───

type stubValidator struct{}

func (stubValidator) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	if token != "good" {
		return nil, errors.New("invalid")
	}
	return &models.TokenClaims{UserID: "alice", Role: models.UserRoleMember}, nil
}

func TestClient_ReplyAfterCloseIsDropped(t *testing.T) {
	h := NewHub(zap.NewNop())
	removed := newTestClient(h, "alice")
	live := newTestClient(h, "bob")
	h.addClient(removed)
	h.addClient(live)

	live.sendEvent(Event{Op: OpHeartbeatAck})
	assert.Equal(t, OpHeartbeatAck, receive(t, live).Op)

	h.removeClient(removed)
	assert.NotPanics(t, func() { removed.sendEvent(Event{Op: OpHeartbeatAck}) })

	h.Shutdown()
	assert.NotPanics(t, func() { live.sendEvent(Event{Op: OpHeartbeatAck}) })

	_, open := <-live.send
	assert.False(t, open, "shutdown closed the channel and nothing was queued after it")
}

func TestHandler_ReadyHeartbeatAndBroadcast(t *testing.T) {
	h := NewHub(nil)
	go h.Run()
	defer h.Shutdown()

	srv := httptest.NewServer(http.HandlerFunc(NewHandler(h, stubValidator{}, nil).HandleConnection))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token=bad", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var ready struct {
		Op   string    `json:"op"`
		Data ReadyData `json:"d"`
	}
	require.NoError(t, conn.ReadJSON(&ready))
	assert.Equal(t, OpReady, ready.Op)
	assert.Equal(t, "alice", ready.Data.UserID)

	require.NoError(t, conn.WriteJSON(Event{Op: OpHeartbeat}))
	var ack Event
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, OpHeartbeatAck, ack.Op)

	h.BroadcastToUser("alice", Event{Op: OpAnswerDelete, Data: AnswerDeleteData{ID: "a1", QuestionID: "q1"}})
	var pushed Event
	require.NoError(t, conn.ReadJSON(&pushed))
	assert.Equal(t, OpAnswerDelete, pushed.Op)
}
