package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/solacebot/solace/internal/chat"
	"github.com/solacebot/solace/internal/config"
	"github.com/solacebot/solace/internal/protocol"
	"github.com/solacebot/solace/internal/session"
	"github.com/solacebot/solace/internal/store"
)

type stubChat struct {
	reply   string
	insight string
	lastMsg string
}

func (c *stubChat) HandleMessage(_ context.Context, _, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", chat.ErrEmptyMessage
	}
	c.lastMsg = text
	return c.reply, nil
}

func (c *stubChat) AnalyzeMoodTrend(_ context.Context, moods []store.MoodSample) string {
	if len(moods) == 0 {
		return "No mood data available for analysis."
	}
	return c.insight
}

func newTestServer(t *testing.T) (*Server, *stubChat) {
	t.Helper()
	cfg := config.Config{
		SessionInactivityTimeout: time.Minute,
		AllowAnyOrigin:           true,
	}
	stub := &stubChat{reply: "I'm listening.", insight: "Trending up."}
	return New(cfg, session.NewManager(time.Minute), stub, nil), stub
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: status %d", path, resp.StatusCode)
		}
	}
}

func TestChatEndpoint(t *testing.T) {
	srv, stub := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/chat", "application/json",
		strings.NewReader(`{"user_id":"u1","message":"I feel low"}`))
	if err != nil {
		t.Fatalf("POST /v1/chat: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Response != "I'm listening." {
		t.Errorf("response = %q", body.Response)
	}
	if stub.lastMsg != "I feel low" {
		t.Errorf("service saw %q", stub.lastMsg)
	}
}

func TestChatEndpointRejectsEmptyMessage(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	for _, payload := range []string{`{"user_id":"u1","message":"  "}`, `{}`, ``} {
		resp, err := http.Post(ts.URL+"/v1/chat", "application/json", strings.NewReader(payload))
		if err != nil {
			t.Fatalf("POST /v1/chat: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("payload %q: status = %d, want 400", payload, resp.StatusCode)
		}
	}
}

func TestMoodInsightEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/mood/insight", "application/json",
		strings.NewReader(`{"user_id":"u1","moods":[{"date":"2026-08-01T00:00:00Z","mood":4},{"date":"2026-08-02T00:00:00Z","mood":7}]}`))
	if err != nil {
		t.Fatalf("POST /v1/mood/insight: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body moodInsightResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Insight != "Trending up." {
		t.Errorf("insight = %q", body.Insight)
	}
}

func TestMoodInsightEmptyBodyStillReplies(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/mood/insight", "application/json", strings.NewReader(``))
	if err != nil {
		t.Fatalf("POST /v1/mood/insight: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body moodInsightResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Insight != "No mood data available for analysis." {
		t.Errorf("insight = %q", body.Insight)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/chat/session", "application/json",
		strings.NewReader(`{"user_id":"u1"}`))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	var created session.CreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if created.SessionID == "" || created.Status != session.StatusActive {
		t.Fatalf("unexpected session: %+v", created)
	}

	resp, err = http.Post(ts.URL+"/v1/chat/session/"+created.SessionID+"/end", "application/json", nil)
	if err != nil {
		t.Fatalf("end session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("end status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/v1/chat/session/does-not-exist/end", "application/json", nil)
	if err != nil {
		t.Fatalf("end missing session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing session status = %d, want 404", resp.StatusCode)
	}
}

func TestChatWS(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	sess := srv.sessions.Create("u1")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/chat/ws?session_id=" + sess.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	err = conn.WriteJSON(protocol.ClientMessage{
		Type:      protocol.TypeClientMessage,
		SessionID: sess.ID,
		Seq:       1,
		Text:      "hello",
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	var reply protocol.AssistantMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Type != protocol.TypeAssistantMessage {
		t.Errorf("type = %q, want assistant_message", reply.Type)
	}
	if reply.Text != "I'm listening." {
		t.Errorf("text = %q", reply.Text)
	}
	if reply.TurnID == "" {
		t.Error("turn id must be set")
	}
}

func TestChatWSInvalidPayload(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	sess := srv.sessions.Create("u1")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/chat/ws?session_id=" + sess.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bogus"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	var ev protocol.ErrorEvent
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != protocol.TypeErrorEvent || ev.Code != "invalid_client_message" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestChatWSRequiresKnownSession(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/chat/ws?session_id=nope")
	if err != nil {
		t.Fatalf("GET ws: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
