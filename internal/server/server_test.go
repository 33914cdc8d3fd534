package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"LifeCoach/internal/coach"
	"LifeCoach/internal/config"
	"LifeCoach/internal/server"
	"LifeCoach/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	emotional string
	cognitive string
	// release, when set, gates the cognitive completion.
	release chan struct{}
}

func (s *stubCompleter) Complete(_ context.Context, _, instruction string) (string, error) {
	if instruction == coach.InstructionCognitive {
		if s.release != nil {
			<-s.release
		}
		return s.cognitive, nil
	}
	return s.emotional, nil
}

func newTestServer(t *testing.T, stub *stubCompleter) (http.Handler, *coach.Coach) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	retry := config.Retry{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	coachCfg := config.Coach{SyncBudget: 2 * time.Second, SessionTTL: time.Hour, MinCognitiveRunes: 2}

	store := session.New()
	t.Cleanup(store.Close)

	c := coach.New(coach.NewResponder(stub, retry, logger), store, coachCfg, logger)
	return server.New(c, logger, ""), c
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type chatResponse struct {
	Emotional  string `json:"emotional"`
	Transition string `json:"transition"`
	Cognitive  string `json:"cognitive"`
	SessionID  string `json:"sessionId"`
}

type checkResponse struct {
	Cognitive *string `json:"cognitive"`
}

func TestChatWithPresetShortMessage(t *testing.T) {
	stub := &stubCompleter{emotional: "should not be used", cognitive: "should not be used"}
	h, c := newTestServer(t, stub)

	w := postJSON(t, h, "/api/chat", `{"message":"好累"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "听到你说好累，我很心疼。先停下来，深深地呼吸一口气。累不是软弱，是你已经撑了太久。愿意和我说说，是什么让你这么疲惫吗？", resp.Emotional)
	assert.Equal(t, coach.TransitionLine, resp.Transition)
	assert.Equal(t, coach.CognitivePlaceholder, resp.Cognitive)
	assert.NotEmpty(t, resp.SessionID)

	c.Wait()
}

func TestChatMissingMessage(t *testing.T) {
	h, _ := newTestServer(t, &stubCompleter{})

	for _, body := range []string{`{}`, `{"message":""}`, `{"message":"   "}`, `not json`} {
		w := postJSON(t, h, "/api/chat", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
}

func TestCheckCognitivePolling(t *testing.T) {
	stub := &stubCompleter{
		emotional: "我听到你了。",
		cognitive: "让我们从根源看：你对自己的要求太高了。",
		release:   make(chan struct{}),
	}
	h, c := newTestServer(t, stub)

	w := postJSON(t, h, "/api/chat", `{"message":"我觉得自己不够好，怎么努力都没用"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)

	// Before the background job finishes the poll answers null.
	w = postJSON(t, h, "/api/check-cognitive", `{"sessionId":"`+resp.SessionID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var check checkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &check))
	assert.Nil(t, check.Cognitive)

	close(stub.release)
	c.Wait()

	w = postJSON(t, h, "/api/check-cognitive", `{"sessionId":"`+resp.SessionID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &check))
	require.NotNil(t, check.Cognitive)
	assert.Equal(t, stub.cognitive, *check.Cognitive)
}

func TestCheckCognitiveUnknownSession(t *testing.T) {
	h, _ := newTestServer(t, &stubCompleter{})

	w := postJSON(t, h, "/api/check-cognitive", `{"sessionId":"session_unknown"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var check checkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &check))
	assert.Nil(t, check.Cognitive)
}

func TestCheckCognitiveMissingSessionID(t *testing.T) {
	h, _ := newTestServer(t, &stubCompleter{})

	w := postJSON(t, h, "/api/check-cognitive", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreflight(t *testing.T) {
	h, _ := newTestServer(t, &stubCompleter{})

	for _, path := range []string{"/api/chat", "/api/check-cognitive"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "preflight %s", path)
		assert.Empty(t, w.Body.String())
	}
}
