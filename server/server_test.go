package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/core"
	"github.com/cinematch/cinematch/session"
)

const testApp = "MovieChatbot"

func newTestServer(t *testing.T, dispatch DispatcherFunc) (*httptest.Server, core.SessionService) {
	t.Helper()
	sessions := session.NewMemoryService(zerolog.Nop())
	if dispatch == nil {
		dispatch = func(_ context.Context, _ *core.Session, message string) (string, error) {
			return "echo: " + message, nil
		}
	}
	srv := New(testApp, sessions, dispatch, zerolog.Nop())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, sessions
}

func postChat(t *testing.T, ts *httptest.Server, body string) (*http.Response, ChatResponse) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/chat", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /chat error = %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var out ChatResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp, out
}

func TestChat_RoundTrip(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, out := postChat(t, ts, `{"user_id":"alice","session_id":"s1","message":"hi"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if out.Response != "echo: hi" {
		t.Errorf("response = %q, want %q", out.Response, "echo: hi")
	}
	if out.SessionID != "s1" {
		t.Errorf("session_id = %q, want s1", out.SessionID)
	}
}

func TestChat_MissingUserID(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, _ := postChat(t, ts, `{"message":"hi"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChat_InvalidBody(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, _ := postChat(t, ts, `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChat_GeneratesSessionID(t *testing.T) {
	ts, sessions := newTestServer(t, nil)

	resp, out := postChat(t, ts, `{"user_id":"alice","message":"hi"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if out.SessionID == "" {
		t.Fatal("server should generate a session_id when absent")
	}

	// 生成的会话确实被建出来了
	if _, err := sessions.Get(context.Background(), "alice", out.SessionID); err != nil {
		t.Errorf("generated session not found in store: %v", err)
	}
}

func TestChat_SessionSurvivesAcrossRequests(t *testing.T) {
	ts, sessions := newTestServer(t, nil)
	ctx := context.Background()

	resp, _ := postChat(t, ts, `{"user_id":"alice","session_id":"s1","message":"first"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if _, err := sessions.UpdateProfile(ctx, "alice", "s1", "Parasite", ""); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	resp, _ = postChat(t, ts, `{"user_id":"alice","session_id":"s1","message":"second"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	sess, err := sessions.Get(ctx, "alice", "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(sess.Profile.LikedMovies) != 1 {
		t.Errorf("profile lost across requests: %+v", sess.Profile)
	}
}

func TestChat_DispatcherSeesSession(t *testing.T) {
	var got *core.Session
	ts, _ := newTestServer(t, func(_ context.Context, sess *core.Session, _ string) (string, error) {
		got = sess
		return "ok", nil
	})

	resp, _ := postChat(t, ts, `{"user_id":"alice","session_id":"s1","message":"hi"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got == nil {
		t.Fatal("dispatcher was not called")
	}
	if got.AppName != testApp || got.UserID != "alice" || got.SessionID != "s1" {
		t.Errorf("dispatcher session = %s/%s/%s, want %s/alice/s1", got.AppName, got.UserID, got.SessionID, testApp)
	}
	if got.Profile == nil {
		t.Error("dispatcher session has nil profile")
	}
}

func TestChat_DispatcherError(t *testing.T) {
	ts, _ := newTestServer(t, func(_ context.Context, _ *core.Session, _ string) (string, error) {
		return "", errors.New("boom")
	})

	resp, _ := postChat(t, ts, `{"user_id":"alice","session_id":"s1","message":"hi"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestRoot_Liveness(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}
