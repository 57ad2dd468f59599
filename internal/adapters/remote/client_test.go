package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/config"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
)

func newClientWithServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(config.RemoteConfig{BaseURL: "http://unused", Timeout: 5 * time.Second}, logger.NewNop())
	// Redirect baseURL to the test server
	client.baseURL = srv.URL

	return client, srv
}

func TestClient_CreateSection_SendsIDAndBearer(t *testing.T) {
	client, _ := newClientWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sections" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Fatalf("Authorization = %q", got)
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["id"] != "s1" || body["title"] != "Plan" {
			t.Fatalf("unexpected body: %v", body)
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "s1", "title": "Plan", "priority": 3})
	})

	task, err := client.CreateSection(context.Background(), "tok", "s1", entities.TaskFields{Title: "Plan"})
	if err != nil {
		t.Fatalf("CreateSection() error = %v", err)
	}
	if task.ID != "s1" || task.Priority == nil || *task.Priority != 3 {
		t.Fatalf("CreateSection() = %+v", task)
	}
}

func TestClient_CreateSection_OmitsEmptyID(t *testing.T) {
	client, _ := newClientWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["id"]; ok {
			t.Fatalf("empty id must be omitted: %v", body)
		}
		w.WriteHeader(http.StatusCreated)
	})

	if _, err := client.CreateSection(context.Background(), "tok", "", entities.TaskFields{Title: "x"}); err != nil {
		t.Fatalf("CreateSection() error = %v", err)
	}
}

func TestClient_NotePaths(t *testing.T) {
	var seen []string
	client, _ := newClientWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			if r.URL.Path == "/sections/s1/notes" {
				_ = json.NewEncoder(w).Encode([]map[string]string{{"id": "n1", "section_id": "s1", "title": "a"}})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "n1", "section_id": "s1", "title": "a"})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusOK)
		}
	})

	ctx := context.Background()
	if _, err := client.CreateNote(ctx, "tok", "s1", "n1", entities.NoteFields{Title: "a"}); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	notes, err := client.ListNotes(ctx, "tok", "s1")
	if err != nil || len(notes) != 1 {
		t.Fatalf("ListNotes() = %v, %v", notes, err)
	}
	if _, err := client.GetNote(ctx, "tok", "s1", "n1"); err != nil {
		t.Fatalf("GetNote() error = %v", err)
	}
	if _, err := client.UpdateNote(ctx, "tok", "s1", "n1", entities.NoteFields{Title: "b"}); err != nil {
		t.Fatalf("UpdateNote() error = %v", err)
	}
	if err := client.DeleteNote(ctx, "tok", "s1", "n1"); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}

	want := []string{
		"POST /sections/s1/notes",
		"GET /sections/s1/notes",
		"GET /sections/s1/notes/n1",
		"PUT /sections/s1/notes/n1",
		"DELETE /sections/s1/notes/n1",
	}
	if len(seen) != len(want) {
		t.Fatalf("requests = %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("request %d = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	client, _ := newClientWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"exists"}`))
	})

	_, err := client.CreateSection(context.Background(), "tok", "s1", entities.TaskFields{Title: "x"})
	var netErr *entities.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if netErr.StatusCode != http.StatusConflict || netErr.Transient() {
		t.Fatalf("NetworkError = %+v", netErr)
	}
}

func TestClient_TransportFailure(t *testing.T) {
	client, srv := newClientWithServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	err := client.DeleteSection(context.Background(), "tok", "s1")
	var netErr *entities.NetworkError
	if !errors.As(err, &netErr) || netErr.StatusCode != 0 || !netErr.Transient() {
		t.Fatalf("expected transient NetworkError, got %v", err)
	}
}

func TestClient_Login(t *testing.T) {
	client, _ := newClientWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Fatal("login must not send a bearer token")
		}
		var creds credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Nickname != "ada" || creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "jwt"})
	})

	token, err := client.Login(context.Background(), "ada", "secret")
	if err != nil || token != "jwt" {
		t.Fatalf("Login() = %q, %v", token, err)
	}
	if _, err := client.Login(context.Background(), "ada", "wrong"); !entities.HasStatus(err, http.StatusUnauthorized) {
		t.Fatalf("Login(wrong) error = %v", err)
	}
}

func TestClient_TruncatedBodyIsTransient(t *testing.T) {
	client, _ := newClientWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Errorf("response writer does not support hijacking")
			return
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			t.Errorf("Hijack() error = %v", err)
			return
		}
		defer conn.Close()
		// Promise more bytes than are sent, then hang up
		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: 100\r\n\r\n{\"id\":")
		_ = buf.Flush()
	})

	_, err := client.UpdateSection(context.Background(), "tok", "s1", entities.TaskFields{Title: "x"})
	var netErr *entities.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("UpdateSection() error = %v, want *NetworkError", err)
	}
	if netErr.StatusCode != 0 || !netErr.Transient() {
		t.Fatalf("NetworkError = %+v, want a transient transport failure", netErr)
	}
}
