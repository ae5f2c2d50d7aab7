package esa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/user/nikki/internal/types"
)

var testDoc = types.Document{Name: "nikki/2024/03/14", BodyMD: "## 09時\n\n- standup\n"}

func TestPublish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/teams/myteam/posts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer esa-token" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}

		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req["name"] != "nikki/2024/03/14" {
			t.Errorf("unexpected name %v", req["name"])
		}
		if req["body_md"] != "## 09時\n\n- standup\n" {
			t.Errorf("unexpected body_md %v", req["body_md"])
		}
		if req["wip"] != "false" {
			t.Errorf("expected wip to be the string false, got %#v", req["wip"])
		}

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"number":42,"url":"https://myteam.esa.io/posts/42"}`))
	}))
	defer server.Close()

	c := New("esa-token", "myteam", WithBaseURL(server.URL))
	pub, err := c.Publish(context.Background(), testDoc)
	if err != nil {
		t.Fatal(err)
	}
	if pub.Number != 42 || pub.URL != "https://myteam.esa.io/posts/42" {
		t.Errorf("unexpected published info %+v", pub)
	}
}

func TestPublishRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"invalid","message":"name already exists"}`))
	}))
	defer server.Close()

	c := New("t", "team", WithBaseURL(server.URL))
	_, err := c.Publish(context.Background(), testDoc)
	var rej *RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if err.Error() != "invalid: name already exists" {
		t.Errorf("expected exact remote pair, got %q", err.Error())
	}
	if rej.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rej.StatusCode)
	}
}

func TestPublishOKIsNotCreated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"error":"unexpected","message":"not created"}`))
	}))
	defer server.Close()

	c := New("t", "team", WithBaseURL(server.URL))
	_, err := c.Publish(context.Background(), testDoc)
	var rej *RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected 200 to be a rejection, got %v", err)
	}
}

func TestPublishOpaqueRejection(t *testing.T) {
	for _, body := range []string{`<html>bad gateway</html>`, `{"error":"only error"}`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(body))
		}))

		c := New("t", "team", WithBaseURL(server.URL))
		_, err := c.Publish(context.Background(), testDoc)
		server.Close()

		var rej *RejectedError
		if !errors.As(err, &rej) {
			t.Fatalf("expected RejectedError, got %v", err)
		}
		if !rej.Opaque {
			t.Errorf("expected opaque rejection for body %q", body)
		}
		if !strings.Contains(err.Error(), "502") {
			t.Errorf("expected status in message, got %q", err.Error())
		}
	}
}

func TestPublishTeamIsEscaped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/v1/teams/a%2Fb/posts" {
			t.Errorf("expected escaped team, got %s", r.URL.EscapedPath())
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c := New("t", "a/b", WithBaseURL(server.URL))
	if _, err := c.Publish(context.Background(), testDoc); err != nil {
		t.Fatal(err)
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	if _, err := p.Publish(context.Background(), testDoc); err != nil {
		t.Fatal(err)
	}
	want := "name: nikki/2024/03/14\nwip: false\n\n## 09時\n\n- standup\n"
	if buf.String() != want {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestPublisherInterface(t *testing.T) {
	var _ types.Publisher = (*Client)(nil)
	var _ types.Publisher = (*Printer)(nil)
}
