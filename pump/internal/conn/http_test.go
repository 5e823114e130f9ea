package conn

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTP_PostsPayload(t *testing.T) {
	var gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	ep, err := ParseEndpoint(srv.URL + "/aircraft/pump")
	if err != nil {
		t.Fatalf("ParseEndpoint: %v", err)
	}
	d, _ := NewDialer(ep, DialOptions{})
	m := NewManager(ep, d, Options{})

	c, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := m.Send(context.Background(), c, []byte(`{"now":1}`)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotBody != `{"now":1}` {
		t.Errorf("body = %q", gotBody)
	}
	if gotType != "application/json" {
		t.Errorf("Content-Type = %q", gotType)
	}
}

func TestHTTP_Responses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"ok", http.StatusOK, `{"status":"ok"}`, false},
		{"unparsable body is not a failure", http.StatusOK, `<html>`, false},
		{"server error is logged only", http.StatusInternalServerError, `{"status":"boom"}`, false},
		{"unauthorized is logged only", http.StatusUnauthorized, `{"status":"bad secret"}`, false},
		{"stale data is logged only", http.StatusUnprocessableEntity, `{"status":"receiver: stale data"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body)) //nolint:errcheck
			}))
			defer srv.Close()

			ep, _ := ParseEndpoint(srv.URL)
			d, _ := NewDialer(ep, DialOptions{})
			c, _ := d.Dial(context.Background(), ep)
			err := c.Send(context.Background(), []byte(`{}`))
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHTTP_RejectedPayloadKeepsConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"status":"receiver: stale data"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	ep, _ := ParseEndpoint(srv.URL)
	d, _ := NewDialer(ep, DialOptions{})
	m := NewManager(ep, d, Options{})
	c, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	for i := 0; i < 3; i++ {
		next, err := m.Send(context.Background(), c, []byte(`{"now":1}`))
		if err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
		if next != c {
			t.Fatalf("Send %d replaced the connection", i)
		}
	}
}

func TestHTTP_UnreachableIsSendFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	ep, _ := ParseEndpoint(srv.URL)
	srv.Close()

	d, _ := NewDialer(ep, DialOptions{})
	m := NewManager(ep, d, Options{})
	c, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	var se *SendError
	_, err = m.Send(context.Background(), c, []byte(`{}`))
	if !errors.As(err, &se) || se.Stage != StageTransmit {
		t.Fatalf("err = %v, want transmit SendError", err)
	}
}
