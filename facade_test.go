package webostv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newFakeTVServer runs a minimal SSAP server: it registers any client
// immediately (no PROMPT stage) and answers every request with a
// payload holding only returnValue:true. This exercises the
// full Connect -> Register -> SendRequest path against a real socket,
// the way the teacher's server/*_test.go files drive a real
// httptest.Server instead of mocking the transport.
func newFakeTVServer(t *testing.T) (*httptest.Server, Endpoint) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env inboundEnvelope
			if err := json.Unmarshal(data, &env); err != nil {
				continue
			}
			var resp outboundEnvelope
			switch env.Type {
			case typeRegister:
				resp = outboundEnvelope{ID: env.ID, Type: typeRegistered, Payload: map[string]any{"client-key": "test-key"}}
			case typeRequest:
				resp = outboundEnvelope{ID: env.ID, Type: typeResponse, Payload: map[string]any{"returnValue": true}}
			default:
				continue
			}
			out, _ := json.Marshal(resp)
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				return
			}
		}
	}))

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}
	return srv, Endpoint{Host: u.Hostname(), Port: port}
}

func TestTVOpenRegisterAndCommand(t *testing.T) {
	srv, endpoint := newFakeTVServer(t)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tv, err := Open(ctx, endpoint, WithRequestTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tv.Close()

	events := tv.Register(ctx, DefaultManifest(), "")
	var clientKey ClientKey
	for ev := range events {
		if ev.Err != nil {
			t.Fatalf("registration failed: %v", ev.Err)
		}
		if ev.Status == Registered {
			clientKey = ev.ClientKey
		}
	}
	if clientKey != "test-key" {
		t.Fatalf("expected client key test-key, got %q", clientKey)
	}
	if tv.State() != StateOpenRegistered {
		t.Fatalf("expected StateOpenRegistered, got %s", tv.State())
	}

	if err := tv.Media.VolumeUp(ctx); err != nil {
		t.Fatalf("VolumeUp: %v", err)
	}
	if err := tv.System.PowerOff(ctx); err != nil {
		t.Fatalf("PowerOff: %v", err)
	}
}
