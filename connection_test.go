package webostv

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestSendRequestRoundTrip(t *testing.T) {
	conn, ft := newTestConnection(WithRequestTimeout(time.Second))
	defer conn.Close()
	conn.setState(StateOpenRegistered)

	resultCh := make(chan struct {
		payload json.RawMessage
		err     error
	}, 1)
	go func() {
		payload, err := conn.sendRequest(context.Background(), "ssap://audio/getVolume", nil)
		resultCh <- struct {
			payload json.RawMessage
			err     error
		}{payload, err}
	}()

	frame := ft.serverRecv()
	var out outboundEnvelope
	if err := json.Unmarshal(frame, &out); err != nil {
		t.Fatalf("unmarshal outbound frame: %v", err)
	}
	if out.Type != typeRequest || out.URI != "ssap://audio/getVolume" {
		t.Fatalf("unexpected outbound envelope: %+v", out)
	}

	resp, _ := json.Marshal(inboundEnvelope{ID: out.ID, Type: typeResponse, Payload: json.RawMessage(`{"volume":12}`)})
	ft.serverSend(resp)

	result := <-resultCh
	if result.err != nil {
		t.Fatalf("sendRequest returned error: %v", result.err)
	}
	var body struct {
		Volume int `json:"volume"`
	}
	if err := json.Unmarshal(result.payload, &body); err != nil {
		t.Fatalf("unmarshal result payload: %v", err)
	}
	if body.Volume != 12 {
		t.Fatalf("expected volume 12, got %d", body.Volume)
	}
}

func TestSendRequestTimeout(t *testing.T) {
	conn, _ := newTestConnection(WithRequestTimeout(20 * time.Millisecond))
	defer conn.Close()
	conn.setState(StateOpenRegistered)

	_, err := conn.sendRequest(context.Background(), "ssap://audio/getVolume", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestSendRequestNotConnected(t *testing.T) {
	conn := NewConnection(Endpoint{Host: "tv.local"})
	_, err := conn.sendRequest(context.Background(), "ssap://audio/getVolume", nil)
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestCloseFailsPendingRequests(t *testing.T) {
	conn, _ := newTestConnection(WithRequestTimeout(5 * time.Second))
	conn.setState(StateOpenRegistered)

	errCh := make(chan error, 1)
	go func() {
		_, err := conn.sendRequest(context.Background(), "ssap://audio/getVolume", nil)
		errCh <- err
	}()

	// Let sendRequest park its pending request before closing.
	time.Sleep(10 * time.Millisecond)
	conn.Close()

	err := <-errCh
	if !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("expected ErrConnectionClosed, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	conn, _ := newTestConnection()
	if err := conn.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestCommandFailedErrorSurfacesTVText(t *testing.T) {
	conn, ft := newTestConnection(WithRequestTimeout(time.Second))
	defer conn.Close()
	conn.setState(StateOpenRegistered)

	errCh := make(chan error, 1)
	go func() {
		_, err := conn.sendRequest(context.Background(), "ssap://system/turnOff", nil)
		errCh <- err
	}()

	frame := ft.serverRecv()
	var out outboundEnvelope
	_ = json.Unmarshal(frame, &out)
	resp, _ := json.Marshal(inboundEnvelope{ID: out.ID, Type: typeError, Error: "Access denied"})
	ft.serverSend(resp)

	err := <-errCh
	if !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
	var cerr *Error
	if errors.As(err, &cerr) && cerr.TVErrorText != "Access denied" {
		t.Fatalf("expected TV error text to be preserved, got %q", cerr.TVErrorText)
	}
}
