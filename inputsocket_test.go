package webostv

import (
	"context"
	"encoding/json"
	"testing"
)

func TestInputControlInsertText(t *testing.T) {
	conn, ft := newTestConnection()
	defer conn.Close()
	conn.setState(StateOpenRegistered)
	in := newInputControl(conn)

	go func() {
		_ = in.InsertText(context.Background(), "hello", true)
	}()

	frame := ft.serverRecv()
	var out outboundEnvelope
	_ = json.Unmarshal(frame, &out)
	if out.URI != "ssap://com.webos.service.ime/insertText" {
		t.Fatalf("unexpected uri: %s", out.URI)
	}
	payload := out.Payload.(map[string]any)
	if payload["text"] != "hello" {
		t.Fatalf("expected text=hello, got %+v", payload)
	}
	replace, _ := toInt(payload["replace"])
	if replace != 1 {
		t.Fatalf("expected replace=1 for replace=true, got %+v", payload)
	}

	resp, _ := json.Marshal(inboundEnvelope{ID: out.ID, Type: typeResponse, Payload: json.RawMessage(`{"returnValue":true}`)})
	ft.serverSend(resp)
}

func TestInputControlDeleteCharactersRejectsNegative(t *testing.T) {
	conn, _ := newTestConnection()
	defer conn.Close()
	conn.setState(StateOpenRegistered)
	in := newInputControl(conn)

	if err := in.DeleteCharacters(context.Background(), -1); err == nil {
		t.Fatal("expected an error for a negative character count")
	}
}

func TestInputControlSendEnterKey(t *testing.T) {
	conn, ft := newTestConnection()
	defer conn.Close()
	conn.setState(StateOpenRegistered)
	in := newInputControl(conn)

	go func() {
		_ = in.SendEnterKey(context.Background())
	}()

	frame := ft.serverRecv()
	var out outboundEnvelope
	_ = json.Unmarshal(frame, &out)
	if out.URI != "ssap://com.webos.service.ime/sendEnterKey" {
		t.Fatalf("unexpected uri: %s", out.URI)
	}

	resp, _ := json.Marshal(inboundEnvelope{ID: out.ID, Type: typeResponse, Payload: json.RawMessage(`{"returnValue":true}`)})
	ft.serverSend(resp)
}
