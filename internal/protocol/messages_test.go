package protocol

import (
	"errors"
	"testing"
)

func TestParseClientMessage(t *testing.T) {
	raw := []byte(`{"type":"client_message","session_id":"s1","seq":3,"text":"I had a hard day","ts_ms":1712345678}`)
	got, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage: %v", err)
	}
	msg, ok := got.(ClientMessage)
	if !ok {
		t.Fatalf("got %T, want ClientMessage", got)
	}
	if msg.SessionID != "s1" || msg.Seq != 3 || msg.Text != "I had a hard day" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestParseClientControl(t *testing.T) {
	raw := []byte(`{"type":"client_control","session_id":"s1","action":"end"}`)
	got, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage: %v", err)
	}
	msg, ok := got.(ClientControl)
	if !ok {
		t.Fatalf("got %T, want ClientControl", got)
	}
	if msg.Action != "end" {
		t.Errorf("action = %q, want end", msg.Action)
	}
}

func TestParseClientMessageValidation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing text", `{"type":"client_message","session_id":"s1"}`},
		{"missing session", `{"type":"client_message","text":"hi"}`},
		{"missing action", `{"type":"client_control","session_id":"s1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseClientMessage([]byte(tt.raw)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseClientMessageUnsupportedType(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`{"type":"assistant_message"}`)); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("got %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientMessageBadJSON(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`{nope`)); err == nil {
		t.Error("expected envelope error")
	}
}
