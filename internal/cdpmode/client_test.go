package cdpmode

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDecodeEnvelope(t *testing.T) {
	var out struct {
		Text string `json:"text"`
	}
	if err := decodeEnvelope(`{"ok":true,"data":{"text":"hello"}}`, &out); err != nil {
		t.Fatalf("decodeEnvelope: %v", err)
	}
	if out.Text != "hello" {
		t.Errorf("text = %q, want hello", out.Text)
	}
}

func TestDecodeEnvelopeNilOut(t *testing.T) {
	if err := decodeEnvelope(`{"ok":true,"data":{"status":"clicked"}}`, nil); err != nil {
		t.Fatalf("decodeEnvelope with nil out: %v", err)
	}
}

func TestDecodeEnvelopeErrorCode(t *testing.T) {
	err := decodeEnvelope(`{"ok":false,"error_code":"ELEMENT_NOT_FOUND","error_message":"element not found: #x"}`, nil)
	var coded *CodedError
	if !errors.As(err, &coded) {
		t.Fatalf("expected CodedError, got %v", err)
	}
	if coded.Code != CodeElementNotFound {
		t.Errorf("code = %q, want %q", coded.Code, CodeElementNotFound)
	}
}

func TestDecodeEnvelopeMissingCodeDefaultsToEvalFailure(t *testing.T) {
	err := decodeEnvelope(`{"ok":false,"error_message":"boom"}`, nil)
	var coded *CodedError
	if !errors.As(err, &coded) {
		t.Fatalf("expected CodedError, got %v", err)
	}
	if coded.Code != CodeEvalFailure {
		t.Errorf("code = %q, want %q", coded.Code, CodeEvalFailure)
	}
}

func TestDecodeEnvelopeInvalidJSON(t *testing.T) {
	err := decodeEnvelope(`not json`, nil)
	var coded *CodedError
	if !errors.As(err, &coded) {
		t.Fatalf("expected CodedError, got %v", err)
	}
	if coded.Code != CodeEvalFailure {
		t.Errorf("code = %q, want %q", coded.Code, CodeEvalFailure)
	}
}

func TestSetDefaultWaitTimeout(t *testing.T) {
	c := NewClient("http://127.0.0.1:9222", time.Second)
	if got := c.defaultWait(); got != DefaultWaitTimeout {
		t.Errorf("defaultWait = %v, want %v", got, DefaultWaitTimeout)
	}

	c.SetDefaultWaitTimeout(25 * time.Second)
	if got := c.defaultWait(); got != 25*time.Second {
		t.Errorf("defaultWait = %v, want 25s", got)
	}

	// Non-positive values are ignored rather than disabling waits.
	c.SetDefaultWaitTimeout(0)
	if got := c.defaultWait(); got != 25*time.Second {
		t.Errorf("defaultWait = %v after zero set, want 25s", got)
	}
}

func TestResolveTabSessionUsesCache(t *testing.T) {
	c := NewClient("http://127.0.0.1:9222", time.Second)
	c.tabs["TAB1"] = &tabSession{info: TabInfo{TargetID: "TAB1", URL: "about:blank"}}

	session, info, err := c.resolveTabSession(context.Background(), "TAB1")
	if err != nil {
		t.Fatalf("resolveTabSession: %v", err)
	}
	if session == nil {
		t.Fatal("expected cached session")
	}
	if info.TargetID != "TAB1" {
		t.Errorf("target id = %q, want TAB1", info.TargetID)
	}
}

func TestShouldRetry(t *testing.T) {
	c := NewClient("http://127.0.0.1:9222", time.Second)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"cdp unavailable", newError(CodeCDPUnavailable, "down", nil), true},
		{"target not found", newError(CodeTargetNotFound, "gone", nil), false},
		{"element not found", newError(CodeElementNotFound, "missing", nil), false},
		{"validation", newError(CodeValidation, "bad", nil), false},
		{"eval failure no cause", newError(CodeEvalFailure, "boom", nil), false},
		{"eval failure websocket cause", newError(CodeEvalFailure, "boom", fmt.Errorf("websocket: close sent")), true},
		{"eval failure eof cause", newError(CodeEvalFailure, "boom", fmt.Errorf("unexpected EOF")), true},
		{"eval failure js cause", newError(CodeEvalFailure, "boom", fmt.Errorf("ReferenceError: x is not defined")), false},
		{"plain error", errors.New("plain"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.shouldRetry(tt.err); got != tt.want {
				t.Errorf("shouldRetry(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCodedErrorFormatting(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := newError(CodeCDPUnavailable, "connect failed", cause)

	var coded *CodedError
	if !errors.As(err, &coded) {
		t.Fatalf("expected CodedError")
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to unwrap")
	}
	want := "CDP_UNAVAILABLE: connect failed: dial tcp: connection refused"
	if coded.Error() != want {
		t.Errorf("Error() = %q, want %q", coded.Error(), want)
	}

	bare := newError(CodeValidation, "url is required", nil)
	if bare.Error() != "VALIDATION: url is required" {
		t.Errorf("Error() = %q", bare.Error())
	}
}
