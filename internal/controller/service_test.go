package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/stealthdriver/uc/internal/cdpmode"
)

func TestRequireNonEmpty(t *testing.T) {
	s := &Service{}
	if err := s.requireNonEmpty("#login", "selector"); err != nil {
		t.Fatalf("requireNonEmpty() = %v; want nil", err)
	}

	if err := s.requireNonEmpty("   ", "selector"); err == nil {
		t.Fatalf("requireNonEmpty() = nil; want validation error")
	} else if got, ok := err.(*cdpmode.CodedError); !ok {
		t.Fatalf("requireNonEmpty() = %T; want *cdpmode.CodedError", err)
	} else if got.Code != cdpmode.CodeValidation {
		t.Fatalf("requireNonEmpty() code = %q; want %q", got.Code, cdpmode.CodeValidation)
	} else if got.Message != "selector is required" {
		t.Fatalf("requireNonEmpty() message = %q; want %q", got.Message, "selector is required")
	}
}

func TestClick_RequiresNonEmptySelector(t *testing.T) {
	s := &Service{}
	err := s.Click(context.Background(), "   ", false)
	if err == nil {
		t.Fatalf("Click() = nil; want validation error")
	}
	var got *cdpmode.CodedError
	if !errors.As(err, &got) {
		t.Fatalf("Click() error type = %T; want *cdpmode.CodedError", err)
	}
	if got.Code != cdpmode.CodeValidation {
		t.Fatalf("Click() code = %q; want %q", got.Code, cdpmode.CodeValidation)
	}
}

func TestWaitFor_RejectsUnknownCondition(t *testing.T) {
	s := &Service{}
	err := s.WaitFor(context.Background(), "#login", "hovered", "", 0)
	if err == nil {
		t.Fatalf("WaitFor() = nil; want validation error")
	}
	var got *cdpmode.CodedError
	if !errors.As(err, &got) {
		t.Fatalf("WaitFor() error type = %T; want *cdpmode.CodedError", err)
	}
	if got.Code != cdpmode.CodeValidation {
		t.Fatalf("WaitFor() code = %q; want %q", got.Code, cdpmode.CodeValidation)
	}
	if got.Message != "unknown wait condition: hovered" {
		t.Fatalf("WaitFor() message = %q", got.Message)
	}
}

func TestWaitFor_TextConditionRequiresText(t *testing.T) {
	s := &Service{}
	err := s.WaitFor(context.Background(), "#login", "text", "  ", 0)
	if err == nil {
		t.Fatalf("WaitFor() = nil; want validation error")
	}
	var got *cdpmode.CodedError
	if !errors.As(err, &got) {
		t.Fatalf("WaitFor() error type = %T; want *cdpmode.CodedError", err)
	}
	if got.Message != "text is required" {
		t.Fatalf("WaitFor() message = %q; want %q", got.Message, "text is required")
	}
}

func TestSetCookies_RequiresCookies(t *testing.T) {
	s := &Service{}
	err := s.SetCookies(context.Background(), nil)
	if err == nil {
		t.Fatalf("SetCookies() = nil; want validation error")
	}
	var got *cdpmode.CodedError
	if !errors.As(err, &got) {
		t.Fatalf("SetCookies() error type = %T; want *cdpmode.CodedError", err)
	}
	if got.Code != cdpmode.CodeValidation {
		t.Fatalf("SetCookies() code = %q; want %q", got.Code, cdpmode.CodeValidation)
	}
}
