package cdpmode

import (
	"context"
	"time"

	"github.com/stealthdriver/uc/internal/stealth"
)

// namedKeys maps key names accepted by PressKey to their CDP key event
// parameters.
var namedKeys = map[string]struct {
	key     string
	code    string
	keyCode int
}{
	"enter":      {"Enter", "Enter", 13},
	"tab":        {"Tab", "Tab", 9},
	"escape":     {"Escape", "Escape", 27},
	"backspace":  {"Backspace", "Backspace", 8},
	"delete":     {"Delete", "Delete", 46},
	"arrowup":    {"ArrowUp", "ArrowUp", 38},
	"arrowdown":  {"ArrowDown", "ArrowDown", 40},
	"arrowleft":  {"ArrowLeft", "ArrowLeft", 37},
	"arrowright": {"ArrowRight", "ArrowRight", 39},
	"pageup":     {"PageUp", "PageUp", 33},
	"pagedown":   {"PageDown", "PageDown", 34},
	"home":       {"Home", "Home", 36},
	"end":        {"End", "End", 35},
	"space":      {" ", "Space", 32},
}

// Type clears the input and enters the text via trusted Input.insertText.
func (p *Page) Type(ctx context.Context, selector, text string) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsClearInput(selector), &out); err != nil {
		return err
	}
	return p.insertOnFocused(ctx, text)
}

// SendKeys appends text to the element without clearing it first.
func (p *Page) SendKeys(ctx context.Context, selector, text string) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsFocus(selector), &out); err != nil {
		return err
	}
	return p.insertOnFocused(ctx, text)
}

func (p *Page) insertOnFocused(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	cdp, sessionID, err := p.c.sessionFor(ctx, p.targetID)
	if err != nil {
		return err
	}
	if err := cdp.insertText(ctx, sessionID, text); err != nil {
		return newError(CodeEvalFailure, "text insert failed", err)
	}
	return nil
}

// PressKeys types the text one character at a time with human-cadence delays
// between keystrokes. Each character goes through the rawKeyDown/char/keyUp
// sequence so controlled inputs receive native events.
func (p *Page) PressKeys(ctx context.Context, selector, text string) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsFocus(selector), &out); err != nil {
		return err
	}

	cdp, sessionID, err := p.c.sessionFor(ctx, p.targetID)
	if err != nil {
		return err
	}

	for _, r := range text {
		if err := cdp.dispatchCharInput(ctx, sessionID, string(r)); err != nil {
			return newError(CodeEvalFailure, "keystroke failed", err)
		}
		select {
		case <-time.After(stealth.TypingDelay()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// SetValue writes the value through the element's native setter with JS,
// bypassing keyboard input entirely.
func (p *Page) SetValue(ctx context.Context, selector, value string) error {
	var out struct {
		Value string `json:"value"`
	}
	return p.c.evalOnTab(ctx, p.targetID, jsSetValue(selector, value), &out)
}

// PressKey dispatches a trusted key press for a named key such as "Enter" or
// "Tab". Names are case-insensitive.
func (p *Page) PressKey(ctx context.Context, name string) error {
	entry, ok := namedKeys[normalizeKeyName(name)]
	if !ok {
		return newError(CodeValidation, "unknown key: "+name, nil)
	}
	cdp, sessionID, err := p.c.sessionFor(ctx, p.targetID)
	if err != nil {
		return err
	}
	if err := cdp.dispatchKeyEvent(ctx, sessionID, entry.key, entry.code, entry.keyCode, 0); err != nil {
		return newError(CodeEvalFailure, "key press failed", err)
	}
	return nil
}

func normalizeKeyName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r == ' ' || r == '_' || r == '-' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}
