package cdpmode

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Cookie mirrors the CDP Network.Cookie shape. Read-only fields (size,
// session, priority) are omitted when writing cookies back.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// SaveCookies writes the browser context's cookies to a JSON file, creating
// parent directories as needed.
func (p *Page) SaveCookies(ctx context.Context, path string) error {
	if path == "" {
		return newError(CodeValidation, "cookie file path is required", nil)
	}
	cookies, err := p.c.GetAllCookies(ctx)
	if err != nil {
		return err
	}
	if err := writeCookieFile(path, cookies); err != nil {
		return newError(CodeValidation, "write cookie file failed", err)
	}
	return nil
}

// LoadCookies reads cookies from a JSON file and installs them into the
// browser context.
func (p *Page) LoadCookies(ctx context.Context, path string) error {
	if path == "" {
		return newError(CodeValidation, "cookie file path is required", nil)
	}
	cookies, err := readCookieFile(path)
	if err != nil {
		return newError(CodeValidation, "read cookie file failed", err)
	}
	return p.c.SetAllCookies(ctx, cookies)
}

// GetAllCookies returns the browser context's cookies.
func (p *Page) GetAllCookies(ctx context.Context) ([]Cookie, error) {
	return p.c.GetAllCookies(ctx)
}

// SetAllCookies installs cookies into the browser context.
func (p *Page) SetAllCookies(ctx context.Context, cookies []Cookie) error {
	return p.c.SetAllCookies(ctx, cookies)
}

// ClearCookies removes every cookie from the browser context.
func (p *Page) ClearCookies(ctx context.Context) error {
	return p.c.ClearCookies(ctx)
}

// CookieString returns document.cookie for the current page, which excludes
// HttpOnly cookies.
func (p *Page) CookieString(ctx context.Context) (string, error) {
	var out struct {
		Cookies string `json:"cookies"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsCookieString(), &out); err != nil {
		return "", err
	}
	return out.Cookies, nil
}

func writeCookieFile(path string, cookies []Cookie) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cookie dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cookies: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write cookies: %w", err)
	}
	return nil
}

func readCookieFile(path string) ([]Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("unmarshal cookies: %w", err)
	}
	return cookies, nil
}
