package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	cdpstorage "github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// fileCookie is the on-disk cookie shape, shared with the CDP control mode so
// cookie files written in one mode load in the other.
type fileCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// GetCookies returns all cookies in the browser context.
func (d *Driver) GetCookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = cdpstorage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return cookies, nil
}

// SaveCookies writes all cookies to a JSON file.
func (d *Driver) SaveCookies(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("driver: cookie file path is required")
	}
	cookies, err := d.GetCookies(ctx)
	if err != nil {
		return err
	}

	out := make([]fileCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, fileCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("driver: create cookie dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("driver: marshal cookies: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("driver: write cookies: %w", err)
	}
	return nil
}

// LoadCookies reads cookies from a JSON file and installs them.
func (d *Driver) LoadCookies(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("driver: cookie file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("driver: read cookies: %w", err)
	}
	var in []fileCookie
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("driver: unmarshal cookies: %w", err)
	}
	if len(in) == 0 {
		return nil
	}

	params := cookieParams(in)
	return d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return cdpstorage.SetCookies(params).Do(ctx)
	}))
}

// ClearCookies removes every cookie from the browser context.
func (d *Driver) ClearCookies(ctx context.Context) error {
	return d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return cdpstorage.ClearCookies().Do(ctx)
	}))
}

func cookieParams(in []fileCookie) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(in))
	for _, c := range in {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != "" {
			p.SameSite = network.CookieSameSite(c.SameSite)
		}
		if c.Expires > 0 {
			expires := cdpTimeSinceEpoch(c.Expires)
			p.Expires = &expires
		}
		params = append(params, p)
	}
	return params
}

func cdpTimeSinceEpoch(seconds float64) cdp.TimeSinceEpoch {
	sec, frac := math.Modf(seconds)
	return cdp.TimeSinceEpoch(time.Unix(int64(sec), int64(frac*float64(time.Second))))
}
