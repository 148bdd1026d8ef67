package cdpmode

import (
	"context"
	"log/slog"
	"time"
)

// Page is a handle to one page target. All calls route through the owning
// Client so reconnects are transparent.
type Page struct {
	c        *Client
	targetID string
}

// TargetID returns the CDP target this page is bound to.
func (p *Page) TargetID() string { return p.targetID }

// Get navigates the page to the given URL. Open is an alias kept for callers
// used to browser-driver naming.
func (p *Page) Get(ctx context.Context, url string) error {
	if url == "" {
		return newError(CodeValidation, "url is required", nil)
	}
	cdp, sessionID, err := p.c.sessionFor(ctx, p.targetID)
	if err != nil {
		return err
	}
	slog.Info("cdpmode navigate", "target_id", p.targetID, "url", url)
	if err := cdp.navigate(ctx, sessionID, url); err != nil {
		return newError(CodeEvalFailure, "navigation failed", err)
	}
	return nil
}

func (p *Page) Open(ctx context.Context, url string) error { return p.Get(ctx, url) }

// Refresh reloads the page without bypassing the cache.
func (p *Page) Refresh(ctx context.Context) error { return p.Reload(ctx, false) }

// Reload refreshes the page, optionally bypassing the cache.
func (p *Page) Reload(ctx context.Context, ignoreCache bool) error {
	cdp, sessionID, err := p.c.sessionFor(ctx, p.targetID)
	if err != nil {
		return err
	}
	if err := cdp.reload(ctx, sessionID, ignoreCache); err != nil {
		return newError(CodeEvalFailure, "reload failed", err)
	}
	return nil
}

// GoBack navigates one entry back in history. It is a no-op when the page has
// no earlier entry.
func (p *Page) GoBack(ctx context.Context) error {
	return p.historyStep(ctx, -1)
}

// GoForward navigates one entry forward in history.
func (p *Page) GoForward(ctx context.Context) error {
	return p.historyStep(ctx, 1)
}

func (p *Page) historyStep(ctx context.Context, delta int) error {
	cdp, sessionID, err := p.c.sessionFor(ctx, p.targetID)
	if err != nil {
		return err
	}
	moved, err := cdp.navigateHistory(ctx, sessionID, delta)
	if err != nil {
		return newError(CodeEvalFailure, "history navigation failed", err)
	}
	if !moved {
		slog.Debug("cdpmode history step skipped", "target_id", p.targetID, "delta", delta)
	}
	return nil
}

// Sleep blocks for the given duration or until the context ends.
func (p *Page) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type pageInfo struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Origin     string `json:"origin"`
	ReadyState string `json:"ready_state"`
	UserAgent  string `json:"user_agent"`
	Locale     string `json:"locale"`
}

func (p *Page) info(ctx context.Context) (pageInfo, error) {
	var out pageInfo
	if err := p.c.evalOnTab(ctx, p.targetID, jsPageInfo(), &out); err != nil {
		return pageInfo{}, err
	}
	return out, nil
}

// Title returns the current document title.
func (p *Page) Title(ctx context.Context) (string, error) {
	info, err := p.info(ctx)
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

// CurrentURL returns the page's location.
func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	info, err := p.info(ctx)
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Origin returns the page's scheme, host, and port.
func (p *Page) Origin(ctx context.Context) (string, error) {
	info, err := p.info(ctx)
	if err != nil {
		return "", err
	}
	return info.Origin, nil
}

// LocaleCode returns navigator.language as the page sees it.
func (p *Page) LocaleCode(ctx context.Context) (string, error) {
	info, err := p.info(ctx)
	if err != nil {
		return "", err
	}
	return info.Locale, nil
}

// UserAgent returns navigator.userAgent as the page sees it.
func (p *Page) UserAgent(ctx context.Context) (string, error) {
	info, err := p.info(ctx)
	if err != nil {
		return "", err
	}
	return info.UserAgent, nil
}

// PageSource returns the serialized DOM, not the original response body.
func (p *Page) PageSource(ctx context.Context) (string, error) {
	var out struct {
		Source string `json:"source"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsPageSource(), &out); err != nil {
		return "", err
	}
	return out.Source, nil
}

// Evaluate runs an arbitrary JS expression on the page and returns the
// JSON-decoded value. Promises are awaited.
func (p *Page) Evaluate(ctx context.Context, expression string) (any, error) {
	if expression == "" {
		return nil, newError(CodeValidation, "expression is required", nil)
	}
	var out struct {
		Value any `json:"value"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsUserEval(expression), &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

// Activate brings this page's tab to the foreground.
func (p *Page) Activate(ctx context.Context) error {
	return p.c.ActivateTab(ctx, p.targetID)
}

// Close closes this page's tab.
func (p *Page) Close(ctx context.Context) error {
	return p.c.CloseTab(ctx, p.targetID)
}

// HandleDialog accepts or dismisses an open JavaScript dialog.
func (p *Page) HandleDialog(ctx context.Context, accept bool) error {
	cdp, sessionID, err := p.c.sessionFor(ctx, p.targetID)
	if err != nil {
		return err
	}
	if err := cdp.handleJavaScriptDialog(ctx, sessionID, accept); err != nil {
		return newError(CodeEvalFailure, "dialog handling failed", err)
	}
	return nil
}
