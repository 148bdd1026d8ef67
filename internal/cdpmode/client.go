package cdpmode

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// transientHints are substrings in error causes that indicate a transient
// failure worth retrying (broken connection, closed session).
var transientHints = []string{
	"context canceled",
	"target closed",
	"session closed",
	"websocket",
	"connection reset",
	"broken pipe",
	"eof",
	"connection refused",
	"connection closed",
}

// TabInfo describes one open page target.
type TabInfo struct {
	TargetID string `json:"target_id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
}

type tabSession struct {
	info      TabInfo
	mu        sync.Mutex
	sessionID string // CDP session ID from Target.attachToTarget
}

// Client owns the browser-level CDP connection and tracks open page targets.
// All Page handles route through it so that reconnect and retry logic lives
// in one place.
type Client struct {
	cdpURL      string
	evalTimeout time.Duration
	waitTimeout time.Duration
	stealthJS   string // installed on every attached session when non-empty

	mu   sync.Mutex
	cdp  *rawCDP
	tabs map[string]*tabSession

	tabLocksMu sync.Mutex
	tabLocks   map[string]*sync.Mutex
}

type evalEnvelope struct {
	OK           bool            `json:"ok"`
	Data         json.RawMessage `json:"data,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// NewClient prepares a client for the given CDP HTTP base URL
// (e.g. "http://127.0.0.1:9222"). Call Connect before use.
func NewClient(cdpURL string, evalTimeout time.Duration) *Client {
	if evalTimeout <= 0 {
		evalTimeout = 30 * time.Second
	}
	return &Client{
		cdpURL:      cdpURL,
		evalTimeout: evalTimeout,
		waitTimeout: DefaultWaitTimeout,
		tabs:        make(map[string]*tabSession),
		tabLocks:    make(map[string]*sync.Mutex),
	}
}

// SetStealthScript installs JS to run before page scripts on every session
// attached after this call.
func (c *Client) SetStealthScript(js string) {
	c.mu.Lock()
	c.stealthJS = js
	c.mu.Unlock()
}

// SetDefaultWaitTimeout changes the deadline applied to waits that pass no
// timeout of their own.
func (c *Client) SetDefaultWaitTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.waitTimeout = d
	c.mu.Unlock()
}

func (c *Client) defaultWait() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.waitTimeout <= 0 {
		return DefaultWaitTimeout
	}
	return c.waitTimeout
}

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.cdpURL == "" {
		return newError(CodeCDPUnavailable, "missing CDP URL", nil)
	}

	slog.Info("cdpmode connect start", "cdp_url", c.cdpURL)
	c.cleanupLocked()

	c.cdp = newRawCDP(c.cdpURL)
	if err := c.cdp.connect(ctx); err != nil {
		c.cdp = nil
		return newError(CodeCDPUnavailable, "connect to CDP failed", err)
	}

	if err := c.syncTabsLocked(ctx); err != nil {
		slog.Error("cdpmode initial tab sync failed", "error", err)
		c.cleanupLocked()
		return newError(CodeCDPUnavailable, "connect to CDP failed", err)
	}

	slog.Info("cdpmode connect ok", "cdp_url", c.cdpURL, "tabs", len(c.tabs))
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupLocked()
	return nil
}

func (c *Client) cleanupLocked() {
	// Detach from any active sessions without closing targets.
	if c.cdp != nil {
		for _, session := range c.tabs {
			if session == nil {
				continue
			}
			session.mu.Lock()
			if session.sessionID != "" {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				_ = c.cdp.detachFromTarget(ctx, session.sessionID)
				cancel()
				session.sessionID = ""
			}
			session.mu.Unlock()
		}
		c.cdp.close()
		c.cdp = nil
	}
	c.tabs = make(map[string]*tabSession)
}

// ListTabs returns the open page targets sorted by target ID.
func (c *Client) ListTabs(ctx context.Context) ([]TabInfo, error) {
	if err := c.refreshTabs(ctx); err != nil {
		slog.Warn("cdpmode list tabs failed", "error", err)
		return nil, err
	}

	c.mu.Lock()
	tabs := make([]TabInfo, 0, len(c.tabs))
	for _, s := range c.tabs {
		if s != nil {
			tabs = append(tabs, s.info)
		}
	}
	c.mu.Unlock()

	sort.Slice(tabs, func(i, j int) bool {
		return tabs[i].TargetID < tabs[j].TargetID
	})
	return tabs, nil
}

// Page returns a handle bound to the given target.
func (c *Client) Page(ctx context.Context, targetID string) (*Page, error) {
	if _, _, err := c.resolveTabSession(ctx, targetID); err != nil {
		return nil, err
	}
	return &Page{c: c, targetID: targetID}, nil
}

// ActivePage returns a handle to the first open page target, opening a blank
// one when the browser has none.
func (c *Client) ActivePage(ctx context.Context) (*Page, error) {
	tabs, err := c.ListTabs(ctx)
	if err != nil {
		return nil, err
	}
	if len(tabs) == 0 {
		return c.OpenTab(ctx, "")
	}
	return &Page{c: c, targetID: tabs[0].TargetID}, nil
}

// OpenTab creates a new page target and returns a handle to it.
func (c *Client) OpenTab(ctx context.Context, url string) (*Page, error) {
	cdp, err := c.rawConn(ctx)
	if err != nil {
		return nil, err
	}
	targetID, err := cdp.createTarget(ctx, url)
	if err != nil {
		return nil, newError(CodeCDPUnavailable, "create target failed", err)
	}
	if err := c.refreshTabs(ctx); err != nil {
		return nil, err
	}
	slog.Info("cdpmode tab opened", "target_id", targetID, "url", url)
	return &Page{c: c, targetID: targetID}, nil
}

// CloseTab closes the given target.
func (c *Client) CloseTab(ctx context.Context, targetID string) error {
	cdp, err := c.rawConn(ctx)
	if err != nil {
		return err
	}
	if err := cdp.closeTarget(ctx, targetID); err != nil {
		return newError(CodeCDPUnavailable, "close target failed", err)
	}
	c.mu.Lock()
	delete(c.tabs, targetID)
	c.mu.Unlock()
	slog.Info("cdpmode tab closed", "target_id", targetID)
	return nil
}

// ActivateTab brings the given target's tab to the foreground.
func (c *Client) ActivateTab(ctx context.Context, targetID string) error {
	if _, _, err := c.resolveTabSession(ctx, targetID); err != nil {
		return err
	}
	cdp, err := c.rawConn(ctx)
	if err != nil {
		return err
	}
	if err := cdp.activateTarget(ctx, targetID); err != nil {
		return newError(CodeCDPUnavailable, "activate target failed", err)
	}
	return nil
}

// SwitchToNewestTab activates the most recently opened page target and
// returns a handle to it. The /json/list endpoint reports newest first.
func (c *Client) SwitchToNewestTab(ctx context.Context) (*Page, error) {
	cdp, err := c.rawConn(ctx)
	if err != nil {
		return nil, err
	}
	targets, err := cdp.listTargets(ctx)
	if err != nil {
		return nil, newError(CodeCDPUnavailable, "failed to list targets", err)
	}
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		if err := c.refreshTabs(ctx); err != nil {
			return nil, err
		}
		if err := c.ActivateTab(ctx, t.ID); err != nil {
			return nil, err
		}
		return &Page{c: c, targetID: t.ID}, nil
	}
	return nil, newError(CodeTargetNotFound, "no open page targets", nil)
}

// GetAllCookies reads every cookie in the browser context.
func (c *Client) GetAllCookies(ctx context.Context) ([]Cookie, error) {
	cdp, err := c.rawConn(ctx)
	if err != nil {
		return nil, err
	}
	cookies, err := cdp.getAllCookies(ctx)
	if err != nil {
		return nil, newError(CodeCDPUnavailable, "get cookies failed", err)
	}
	return cookies, nil
}

// SetAllCookies installs the given cookies into the browser context.
func (c *Client) SetAllCookies(ctx context.Context, cookies []Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	cdp, err := c.rawConn(ctx)
	if err != nil {
		return err
	}
	if err := cdp.setCookies(ctx, cookies); err != nil {
		return newError(CodeCDPUnavailable, "set cookies failed", err)
	}
	return nil
}

// ClearCookies removes all cookies from the browser context.
func (c *Client) ClearCookies(ctx context.Context) error {
	cdp, err := c.rawConn(ctx)
	if err != nil {
		return err
	}
	if err := cdp.clearCookies(ctx); err != nil {
		return newError(CodeCDPUnavailable, "clear cookies failed", err)
	}
	return nil
}

// evalOnTab evaluates wrapped JS on the target and decodes the envelope data
// into out. Transient failures trigger one reconnect-and-retry pass.
func (c *Client) evalOnTab(ctx context.Context, targetID, js string, out any) error {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return newError(CodeValidation, "target id is required", nil)
	}

	lock := c.tabLock(targetID)
	lock.Lock()
	defer lock.Unlock()

	session, info, err := c.resolveTabSession(ctx, targetID)
	if err == nil {
		err = c.evalOnSession(ctx, session, info.TargetID, js, out)
	}
	if err == nil {
		return nil
	}
	if !c.shouldRetry(err) {
		return err
	}

	slog.Warn("cdpmode eval retry after transient failure", "target_id", targetID, "error", err)
	if c.asCode(err, CodeCDPUnavailable) {
		if recErr := c.reconnect(ctx); recErr != nil {
			slog.Error("cdpmode reconnect failed during retry", "target_id", targetID, "error", recErr)
			return recErr
		}
	} else {
		if syncErr := c.refreshTabs(ctx); syncErr != nil {
			slog.Warn("cdpmode tab refresh failed during retry", "target_id", targetID, "error", syncErr)
		}
	}

	session, info, err = c.resolveTabSession(ctx, targetID)
	if err != nil {
		return err
	}
	return c.evalOnSession(ctx, session, info.TargetID, js, out)
}

func (c *Client) evalOnSession(ctx context.Context, session *tabSession, targetID, js string, out any) error {
	cdp, err := c.rawConn(ctx)
	if err != nil {
		return err
	}

	sessionID, err := c.ensureSession(ctx, cdp, session, targetID)
	if err != nil {
		return err
	}

	evalCtx, evalCancel := context.WithTimeout(ctx, c.evalTimeout)
	defer evalCancel()

	raw, err := cdp.evaluate(evalCtx, sessionID, js)
	if err != nil {
		slog.Warn("cdpmode eval failed", "target_id", targetID, "error", err)
		// Reset session so a fresh attach happens on retry.
		session.mu.Lock()
		session.sessionID = ""
		session.mu.Unlock()

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(evalCtx.Err(), context.DeadlineExceeded) {
			return newError(CodeEvalTimeout, "evaluation timed out", err)
		}
		return newError(CodeEvalFailure, "evaluation failed", err)
	}

	return decodeEnvelope(raw, out)
}

func decodeEnvelope(raw string, out any) error {
	var env evalEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return newError(CodeEvalFailure, "invalid evaluation envelope", err)
	}
	if !env.OK {
		code := env.ErrorCode
		if code == "" {
			code = CodeEvalFailure
		}
		return newError(code, env.ErrorMessage, nil)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return newError(CodeEvalFailure, "invalid evaluation data", err)
	}
	return nil
}

// sessionFor returns the attached session ID for a target, for commands that
// go through CDP domains directly instead of Runtime.evaluate.
func (c *Client) sessionFor(ctx context.Context, targetID string) (*rawCDP, string, error) {
	session, info, err := c.resolveTabSession(ctx, targetID)
	if err != nil {
		return nil, "", err
	}
	cdp, err := c.rawConn(ctx)
	if err != nil {
		return nil, "", err
	}
	sessionID, err := c.ensureSession(ctx, cdp, session, info.TargetID)
	if err != nil {
		return nil, "", err
	}
	return cdp, sessionID, nil
}

// ensureSession returns a CDP session ID for the target, attaching if needed.
// Stealth patches and Page events are installed on fresh attaches.
func (c *Client) ensureSession(ctx context.Context, cdp *rawCDP, session *tabSession, targetID string) (string, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.sessionID != "" {
		return session.sessionID, nil
	}

	sid, err := cdp.attachToTarget(ctx, targetID)
	if err != nil {
		return "", newError(CodeCDPUnavailable, "attach to target failed", err)
	}

	c.mu.Lock()
	stealthJS := c.stealthJS
	c.mu.Unlock()
	if stealthJS != "" {
		if err := cdp.addScriptOnNewDocument(ctx, sid, stealthJS); err != nil {
			slog.Warn("cdpmode stealth script install failed", "target_id", targetID, "error", err)
		}
	}
	if err := cdp.enablePageDomain(ctx, sid); err != nil {
		slog.Debug("cdpmode page enable failed", "target_id", targetID, "error", err)
	}

	session.sessionID = sid
	slog.Debug("cdpmode session attached", "target_id", targetID, "session_id", sid)
	return sid, nil
}

func (c *Client) resolveTabSession(ctx context.Context, targetID string) (*tabSession, TabInfo, error) {
	session, info, found := c.lookupTabSession(targetID)
	if found {
		return session, info, nil
	}

	if err := c.refreshTabs(ctx); err != nil {
		return nil, TabInfo{}, err
	}

	session, info, found = c.lookupTabSession(targetID)
	if found {
		return session, info, nil
	}
	return nil, TabInfo{}, newError(CodeTargetNotFound, "target not found: "+targetID, nil)
}

func (c *Client) lookupTabSession(targetID string) (*tabSession, TabInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	session := c.tabs[targetID]
	if session == nil {
		return nil, TabInfo{}, false
	}
	return session, session.info, true
}

func (c *Client) refreshTabs(ctx context.Context) error {
	if err := c.ensureConnected(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	err := c.syncTabsLocked(ctx)
	c.mu.Unlock()
	if err == nil {
		return nil
	}
	return newError(CodeCDPUnavailable, "failed to list targets", err)
}

func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) syncTabsLocked(ctx context.Context) error {
	if c.cdp == nil {
		return newError(CodeCDPUnavailable, "CDP client not connected", nil)
	}

	targets, err := c.cdp.listTargets(ctx)
	if err != nil {
		return err
	}

	expected := make(map[string]TabInfo)
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		expected[t.ID] = TabInfo{
			TargetID: t.ID,
			URL:      t.URL,
			Title:    t.Title,
		}
	}

	for targetID := range c.tabs {
		if _, ok := expected[targetID]; ok {
			continue
		}
		delete(c.tabs, targetID)
	}

	for targetID, info := range expected {
		session := c.tabs[targetID]
		if session != nil {
			session.info = info
			continue
		}
		c.tabs[targetID] = &tabSession{info: info}
	}

	// Prune locks for targets no longer present.
	c.tabLocksMu.Lock()
	for id := range c.tabLocks {
		if _, ok := c.tabs[id]; !ok {
			delete(c.tabLocks, id)
		}
	}
	c.tabLocksMu.Unlock()

	slog.Debug("cdpmode tab sync", "targets", len(targets), "tabs", len(c.tabs))
	return nil
}

func (c *Client) ensureConnected(ctx context.Context) error {
	c.mu.Lock()
	connected := c.cdp != nil
	c.mu.Unlock()
	if connected {
		return nil
	}
	return c.reconnect(ctx)
}

func (c *Client) rawConn(ctx context.Context) (*rawCDP, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	cdp := c.cdp
	c.mu.Unlock()
	if cdp == nil {
		return nil, newError(CodeCDPUnavailable, "CDP client not connected", nil)
	}
	return cdp, nil
}

func (c *Client) tabLock(targetID string) *sync.Mutex {
	c.tabLocksMu.Lock()
	defer c.tabLocksMu.Unlock()
	m, ok := c.tabLocks[targetID]
	if !ok {
		m = &sync.Mutex{}
		c.tabLocks[targetID] = m
	}
	return m
}

func (c *Client) shouldRetry(err error) bool {
	var coded *CodedError
	if !errors.As(err, &coded) {
		return false
	}

	switch coded.Code {
	case CodeCDPUnavailable:
		return true
	case CodeTargetNotFound, CodeValidation, CodeElementNotFound:
		return false
	case CodeEvalFailure:
		if coded.Cause == nil {
			return false
		}
		cause := strings.ToLower(coded.Cause.Error())
		for _, hint := range transientHints {
			if strings.Contains(cause, hint) {
				return true
			}
		}
	}
	return false
}

func (c *Client) asCode(err error, code string) bool {
	var coded *CodedError
	if !errors.As(err, &coded) {
		return false
	}
	return coded.Code == code
}
