package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/stealthdriver/uc/internal/capture"
)

// Driver is a chromedp-backed handle to a running browser. It attaches to
// every page target, tracks a current tab, and optionally streams network
// traffic into the capture pipeline.
type Driver struct {
	cdpURL      string
	httpCapture *capture.HTTPCapture
	wsCapture   *capture.WebSocketCapture
	tabRegistry *TabRegistry

	allocCtx    context.Context
	allocCancel context.CancelFunc

	tabs      map[target.ID]*tabContext
	currentID target.ID
	tabsMu    sync.RWMutex
}

type tabContext struct {
	id     target.ID
	url    string
	ctx    context.Context
	cancel context.CancelFunc

	// frameCtx scopes script evaluation to an iframe after SwitchToFrame.
	// Zero means the main document; guarded by Driver.tabsMu.
	frameCtx runtime.ExecutionContextID
}

// NewDriver prepares a driver for the given CDP HTTP URL. httpCapture and
// wsCapture may be nil, in which case no traffic is recorded.
func NewDriver(cdpURL string, httpCapture *capture.HTTPCapture, wsCapture *capture.WebSocketCapture, tabRegistry *TabRegistry) *Driver {
	if tabRegistry == nil {
		tabRegistry = NewTabRegistry()
	}
	return &Driver{
		cdpURL:      cdpURL,
		httpCapture: httpCapture,
		wsCapture:   wsCapture,
		tabRegistry: tabRegistry,
		tabs:        make(map[target.ID]*tabContext),
	}
}

// Registry exposes tab metadata lookups for capture consumers.
func (d *Driver) Registry() *TabRegistry { return d.tabRegistry }

// Connect attaches to the browser and to every open page target. The first
// page becomes the current tab.
func (d *Driver) Connect(ctx context.Context) error {
	_ = ctx
	slog.Info("driver connecting", "cdp_url", d.cdpURL)

	d.allocCtx, d.allocCancel = chromedp.NewRemoteAllocator(context.Background(), d.cdpURL)

	tempCtx, tempCancel := chromedp.NewContext(d.allocCtx)
	defer tempCancel()

	if err := chromedp.Run(tempCtx); err != nil {
		return fmt.Errorf("driver: connect to browser: %w", err)
	}

	targets, err := chromedp.Targets(tempCtx)
	if err != nil {
		return fmt.Errorf("driver: enumerate targets: %w", err)
	}

	attached := 0
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		if err := d.attachToTab(t.TargetID, t.URL); err != nil {
			slog.Error("driver attach failed", "target_id", t.TargetID, "url", t.URL, "error", err)
			continue
		}
		if attached == 0 {
			d.tabsMu.Lock()
			d.currentID = t.TargetID
			d.tabsMu.Unlock()
		}
		attached++
	}

	if attached == 0 {
		// A fresh browser can have zero pages, e.g. headless with no start URL.
		tab, err := d.newTab("about:blank")
		if err != nil {
			return fmt.Errorf("driver: no page targets and open failed: %w", err)
		}
		d.tabsMu.Lock()
		d.currentID = tab.id
		d.tabsMu.Unlock()
		attached = 1
	}

	slog.Info("driver connected", "tabs", attached)
	return nil
}

func (d *Driver) attachToTab(targetID target.ID, url string) error {
	info, err := d.tabRegistry.Register(targetID, url)
	if err != nil {
		return fmt.Errorf("driver: register tab: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(d.allocCtx, chromedp.WithTargetID(targetID))
	tab := &tabContext{id: targetID, url: url, ctx: tabCtx, cancel: tabCancel}

	d.tabsMu.Lock()
	d.tabs[targetID] = tab
	d.tabsMu.Unlock()

	actions := []chromedp.Action{page.Enable()}
	if d.capturing() {
		actions = append(actions, network.Enable(), network.SetCacheDisabled(true))
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		tabCancel()
		d.tabsMu.Lock()
		delete(d.tabs, targetID)
		d.tabsMu.Unlock()
		d.tabRegistry.Remove(targetID)
		return fmt.Errorf("driver: enable domains: %w", err)
	}

	slog.Info("driver attached to tab", "target_id", targetID, "segment", info.Segment, "short_id", info.ShortID)
	chromedp.ListenTarget(tabCtx, d.createEventHandler(string(targetID)))
	return nil
}

func (d *Driver) capturing() bool {
	return d.httpCapture != nil || d.wsCapture != nil
}

func (d *Driver) createEventHandler(tabID string) func(ev interface{}) {
	return func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventFrameNavigated:
			if e.Frame.ParentID == "" {
				if info, err := d.tabRegistry.Register(target.ID(tabID), e.Frame.URL); err == nil {
					slog.Debug("driver tab navigated", "tab_id", tabID, "segment", info.Segment)
				}
			}
		case *page.EventNavigatedWithinDocument:
			if _, err := d.tabRegistry.Register(target.ID(tabID), e.URL); err != nil {
				slog.Debug("driver spa navigation register failed", "tab_id", tabID, "error", err)
			}
		case *network.EventRequestWillBeSent:
			if d.httpCapture != nil {
				d.httpCapture.OnRequestWillBeSent(tabID, e)
			}
		case *network.EventResponseReceived:
			if d.httpCapture != nil {
				d.httpCapture.OnResponseReceived(tabID, e)
			}
		case *network.EventLoadingFinished:
			if d.httpCapture == nil {
				return
			}
			d.tabsMu.RLock()
			tab, ok := d.tabs[target.ID(tabID)]
			d.tabsMu.RUnlock()

			var getBody func() ([]byte, bool, error)
			if ok {
				tabCtx := tab.ctx
				getBody = func() ([]byte, bool, error) {
					bodyCtx, bodyCancel := context.WithTimeout(tabCtx, 10*time.Second)
					defer bodyCancel()

					var body []byte
					err := chromedp.Run(bodyCtx, chromedp.ActionFunc(func(ctx context.Context) error {
						var err error
						body, err = network.GetResponseBody(e.RequestID).Do(ctx)
						return err
					}))
					return body, false, err
				}
			}
			d.httpCapture.OnLoadingFinished(tabID, e, getBody)
		case *network.EventLoadingFailed:
			if d.httpCapture != nil {
				d.httpCapture.OnLoadingFailed(tabID, e)
			}
		case *network.EventWebSocketCreated:
			if d.wsCapture != nil {
				d.wsCapture.OnWebSocketCreated(tabID, e)
			}
		case *network.EventWebSocketFrameReceived:
			if d.wsCapture != nil {
				d.wsCapture.OnWebSocketFrameReceived(tabID, e)
			}
		case *network.EventWebSocketFrameSent:
			if d.wsCapture != nil {
				d.wsCapture.OnWebSocketFrameSent(tabID, e)
			}
		case *network.EventWebSocketClosed:
			if d.wsCapture != nil {
				d.wsCapture.OnWebSocketClosed(tabID, e)
			}
		}
	}
}

// Close detaches from all tabs and tears down the allocator. The browser
// process itself is left running; the launcher owns its lifecycle.
func (d *Driver) Close() error {
	d.tabsMu.Lock()
	for _, tab := range d.tabs {
		tab.cancel()
	}
	d.tabs = make(map[target.ID]*tabContext)
	d.currentID = ""
	d.tabsMu.Unlock()

	if d.allocCancel != nil {
		d.allocCancel()
	}
	slog.Info("driver closed")
	return nil
}

func (d *Driver) current() (*tabContext, error) {
	d.tabsMu.RLock()
	defer d.tabsMu.RUnlock()
	tab, ok := d.tabs[d.currentID]
	if !ok {
		return nil, fmt.Errorf("driver: no current tab")
	}
	return tab, nil
}

// Get navigates the current tab.
func (d *Driver) Get(ctx context.Context, url string) error {
	tab, err := d.current()
	if err != nil {
		return err
	}
	runCtx, cancel := mergeTimeout(tab.ctx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("driver: navigate: %w", err)
	}
	if _, err := d.tabRegistry.Register(tab.id, url); err != nil {
		slog.Debug("driver register after navigate failed", "error", err)
	}
	return nil
}

// Title returns the current tab's document title.
func (d *Driver) Title(ctx context.Context) (string, error) {
	var title string
	if err := d.run(ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// CurrentURL returns the current tab's location.
func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := d.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// PageSource returns the serialized DOM of the current tab.
func (d *Driver) PageSource(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// ExecuteScript evaluates JS on the current tab, decoding the result into out
// when out is non-nil. After SwitchToFrame the script runs inside the
// selected iframe.
func (d *Driver) ExecuteScript(ctx context.Context, script string, out any) error {
	tab, err := d.current()
	if err != nil {
		return err
	}
	d.tabsMu.RLock()
	frameCtx := tab.frameCtx
	d.tabsMu.RUnlock()

	if out == nil {
		var discard any
		out = &discard
	}
	if frameCtx == 0 {
		return d.run(ctx, chromedp.Evaluate(script, out))
	}
	return d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, exc, err := runtime.Evaluate(script).
			WithContextID(frameCtx).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		if obj != nil && obj.Value != nil {
			return json.Unmarshal(obj.Value, out)
		}
		return nil
	}))
}

// SwitchToFrame scopes script evaluation to the iframe matched by selector.
// The frame must be same-process; out-of-process iframes live in their own
// target and need SwitchToWindow instead.
func (d *Driver) SwitchToFrame(ctx context.Context, selector string) error {
	if selector == "" {
		return fmt.Errorf("driver: frame selector is required")
	}
	tab, err := d.current()
	if err != nil {
		return err
	}
	runCtx, cancel := mergeTimeout(tab.ctx, ctx)
	defer cancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(runCtx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return fmt.Errorf("driver: resolve frame: %w", err)
	}
	if len(nodes) == 0 {
		return fmt.Errorf("driver: no frame matches: %s", selector)
	}
	frameID := nodes[0].FrameID
	if frameID == "" {
		return fmt.Errorf("driver: element is not a frame: %s", selector)
	}

	var execCtx runtime.ExecutionContextID
	if err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		execCtx, err = page.CreateIsolatedWorld(frameID).Do(ctx)
		return err
	})); err != nil {
		return fmt.Errorf("driver: frame context: %w", err)
	}

	d.tabsMu.Lock()
	tab.frameCtx = execCtx
	d.tabsMu.Unlock()
	slog.Debug("driver switched to frame", "selector", selector, "frame_id", frameID)
	return nil
}

// SwitchToDefaultContent returns script evaluation to the main document.
func (d *Driver) SwitchToDefaultContent() error {
	tab, err := d.current()
	if err != nil {
		return err
	}
	d.tabsMu.Lock()
	tab.frameCtx = 0
	d.tabsMu.Unlock()
	return nil
}

// WindowHandles returns the IDs of all attached tabs, sorted.
func (d *Driver) WindowHandles() []string {
	d.tabsMu.RLock()
	defer d.tabsMu.RUnlock()
	handles := make([]string, 0, len(d.tabs))
	for id := range d.tabs {
		handles = append(handles, string(id))
	}
	sort.Strings(handles)
	return handles
}

// CurrentWindowHandle returns the current tab's target ID.
func (d *Driver) CurrentWindowHandle() string {
	d.tabsMu.RLock()
	defer d.tabsMu.RUnlock()
	return string(d.currentID)
}

// SwitchToWindow makes the given tab current and brings it to the foreground.
func (d *Driver) SwitchToWindow(ctx context.Context, handle string) error {
	id := target.ID(handle)
	d.tabsMu.RLock()
	tab, ok := d.tabs[id]
	d.tabsMu.RUnlock()
	if !ok {
		return fmt.Errorf("driver: unknown window handle: %s", handle)
	}

	runCtx, cancel := mergeTimeout(tab.ctx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return target.ActivateTarget(id).Do(ctx)
	})); err != nil {
		return fmt.Errorf("driver: activate target: %w", err)
	}

	d.tabsMu.Lock()
	d.currentID = id
	// A window switch lands on the new window's main document.
	tab.frameCtx = 0
	d.tabsMu.Unlock()
	return nil
}

// OpenNewWindow opens a fresh tab, attaches to it, and makes it current.
func (d *Driver) OpenNewWindow(ctx context.Context, url string) (string, error) {
	tab, err := d.newTab(url)
	if err != nil {
		return "", err
	}
	d.tabsMu.Lock()
	d.currentID = tab.id
	d.tabsMu.Unlock()
	return string(tab.id), nil
}

func (d *Driver) newTab(url string) (*tabContext, error) {
	if url == "" {
		url = "about:blank"
	}
	tempCtx, tempCancel := chromedp.NewContext(d.allocCtx)
	defer tempCancel()

	var targetID target.ID
	err := chromedp.Run(tempCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		targetID, err = target.CreateTarget(url).Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("driver: create target: %w", err)
	}
	if err := d.attachToTab(targetID, url); err != nil {
		return nil, err
	}

	d.tabsMu.RLock()
	tab := d.tabs[targetID]
	d.tabsMu.RUnlock()
	return tab, nil
}

// CloseWindow closes the given tab. Closing the current tab switches to any
// remaining one.
func (d *Driver) CloseWindow(ctx context.Context, handle string) error {
	id := target.ID(handle)
	d.tabsMu.RLock()
	tab, ok := d.tabs[id]
	d.tabsMu.RUnlock()
	if !ok {
		return fmt.Errorf("driver: unknown window handle: %s", handle)
	}

	runCtx, cancel := mergeTimeout(tab.ctx, ctx)
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return target.CloseTarget(id).Do(ctx)
	}))
	cancel()
	tab.cancel()

	d.tabsMu.Lock()
	delete(d.tabs, id)
	if d.currentID == id {
		d.currentID = ""
		for remaining := range d.tabs {
			d.currentID = remaining
			break
		}
	}
	d.tabsMu.Unlock()
	d.tabRegistry.Remove(id)

	if err != nil {
		return fmt.Errorf("driver: close target: %w", err)
	}
	return nil
}

// Screenshot captures the current tab's viewport as PNG bytes.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// FullScreenshot captures the full scrollable page as PNG bytes.
func (d *Driver) FullScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, err
	}
	return buf, nil
}

// SetWindowSize resizes the OS window hosting the current tab.
func (d *Driver) SetWindowSize(ctx context.Context, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("driver: window size must be positive")
	}
	return d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, bounds, err := browser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		if bounds.WindowState != browser.WindowStateNormal {
			restore := &browser.Bounds{WindowState: browser.WindowStateNormal}
			if err := browser.SetWindowBounds(windowID, restore).Do(ctx); err != nil {
				return err
			}
		}
		size := &browser.Bounds{Width: int64(width), Height: int64(height)}
		return browser.SetWindowBounds(windowID, size).Do(ctx)
	}))
}

// MaximizeWindow maximizes the OS window hosting the current tab.
func (d *Driver) MaximizeWindow(ctx context.Context) error {
	return d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, bounds, err := browser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		if bounds.WindowState != browser.WindowStateNormal {
			restore := &browser.Bounds{WindowState: browser.WindowStateNormal}
			if err := browser.SetWindowBounds(windowID, restore).Do(ctx); err != nil {
				return err
			}
		}
		max := &browser.Bounds{WindowState: browser.WindowStateMaximized}
		return browser.SetWindowBounds(windowID, max).Do(ctx)
	}))
}

func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	tab, err := d.current()
	if err != nil {
		return err
	}
	runCtx, cancel := mergeTimeout(tab.ctx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	return nil
}

// mergeTimeout derives a context from the tab's chromedp context but honors
// the caller's deadline. chromedp actions must run on the tab context to hit
// the right session.
func mergeTimeout(tabCtx, callCtx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := callCtx.Deadline(); ok {
		return context.WithDeadline(tabCtx, deadline)
	}
	return context.WithCancel(tabCtx)
}
