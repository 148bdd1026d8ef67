package uc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stealthdriver/uc/internal/capture"
	"github.com/stealthdriver/uc/internal/cdpmode"
	"github.com/stealthdriver/uc/internal/config"
	"github.com/stealthdriver/uc/internal/driver"
	"github.com/stealthdriver/uc/internal/launcher"
	"github.com/stealthdriver/uc/internal/netutil"
	"github.com/stealthdriver/uc/internal/screenshot"
	"github.com/stealthdriver/uc/internal/stealth"
	"github.com/stealthdriver/uc/internal/storage"
)

// Session is one live browser session. Create it with New, or use Run for a
// scoped session that always closes.
type Session struct {
	opts    Options
	cfg     *config.Config
	cdpBase string

	launcher *launcher.Launcher // nil when attached to a remote browser
	drv      *driver.Driver

	mu        sync.Mutex
	cdpClient *cdpmode.Client
	cdpPage   *cdpmode.Page

	shots       *screenshot.Store
	registry    *storage.WriterRegistry
	httpCapture *capture.HTTPCapture
	wsCapture   *capture.WebSocketCapture
	eventTaps   []func()

	closeOnce sync.Once
	closeErr  error
}

// New launches a browser (or attaches to a running one when
// Options.Servername is set) and connects the driver to it.
func New(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.normalize()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	applyConfigDefaults(&opts, cfg)
	opts.EvalTimeout = opts.scaleTimeout(opts.EvalTimeout)

	s := &Session{opts: opts, cfg: cfg}

	if opts.attached() {
		s.cdpBase = fmt.Sprintf("%s://%s:%d", opts.Protocol, opts.Servername, attachPort(opts, cfg))
		slog.Info("session attaching to remote browser", "cdp_base", s.cdpBase)
	} else {
		port := opts.Port
		if port == 0 {
			port = cfg.CDPPort
		}
		if port == 0 {
			port, err = netutil.FreePort()
			if err != nil {
				return nil, fmt.Errorf("uc: pick CDP port: %w", err)
			}
		}
		s.launcher = launcher.NewLauncher(launcherConfig(opts, cfg, port))
		if err := s.launcher.Launch(ctx); err != nil {
			return nil, fmt.Errorf("uc: launch browser: %w", err)
		}
		s.cdpBase = s.launcher.CDPBase()
	}

	if err := s.connect(ctx); err != nil {
		s.teardown()
		return nil, err
	}
	return s, nil
}

// Run executes fn with a live session and always closes it afterwards, even
// when fn panics or returns an error.
func Run(ctx context.Context, opts Options, fn func(*Session) error) error {
	s, err := New(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// attachPort resolves the debugger port for a remote browser: explicit
// option, then the configured CDP port, then the Chrome default.
func attachPort(opts Options, cfg *config.Config) int {
	if opts.Port != 0 {
		return opts.Port
	}
	if cfg.CDPPort != 0 {
		return cfg.CDPPort
	}
	return 9222
}

func applyConfigDefaults(opts *Options, cfg *config.Config) {
	if opts.BinaryLocation == "" {
		opts.BinaryLocation = cfg.BinaryLocation
	}
	if opts.UserDataDir == "" {
		opts.UserDataDir = cfg.UserDataDir
	}
	if opts.DataDir == "" {
		opts.DataDir = cfg.DataDir
	}
	if opts.ScreenshotDir == "" {
		opts.ScreenshotDir = cfg.ScreenshotDir
	}
	if opts.LogDir == "" {
		opts.LogDir = cfg.LogDir
	}
	if opts.EvalTimeout == 0 {
		opts.EvalTimeout = cfg.EvalTimeout
	}
}

func launcherConfig(opts Options, cfg *config.Config, port int) launcher.Config {
	return launcher.Config{
		Browser:           opts.Browser,
		BinaryLocation:    opts.BinaryLocation,
		CDPAddress:        cfg.CDPAddress,
		CDPPort:           port,
		StartURL:          opts.StartURL,
		UserDataDir:       opts.UserDataDir,
		LogFileDir:        opts.LogDir,
		Undetectable:      opts.Undetectable,
		Headless:          opts.Headless,
		Headless2:         opts.Headless2,
		Incognito:         opts.Incognito,
		GuestMode:         opts.GuestMode,
		DarkMode:          opts.DarkMode,
		Devtools:          opts.Devtools,
		Maximize:          opts.Maximize,
		BlockImages:       opts.BlockImages,
		DoNotTrack:        opts.DoNotTrack,
		AdBlock:           opts.AdBlock,
		DisableJS:         opts.DisableJS,
		Mobile:            opts.Mobile,
		Proxy:             opts.Proxy,
		ProxyBypassList:   opts.ProxyBypassList,
		HostResolverRules: opts.HostResolverRules,
		UserAgent:         opts.Agent,
		LocaleCode:        opts.LocaleCode,
		WindowSize:        opts.WindowSize,
		WindowPosition:    opts.WindowPosition,
		ExtensionDirs:     opts.ExtensionDirs,
		DisableFeatures:   opts.DisableFeatures,
		ChromiumArgs:      opts.ChromiumArgs,
	}
}

func (s *Session) connect(ctx context.Context) error {
	tabRegistry := driver.NewTabRegistry()

	if s.opts.LogCDPEvents || s.opts.UCCDPEvents {
		s.registry = storage.NewWriterRegistry(s.opts.DataDir, s.cfg.BufferSize, s.cfg.MaxFileSizeMB)
	}
	if s.opts.LogCDPEvents {
		resources := storage.NewResourceWriter(s.opts.DataDir)
		s.httpCapture = capture.NewHTTPCapture(
			s.registry, resources, tabRegistry,
			true, false,
			s.cfg.HTTPMaxBodyBytes, s.cfg.HTTPMaxBodyBytes,
		)
		s.wsCapture = capture.NewWebSocketCapture(s.registry, tabRegistry, true, s.cfg.WSMaxFrameBytes)
	}

	s.drv = driver.NewDriver(s.cdpBase, s.httpCapture, s.wsCapture, tabRegistry)
	if err := s.drv.Connect(ctx); err != nil {
		return fmt.Errorf("uc: connect driver: %w", err)
	}

	// Window geometry through CDP covers the attach case, where launch flags
	// never ran.
	if s.opts.Maximize {
		if err := s.drv.MaximizeWindow(ctx); err != nil {
			slog.Warn("session maximize failed", "error", err)
		}
	} else if s.opts.WindowSize != "" {
		w, h, _ := parsePair(s.opts.WindowSize)
		if err := s.drv.SetWindowSize(ctx, w, h); err != nil {
			slog.Warn("session window resize failed", "error", err)
		}
	}

	shots, err := screenshot.NewStore(s.opts.ScreenshotDir)
	if err != nil {
		return fmt.Errorf("uc: screenshot store: %w", err)
	}
	s.shots = shots
	return nil
}

// Driver returns the chromedp-backed driver for regular automation.
func (s *Session) Driver() *driver.Driver { return s.drv }

// Screenshots returns the session's screenshot store.
func (s *Session) Screenshots() *screenshot.Store { return s.shots }

// CDPBase returns the browser's DevTools HTTP endpoint.
func (s *Session) CDPBase() string { return s.cdpBase }

// ActivateCDPMode switches the session into raw CDP control and returns the
// page handle. When url is non-empty the page navigates there first. Stealth
// patches are installed on undetectable sessions before any page script runs.
// Calling it again returns the existing handle.
func (s *Session) ActivateCDPMode(ctx context.Context, url string) (*cdpmode.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cdpPage != nil {
		if url != "" {
			if err := s.cdpPage.Get(ctx, url); err != nil {
				return nil, err
			}
		}
		return s.cdpPage, nil
	}

	client := cdpmode.NewClient(s.cdpBase, s.opts.EvalTimeout)
	client.SetDefaultWaitTimeout(s.opts.scaleTimeout(cdpmode.DefaultWaitTimeout))
	if s.opts.Undetectable {
		client.SetStealthScript(stealth.Patch)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	page, err := client.ActivePage(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}

	if s.opts.UCCDPEvents {
		if err := s.tapCDPEvents(ctx, client, page); err != nil {
			slog.Warn("session cdp event tap failed", "error", err)
		}
	}

	if url != "" {
		if err := page.Get(ctx, url); err != nil {
			client.Close()
			return nil, err
		}
	}

	s.cdpClient = client
	s.cdpPage = page
	slog.Info("session cdp mode active", "target_id", page.TargetID(), "url", url)
	return page, nil
}

// CDP returns the CDP-mode page handle, or nil before ActivateCDPMode.
func (s *Session) CDP() *cdpmode.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cdpPage
}

// CDPClient returns the raw CDP control client, or nil before ActivateCDPMode.
func (s *Session) CDPClient() *cdpmode.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cdpClient
}

// tapCDPEvents streams raw CDP events from the control connection to JSONL
// files next to the captured traffic.
func (s *Session) tapCDPEvents(ctx context.Context, client *cdpmode.Client, page *cdpmode.Page) error {
	if err := page.EnableNetworkEvents(ctx); err != nil {
		return err
	}

	segment := "local"
	if url, err := page.CurrentURL(ctx); err == nil {
		if seg, err := storage.SegmentFromURL(url); err == nil {
			segment = seg
		}
	}
	shortID := storage.ShortIDFromTargetID(page.TargetID())
	writer := s.registry.GetWriter(segment, "cdp_events", shortID)

	methods := []string{
		"Network.requestWillBeSent",
		"Network.responseReceived",
		"Network.webSocketCreated",
		"Network.webSocketFrameSent",
		"Network.webSocketFrameReceived",
		"Network.webSocketClosed",
		"Page.frameNavigated",
		"Page.javascriptDialogOpening",
	}
	for _, method := range methods {
		unregister, err := client.OnEvent(method, func(ev cdpmode.Event) {
			if err := writer.Write(ev); err != nil {
				slog.Debug("session cdp event write failed", "method", ev.Method, "error", err)
			}
		})
		if err != nil {
			return err
		}
		s.eventTaps = append(s.eventTaps, unregister)
	}
	return nil
}

// SaveScreenshotNow captures the current page into the screenshot store and
// returns its metadata.
func (s *Session) SaveScreenshotNow(ctx context.Context, name string, fullPage bool) (screenshot.Meta, error) {
	var img []byte
	var pageURL, title string
	var err error

	s.mu.Lock()
	page := s.cdpPage
	s.mu.Unlock()

	if page != nil {
		img, err = page.Screenshot(ctx, "png", 0, fullPage)
		if err == nil {
			pageURL, _ = page.CurrentURL(ctx)
			title, _ = page.Title(ctx)
		}
	} else {
		if fullPage {
			img, err = s.drv.FullScreenshot(ctx)
		} else {
			img, err = s.drv.Screenshot(ctx)
		}
		if err == nil {
			pageURL, _ = s.drv.CurrentURL(ctx)
			title, _ = s.drv.Title(ctx)
		}
	}
	if err != nil {
		return screenshot.Meta{}, err
	}

	meta := screenshot.Meta{
		ID:       screenshot.NewID(),
		Name:     name,
		URL:      pageURL,
		Title:    title,
		Format:   "png",
		FullPage: fullPage,
	}
	if err := s.shots.Save(meta, img); err != nil {
		return screenshot.Meta{}, err
	}
	return s.shots.Get(meta.ID)
}

// Close shuts the session down: optional final screenshot, CDP mode, driver,
// capture writers, and the browser process when this session launched it.
// Close is idempotent; repeat calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.opts.SaveScreenshot && s.drv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), s.opts.EvalTimeout)
			if _, err := s.SaveScreenshotNow(ctx, "final", false); err != nil {
				slog.Warn("session final screenshot failed", "error", err)
			}
			cancel()
		}
		s.teardown()
		slog.Info("session closed")
	})
	return s.closeErr
}

func (s *Session) teardown() {
	for _, unregister := range s.eventTaps {
		unregister()
	}
	s.eventTaps = nil

	s.mu.Lock()
	if s.cdpClient != nil {
		s.cdpClient.Close()
		s.cdpClient = nil
		s.cdpPage = nil
	}
	s.mu.Unlock()

	if s.drv != nil {
		if err := s.drv.Close(); err != nil {
			s.closeErr = err
		}
	}
	if s.httpCapture != nil {
		s.httpCapture.Close()
	}
	if s.registry != nil {
		s.registry.CloseAll()
	}
	// An attached browser belongs to someone else; only stop what we started.
	if s.launcher != nil {
		s.launcher.Stop()
	}
}
