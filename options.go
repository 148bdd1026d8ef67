// Package uc drives a stealth-configured Chromium through the DevTools
// protocol. A Session launches (or attaches to) a browser, exposes a
// chromedp-backed driver for ordinary automation, and can switch into raw CDP
// control mode for flows that trip bot detection.
package uc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Options configures a Session. The zero value launches a plain local Chrome.
//
// Several fields have short aliases matching common command-line spellings;
// setting either form works, and the long form wins when both are set.
type Options struct {
	// Browser selection
	Browser        string // "chrome" (default), "chromium" or "edge"
	BinaryLocation string

	// UC is an alias for Undetectable.
	UC           bool
	Undetectable bool

	// Test enables test-mode conveniences: a screenshot is saved when the
	// session closes.
	Test bool

	// Display modes
	Headless  bool // legacy headless
	Headless2 bool // "--headless=new"
	Incognito bool
	// Guest is an alias for GuestMode.
	Guest     bool
	GuestMode bool
	DarkMode  bool
	Devtools  bool
	Maximize  bool

	// Page behavior
	BlockImages bool
	DoNotTrack  bool
	AdBlock     bool
	DisableJS   bool
	Mobile      bool

	// Network identity
	Proxy             string // "host:port" or "user:pass@host:port"
	ProxyBypassList   string
	HostResolverRules string
	Agent             string // user-agent override
	// Locale is an alias for LocaleCode.
	Locale     string
	LocaleCode string

	// Window geometry, "width,height" and "x,y".
	// Size is an alias for WindowSize.
	Size           string
	WindowSize     string
	WindowPosition string

	// Profile and extensions
	UserDataDir     string
	ExtensionDirs   []string
	DisableFeatures string
	ChromiumArgs    []string

	// StartURL is opened by the browser on launch.
	StartURL string

	// Remote browser. When Servername is set the session attaches to an
	// already-running browser instead of launching one, and never kills it.
	// Server is an alias for Servername.
	Server     string
	Servername string
	Port       int    // CDP port; 0 picks a free port for launches
	Protocol   string // "http" (default) or "https"

	// Event logging. UCCDPEvents streams raw CDP events received in CDP
	// control mode to JSONL files; LogCDPEvents records network traffic
	// (HTTP exchanges, WebSocket frames) seen by the driver.
	UCCDPEvents  bool
	LogCDPEvents bool

	// SaveScreenshot captures the current page right before Close.
	SaveScreenshot bool

	// Paths. Empty values fall back to UC_* environment configuration.
	DataDir       string
	ScreenshotDir string
	LogDir        string

	// EvalTimeout bounds individual CDP evaluations (default 30s).
	EvalTimeout time.Duration

	// TimeoutMultiplier scales EvalTimeout and the default wait deadlines.
	// Zero means no scaling.
	TimeoutMultiplier float64
}

// normalize resolves aliases and fills defaults, returning a copy.
func (o Options) normalize() Options {
	if o.Undetectable || o.UC {
		o.Undetectable = true
		o.UC = true
	}
	if o.GuestMode || o.Guest {
		o.GuestMode = true
		o.Guest = true
	}
	if o.LocaleCode == "" {
		o.LocaleCode = o.Locale
	}
	if o.WindowSize == "" {
		o.WindowSize = o.Size
	}
	if o.Servername == "" {
		o.Servername = o.Server
	}
	if o.Browser == "" {
		o.Browser = "chrome"
	}
	if o.Protocol == "" {
		o.Protocol = "http"
	}
	if o.Test {
		o.SaveScreenshot = true
	}
	return o
}

// validate rejects option combinations the browser would silently mangle.
func (o Options) validate() error {
	switch o.Browser {
	case "chrome", "chromium", "edge":
	default:
		return fmt.Errorf("uc: unsupported browser %q", o.Browser)
	}
	if o.Protocol != "http" && o.Protocol != "https" {
		return fmt.Errorf("uc: unsupported protocol %q", o.Protocol)
	}
	if o.Port < 0 || o.Port > 65535 {
		return fmt.Errorf("uc: port out of range: %d", o.Port)
	}
	if o.Headless && o.Headless2 {
		return fmt.Errorf("uc: headless and headless2 are mutually exclusive")
	}
	if o.TimeoutMultiplier < 0 {
		return fmt.Errorf("uc: timeout multiplier must not be negative: %v", o.TimeoutMultiplier)
	}
	if o.WindowSize != "" {
		if _, _, err := parsePair(o.WindowSize); err != nil {
			return fmt.Errorf("uc: invalid window size %q: %w", o.WindowSize, err)
		}
	}
	if o.WindowPosition != "" {
		if _, _, err := parsePair(o.WindowPosition); err != nil {
			return fmt.Errorf("uc: invalid window position %q: %w", o.WindowPosition, err)
		}
	}
	return nil
}

// attached reports whether the session connects to an existing browser.
func (o Options) attached() bool {
	return o.Servername != ""
}

// scaleTimeout applies the timeout multiplier to d, leaving it unchanged
// when no multiplier is set.
func (o Options) scaleTimeout(d time.Duration) time.Duration {
	if o.TimeoutMultiplier <= 0 {
		return d
	}
	return time.Duration(float64(d) * o.TimeoutMultiplier)
}

func parsePair(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected two comma-separated integers")
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
