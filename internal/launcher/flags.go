package launcher

import (
	"fmt"
	"strings"

	"github.com/stealthdriver/uc/internal/stealth"
)

// Config holds browser launch configuration, already normalized by the
// session layer (aliases resolved, window geometry validated).
type Config struct {
	Browser        string // "chrome", "chromium" or "edge"
	BinaryLocation string

	CDPAddress string
	CDPPort    int

	StartURL    string
	UserDataDir string
	LogFileDir  string

	Undetectable bool
	Headless     bool
	Headless2    bool
	Incognito    bool
	GuestMode    bool
	DarkMode     bool
	Devtools     bool
	Maximize     bool
	BlockImages  bool
	DoNotTrack   bool
	AdBlock      bool
	DisableJS    bool
	Mobile       bool

	Proxy             string
	ProxyBypassList   string
	HostResolverRules string
	UserAgent         string
	LocaleCode        string
	WindowSize        string // "W,H"
	WindowPosition    string // "X,Y"
	ExtensionDirs     []string
	DisableFeatures   string
	ChromiumArgs      []string
}

// adBlockHostRules resolves common ad-serving hosts to nowhere, which stops
// most display ads from loading without an extension.
var adBlockHostRules = strings.Join([]string{
	"MAP doubleclick.net 0.0.0.0",
	"MAP *.doubleclick.net 0.0.0.0",
	"MAP googlesyndication.com 0.0.0.0",
	"MAP *.googlesyndication.com 0.0.0.0",
	"MAP adservice.google.com 0.0.0.0",
	"MAP *.adnxs.com 0.0.0.0",
	"MAP *.adsafeprotected.com 0.0.0.0",
	"MAP *.2mdn.net 0.0.0.0",
	"MAP *.moatads.com 0.0.0.0",
}, ", ")

// BuildArgs computes the Chromium command line for the given config. In
// undetected mode the stealth flag set is appended and switches in
// stealth.ExcludedSwitches never make it onto the command line.
func BuildArgs(cfg Config) []string {
	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", cfg.CDPPort),
		fmt.Sprintf("--remote-debugging-address=%s", cfg.CDPAddress),
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-dev-shm-usage",
		"--disable-breakpad",
		"--disable-crash-reporter",
	}

	if cfg.UserDataDir != "" {
		args = append(args, "--user-data-dir="+cfg.UserDataDir)
	}

	switch {
	case cfg.Headless2:
		args = append(args, "--headless=new")
	case cfg.Headless:
		args = append(args, "--headless")
	}

	if cfg.Incognito {
		args = append(args, "--incognito")
	}
	if cfg.GuestMode {
		args = append(args, "--guest")
	}
	if cfg.DarkMode {
		args = append(args, "--force-dark-mode")
	}
	if cfg.Devtools {
		args = append(args, "--auto-open-devtools-for-tabs")
	}
	if cfg.Maximize {
		args = append(args, "--start-maximized")
	}
	// Blink settings share one switch; dedupe keys on the switch name, so
	// they must be merged before emission.
	var blink []string
	if cfg.BlockImages {
		blink = append(blink, "imagesEnabled=false")
	}
	if cfg.DisableJS {
		blink = append(blink, "scriptEnabled=false")
	}
	if len(blink) > 0 {
		args = append(args, "--blink-settings="+strings.Join(blink, ","))
	}
	if cfg.DoNotTrack {
		args = append(args, "--enable-do-not-track")
	}
	if cfg.Mobile {
		args = append(args, "--use-mobile-user-agent")
	}
	if cfg.Proxy != "" {
		args = append(args, "--proxy-server="+cfg.Proxy)
	}
	if cfg.ProxyBypassList != "" {
		args = append(args, "--proxy-bypass-list="+cfg.ProxyBypassList)
	}
	// Ad blocking and user-supplied resolver rules share one switch too.
	hostRules := cfg.HostResolverRules
	if cfg.AdBlock {
		if hostRules != "" {
			hostRules += ", " + adBlockHostRules
		} else {
			hostRules = adBlockHostRules
		}
	}
	if hostRules != "" {
		args = append(args, "--host-resolver-rules="+hostRules)
	}
	if cfg.UserAgent != "" {
		args = append(args, "--user-agent="+cfg.UserAgent)
	}
	if cfg.LocaleCode != "" {
		args = append(args, "--lang="+cfg.LocaleCode)
	}
	if cfg.WindowSize != "" && !cfg.Maximize {
		args = append(args, "--window-size="+cfg.WindowSize)
	}
	if cfg.WindowPosition != "" {
		args = append(args, "--window-position="+cfg.WindowPosition)
	}
	if len(cfg.ExtensionDirs) > 0 {
		args = append(args, "--load-extension="+strings.Join(cfg.ExtensionDirs, ","))
	}
	if cfg.DisableFeatures != "" {
		args = append(args, "--disable-features="+cfg.DisableFeatures)
	}

	if cfg.Undetectable {
		args = append(args, stealth.Flags()...)
	}

	for _, extra := range cfg.ChromiumArgs {
		extra = strings.TrimSpace(extra)
		if extra == "" {
			continue
		}
		if !strings.HasPrefix(extra, "-") {
			extra = "--" + extra
		}
		args = append(args, extra)
	}

	args = dedupe(args)
	if cfg.Undetectable {
		args = filterExcluded(args, stealth.ExcludedSwitches())
	}

	if cfg.StartURL != "" {
		args = append(args, cfg.StartURL)
	}
	return args
}

// dedupe drops repeated switches, keeping the first occurrence of each
// switch name so user-supplied args never double a built-in one.
func dedupe(args []string) []string {
	seen := make(map[string]bool, len(args))
	out := args[:0]
	for _, a := range args {
		name := a
		if i := strings.IndexByte(a, '='); i > 0 {
			name = a[:i]
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, a)
	}
	return out
}

func filterExcluded(args, excluded []string) []string {
	out := args[:0]
	for _, a := range args {
		name := a
		if i := strings.IndexByte(a, '='); i > 0 {
			name = a[:i]
		}
		drop := false
		for _, ex := range excluded {
			if name == ex {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, a)
		}
	}
	return out
}
