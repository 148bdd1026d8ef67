package launcher

import (
	"strings"
	"testing"
)

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func hasSwitch(args []string, name string) bool {
	for _, a := range args {
		if a == name || strings.HasPrefix(a, name+"=") {
			return true
		}
	}
	return false
}

func TestBuildArgsBaseline(t *testing.T) {
	args := BuildArgs(Config{CDPAddress: "127.0.0.1", CDPPort: 9222})

	if !hasArg(args, "--remote-debugging-port=9222") {
		t.Fatalf("missing remote-debugging-port, args=%v", args)
	}
	if !hasArg(args, "--remote-debugging-address=127.0.0.1") {
		t.Fatalf("missing remote-debugging-address, args=%v", args)
	}
	if !hasArg(args, "--no-first-run") {
		t.Fatalf("missing --no-first-run, args=%v", args)
	}
}

func TestBuildArgsOptionFlags(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"headless", Config{Headless: true}, "--headless"},
		{"headless2 wins", Config{Headless: true, Headless2: true}, "--headless=new"},
		{"incognito", Config{Incognito: true}, "--incognito"},
		{"guest", Config{GuestMode: true}, "--guest"},
		{"dark mode", Config{DarkMode: true}, "--force-dark-mode"},
		{"devtools", Config{Devtools: true}, "--auto-open-devtools-for-tabs"},
		{"maximize", Config{Maximize: true}, "--start-maximized"},
		{"proxy", Config{Proxy: "user:pass@10.0.0.1:8080"}, "--proxy-server=user:pass@10.0.0.1:8080"},
		{"locale", Config{LocaleCode: "de-DE"}, "--lang=de-DE"},
		{"user agent", Config{UserAgent: "UA/1.0"}, "--user-agent=UA/1.0"},
		{"window position", Config{WindowPosition: "10,20"}, "--window-position=10,20"},
		{"block images", Config{BlockImages: true}, "--blink-settings=imagesEnabled=false"},
		{"do not track", Config{DoNotTrack: true}, "--enable-do-not-track"},
		{"host resolver rules", Config{HostResolverRules: "MAP * 127.0.0.1"}, "--host-resolver-rules=MAP * 127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := BuildArgs(tt.cfg)
			if !hasArg(args, tt.want) {
				t.Fatalf("BuildArgs(%+v) missing %q, got %v", tt.cfg, tt.want, args)
			}
		})
	}
}

func TestBuildArgsMergesBlinkSettings(t *testing.T) {
	args := BuildArgs(Config{BlockImages: true, DisableJS: true})
	if !hasArg(args, "--blink-settings=imagesEnabled=false,scriptEnabled=false") {
		t.Fatalf("blink settings not merged into one switch, args=%v", args)
	}
	count := 0
	for _, a := range args {
		if strings.HasPrefix(a, "--blink-settings=") {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected a single --blink-settings switch, found %d in %v", count, args)
	}

	only := BuildArgs(Config{DisableJS: true})
	if !hasArg(only, "--blink-settings=scriptEnabled=false") {
		t.Fatalf("disable-js alone missing scriptEnabled, args=%v", only)
	}
}

func TestBuildArgsAdBlockMapsAdHosts(t *testing.T) {
	args := BuildArgs(Config{AdBlock: true})
	var rules string
	for _, a := range args {
		if strings.HasPrefix(a, "--host-resolver-rules=") {
			rules = a
		}
	}
	if rules == "" {
		t.Fatalf("ad block produced no host resolver rules, args=%v", args)
	}
	if !strings.Contains(rules, "doubleclick.net") || !strings.Contains(rules, "googlesyndication.com") {
		t.Fatalf("ad hosts missing from resolver rules: %s", rules)
	}

	merged := BuildArgs(Config{AdBlock: true, HostResolverRules: "MAP cdn.example 10.0.0.1"})
	for _, a := range merged {
		if strings.HasPrefix(a, "--host-resolver-rules=") {
			if !strings.Contains(a, "MAP cdn.example 10.0.0.1") || !strings.Contains(a, "doubleclick.net") {
				t.Fatalf("user rules and ad rules not merged: %s", a)
			}
		}
	}
}

func TestBuildArgsMaximizeSuppressesWindowSize(t *testing.T) {
	args := BuildArgs(Config{Maximize: true, WindowSize: "1920,1080"})
	if hasSwitch(args, "--window-size") {
		t.Fatalf("window-size should be dropped when maximizing, args=%v", args)
	}
	if !hasArg(args, "--start-maximized") {
		t.Fatalf("missing --start-maximized, args=%v", args)
	}
}

func TestBuildArgsUndetectableAddsStealthFlags(t *testing.T) {
	args := BuildArgs(Config{Undetectable: true})
	if !hasArg(args, "--disable-blink-features=AutomationControlled") {
		t.Fatalf("undetectable args missing stealth flag, got %v", args)
	}
}

func TestBuildArgsUndetectableFiltersExcludedSwitches(t *testing.T) {
	args := BuildArgs(Config{
		Undetectable: true,
		ChromiumArgs: []string{"--enable-automation", "enable-logging"},
	})
	if hasSwitch(args, "--enable-automation") {
		t.Fatalf("undetectable args kept --enable-automation, got %v", args)
	}
	if !hasArg(args, "--enable-logging") {
		t.Fatalf("user arg without dashes not normalized, got %v", args)
	}
}

func TestBuildArgsDedupesRepeatedSwitches(t *testing.T) {
	args := BuildArgs(Config{ChromiumArgs: []string{"--no-first-run", "--no-first-run"}})
	count := 0
	for _, a := range args {
		if a == "--no-first-run" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected a single --no-first-run, found %d in %v", count, args)
	}
}

func TestBuildArgsStartURLIsLast(t *testing.T) {
	args := BuildArgs(Config{StartURL: "https://example.com"})
	if args[len(args)-1] != "https://example.com" {
		t.Fatalf("start URL must be the final argument, got %v", args)
	}
}
