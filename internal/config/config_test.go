package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Browser != "chrome" {
		t.Errorf("browser = %q, want chrome", cfg.Browser)
	}
	if cfg.CDPAddress != "127.0.0.1" {
		t.Errorf("cdp address = %q", cfg.CDPAddress)
	}
	if cfg.EvalTimeout != 30*time.Second {
		t.Errorf("eval timeout = %v", cfg.EvalTimeout)
	}
	if cfg.ServerPort != 8750 {
		t.Errorf("server port = %d", cfg.ServerPort)
	}
	if !cfg.Undetectable {
		t.Errorf("undetectable = false, want true")
	}
	if cfg.Headless {
		t.Errorf("headless = true, want false")
	}
	if !cfg.PortAutoFallback {
		t.Errorf("port auto fallback = false, want true")
	}
	want := []string{"127.0.0.1:8750", "127.0.0.1:8751", "127.0.0.1:8752"}
	if len(cfg.PortCandidates) != len(want) {
		t.Fatalf("port candidates = %v, want %v", cfg.PortCandidates, want)
	}
	for i, addr := range want {
		if cfg.PortCandidates[i] != addr {
			t.Errorf("port candidate[%d] = %q, want %q", i, cfg.PortCandidates[i], addr)
		}
	}
}

func TestCandidateAddrs(t *testing.T) {
	got := candidateAddrs("0.0.0.0", " 9000, , abc, 9001 ")
	if len(got) != 2 || got[0] != "0.0.0.0:9000" || got[1] != "0.0.0.0:9001" {
		t.Errorf("candidateAddrs = %v", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("UC_BROWSER", "edge")
	t.Setenv("UC_CDP_PORT", "9333")
	t.Setenv("UC_EVAL_TIMEOUT", "5s")
	t.Setenv("UC_MAX_FILE_SIZE_MB", "not-a-number")
	t.Setenv("UC_UNDETECTABLE", "false")
	t.Setenv("UC_HEADLESS", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Browser != "edge" {
		t.Errorf("browser = %q, want edge", cfg.Browser)
	}
	if cfg.CDPPort != 9333 {
		t.Errorf("cdp port = %d, want 9333", cfg.CDPPort)
	}
	if cfg.EvalTimeout != 5*time.Second {
		t.Errorf("eval timeout = %v, want 5s", cfg.EvalTimeout)
	}
	// Unparseable values fall back to defaults.
	if cfg.MaxFileSizeMB != 200 {
		t.Errorf("max file size = %d, want 200", cfg.MaxFileSizeMB)
	}
	if cfg.Undetectable {
		t.Errorf("undetectable = true, want false")
	}
	if cfg.Headless {
		t.Errorf("headless = true, want false")
	}
	if cfg.GetCDPURL() != "http://127.0.0.1:9333" {
		t.Errorf("cdp url = %q", cfg.GetCDPURL())
	}
}
