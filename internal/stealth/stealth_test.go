package stealth

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestFlagsDisableAutomationControlled(t *testing.T) {
	found := false
	for _, f := range Flags() {
		if f == "--disable-blink-features=AutomationControlled" {
			found = true
		}
		if !strings.HasPrefix(f, "--") {
			t.Fatalf("flag %q missing -- prefix", f)
		}
	}
	if !found {
		t.Fatal("Flags() missing --disable-blink-features=AutomationControlled")
	}
}

func TestExcludedSwitchesContainEnableAutomation(t *testing.T) {
	found := false
	for _, f := range ExcludedSwitches() {
		if f == "--enable-automation" {
			found = true
		}
	}
	if !found {
		t.Fatal("ExcludedSwitches() missing --enable-automation")
	}
}

func TestPatchCoversKnownFingerprints(t *testing.T) {
	for _, marker := range []string{"webdriver", "plugins", "languages", "permissions", "chrome"} {
		if !strings.Contains(Patch, marker) {
			t.Fatalf("Patch missing coverage for %q", marker)
		}
	}
}

func TestRandomDelayHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := RandomDelay(ctx, time.Second, 2*time.Second); err == nil {
		t.Fatal("RandomDelay() = nil error with canceled context")
	}
}

func TestTypingDelayWithinBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := TypingDelay()
		if d < 60*time.Millisecond || d > 700*time.Millisecond {
			t.Fatalf("TypingDelay() = %s out of expected range", d)
		}
	}
}

func TestJitterWithinBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 100; i++ {
		d := Jitter(base)
		if d < 75*time.Millisecond || d >= 125*time.Millisecond {
			t.Fatalf("Jitter(%s) = %s out of [75ms, 125ms)", base, d)
		}
	}
}
