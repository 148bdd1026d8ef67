package driver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/chromedp/cdproto/target"
)

func TestTabRegistryRegisterAndLookup(t *testing.T) {
	r := NewTabRegistry()

	info, err := r.Register(target.ID("B0D5A8E81234"), "https://signup.cloud.oracle.com/account")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if info.Segment != "signup_cloud_oracle_com" {
		t.Errorf("segment = %q, want signup_cloud_oracle_com", info.Segment)
	}
	if info.ShortID != "B0D5A8E8" {
		t.Errorf("short id = %q, want B0D5A8E8", info.ShortID)
	}

	got, ok := r.GetByStringID("B0D5A8E81234")
	if !ok {
		t.Fatal("GetByStringID: not found")
	}
	if got.URL != "https://signup.cloud.oracle.com/account" {
		t.Errorf("url = %q", got.URL)
	}

	// Re-registering refreshes the URL without growing the registry.
	if _, err := r.Register(target.ID("B0D5A8E81234"), "https://signup.cloud.oracle.com/other"); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if r.Count() != 1 {
		t.Errorf("count = %d, want 1", r.Count())
	}

	r.Remove(target.ID("B0D5A8E81234"))
	if r.Count() != 0 {
		t.Errorf("count after remove = %d, want 0", r.Count())
	}
}

func TestCookieParamsConversion(t *testing.T) {
	in := []fileCookie{
		{Name: "sid", Value: "abc", Domain: ".example.com", Path: "/", Expires: 1893456000, HTTPOnly: true, Secure: true, SameSite: "Lax"},
		{Name: "session", Value: "tmp"},
	}
	params := cookieParams(in)
	if len(params) != 2 {
		t.Fatalf("got %d params, want 2", len(params))
	}
	if params[0].Expires == nil {
		t.Error("persistent cookie lost its expiry")
	}
	if string(params[0].SameSite) != "Lax" {
		t.Errorf("sameSite = %q, want Lax", params[0].SameSite)
	}
	if params[1].Expires != nil {
		t.Error("session cookie should have no expiry")
	}
	if params[1].SameSite != "" {
		t.Errorf("sameSite should stay unset, got %q", params[1].SameSite)
	}
}

func TestSwitchToFrameRequiresSelector(t *testing.T) {
	d := &Driver{}
	if err := d.SwitchToFrame(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty selector")
	}
}

func TestFrameSwitchingNeedsCurrentTab(t *testing.T) {
	d := &Driver{}
	if err := d.SwitchToFrame(context.Background(), "iframe#login"); err == nil {
		t.Error("SwitchToFrame: expected no-current-tab error")
	}
	if err := d.SwitchToDefaultContent(); err == nil {
		t.Error("SwitchToDefaultContent: expected no-current-tab error")
	}
}

func TestSwitchToDefaultContentResetsFrame(t *testing.T) {
	id := target.ID("AA11BB22CC33")
	tab := &tabContext{id: id, frameCtx: 7}
	d := &Driver{
		tabs:      map[target.ID]*tabContext{id: tab},
		currentID: id,
	}
	if err := d.SwitchToDefaultContent(); err != nil {
		t.Fatalf("SwitchToDefaultContent: %v", err)
	}
	if tab.frameCtx != 0 {
		t.Errorf("frameCtx = %d, want 0", tab.frameCtx)
	}
}

func TestFileCookieJSONShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	in := []fileCookie{{Name: "sid", Value: "abc", Domain: ".example.com", HTTPOnly: true}}

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var out []fileCookie
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Errorf("round trip mismatch: %+v", out)
	}
}
