package storage

import "testing"

func TestSegmentFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"https url", "https://signup.cloud.oracle.com/path?q=1", "signup_cloud_oracle_com"},
		{"bare host", "http://example.com", "example_com"},
		{"no host", "file:///tmp/page.html", "local"},
		{"about blank", "about:blank", "local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SegmentFromURL(tt.url)
			if err != nil {
				t.Fatalf("SegmentFromURL(%q) error = %v", tt.url, err)
			}
			if got != tt.want {
				t.Fatalf("SegmentFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestShortIDFromTargetID(t *testing.T) {
	if got := ShortIDFromTargetID("B0D5A8E8FFAA1122"); got != "B0D5A8E8" {
		t.Fatalf("ShortIDFromTargetID() = %q, want %q", got, "B0D5A8E8")
	}
	if got := ShortIDFromTargetID("ABC"); got != "ABC" {
		t.Fatalf("ShortIDFromTargetID() = %q, want %q", got, "ABC")
	}
}

func TestMapResourceType(t *testing.T) {
	if got := MapResourceType("XHR"); got != "" {
		t.Fatalf("MapResourceType(XHR) = %q, want empty", got)
	}
	if got := MapResourceType("Image"); got != "img" {
		t.Fatalf("MapResourceType(Image) = %q, want %q", got, "img")
	}
	if got := MapResourceType("SomethingNew"); got != "other" {
		t.Fatalf("MapResourceType(SomethingNew) = %q, want %q", got, "other")
	}
}

func TestFilenameFromURL(t *testing.T) {
	if got := FilenameFromURL("https://cdn.example.com/assets/app.js?v=3"); got != "app.js" {
		t.Fatalf("FilenameFromURL() = %q, want %q", got, "app.js")
	}
	if got := FilenameFromURL("https://example.com/"); got != "resource" {
		t.Fatalf("FilenameFromURL() = %q, want %q", got, "resource")
	}
}
