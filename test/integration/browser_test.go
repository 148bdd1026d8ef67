//go:build integration

package integration

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

const testPageURL = "https://example.com/"

func navigateToTestPage(t *testing.T) {
	t.Helper()
	resp := env.POST(t, "/api/v1/page/navigate", map[string]any{"url": testPageURL})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.POST(t, "/api/v1/element/wait", map[string]any{
		"selector":   "h1",
		"condition":  "visible",
		"timeout_ms": 15000,
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestHealth(t *testing.T) {
	resp := env.GET(t, "/health")
	wantStatus(t, resp, http.StatusOK)

	var out struct {
		Status string `json:"status"`
	}
	decodeBody(t, resp, &out)
	if out.Status != "ok" {
		t.Fatalf("status = %q, want ok", out.Status)
	}
}

func TestNavigateAndPageInfo(t *testing.T) {
	navigateToTestPage(t)

	resp := env.GET(t, "/api/v1/page")
	wantStatus(t, resp, http.StatusOK)

	var info struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	}
	decodeBody(t, resp, &info)
	if !strings.Contains(info.URL, "example.com") {
		t.Fatalf("url = %q, want example.com", info.URL)
	}
	if info.Title == "" {
		t.Fatalf("title is empty")
	}
}

func TestFindElementAndText(t *testing.T) {
	navigateToTestPage(t)

	resp := env.GET(t, "/api/v1/element?selector=h1")
	wantStatus(t, resp, http.StatusOK)

	var el struct {
		Tag     string `json:"tag"`
		Text    string `json:"text"`
		Visible bool   `json:"visible"`
	}
	decodeBody(t, resp, &el)
	if el.Tag != "h1" {
		t.Fatalf("tag = %q, want h1", el.Tag)
	}
	if !el.Visible {
		t.Fatalf("h1 not visible")
	}

	resp = env.GET(t, "/api/v1/element/text?selector=h1")
	wantStatus(t, resp, http.StatusOK)

	var text struct {
		Text string `json:"text"`
	}
	decodeBody(t, resp, &text)
	if text.Text == "" {
		t.Fatalf("element text is empty")
	}
}

func TestFindElementNotFound(t *testing.T) {
	navigateToTestPage(t)

	resp := env.GET(t, "/api/v1/element?selector=%23does-not-exist")
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestEvaluate(t *testing.T) {
	navigateToTestPage(t)

	resp := env.POST(t, "/api/v1/page/evaluate", map[string]any{"expression": "6 * 7"})
	wantStatus(t, resp, http.StatusOK)

	var out struct {
		Result float64 `json:"result"`
	}
	decodeBody(t, resp, &out)
	if out.Result != 42 {
		t.Fatalf("result = %v, want 42", out.Result)
	}
}

func TestEvaluateUndetected(t *testing.T) {
	navigateToTestPage(t)

	resp := env.POST(t, "/api/v1/page/evaluate", map[string]any{"expression": "navigator.webdriver"})
	wantStatus(t, resp, http.StatusOK)

	var out struct {
		Result any `json:"result"`
	}
	decodeBody(t, resp, &out)
	if out.Result == true {
		t.Fatalf("navigator.webdriver = true, stealth patch not applied")
	}
}

func TestPageSource(t *testing.T) {
	navigateToTestPage(t)

	resp := env.GET(t, "/api/v1/page/source")
	wantStatus(t, resp, http.StatusOK)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	if !strings.Contains(strings.ToLower(string(body)), "<html") {
		t.Fatalf("source missing html tag")
	}
}

func TestCookies(t *testing.T) {
	navigateToTestPage(t)

	resp := env.PUT(t, "/api/v1/cookies", map[string]any{
		"cookies": []map[string]any{
			{"name": "uc_test", "value": "1", "domain": "example.com", "path": "/"},
		},
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.GET(t, "/api/v1/cookies")
	wantStatus(t, resp, http.StatusOK)

	var out struct {
		Cookies []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"cookies"`
	}
	decodeBody(t, resp, &out)
	found := false
	for _, c := range out.Cookies {
		if c.Name == "uc_test" && c.Value == "1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("uc_test cookie not found in %d cookies", len(out.Cookies))
	}

	resp = env.DELETE(t, "/api/v1/cookies")
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestScreenshotLifecycle(t *testing.T) {
	navigateToTestPage(t)

	resp := env.POST(t, "/api/v1/screenshots", map[string]any{"name": "integration"})
	wantStatus(t, resp, http.StatusOK)

	var created struct {
		Screenshot struct {
			ID     string `json:"id"`
			Format string `json:"format"`
		} `json:"screenshot"`
		URL string `json:"url"`
	}
	decodeBody(t, resp, &created)
	if created.Screenshot.ID == "" {
		t.Fatalf("screenshot ID is empty")
	}

	resp = env.GET(t, created.URL)
	wantStatus(t, resp, http.StatusOK)
	img, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if len(img) == 0 {
		t.Fatalf("image is empty")
	}

	resp = env.DELETE(t, "/api/v1/screenshots/"+created.Screenshot.ID)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.GET(t, "/api/v1/screenshots/"+created.Screenshot.ID+"/metadata")
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestWindowRect(t *testing.T) {
	resp := env.PUT(t, "/api/v1/window/rect", map[string]any{"width": 1280, "height": 800})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.PUT(t, "/api/v1/window/state", map[string]any{"state": "maximized"})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}
