package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stealthdriver/uc/internal/cdpmode"
	"github.com/stealthdriver/uc/internal/screenshot"
)

type stubService struct {
	navigateErr error
}

func (s *stubService) ListTabs(ctx context.Context) ([]cdpmode.TabInfo, error) {
	return nil, nil
}
func (s *stubService) Navigate(ctx context.Context, url string) error {
	return s.navigateErr
}
func (s *stubService) Reload(ctx context.Context, ignoreCache bool) error {
	return nil
}
func (s *stubService) GoBack(ctx context.Context) error {
	return nil
}
func (s *stubService) GoForward(ctx context.Context) error {
	return nil
}
func (s *stubService) PageInfo(ctx context.Context) (PageInfo, error) {
	return PageInfo{URL: "https://example.com/", Title: "Example"}, nil
}
func (s *stubService) PageSource(ctx context.Context) (string, error) {
	return "<html></html>", nil
}
func (s *stubService) Evaluate(ctx context.Context, expression string) (any, error) {
	return float64(42), nil
}
func (s *stubService) FindElement(ctx context.Context, selector string) (cdpmode.Element, error) {
	if selector == "#missing" {
		return cdpmode.Element{}, &cdpmode.CodedError{Code: cdpmode.CodeElementNotFound, Message: "no element: #missing"}
	}
	return cdpmode.Element{Tag: "div"}, nil
}
func (s *stubService) FindElements(ctx context.Context, selector string) ([]cdpmode.Element, error) {
	return nil, nil
}
func (s *stubService) Click(ctx context.Context, selector string, trusted bool) error { return nil }
func (s *stubService) TypeText(ctx context.Context, selector, text string, humanize bool) error {
	return nil
}
func (s *stubService) GetText(ctx context.Context, selector string) (string, error) {
	return "", nil
}
func (s *stubService) SelectOption(ctx context.Context, selector, option string) error { return nil }
func (s *stubService) WaitFor(ctx context.Context, selector, condition, text string, timeout time.Duration) error {
	return &cdpmode.CodedError{Code: cdpmode.CodeWaitTimeout, Message: "timed out"}
}
func (s *stubService) GetCookies(ctx context.Context) ([]cdpmode.Cookie, error) {
	return nil, nil
}
func (s *stubService) SetCookies(ctx context.Context, cookies []cdpmode.Cookie) error {
	return nil
}
func (s *stubService) ClearCookies(ctx context.Context) error {
	return nil
}
func (s *stubService) SaveCookies(ctx context.Context, path string) error {
	return nil
}
func (s *stubService) LoadCookies(ctx context.Context, path string) error {
	return nil
}
func (s *stubService) SetWindowState(ctx context.Context, state string) error {
	return nil
}
func (s *stubService) SetWindowRect(ctx context.Context, x, y, width, height int) error {
	return nil
}
func (s *stubService) TakeScreenshot(ctx context.Context, name string, fullPage bool) (screenshot.Meta, error) {
	return screenshot.Meta{ID: "4c2d1b3a-0000-4000-8000-000000000000", Format: "png"}, nil
}
func (s *stubService) ListScreenshots(ctx context.Context) ([]screenshot.Meta, error) {
	return nil, nil
}
func (s *stubService) GetScreenshot(ctx context.Context, id string) (screenshot.Meta, error) {
	return screenshot.Meta{}, &cdpmode.CodedError{Code: cdpmode.CodeScreenshotNotFound, Message: "screenshot not found: " + id}
}
func (s *stubService) ReadScreenshotImage(ctx context.Context, id string) ([]byte, string, error) {
	return []byte{0xff, 0xd8}, "jpeg", nil
}
func (s *stubService) DeleteScreenshot(ctx context.Context, id string) error { return nil }

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("body = %s, missing ok status", w.Body.String())
	}
}

func TestDocsDarkMode(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodGet, "/docs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `data-theme="dark"`) {
		t.Fatalf("docs missing dark theme marker")
	}
}

func TestListTabsReturnsEmptyArray(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodGet, "/api/v1/tabs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"tabs":[]`) {
		t.Fatalf("body = %s, want empty tabs array", w.Body.String())
	}
}

func TestNavigateReturnsPageInfo(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodPost, "/api/v1/page/navigate", `{"url":"https://example.com/"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"title":"Example"`) {
		t.Fatalf("body = %s, missing title", w.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &cdpmode.CodedError{Code: cdpmode.CodeValidation, Message: "url is required"}, http.StatusBadRequest},
		{"target not found", &cdpmode.CodedError{Code: cdpmode.CodeTargetNotFound, Message: "tab gone"}, http.StatusNotFound},
		{"eval timeout", &cdpmode.CodedError{Code: cdpmode.CodeEvalTimeout, Message: "eval timed out"}, http.StatusGatewayTimeout},
		{"cdp unavailable", &cdpmode.CodedError{Code: cdpmode.CodeCDPUnavailable, Message: "connection lost"}, http.StatusBadGateway},
		{"eval failure", &cdpmode.CodedError{Code: cdpmode.CodeEvalFailure, Message: "boom"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewServer(&stubService{navigateErr: tt.err})
			w := doRequest(t, h, http.MethodPost, "/api/v1/page/navigate", `{"url":"https://example.com/"}`)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestFindElementNotFoundMapsTo404(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodGet, "/api/v1/element?selector=%23missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusNotFound, w.Body.String())
	}
}

func TestWaitTimeoutMapsTo504(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodPost, "/api/v1/element/wait", `{"selector":"#slow"}`)
	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusGatewayTimeout, w.Body.String())
	}
}

func TestSetWindowStateAcceptsMedimized(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodPut, "/api/v1/window/state", `{"state":"medimized"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	w = doRequest(t, h, http.MethodPut, "/api/v1/window/state", `{"state":"sideways"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusUnprocessableEntity, w.Body.String())
	}
}

func TestScreenshotImageContentType(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodGet, "/api/v1/screenshots/4c2d1b3a-0000-4000-8000-000000000000/image", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("content type = %q, want image/jpeg", ct)
	}
}

func TestGetScreenshotMetadataNotFound(t *testing.T) {
	h := NewServer(&stubService{})
	w := doRequest(t, h, http.MethodGet, "/api/v1/screenshots/4c2d1b3a-0000-4000-8000-000000000000/metadata", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusNotFound, w.Body.String())
	}
}
