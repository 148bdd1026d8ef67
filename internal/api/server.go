package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stealthdriver/uc/internal/cdpmode"
	"github.com/stealthdriver/uc/internal/screenshot"
)

// Service is the session-facing surface the HTTP layer exposes. The server
// owns one browser session; every operation targets its active page.
type Service interface {
	ListTabs(ctx context.Context) ([]cdpmode.TabInfo, error)
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context, ignoreCache bool) error
	GoBack(ctx context.Context) error
	GoForward(ctx context.Context) error
	PageInfo(ctx context.Context) (PageInfo, error)
	PageSource(ctx context.Context) (string, error)
	Evaluate(ctx context.Context, expression string) (any, error)

	FindElement(ctx context.Context, selector string) (cdpmode.Element, error)
	FindElements(ctx context.Context, selector string) ([]cdpmode.Element, error)
	Click(ctx context.Context, selector string, trusted bool) error
	TypeText(ctx context.Context, selector, text string, humanize bool) error
	GetText(ctx context.Context, selector string) (string, error)
	SelectOption(ctx context.Context, selector, option string) error
	WaitFor(ctx context.Context, selector, condition, text string, timeout time.Duration) error

	GetCookies(ctx context.Context) ([]cdpmode.Cookie, error)
	SetCookies(ctx context.Context, cookies []cdpmode.Cookie) error
	ClearCookies(ctx context.Context) error
	SaveCookies(ctx context.Context, path string) error
	LoadCookies(ctx context.Context, path string) error

	SetWindowState(ctx context.Context, state string) error
	SetWindowRect(ctx context.Context, x, y, width, height int) error

	TakeScreenshot(ctx context.Context, name string, fullPage bool) (screenshot.Meta, error)
	ListScreenshots(ctx context.Context) ([]screenshot.Meta, error)
	GetScreenshot(ctx context.Context, id string) (screenshot.Meta, error)
	ReadScreenshotImage(ctx context.Context, id string) ([]byte, string, error)
	DeleteScreenshot(ctx context.Context, id string) error
}

// PageInfo is the page summary returned by the page endpoint.
type PageInfo struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func NewServer(svc Service) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("UC Browser Control API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})

	registerPageHandlers(api, svc)
	registerElementHandlers(api, svc)
	registerCookieHandlers(api, svc)
	registerScreenshotHandlers(api, svc)
	registerMiscHandlers(api, svc)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *cdpmode.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case cdpmode.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case cdpmode.CodeTargetNotFound, cdpmode.CodeElementNotFound, cdpmode.CodeScreenshotNotFound:
			return huma.Error404NotFound(coded.Message)
		case cdpmode.CodeEvalTimeout, cdpmode.CodeWaitTimeout:
			return huma.Error504GatewayTimeout(coded.Message)
		case cdpmode.CodeCDPUnavailable:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
