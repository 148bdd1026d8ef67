package controller

import (
	"context"
	"strings"
	"time"

	"github.com/stealthdriver/uc"
	"github.com/stealthdriver/uc/internal/api"
	"github.com/stealthdriver/uc/internal/cdpmode"
	"github.com/stealthdriver/uc/internal/screenshot"
)

// Service exposes one browser session over the api.Service surface. All
// operations run against the session's active CDP-mode page.
type Service struct {
	session *uc.Session
}

func NewService(session *uc.Session) *Service {
	return &Service{session: session}
}

func (s *Service) page(ctx context.Context) (*cdpmode.Page, error) {
	return s.session.ActivateCDPMode(ctx, "")
}

func (s *Service) requireNonEmpty(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return &cdpmode.CodedError{Code: cdpmode.CodeValidation, Message: fieldName + " is required"}
	}
	return nil
}

func (s *Service) ListTabs(ctx context.Context) ([]cdpmode.TabInfo, error) {
	if _, err := s.page(ctx); err != nil {
		return nil, err
	}
	return s.session.CDPClient().ListTabs(ctx)
}

func (s *Service) Navigate(ctx context.Context, url string) error {
	page, err := s.page(ctx)
	if err != nil {
		return err
	}
	return page.Get(ctx, strings.TrimSpace(url))
}

func (s *Service) Reload(ctx context.Context, ignoreCache bool) error {
	page, err := s.page(ctx)
	if err != nil {
		return err
	}
	return page.Reload(ctx, ignoreCache)
}

func (s *Service) GoBack(ctx context.Context) error {
	page, err := s.page(ctx)
	if err != nil {
		return err
	}
	return page.GoBack(ctx)
}

func (s *Service) GoForward(ctx context.Context) error {
	page, err := s.page(ctx)
	if err != nil {
		return err
	}
	return page.GoForward(ctx)
}

func (s *Service) PageInfo(ctx context.Context) (api.PageInfo, error) {
	page, err := s.page(ctx)
	if err != nil {
		return api.PageInfo{}, err
	}
	url, err := page.CurrentURL(ctx)
	if err != nil {
		return api.PageInfo{}, err
	}
	title, err := page.Title(ctx)
	if err != nil {
		return api.PageInfo{}, err
	}
	return api.PageInfo{URL: url, Title: title}, nil
}

func (s *Service) PageSource(ctx context.Context) (string, error) {
	page, err := s.page(ctx)
	if err != nil {
		return "", err
	}
	return page.PageSource(ctx)
}

func (s *Service) Evaluate(ctx context.Context, expression string) (any, error) {
	if err := s.requireNonEmpty(expression, "expression"); err != nil {
		return nil, err
	}
	page, err := s.page(ctx)
	if err != nil {
		return nil, err
	}
	return page.Evaluate(ctx, expression)
}

func (s *Service) FindElement(ctx context.Context, selector string) (cdpmode.Element, error) {
	if err := s.requireNonEmpty(selector, "selector"); err != nil {
		return cdpmode.Element{}, err
	}
	page, err := s.page(ctx)
	if err != nil {
		return cdpmode.Element{}, err
	}
	return page.FindElement(ctx, selector)
}

func (s *Service) FindElements(ctx context.Context, selector string) ([]cdpmode.Element, error) {
	if err := s.requireNonEmpty(selector, "selector"); err != nil {
		return nil, err
	}
	page, err := s.page(ctx)
	if err != nil {
		return nil, err
	}
	return page.FindElements(ctx, selector)
}

func (s *Service) Click(ctx context.Context, selector string, trusted bool) error {
	if err := s.requireNonEmpty(selector, "selector"); err != nil {
		return err
	}
	page, err := s.page(ctx)
	if err != nil {
		return err
	}
	if trusted {
		return page.MouseClick(ctx, selector)
	}
	return page.Click(ctx, selector)
}

func (s *Service) TypeText(ctx context.Context, selector, text string, humanize bool) error {
	if err := s.requireNonEmpty(selector, "selector"); err != nil {
		return err
	}
	page, err := s.page(ctx)
	if err != nil {
		return err
	}
	if humanize {
		return page.PressKeys(ctx, selector, text)
	}
	return page.Type(ctx, selector, text)
}

func (s *Service) GetText(ctx context.Context, selector string) (string, error) {
	if err := s.requireNonEmpty(selector, "selector"); err != nil {
		return "", err
	}
	page, err := s.page(ctx)
	if err != nil {
		return "", err
	}
	return page.GetText(ctx, selector)
}

func (s *Service) SelectOption(ctx context.Context, selector, option string) error {
	if err := s.requireNonEmpty(selector, "selector"); err != nil {
		return err
	}
	if err := s.requireNonEmpty(option, "option"); err != nil {
		return err
	}
	page, err := s.page(ctx)
	if err != nil {
		return err
	}
	return page.SelectOption(ctx, selector, option)
}

func (s *Service) WaitFor(ctx context.Context, selector, condition, text string, timeout time.Duration) error {
	if err := s.requireNonEmpty(selector, "selector"); err != nil {
		return err
	}
	switch condition {
	case "", "present", "visible", "absent":
	case "text":
		if err := s.requireNonEmpty(text, "text"); err != nil {
			return err
		}
	default:
		return &cdpmode.CodedError{Code: cdpmode.CodeValidation, Message: "unknown wait condition: " + condition}
	}
	page, err := s.page(ctx)
	if err != nil {
		return err
	}
	switch condition {
	case "visible":
		return page.WaitForElementVisible(ctx, selector, timeout)
	case "absent":
		return page.WaitForElementAbsent(ctx, selector, timeout)
	case "text":
		return page.WaitForText(ctx, selector, text, timeout)
	default:
		return page.WaitForElement(ctx, selector, timeout)
	}
}

func (s *Service) GetCookies(ctx context.Context) ([]cdpmode.Cookie, error) {
	page, err := s.page(ctx)
	if err != nil {
		return nil, err
	}
	return page.GetAllCookies(ctx)
}

func (s *Service) SetCookies(ctx context.Context, cookies []cdpmode.Cookie) error {
	if len(cookies) == 0 {
		return &cdpmode.CodedError{Code: cdpmode.CodeValidation, Message: "cookies are required"}
	}
	page, err := s.page(ctx)
	if err != nil {
		return err
	}
	return page.SetAllCookies(ctx, cookies)
}

func (s *Service) ClearCookies(ctx context.Context) error {
	page, err := s.page(ctx)
	if err != nil {
		return err
	}
	return page.ClearCookies(ctx)
}

func (s *Service) SaveCookies(ctx context.Context, path string) error {
	if err := s.requireNonEmpty(path, "path"); err != nil {
		return err
	}
	page, err := s.page(ctx)
	if err != nil {
		return err
	}
	return page.SaveCookies(ctx, path)
}

func (s *Service) LoadCookies(ctx context.Context, path string) error {
	if err := s.requireNonEmpty(path, "path"); err != nil {
		return err
	}
	page, err := s.page(ctx)
	if err != nil {
		return err
	}
	return page.LoadCookies(ctx, path)
}

func (s *Service) SetWindowState(ctx context.Context, state string) error {
	page, err := s.page(ctx)
	if err != nil {
		return err
	}
	switch state {
	case "maximized":
		return page.Maximize(ctx)
	case "minimized":
		return page.Minimize(ctx)
	case "medimized":
		return page.Medimize(ctx)
	case "fullscreen":
		return page.Fullscreen(ctx)
	case "normal":
		return page.Restore(ctx)
	default:
		return &cdpmode.CodedError{Code: cdpmode.CodeValidation, Message: "unknown window state: " + state}
	}
}

func (s *Service) SetWindowRect(ctx context.Context, x, y, width, height int) error {
	page, err := s.page(ctx)
	if err != nil {
		return err
	}
	return page.SetWindowRect(ctx, x, y, width, height)
}

func (s *Service) TakeScreenshot(ctx context.Context, name string, fullPage bool) (screenshot.Meta, error) {
	if _, err := s.page(ctx); err != nil {
		return screenshot.Meta{}, err
	}
	return s.session.SaveScreenshotNow(ctx, name, fullPage)
}

func (s *Service) ListScreenshots(ctx context.Context) ([]screenshot.Meta, error) {
	return s.session.Screenshots().List()
}

func (s *Service) GetScreenshot(ctx context.Context, id string) (screenshot.Meta, error) {
	meta, err := s.session.Screenshots().Get(id)
	if err != nil {
		return screenshot.Meta{}, &cdpmode.CodedError{Code: cdpmode.CodeScreenshotNotFound, Message: err.Error()}
	}
	return meta, nil
}

func (s *Service) ReadScreenshotImage(ctx context.Context, id string) ([]byte, string, error) {
	data, format, err := s.session.Screenshots().ReadImage(id)
	if err != nil {
		return nil, "", &cdpmode.CodedError{Code: cdpmode.CodeScreenshotNotFound, Message: err.Error()}
	}
	return data, format, nil
}

func (s *Service) DeleteScreenshot(ctx context.Context, id string) error {
	if err := s.session.Screenshots().Delete(id); err != nil {
		return &cdpmode.CodedError{Code: cdpmode.CodeScreenshotNotFound, Message: err.Error()}
	}
	return nil
}
