package cdpmode

import (
	"context"
	"time"

	"github.com/stealthdriver/uc/internal/stealth"
)

// Rect is an element's bounding box in viewport coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Element is a snapshot of a matched DOM node. It carries no live reference;
// operations re-resolve the selector.
type Element struct {
	Tag        string            `json:"tag"`
	Text       string            `json:"text"`
	Visible    bool              `json:"visible"`
	Attributes map[string]string `json:"attributes"`
	Rect       Rect              `json:"rect"`
}

// FindElement resolves the first element matching the CSS or XPath selector.
func (p *Page) FindElement(ctx context.Context, selector string) (Element, error) {
	if selector == "" {
		return Element{}, newError(CodeValidation, "selector is required", nil)
	}
	var out Element
	if err := p.c.evalOnTab(ctx, p.targetID, jsFindElement(selector), &out); err != nil {
		return Element{}, err
	}
	return out, nil
}

// FindElements resolves all elements matching the selector. An empty result
// is not an error.
func (p *Page) FindElements(ctx context.Context, selector string) ([]Element, error) {
	if selector == "" {
		return nil, newError(CodeValidation, "selector is required", nil)
	}
	var out struct {
		Elements []Element `json:"elements"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsFindElements(selector), &out); err != nil {
		return nil, err
	}
	if out.Elements == nil {
		return []Element{}, nil
	}
	return out.Elements, nil
}

// FindElementByText resolves the first element matching the selector whose
// text contains the given substring. An empty selector searches every node.
func (p *Page) FindElementByText(ctx context.Context, text, selector string) (Element, error) {
	if text == "" {
		return Element{}, newError(CodeValidation, "text is required", nil)
	}
	if selector == "" {
		selector = "*"
	}
	var out Element
	if err := p.c.evalOnTab(ctx, p.targetID, jsFindElementByText(text, selector), &out); err != nil {
		return Element{}, err
	}
	return out, nil
}

// FindVisibleElements resolves only the rendered, non-hidden matches.
func (p *Page) FindVisibleElements(ctx context.Context, selector string) ([]Element, error) {
	if selector == "" {
		return nil, newError(CodeValidation, "selector is required", nil)
	}
	var out struct {
		Elements []Element `json:"elements"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsFindVisibleElements(selector), &out); err != nil {
		return nil, err
	}
	if out.Elements == nil {
		return []Element{}, nil
	}
	return out.Elements, nil
}

// IsElementPresent reports whether the selector matches any node.
func (p *Page) IsElementPresent(ctx context.Context, selector string) (bool, error) {
	var out struct {
		Present bool `json:"present"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsIsElementPresent(selector), &out); err != nil {
		return false, err
	}
	return out.Present, nil
}

// IsElementVisible reports whether the selector matches a rendered,
// non-hidden node.
func (p *Page) IsElementVisible(ctx context.Context, selector string) (bool, error) {
	var out struct {
		Visible bool `json:"visible"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsIsElementVisible(selector), &out); err != nil {
		return false, err
	}
	return out.Visible, nil
}

// Click clicks the element via the DOM click() method. For bot-detection
// sensitive flows prefer MouseClick, which dispatches trusted input events.
func (p *Page) Click(ctx context.Context, selector string) error {
	var out struct {
		Status string `json:"status"`
	}
	return p.c.evalOnTab(ctx, p.targetID, jsClick(selector), &out)
}

// MouseClick scrolls the element into view and clicks its center with trusted
// CDP input events, with a small human-cadence pause between locating and
// clicking.
func (p *Page) MouseClick(ctx context.Context, selector string) error {
	var center struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsElementCenter(selector), &center); err != nil {
		return err
	}

	if err := stealth.RandomDelay(ctx, 50*time.Millisecond, 200*time.Millisecond); err != nil {
		return err
	}

	cdp, sessionID, err := p.c.sessionFor(ctx, p.targetID)
	if err != nil {
		return err
	}
	if err := cdp.dispatchMouseClick(ctx, sessionID, center.X, center.Y); err != nil {
		return newError(CodeEvalFailure, "mouse click failed", err)
	}
	return nil
}

// MouseClickXY clicks the given viewport coordinates with trusted CDP input
// events, without resolving a selector first.
func (p *Page) MouseClickXY(ctx context.Context, x, y float64) error {
	cdp, sessionID, err := p.c.sessionFor(ctx, p.targetID)
	if err != nil {
		return err
	}
	if err := cdp.dispatchMouseClick(ctx, sessionID, x, y); err != nil {
		return newError(CodeEvalFailure, "mouse click failed", err)
	}
	return nil
}

// ClickVisibleElements clicks every visible match in document order and
// returns how many were clicked. A limit of 0 means no limit.
func (p *Page) ClickVisibleElements(ctx context.Context, selector string, limit int) (int, error) {
	if selector == "" {
		return 0, newError(CodeValidation, "selector is required", nil)
	}
	var out struct {
		Clicked int `json:"clicked"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsClickVisibleElements(selector, limit), &out); err != nil {
		return 0, err
	}
	return out.Clicked, nil
}

// ClickNthElement clicks the zero-based nth match of the selector.
func (p *Page) ClickNthElement(ctx context.Context, selector string, n int) error {
	if selector == "" {
		return newError(CodeValidation, "selector is required", nil)
	}
	var out struct {
		Status string `json:"status"`
	}
	return p.c.evalOnTab(ctx, p.targetID, jsClickNthElement(selector, n), &out)
}

// ClickLink clicks the first visible anchor whose text equals the given text,
// falling back to a substring match.
func (p *Page) ClickLink(ctx context.Context, text string) error {
	if text == "" {
		return newError(CodeValidation, "link text is required", nil)
	}
	var out struct {
		Status string `json:"status"`
	}
	return p.c.evalOnTab(ctx, p.targetID, jsClickLink(text), &out)
}

// ClickIfVisible clicks the element only when it is visible, reporting
// whether a click happened.
func (p *Page) ClickIfVisible(ctx context.Context, selector string) (bool, error) {
	visible, err := p.IsElementVisible(ctx, selector)
	if err != nil {
		return false, err
	}
	if !visible {
		return false, nil
	}
	if err := p.Click(ctx, selector); err != nil {
		return false, err
	}
	return true, nil
}

// Focus gives keyboard focus to the element.
func (p *Page) Focus(ctx context.Context, selector string) error {
	var out struct {
		Status string `json:"status"`
	}
	return p.c.evalOnTab(ctx, p.targetID, jsFocus(selector), &out)
}

// GetText returns the element's trimmed visible text.
func (p *Page) GetText(ctx context.Context, selector string) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsGetText(selector), &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// GetAttribute returns the attribute value, or "" with ok=false when the
// attribute is absent.
func (p *Page) GetAttribute(ctx context.Context, selector, name string) (string, bool, error) {
	if name == "" {
		return "", false, newError(CodeValidation, "attribute name is required", nil)
	}
	var out struct {
		Value *string `json:"value"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsGetAttribute(selector, name), &out); err != nil {
		return "", false, err
	}
	if out.Value == nil {
		return "", false, nil
	}
	return *out.Value, true, nil
}

// SetAttribute sets an attribute on the element.
func (p *Page) SetAttribute(ctx context.Context, selector, name, value string) error {
	if name == "" {
		return newError(CodeValidation, "attribute name is required", nil)
	}
	var out struct {
		Status string `json:"status"`
	}
	return p.c.evalOnTab(ctx, p.targetID, jsSetAttribute(selector, name, value), &out)
}

// GetElementHTML returns the element's outer HTML.
func (p *Page) GetElementHTML(ctx context.Context, selector string) (string, error) {
	var out struct {
		HTML string `json:"html"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsGetElementHTML(selector), &out); err != nil {
		return "", err
	}
	return out.HTML, nil
}

// RemoveElement removes the element from the DOM.
func (p *Page) RemoveElement(ctx context.Context, selector string) error {
	var out struct {
		Status string `json:"status"`
	}
	return p.c.evalOnTab(ctx, p.targetID, jsRemoveElement(selector), &out)
}

// SelectOption selects a <select> option by value or visible text.
func (p *Page) SelectOption(ctx context.Context, selector, option string) error {
	var out struct {
		Value string `json:"value"`
	}
	return p.c.evalOnTab(ctx, p.targetID, jsSelectOption(selector, option), &out)
}

// Highlight pulses an outline on the element for the given duration.
func (p *Page) Highlight(ctx context.Context, selector string, d time.Duration) error {
	ms := int(d / time.Millisecond)
	if ms <= 0 {
		ms = 2000
	}
	var out struct {
		Status string `json:"status"`
	}
	return p.c.evalOnTab(ctx, p.targetID, jsHighlight(selector, ms), &out)
}

// Flash is Highlight with a short default duration.
func (p *Page) Flash(ctx context.Context, selector string) error {
	return p.Highlight(ctx, selector, 500*time.Millisecond)
}

// ScrollIntoView centers the element in the viewport.
func (p *Page) ScrollIntoView(ctx context.Context, selector string) error {
	var out struct {
		Status string `json:"status"`
	}
	return p.c.evalOnTab(ctx, p.targetID, jsScrollIntoView(selector), &out)
}

// ScrollToTop scrolls the window to the document top.
func (p *Page) ScrollToTop(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	return p.c.evalOnTab(ctx, p.targetID, jsScrollToTop(), &out)
}

// ScrollToBottom scrolls the window to the document bottom.
func (p *Page) ScrollToBottom(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	return p.c.evalOnTab(ctx, p.targetID, jsScrollToBottom(), &out)
}

// ScrollBy scrolls the window by pixel offsets.
func (p *Page) ScrollBy(ctx context.Context, x, y int) error {
	var out struct {
		Status string `json:"status"`
	}
	return p.c.evalOnTab(ctx, p.targetID, jsScrollBy(x, y), &out)
}

// ScrollToY scrolls the window to an absolute vertical position.
func (p *Page) ScrollToY(ctx context.Context, y int) error {
	var out struct {
		Status string `json:"status"`
	}
	return p.c.evalOnTab(ctx, p.targetID, jsScrollToY(y), &out)
}

// ScrollUp scrolls the window up by the given pixel amount.
func (p *Page) ScrollUp(ctx context.Context, pixels int) error {
	return p.ScrollBy(ctx, 0, -pixels)
}

// ScrollDown scrolls the window down by the given pixel amount.
func (p *Page) ScrollDown(ctx context.Context, pixels int) error {
	return p.ScrollBy(ctx, 0, pixels)
}
