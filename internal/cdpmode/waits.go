package cdpmode

import (
	"context"
	"strings"
	"time"
)

const defaultPollInterval = 200 * time.Millisecond

// DefaultWaitTimeout is the wait deadline used when a caller passes none.
// SetDefaultWaitTimeout on the client overrides it for all waits.
const DefaultWaitTimeout = 10 * time.Second

// waitFor polls check until it reports done, the timeout elapses, or the
// context ends. check errors other than transient eval failures abort the wait.
func (p *Page) waitFor(ctx context.Context, timeout time.Duration, what string, check func(context.Context) (bool, error)) error {
	if timeout <= 0 {
		timeout = p.c.defaultWait()
	}
	deadline := time.Now().Add(timeout)

	for {
		done, err := check(ctx)
		if err != nil {
			// Element lookups racing navigation come back as not-found;
			// keep polling on those.
			if !p.c.asCode(err, CodeElementNotFound) {
				return err
			}
		}
		if done {
			return nil
		}
		if time.Now().After(deadline) {
			return newError(CodeWaitTimeout, "timed out waiting for "+what, nil)
		}
		select {
		case <-time.After(defaultPollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WaitForElement waits until the selector matches a node in the DOM.
func (p *Page) WaitForElement(ctx context.Context, selector string, timeout time.Duration) error {
	if selector == "" {
		return newError(CodeValidation, "selector is required", nil)
	}
	return p.waitFor(ctx, timeout, "element "+selector, func(ctx context.Context) (bool, error) {
		return p.IsElementPresent(ctx, selector)
	})
}

// WaitForElementVisible waits until the selector matches a rendered node.
func (p *Page) WaitForElementVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if selector == "" {
		return newError(CodeValidation, "selector is required", nil)
	}
	return p.waitFor(ctx, timeout, "visible element "+selector, func(ctx context.Context) (bool, error) {
		return p.IsElementVisible(ctx, selector)
	})
}

// WaitForElementAbsent waits until the selector no longer matches any node.
func (p *Page) WaitForElementAbsent(ctx context.Context, selector string, timeout time.Duration) error {
	if selector == "" {
		return newError(CodeValidation, "selector is required", nil)
	}
	return p.waitFor(ctx, timeout, "absence of element "+selector, func(ctx context.Context) (bool, error) {
		present, err := p.IsElementPresent(ctx, selector)
		return !present, err
	})
}

// WaitForElementNotVisible waits until the selector matches nothing rendered.
// An absent element satisfies the wait.
func (p *Page) WaitForElementNotVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if selector == "" {
		return newError(CodeValidation, "selector is required", nil)
	}
	return p.waitFor(ctx, timeout, "invisibility of element "+selector, func(ctx context.Context) (bool, error) {
		visible, err := p.IsElementVisible(ctx, selector)
		return !visible, err
	})
}

// WaitForText waits until the element's text contains the given substring.
func (p *Page) WaitForText(ctx context.Context, selector, text string, timeout time.Duration) error {
	if selector == "" || text == "" {
		return newError(CodeValidation, "selector and text are required", nil)
	}
	return p.waitFor(ctx, timeout, "text "+text+" in "+selector, func(ctx context.Context) (bool, error) {
		got, err := p.GetText(ctx, selector)
		if err != nil {
			return false, err
		}
		return strings.Contains(got, text), nil
	})
}

// WaitForTextGone waits until the element's text no longer contains the
// substring. An absent element satisfies the wait.
func (p *Page) WaitForTextGone(ctx context.Context, selector, text string, timeout time.Duration) error {
	if selector == "" || text == "" {
		return newError(CodeValidation, "selector and text are required", nil)
	}
	return p.waitFor(ctx, timeout, "disappearance of text "+text+" in "+selector, func(ctx context.Context) (bool, error) {
		got, err := p.GetText(ctx, selector)
		if err != nil {
			if p.c.asCode(err, CodeElementNotFound) {
				return true, nil
			}
			return false, err
		}
		return !strings.Contains(got, text), nil
	})
}

// WaitForReadyState waits until document.readyState reaches "complete".
func (p *Page) WaitForReadyState(ctx context.Context, timeout time.Duration) error {
	return p.waitFor(ctx, timeout, "document ready state", func(ctx context.Context) (bool, error) {
		info, err := p.info(ctx)
		if err != nil {
			return false, err
		}
		return info.ReadyState == "complete", nil
	})
}

// AssertElement fails with ELEMENT_NOT_FOUND when the selector matches nothing.
func (p *Page) AssertElement(ctx context.Context, selector string) error {
	present, err := p.IsElementPresent(ctx, selector)
	if err != nil {
		return err
	}
	if !present {
		return newError(CodeElementNotFound, "element not found: "+selector, nil)
	}
	return nil
}

// AssertElementVisible fails when the selector matches nothing rendered.
func (p *Page) AssertElementVisible(ctx context.Context, selector string) error {
	visible, err := p.IsElementVisible(ctx, selector)
	if err != nil {
		return err
	}
	if !visible {
		return newError(CodeElementNotFound, "element not visible: "+selector, nil)
	}
	return nil
}

// AssertText fails unless the element's text contains the substring.
func (p *Page) AssertText(ctx context.Context, selector, text string) error {
	got, err := p.GetText(ctx, selector)
	if err != nil {
		return err
	}
	if !strings.Contains(got, text) {
		return newError(CodeEvalFailure, "text mismatch: expected "+text+" in "+selector, nil)
	}
	return nil
}

// AssertTitle fails unless the document title contains the substring.
func (p *Page) AssertTitle(ctx context.Context, title string) error {
	got, err := p.Title(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(got, title) {
		return newError(CodeEvalFailure, "title mismatch: expected "+title+", got "+got, nil)
	}
	return nil
}

// AssertURL fails unless the page URL contains the substring.
func (p *Page) AssertURL(ctx context.Context, url string) error {
	got, err := p.CurrentURL(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(got, url) {
		return newError(CodeEvalFailure, "url mismatch: expected "+url+", got "+got, nil)
	}
	return nil
}
