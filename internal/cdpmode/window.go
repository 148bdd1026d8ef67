package cdpmode

import "context"

// WindowRect is the OS window geometry for the tab's host window.
type WindowRect struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	State  string `json:"state"`
}

// GetWindowRect returns geometry of the window hosting this page.
func (p *Page) GetWindowRect(ctx context.Context) (WindowRect, error) {
	cdp, err := p.c.rawConn(ctx)
	if err != nil {
		return WindowRect{}, err
	}
	_, bounds, err := cdp.windowForTarget(ctx, p.targetID)
	if err != nil {
		return WindowRect{}, newError(CodeCDPUnavailable, "window lookup failed", err)
	}
	return WindowRect{
		X:      bounds.Left,
		Y:      bounds.Top,
		Width:  bounds.Width,
		Height: bounds.Height,
		State:  bounds.WindowState,
	}, nil
}

// SetWindowRect moves and resizes the window. A maximized or fullscreen
// window is restored to normal first, since Chrome rejects bounds changes in
// those states.
func (p *Page) SetWindowRect(ctx context.Context, x, y, width, height int) error {
	if width <= 0 || height <= 0 {
		return newError(CodeValidation, "window size must be positive", nil)
	}
	cdp, err := p.c.rawConn(ctx)
	if err != nil {
		return err
	}
	windowID, bounds, err := cdp.windowForTarget(ctx, p.targetID)
	if err != nil {
		return newError(CodeCDPUnavailable, "window lookup failed", err)
	}
	if bounds.WindowState != "" && bounds.WindowState != "normal" {
		if err := cdp.setWindowBounds(ctx, windowID, windowBounds{WindowState: "normal"}); err != nil {
			return newError(CodeCDPUnavailable, "window restore failed", err)
		}
	}
	if err := cdp.setWindowBounds(ctx, windowID, windowBounds{Left: x, Top: y, Width: width, Height: height}); err != nil {
		return newError(CodeCDPUnavailable, "window resize failed", err)
	}
	return nil
}

// Maximize maximizes the window hosting this page.
func (p *Page) Maximize(ctx context.Context) error {
	return p.setWindowState(ctx, "maximized")
}

// Minimize minimizes the window hosting this page.
func (p *Page) Minimize(ctx context.Context) error {
	return p.setWindowState(ctx, "minimized")
}

// Fullscreen makes the hosting window fullscreen.
func (p *Page) Fullscreen(ctx context.Context) error {
	return p.setWindowState(ctx, "fullscreen")
}

// Restore returns the window to the normal state.
func (p *Page) Restore(ctx context.Context) error {
	return p.setWindowState(ctx, "normal")
}

// Medimize resizes the window to the left half of the screen at full
// height, a middle ground between minimized and maximized.
func (p *Page) Medimize(ctx context.Context) error {
	var screen struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := p.c.evalOnTab(ctx, p.targetID, jsScreenSize(), &screen); err != nil {
		return err
	}
	width, height := screen.Width/2, screen.Height
	if width <= 0 || height <= 0 {
		width, height = 640, 480
	}
	return p.SetWindowRect(ctx, 0, 0, width, height)
}

func (p *Page) setWindowState(ctx context.Context, state string) error {
	cdp, err := p.c.rawConn(ctx)
	if err != nil {
		return err
	}
	windowID, bounds, err := cdp.windowForTarget(ctx, p.targetID)
	if err != nil {
		return newError(CodeCDPUnavailable, "window lookup failed", err)
	}
	// State transitions only apply from normal.
	if bounds.WindowState != "" && bounds.WindowState != "normal" && bounds.WindowState != state {
		if err := cdp.setWindowBounds(ctx, windowID, windowBounds{WindowState: "normal"}); err != nil {
			return newError(CodeCDPUnavailable, "window restore failed", err)
		}
	}
	if err := cdp.setWindowBounds(ctx, windowID, windowBounds{WindowState: state}); err != nil {
		return newError(CodeCDPUnavailable, "window state change failed", err)
	}
	return nil
}
