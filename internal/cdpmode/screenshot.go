package cdpmode

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Screenshot captures the page as raw image bytes. format is "png" or
// "jpeg"; quality applies to jpeg only.
func (p *Page) Screenshot(ctx context.Context, format string, quality int, fullPage bool) ([]byte, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "jpeg" {
		return nil, newError(CodeValidation, "unsupported screenshot format: "+format, nil)
	}

	cdp, sessionID, err := p.c.sessionFor(ctx, p.targetID)
	if err != nil {
		return nil, err
	}
	data, err := cdp.captureScreenshot(ctx, sessionID, format, quality, fullPage)
	if err != nil {
		return nil, newError(CodeEvalFailure, "screenshot failed", err)
	}
	img, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, newError(CodeEvalFailure, "screenshot decode failed", err)
	}
	return img, nil
}

// SaveScreenshot captures the page and writes it to path. The format follows
// the file extension, defaulting to png.
func (p *Page) SaveScreenshot(ctx context.Context, path string, fullPage bool) error {
	if path == "" {
		return newError(CodeValidation, "screenshot path is required", nil)
	}

	format := "png"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		format = "jpeg"
	}

	img, err := p.Screenshot(ctx, format, 90, fullPage)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return newError(CodeValidation, fmt.Sprintf("create screenshot dir: %v", err), err)
		}
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return newError(CodeValidation, fmt.Sprintf("write screenshot: %v", err), err)
	}
	return nil
}
