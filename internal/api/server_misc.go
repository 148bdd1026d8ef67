package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stealthdriver/uc/internal/cdpmode"
)

func registerMiscHandlers(api huma.API, svc Service) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	type tabsOutput struct {
		Body struct {
			Tabs []cdpmode.TabInfo `json:"tabs"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-tabs", Method: http.MethodGet, Path: "/api/v1/tabs", Summary: "List open browser tabs", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct{}) (*tabsOutput, error) {
			tabs, err := svc.ListTabs(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &tabsOutput{}
			out.Body.Tabs = tabs
			if out.Body.Tabs == nil {
				out.Body.Tabs = []cdpmode.TabInfo{}
			}
			return out, nil
		})

	type statusOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	type windowStateInput struct {
		Body struct {
			State string `json:"state" required:"true" doc:"Target window state" enum:"normal,maximized,minimized,medimized,fullscreen"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-window-state", Method: http.MethodPut, Path: "/api/v1/window/state", Summary: "Set the browser window state", Tags: []string{"Window"}},
		func(ctx context.Context, input *windowStateInput) (*statusOutput, error) {
			if err := svc.SetWindowState(ctx, input.Body.State); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "set"
			return out, nil
		})

	type windowRectInput struct {
		Body struct {
			X      int `json:"x,omitempty"`
			Y      int `json:"y,omitempty"`
			Width  int `json:"width" required:"true"`
			Height int `json:"height" required:"true"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-window-rect", Method: http.MethodPut, Path: "/api/v1/window/rect", Summary: "Set the browser window position and size", Tags: []string{"Window"}},
		func(ctx context.Context, input *windowRectInput) (*statusOutput, error) {
			if err := svc.SetWindowRect(ctx, input.Body.X, input.Body.Y, input.Body.Width, input.Body.Height); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "set"
			return out, nil
		})
}
