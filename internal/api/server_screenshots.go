package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stealthdriver/uc/internal/screenshot"
)

func registerScreenshotHandlers(api huma.API, svc Service) {
	type takeScreenshotOutput struct {
		Body struct {
			Screenshot screenshot.Meta `json:"screenshot"`
			URL        string          `json:"url"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "take-screenshot", Method: http.MethodPost, Path: "/api/v1/screenshots", Summary: "Take a screenshot of the active tab", Tags: []string{"Screenshots"}},
		func(ctx context.Context, input *struct {
			Body struct {
				Name     string `json:"name,omitempty" doc:"Free-form label stored with the screenshot"`
				FullPage bool   `json:"full_page,omitempty" doc:"Capture the full scrollable page"`
			}
		}) (*takeScreenshotOutput, error) {
			meta, err := svc.TakeScreenshot(ctx, input.Body.Name, input.Body.FullPage)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &takeScreenshotOutput{}
			out.Body.Screenshot = meta
			out.Body.URL = "/api/v1/screenshots/" + meta.ID + "/image"
			return out, nil
		})

	type listScreenshotsOutput struct {
		Body struct {
			Screenshots []screenshot.Meta `json:"screenshots"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-screenshots", Method: http.MethodGet, Path: "/api/v1/screenshots", Summary: "List screenshots", Tags: []string{"Screenshots"}},
		func(ctx context.Context, input *struct{}) (*listScreenshotsOutput, error) {
			metas, err := svc.ListScreenshots(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listScreenshotsOutput{}
			out.Body.Screenshots = metas
			if out.Body.Screenshots == nil {
				out.Body.Screenshots = []screenshot.Meta{}
			}
			return out, nil
		})

	type screenshotIDInput struct {
		ScreenshotID string `path:"screenshot_id"`
	}
	type getScreenshotOutput struct {
		Body screenshot.Meta
	}
	huma.Register(api, huma.Operation{OperationID: "get-screenshot-metadata", Method: http.MethodGet, Path: "/api/v1/screenshots/{screenshot_id}/metadata", Summary: "Get screenshot metadata", Tags: []string{"Screenshots"}},
		func(ctx context.Context, input *screenshotIDInput) (*getScreenshotOutput, error) {
			meta, err := svc.GetScreenshot(ctx, input.ScreenshotID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &getScreenshotOutput{}
			out.Body = meta
			return out, nil
		})

	type screenshotImageOutput struct {
		ContentType string `header:"Content-Type"`
		Body        []byte
	}
	huma.Register(api, huma.Operation{
		OperationID: "get-screenshot-image",
		Method:      http.MethodGet,
		Path:        "/api/v1/screenshots/{screenshot_id}/image",
		Summary:     "Get screenshot image",
		Tags:        []string{"Screenshots"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Screenshot image",
				Content: map[string]*huma.MediaType{
					"image/png": {
						Schema: &huma.Schema{Type: "string", Format: "binary"},
					},
				},
			},
		},
	}, func(ctx context.Context, input *screenshotIDInput) (*screenshotImageOutput, error) {
		data, format, err := svc.ReadScreenshotImage(ctx, input.ScreenshotID)
		if err != nil {
			return nil, mapErr(err)
		}
		ct := "image/png"
		if format == "jpeg" {
			ct = "image/jpeg"
		}
		return &screenshotImageOutput{ContentType: ct, Body: data}, nil
	})

	type deleteScreenshotOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "delete-screenshot", Method: http.MethodDelete, Path: "/api/v1/screenshots/{screenshot_id}", Summary: "Delete screenshot", Tags: []string{"Screenshots"}},
		func(ctx context.Context, input *screenshotIDInput) (*deleteScreenshotOutput, error) {
			if err := svc.DeleteScreenshot(ctx, input.ScreenshotID); err != nil {
				return nil, mapErr(err)
			}
			out := &deleteScreenshotOutput{}
			out.Body.Status = "deleted"
			return out, nil
		})
}
