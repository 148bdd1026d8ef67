package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func registerPageHandlers(api huma.API, svc Service) {
	type pageOutput struct {
		Body PageInfo
	}
	huma.Register(api, huma.Operation{OperationID: "get-page", Method: http.MethodGet, Path: "/api/v1/page", Summary: "Get current page URL and title", Tags: []string{"Page"}},
		func(ctx context.Context, input *struct{}) (*pageOutput, error) {
			info, err := svc.PageInfo(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &pageOutput{}
			out.Body = info
			return out, nil
		})

	type navigateInput struct {
		Body struct {
			URL string `json:"url" required:"true" doc:"Absolute URL to open"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "navigate", Method: http.MethodPost, Path: "/api/v1/page/navigate", Summary: "Navigate the active tab", Tags: []string{"Page"}},
		func(ctx context.Context, input *navigateInput) (*pageOutput, error) {
			if err := svc.Navigate(ctx, input.Body.URL); err != nil {
				return nil, mapErr(err)
			}
			info, err := svc.PageInfo(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &pageOutput{}
			out.Body = info
			return out, nil
		})

	type reloadInput struct {
		Body struct {
			IgnoreCache bool `json:"ignore_cache,omitempty" doc:"Bypass the browser cache, like Shift+F5"`
		}
	}
	type statusOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "reload-page", Method: http.MethodPost, Path: "/api/v1/page/reload", Summary: "Reload the current page", Tags: []string{"Page"}},
		func(ctx context.Context, input *reloadInput) (*statusOutput, error) {
			if err := svc.Reload(ctx, input.Body.IgnoreCache); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "reloaded"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "go-back", Method: http.MethodPost, Path: "/api/v1/page/back", Summary: "Go back one history entry", Tags: []string{"Page"}},
		func(ctx context.Context, input *struct{}) (*pageOutput, error) {
			if err := svc.GoBack(ctx); err != nil {
				return nil, mapErr(err)
			}
			info, err := svc.PageInfo(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &pageOutput{}
			out.Body = info
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "go-forward", Method: http.MethodPost, Path: "/api/v1/page/forward", Summary: "Go forward one history entry", Tags: []string{"Page"}},
		func(ctx context.Context, input *struct{}) (*pageOutput, error) {
			if err := svc.GoForward(ctx); err != nil {
				return nil, mapErr(err)
			}
			info, err := svc.PageInfo(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &pageOutput{}
			out.Body = info
			return out, nil
		})

	type sourceOutput struct {
		ContentType string `header:"Content-Type"`
		Body        []byte
	}
	huma.Register(api, huma.Operation{
		OperationID: "get-page-source",
		Method:      http.MethodGet,
		Path:        "/api/v1/page/source",
		Summary:     "Get the serialized page HTML",
		Tags:        []string{"Page"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Page source",
				Content: map[string]*huma.MediaType{
					"text/html": {
						Schema: &huma.Schema{Type: "string"},
					},
				},
			},
		},
	}, func(ctx context.Context, input *struct{}) (*sourceOutput, error) {
		html, err := svc.PageSource(ctx)
		if err != nil {
			return nil, mapErr(err)
		}
		return &sourceOutput{ContentType: "text/html; charset=utf-8", Body: []byte(html)}, nil
	})

	type evalInput struct {
		Body struct {
			Expression string `json:"expression" required:"true" doc:"JavaScript expression evaluated in the page. Await is supported."`
		}
	}
	type evalOutput struct {
		Body struct {
			Result any `json:"result"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "evaluate", Method: http.MethodPost, Path: "/api/v1/page/evaluate", Summary: "Evaluate JavaScript in the page", Tags: []string{"Page"}},
		func(ctx context.Context, input *evalInput) (*evalOutput, error) {
			result, err := svc.Evaluate(ctx, input.Body.Expression)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &evalOutput{}
			out.Body.Result = result
			return out, nil
		})
}
