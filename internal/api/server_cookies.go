package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stealthdriver/uc/internal/cdpmode"
)

func registerCookieHandlers(api huma.API, svc Service) {
	type cookiesOutput struct {
		Body struct {
			Cookies []cdpmode.Cookie `json:"cookies"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-cookies", Method: http.MethodGet, Path: "/api/v1/cookies", Summary: "Get all browser cookies", Tags: []string{"Cookies"}},
		func(ctx context.Context, input *struct{}) (*cookiesOutput, error) {
			cookies, err := svc.GetCookies(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &cookiesOutput{}
			out.Body.Cookies = cookies
			if out.Body.Cookies == nil {
				out.Body.Cookies = []cdpmode.Cookie{}
			}
			return out, nil
		})

	type statusOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	type setCookiesInput struct {
		Body struct {
			Cookies []cdpmode.Cookie `json:"cookies" required:"true"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-cookies", Method: http.MethodPut, Path: "/api/v1/cookies", Summary: "Set browser cookies", Tags: []string{"Cookies"}},
		func(ctx context.Context, input *setCookiesInput) (*statusOutput, error) {
			if err := svc.SetCookies(ctx, input.Body.Cookies); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "set"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "clear-cookies", Method: http.MethodDelete, Path: "/api/v1/cookies", Summary: "Clear all browser cookies", Tags: []string{"Cookies"}},
		func(ctx context.Context, input *struct{}) (*statusOutput, error) {
			if err := svc.ClearCookies(ctx); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "cleared"
			return out, nil
		})

	type pathInput struct {
		Body struct {
			Path string `json:"path" required:"true" doc:"File path on the server host"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "save-cookies", Method: http.MethodPost, Path: "/api/v1/cookies/save", Summary: "Save cookies to a JSON file", Tags: []string{"Cookies"}},
		func(ctx context.Context, input *pathInput) (*statusOutput, error) {
			if err := svc.SaveCookies(ctx, input.Body.Path); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "saved"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "load-cookies", Method: http.MethodPost, Path: "/api/v1/cookies/load", Summary: "Load cookies from a JSON file", Tags: []string{"Cookies"}},
		func(ctx context.Context, input *pathInput) (*statusOutput, error) {
			if err := svc.LoadCookies(ctx, input.Body.Path); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "loaded"
			return out, nil
		})
}
