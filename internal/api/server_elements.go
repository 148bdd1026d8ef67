package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stealthdriver/uc/internal/cdpmode"
)

type selectorQueryInput struct {
	Selector string `query:"selector" required:"true" doc:"CSS selector, or XPath when starting with /, ./ or ("`
}

func registerElementHandlers(api huma.API, svc Service) {
	type elementOutput struct {
		Body cdpmode.Element
	}
	huma.Register(api, huma.Operation{OperationID: "find-element", Method: http.MethodGet, Path: "/api/v1/element", Summary: "Find the first matching element", Tags: []string{"Elements"}},
		func(ctx context.Context, input *selectorQueryInput) (*elementOutput, error) {
			el, err := svc.FindElement(ctx, input.Selector)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &elementOutput{}
			out.Body = el
			return out, nil
		})

	type elementsOutput struct {
		Body struct {
			Elements []cdpmode.Element `json:"elements"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "find-elements", Method: http.MethodGet, Path: "/api/v1/elements", Summary: "Find all matching elements", Tags: []string{"Elements"}},
		func(ctx context.Context, input *selectorQueryInput) (*elementsOutput, error) {
			els, err := svc.FindElements(ctx, input.Selector)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &elementsOutput{}
			out.Body.Elements = els
			if out.Body.Elements == nil {
				out.Body.Elements = []cdpmode.Element{}
			}
			return out, nil
		})

	type statusOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	type clickInput struct {
		Body struct {
			Selector string `json:"selector" required:"true"`
			Trusted  bool   `json:"trusted,omitempty" doc:"Dispatch a real mouse event through the input pipeline instead of a DOM click"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "click-element", Method: http.MethodPost, Path: "/api/v1/element/click", Summary: "Click an element", Tags: []string{"Elements"}},
		func(ctx context.Context, input *clickInput) (*statusOutput, error) {
			if err := svc.Click(ctx, input.Body.Selector, input.Body.Trusted); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "clicked"
			return out, nil
		})

	type typeInput struct {
		Body struct {
			Selector string `json:"selector" required:"true"`
			Text     string `json:"text" required:"true"`
			Humanize bool   `json:"humanize,omitempty" doc:"Send per-character key events with human typing cadence"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "type-text", Method: http.MethodPost, Path: "/api/v1/element/type", Summary: "Clear an input and type text into it", Tags: []string{"Elements"}},
		func(ctx context.Context, input *typeInput) (*statusOutput, error) {
			if err := svc.TypeText(ctx, input.Body.Selector, input.Body.Text, input.Body.Humanize); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "typed"
			return out, nil
		})

	type textOutput struct {
		Body struct {
			Text string `json:"text"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-element-text", Method: http.MethodGet, Path: "/api/v1/element/text", Summary: "Get an element's visible text", Tags: []string{"Elements"}},
		func(ctx context.Context, input *selectorQueryInput) (*textOutput, error) {
			text, err := svc.GetText(ctx, input.Selector)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &textOutput{}
			out.Body.Text = text
			return out, nil
		})

	type selectInput struct {
		Body struct {
			Selector string `json:"selector" required:"true"`
			Option   string `json:"option" required:"true" doc:"Option value or visible label"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "select-option", Method: http.MethodPost, Path: "/api/v1/element/select", Summary: "Select an option in a select element", Tags: []string{"Elements"}},
		func(ctx context.Context, input *selectInput) (*statusOutput, error) {
			if err := svc.SelectOption(ctx, input.Body.Selector, input.Body.Option); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "selected"
			return out, nil
		})

	type waitInput struct {
		Body struct {
			Selector  string `json:"selector" required:"true"`
			Condition string `json:"condition,omitempty" doc:"present (default), visible, absent, or text" enum:"present,visible,absent,text"`
			Text      string `json:"text,omitempty" doc:"Substring to wait for when condition is text"`
			TimeoutMS int    `json:"timeout_ms,omitempty" doc:"Wait timeout in milliseconds (default 10000)"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "wait-for-element", Method: http.MethodPost, Path: "/api/v1/element/wait", Summary: "Wait for an element condition", Tags: []string{"Elements"}},
		func(ctx context.Context, input *waitInput) (*statusOutput, error) {
			timeout := time.Duration(input.Body.TimeoutMS) * time.Millisecond
			if err := svc.WaitFor(ctx, input.Body.Selector, input.Body.Condition, input.Body.Text, timeout); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "satisfied"
			return out, nil
		})
}
