// Package httpreq provides the HTTP request node. The response is exposed
// as structured data (status code plus body text) so downstream nodes can
// pick either.
package httpreq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/schema"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

const defaultTimeout = 30 * time.Second

// client is shared across builds; per-request deadlines come from ctx.
var client = &http.Client{Timeout: defaultTimeout}

func buildRequest(ctx context.Context, params map[string]any) (any, string, error) {
	url, _ := params["url"].(string)
	if url == "" {
		return nil, "", fmt.Errorf("http_request node requires a url")
	}
	method, _ := params["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if raw, ok := params["body"].(string); ok && raw != "" {
		body = strings.NewReader(raw)
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request.", "method", method, "url", url)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, "", fmt.Errorf("building request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response.", "status", resp.Status)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading response body: %w", err)
	}

	result := map[string]any{
		"status_code": float64(resp.StatusCode),
		"body":        string(respBody),
	}
	return result, string(respBody), nil
}

// Register registers the http_request node type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&schema.NodeTypeDef{
		Type:        "http_request",
		DisplayName: "HTTP Request",
		Inputs: []*schema.InputDef{
			{Name: "url", Types: []string{"Text"}, Required: true},
			{Name: "method", Types: []string{"Text"}},
			{Name: "body", Types: []string{"Text"}},
		},
		Outputs: []*schema.OutputDef{
			{Name: "result", Types: []string{"Data", "any"}},
		},
	}, &registry.Handler{Build: buildRequest})
}
