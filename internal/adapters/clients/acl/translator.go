package acl

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/jsamuelsen/game-price-gateway/internal/adapters/clients"
)

// BaseAdapter provides common functionality for ACL adapters.
// Embed this in your service-specific adapters.
type BaseAdapter struct {
	client      *clients.Client
	baseURL     string
	serviceName string
}

// NewBaseAdapter creates a new base adapter for the service at baseURL.
func NewBaseAdapter(client *clients.Client, baseURL, serviceName string) BaseAdapter {
	return BaseAdapter{
		client:      client,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		serviceName: serviceName,
	}
}

// ServiceName returns the name of the external service.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// BuildURL joins path and query onto the base URL.
func (a *BaseAdapter) BuildURL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u := a.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	return u
}

// Get performs a GET bounded by timeout and returns the response body.
// On success the caller must close the body. On failure the error is already classified.
func (a *BaseAdapter) Get(ctx context.Context, path string, query url.Values, timeout time.Duration) (io.ReadCloser, error) {
	resp, err := a.client.FetchWithErrorHandling(ctx, a.BuildURL(path, query), a.serviceName,
		clients.FetchOptions{Timeout: timeout})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}
