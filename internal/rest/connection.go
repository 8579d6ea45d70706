package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"resty.dev/v3"

	"github.com/vk/taskweave/internal/ctxlog"
)

// Connection is an HTTP session bound to an API base URL and an auth
// strategy. It centralizes error-code translation and owns one cache per
// resource type so that root and nested managers stay cache-coherent.
// A Connection implements engine.Connector.
type Connection struct {
	name    string
	client  *resty.Client
	auth    Auth
	pages   PageExtractor
	caches  map[string]*Cache
	roots   map[string]*Manager
	apiBase string
}

// NewConnection creates a connection to a REST API. A nil extractor falls
// back to LinkHeaderPages.
func NewConnection(name, apiBase string, auth Auth, pages PageExtractor) *Connection {
	if pages == nil {
		pages = LinkHeaderPages
	}
	apiBase = strings.TrimRight(apiBase, "/")
	return &Connection{
		name:    name,
		client:  resty.New().SetBaseURL(apiBase),
		auth:    auth,
		pages:   pages,
		caches:  make(map[string]*Cache),
		roots:   make(map[string]*Manager),
		apiBase: apiBase,
	}
}

// Name returns the connector name the connection is registered under.
func (c *Connection) Name() string { return c.name }

// Close releases the underlying HTTP session.
func (c *Connection) Close() error { return c.client.Close() }

// cacheFor returns the shared cache for a resource type, creating it on
// first use.
func (c *Connection) cacheFor(resourceType string) *Cache {
	cache, ok := c.caches[resourceType]
	if !ok {
		cache = NewCache()
		c.caches[resourceType] = cache
	}
	return cache
}

// registerRoot records the first context-free manager seen for a resource
// type. Resources built by nested managers attach to it so that further
// update/delete/action calls go through the root endpoint.
func (c *Connection) registerRoot(resourceType string, m *Manager) {
	if _, ok := c.roots[resourceType]; !ok {
		c.roots[resourceType] = m
	}
}

func (c *Connection) rootManager(resourceType string) *Manager {
	return c.roots[resourceType]
}

// APIRequest issues one HTTP call. Absolute URLs bypass base-URL prefixing,
// which is how pagination links are followed. Status codes 400/401/403/404/
// 409 come back as *StatusError wrapping the matching sentinel; other error
// statuses come back as a bare *StatusError.
func (c *Connection) APIRequest(ctx context.Context, method, path string, query url.Values, body any) ([]byte, *resty.Response, error) {
	req := c.client.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if c.auth != nil {
		c.auth.Apply(req)
	}

	target := path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "/" + strings.TrimLeft(path, "/")
	}
	ctxlog.FromContext(ctx).Debug("REST API request.", "connector", c.name, "method", method, "url", target)

	resp, err := req.Execute(method, target)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	raw := resp.Bytes()
	if resp.IsError() {
		return nil, resp, &StatusError{
			Method: method,
			URL:    path,
			Code:   resp.StatusCode(),
			Body:   string(raw),
		}
	}
	return raw, resp, nil
}

// getJSONMap GETs a single-object endpoint.
func (c *Connection) getJSONMap(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	raw, _, err := c.APIRequest(ctx, resty.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return decodeObject(raw)
}

// sendJSONMap issues a write (POST/PUT/PATCH) and decodes the returned
// object. Endpoints answering with an empty body yield a nil map.
func (c *Connection) sendJSONMap(ctx context.Context, method, path string, body any) (map[string]any, error) {
	raw, _, err := c.APIRequest(ctx, method, path, nil, body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return decodeObject(raw)
}

// fetchPage GETs one page of a collection endpoint and runs the page
// extractor over the response.
func (c *Connection) fetchPage(ctx context.Context, path string, query url.Values) (Page, error) {
	raw, resp, err := c.APIRequest(ctx, resty.MethodGet, path, query, nil)
	if err != nil {
		return Page{}, err
	}
	return c.pages(resp, raw)
}

func decodeObject(raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing resource response: %w", err)
	}
	return data, nil
}
