package rest

import (
	"context"
	"fmt"
	"iter"
	"net/url"

	"resty.dev/v3"
)

// Manager is the per-resource-type REST accessor. It is bound to a
// connection plus an optional string context, the parent resource's
// single-item endpoint used for nested collections (e.g. "projects/42").
// All managers for one type on one connection share a single cache.
type Manager struct {
	desc    Descriptor
	conn    *Connection
	context string
	cache   *Cache
}

// NewManager creates a manager for a resource type. A manager constructed
// without a context registers itself as the type's root manager; resources
// built later through nested managers attach to the root so that writes go
// through the root endpoint.
func NewManager(desc Descriptor, conn *Connection, context string) *Manager {
	m := &Manager{
		desc:    desc,
		conn:    conn,
		context: context,
		cache:   conn.cacheFor(desc.Name),
	}
	if context == "" {
		conn.registerRoot(desc.Name, m)
	}
	return m
}

func (m *Manager) listEndpoint() string {
	if m.context != "" {
		return m.context + "/" + m.desc.Endpoint
	}
	return m.desc.Endpoint
}

func (m *Manager) singleEndpoint(key string) string {
	base := m.desc.singleBase()
	if m.context != "" {
		base = m.context + "/" + base
	}
	return base + "/" + key
}

// resource wraps raw API data. Non-lazy data refreshes any cached resource
// in place and returns the cached object, preserving identity across root
// and nested fetch paths; lazy placeholders stay out of the cache until
// they load.
func (m *Manager) resource(data map[string]any, lazy bool) *Resource {
	owner := m.conn.rootManager(m.desc.Name)
	if owner == nil {
		owner = m
	}
	r := &Resource{mgr: owner, data: data, lazy: lazy}
	if lazy {
		return r
	}
	if existing := m.cache.Get(r.Key()); existing != nil {
		existing.data = data
		existing.lazy = false
		return existing
	}
	return m.cache.Put(r)
}

// FetchAll lists the collection as a lazy sequence. Pages are fetched on
// demand by following the connection's next-page indicator; page N+1 is
// never requested before the consumer has drained page N. Long result sets
// are bounded by composing a limiting stage upstream, not here.
func (m *Manager) FetchAll(ctx context.Context, params url.Values) iter.Seq2[*Resource, error] {
	return func(yield func(*Resource, error) bool) {
		next := m.listEndpoint()
		query := params
		for next != "" {
			page, err := m.conn.fetchPage(ctx, next, query)
			if err != nil {
				yield(nil, err)
				return
			}
			// Pagination links carry their own query string.
			query = nil
			for _, item := range page.Items {
				if !yield(m.resource(item, false), nil) {
					return
				}
			}
			next = page.Next
		}
	}
}

// FetchOne returns the resource with the given key. A cache hit returns the
// cached resource with no network call, even when lazy is requested. On a
// miss, lazy returns a key-only placeholder whose fetch is deferred to the
// first missing-field access; otherwise the resource is fetched eagerly.
func (m *Manager) FetchOne(ctx context.Context, key string, lazy bool) (*Resource, error) {
	if m.cache.Has(key) {
		return m.cache.Get(key), nil
	}
	if lazy {
		return m.resource(map[string]any{m.desc.primaryKey(): key}, true), nil
	}
	data, err := m.conn.getJSONMap(ctx, m.singleEndpoint(key), nil)
	if err != nil {
		return nil, err
	}
	return m.resource(data, false), nil
}

// FetchOneBy returns the first resource whose attribute equals value,
// remembering it under the alias "<context>/<attr>/<value>". On an alias
// miss this is a linear scan over the full paginated collection; callers
// needing efficient lookup must pass narrow enough params filters.
func (m *Manager) FetchOneBy(ctx context.Context, attr string, value any, params url.Values) (*Resource, error) {
	alias := fmt.Sprintf("%s/%v", attr, value)
	if m.context != "" {
		alias = m.context + "/" + alias
	}
	if m.cache.Has(alias) {
		return m.cache.Get(alias), nil
	}
	for r, err := range m.FetchAll(ctx, params) {
		if err != nil {
			return nil, err
		}
		if got, ok := r.data[attr]; ok && fmt.Sprint(got) == fmt.Sprint(value) {
			return m.cache.Put(r, alias), nil
		}
	}
	return nil, fmt.Errorf("no %s with %s=%v: %w", m.desc.Name, attr, value, ErrNotFound)
}

// Create POSTs to the collection endpoint and caches the new resource.
func (m *Manager) Create(ctx context.Context, params map[string]any) (*Resource, error) {
	data, err := m.conn.sendJSONMap(ctx, resty.MethodPost, m.listEndpoint(), params)
	if err != nil {
		return nil, err
	}
	return m.resource(data, false), nil
}

// Update writes the given fields. If every supplied field already matches
// the cached snapshot the network call is skipped entirely and the cached
// resource is returned unchanged.
func (m *Manager) Update(ctx context.Context, resourceOrKey any, params map[string]any) (*Resource, error) {
	key := keyOf(resourceOrKey)
	if cached := m.cache.Get(key); cached != nil && !cached.lazy && matchesSnapshot(cached.data, params) {
		return cached, nil
	}
	data, err := m.conn.sendJSONMap(ctx, resty.MethodPut, m.singleEndpoint(key), params)
	if err != nil {
		return nil, err
	}
	if data == nil {
		// The service answered with an empty body; drop the stale snapshot
		// and hand back a deferred fetch.
		m.cache.Evict(key)
		return m.FetchOne(ctx, key, true)
	}
	return m.resource(data, false), nil
}

// Delete removes the resource remotely, then evicts it and all its aliases.
func (m *Manager) Delete(ctx context.Context, resourceOrKey any) error {
	key := keyOf(resourceOrKey)
	if _, _, err := m.conn.APIRequest(ctx, resty.MethodDelete, m.singleEndpoint(key), nil, nil); err != nil {
		return err
	}
	m.cache.Evict(key)
	return nil
}

// Action POSTs to <single-endpoint>/<action> and refreshes the cached
// resource with the response.
func (m *Manager) Action(ctx context.Context, resourceOrKey any, action string, params map[string]any) (*Resource, error) {
	key := keyOf(resourceOrKey)
	data, err := m.conn.sendJSONMap(ctx, resty.MethodPost, m.singleEndpoint(key)+"/"+action, params)
	if err != nil {
		return nil, err
	}
	if data == nil {
		m.cache.Evict(key)
		return m.FetchOne(ctx, key, true)
	}
	return m.resource(data, false), nil
}

func keyOf(resourceOrKey any) string {
	if r, ok := resourceOrKey.(*Resource); ok {
		return r.Key()
	}
	return fmt.Sprint(resourceOrKey)
}

// matchesSnapshot reports whether every supplied field already holds the
// same value in the cached data.
func matchesSnapshot(data, params map[string]any) bool {
	for field, value := range params {
		current, ok := data[field]
		if !ok || fmt.Sprint(current) != fmt.Sprint(value) {
			return false
		}
	}
	return true
}
