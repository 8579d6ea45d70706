package rest

import (
	"context"
	"fmt"
)

// Descriptor carries the per-resource-type metadata a manager needs: the
// cache/type name, the collection endpoint and the primary key field.
// Single overrides the base of single-item routes for types whose items do
// not live under the collection route (Trello lists boards at
// "members/me/boards" but serves one board at "boards/<id>").
type Descriptor struct {
	Name       string
	Endpoint   string
	Single     string
	PrimaryKey string
}

func (d Descriptor) singleBase() string {
	if d.Single != "" {
		return d.Single
	}
	return d.Endpoint
}

func (d Descriptor) primaryKey() string {
	if d.PrimaryKey == "" {
		return "id"
	}
	return d.PrimaryKey
}

// Resource is a cached, optionally-lazy handle on one item returned by a
// remote API. A non-lazy resource's data is a complete snapshot as of its
// last fetch or mutation; a lazy resource holds at minimum the primary key
// and upgrades itself to a full fetch on first access to a missing field.
// The lazy-to-loaded transition is one-way and never reverts.
//
// The manager back-reference is a non-owning lookup handle for further
// update/delete/action calls, not an ownership relation.
type Resource struct {
	mgr  *Manager
	data map[string]any
	lazy bool
}

// PrimaryKey returns the value of the primary key field.
func (r *Resource) PrimaryKey() any { return r.data[r.mgr.desc.primaryKey()] }

// Key returns the primary key in its cache-key string form.
func (r *Resource) Key() string { return fmt.Sprint(r.PrimaryKey()) }

// Lazy reports whether the resource is still an unloaded placeholder.
func (r *Resource) Lazy() bool { return r.lazy }

// Data returns the resource's current field snapshot.
func (r *Resource) Data() map[string]any { return r.data }

// Get returns one field of the resource. A lazy resource missing the field
// loads its full snapshot first; once loaded it never goes back to lazy.
func (r *Resource) Get(ctx context.Context, field string) (any, error) {
	if _, ok := r.data[field]; !ok && r.lazy {
		if err := r.load(ctx); err != nil {
			return nil, err
		}
	}
	value, ok := r.data[field]
	if !ok {
		return nil, fmt.Errorf("%s resource has no field %q", r.mgr.desc.Name, field)
	}
	return value, nil
}

// load is the single lazy-to-loaded transition.
func (r *Resource) load(ctx context.Context) error {
	data, err := r.mgr.conn.getJSONMap(ctx, r.mgr.singleEndpoint(r.Key()), nil)
	if err != nil {
		return err
	}
	r.data = data
	r.lazy = false
	r.mgr.cache.Put(r)
	return nil
}

// Update pushes the given fields and returns the refreshed resource.
func (r *Resource) Update(ctx context.Context, params map[string]any) (*Resource, error) {
	return r.mgr.Update(ctx, r, params)
}

// Delete removes the resource remotely and evicts it from the cache.
func (r *Resource) Delete(ctx context.Context) error {
	return r.mgr.Delete(ctx, r)
}

// Action executes a named action against the resource.
func (r *Resource) Action(ctx context.Context, action string, params map[string]any) (*Resource, error) {
	return r.mgr.Action(ctx, r, action, params)
}

// Nested returns a manager for a collection exposed underneath this
// resource (e.g. the issues of one project). It shares the connection's
// per-type cache, so nested and root fetches stay coherent.
func (r *Resource) Nested(desc Descriptor) *Manager {
	return NewManager(desc, r.mgr.conn, r.mgr.singleEndpoint(r.Key()))
}
