// Package rest implements the generic caching REST resource layer that
// compiled pipeline stages call into.
//
// A Connection owns one HTTP session, one base URL, one auth strategy and a
// per-resource-type cache table. Managers are bound to a connection plus an
// optional nesting context (the parent resource's single-item endpoint) and
// issue list/get/create/update/delete/action calls with transparent, lazy
// pagination. Resources are cached by primary key and by arbitrary aliases;
// a resource fetched through a nested path and the same resource fetched at
// the root resolve to the same cached object.
//
// Connections and their caches are owned by a single logical run: they are
// process-local and unsynchronized, and there is no retry policy beyond
// what the caller composes per call site.
package rest
