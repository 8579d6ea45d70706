package rest

// Cache holds the resources of one type fetched over a connection, keyed by
// primary key with support for secondary aliases. An alias always resolves
// to the same stored resource as its primary key; putting a resource under
// an alias never creates a second independent copy.
type Cache struct {
	data    map[string]*Resource
	aliases map[string]string
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		data:    make(map[string]*Resource),
		aliases: make(map[string]string),
	}
}

// Has reports whether key is present, either as a primary key or an alias.
func (c *Cache) Has(key string) bool {
	if _, ok := c.data[key]; ok {
		return true
	}
	_, ok := c.aliases[key]
	return ok
}

// Get returns the resource stored under key or any alias equal to key.
func (c *Cache) Get(key string) *Resource {
	if r, ok := c.data[key]; ok {
		return r
	}
	if primary, ok := c.aliases[key]; ok {
		return c.data[primary]
	}
	return nil
}

// Put stores the resource under its primary key and records any aliases
// against that key. It returns the stored resource.
func (c *Cache) Put(r *Resource, aliases ...string) *Resource {
	key := r.Key()
	c.data[key] = r
	for _, alias := range aliases {
		c.aliases[alias] = key
	}
	return r
}

// Evict removes the entry for key (primary key or alias) together with
// every alias that references it. It returns the evicted resource, if any.
func (c *Cache) Evict(key string) *Resource {
	primary := key
	if p, ok := c.aliases[key]; ok {
		primary = p
	}
	r, ok := c.data[primary]
	if !ok {
		return nil
	}
	delete(c.data, primary)
	for alias, target := range c.aliases {
		if target == primary {
			delete(c.aliases, alias)
		}
	}
	return r
}
