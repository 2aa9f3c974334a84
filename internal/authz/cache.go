package authz

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultCacheSize bounds the decision cache. Entries are tiny (string key,
// bool value) and keyed by context fingerprint, so a few thousand covers the
// working set of an active session comfortably.
const defaultCacheSize = 4096

// DecisionCache memoizes engine decisions. There is no TTL: entries stay
// valid for the lifetime of the OrganizationContext they were computed
// against, and the whole cache is purged when that context is replaced.
// Context fingerprints in the keys additionally make entries from a stale
// context unreachable even before the purge lands.
//
// Safe for concurrent use.
type DecisionCache struct {
	entries *lru.Cache[string, bool]
}

// NewDecisionCache creates a cache bounded to size entries. A size of zero
// or less uses the default bound.
func NewDecisionCache(size int) (*DecisionCache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	entries, err := lru.New[string, bool](size)
	if err != nil {
		return nil, err
	}
	return &DecisionCache{entries: entries}, nil
}

// Get returns the memoized decision for a key, if present.
func (c *DecisionCache) Get(key string) (allowed, ok bool) {
	return c.entries.Get(key)
}

// Set memoizes a decision.
func (c *DecisionCache) Set(key string, allowed bool) {
	c.entries.Add(key, allowed)
}

// Purge drops every entry.
func (c *DecisionCache) Purge() {
	c.entries.Purge()
}

// Len returns the number of cached decisions.
func (c *DecisionCache) Len() int {
	return c.entries.Len()
}
