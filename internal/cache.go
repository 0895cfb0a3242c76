package internal

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"DirectiveFinder/internal/directive"
)

type cacheKey struct {
	path    string
	inner   string
	size    int64
	modTime int64
}

// ResultCache remembers classifications of files that have not changed since.
// A nil *ResultCache is valid and caches nothing.
type ResultCache struct {
	lru *lru.Cache[cacheKey, directive.Kind]
}

// NewResultCache returns nil for non-positive sizes.
func NewResultCache(size int) (*ResultCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[cacheKey, directive.Kind](size)
	if err != nil {
		return nil, err
	}
	return &ResultCache{lru: c}, nil
}

func keyFor(path, inner string, info os.FileInfo) cacheKey {
	return cacheKey{path: path, inner: inner, size: info.Size(), modTime: info.ModTime().UnixNano()}
}

func (c *ResultCache) get(k cacheKey) (directive.Kind, bool) {
	if c == nil {
		return directive.Default, false
	}
	return c.lru.Get(k)
}

func (c *ResultCache) add(k cacheKey, kind directive.Kind) {
	if c == nil {
		return
	}
	c.lru.Add(k, kind)
}

// Len reports the number of cached entries.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
