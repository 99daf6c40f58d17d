package internal

import (
	"sort"
	"strings"
	"sync"
)

// scopedMiddleware is middleware bound to a path prefix.
type scopedMiddleware struct {
	prefix string
	mw     Middleware
}

// pipeline composes the three middleware tiers around a resolved
// handler: global middleware in registration order, then path-scoped
// middleware in ascending scope length (parents before nested scopes),
// then route-specific middleware, with the handler innermost.
type pipeline struct {
	global []Middleware
	scoped []scopedMiddleware
	mu     sync.RWMutex
}

func newPipeline() *pipeline {
	return &pipeline{}
}

// use appends global middleware.
func (p *pipeline) use(mw ...Middleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.global = append(p.global, mw...)
}

// useAt appends middleware scoped to a path prefix. The scoped list is
// kept sorted by prefix length; equal lengths preserve registration
// order so composition stays deterministic.
func (p *pipeline) useAt(prefix string, mw ...Middleware) {
	if prefix == "" {
		p.use(mw...)
		return
	}
	prefix = "/" + strings.Trim(prefix, "/")

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range mw {
		p.scoped = append(p.scoped, scopedMiddleware{prefix: prefix, mw: m})
	}
	sort.SliceStable(p.scoped, func(i, j int) bool {
		return len(p.scoped[i].prefix) < len(p.scoped[j].prefix)
	})
}

// scopeMatches reports whether a scope prefix applies to the path:
// exact match or a parent directory of it.
func scopeMatches(prefix, path string) bool {
	if prefix == "/" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// compose builds the handler chain for one request. Middleware wraps
// outside-in, so the first middleware in the assembled order is the
// outermost layer of the onion.
func (p *pipeline) compose(path string, route []Middleware, h HandlerFunc) HandlerFunc {
	p.mu.RLock()
	chain := make([]Middleware, 0, len(p.global)+len(p.scoped)+len(route))
	chain = append(chain, p.global...)
	for _, sm := range p.scoped {
		if scopeMatches(sm.prefix, path) {
			chain = append(chain, sm.mw)
		}
	}
	p.mu.RUnlock()

	chain = append(chain, route...)

	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}
