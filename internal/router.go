package internal

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Route binds a (method, pattern) pair to a handler and its own
// middleware list. Routes are created at registration time and are
// immutable thereafter.
type Route struct {
	method      string
	pattern     string
	compiled    compiledPattern
	middlewares []Middleware
	handler     HandlerFunc
}

// Method returns the HTTP method the route is registered for.
func (r *Route) Method() string { return r.method }

// Pattern returns the raw registration pattern.
func (r *Route) Pattern() string { return r.pattern }

// routeTable owns all registered routes, keyed by method.
// Routes for a method are tried in registration order: the first
// registered route wins on ambiguous overlap, with no specificity
// scoring. Registration is expected to complete before traffic begins;
// the table is still locked so late registration cannot corrupt it.
type routeTable struct {
	routes map[string][]*Route
	mu     sync.RWMutex
}

func newRouteTable() *routeTable {
	return &routeTable{routes: make(map[string][]*Route)}
}

// register compiles the pattern and appends a route for the method.
// Invalid patterns panic: they are programmer errors caught at startup,
// not request-time conditions.
func (t *routeTable) register(method, pattern string, h HandlerFunc, mw ...Middleware) *Route {
	if h == nil {
		panic(fmt.Sprintf("relay: nil handler for %s %s", method, pattern))
	}

	compiled, err := compilePattern(pattern)
	if err != nil {
		panic("relay: " + err.Error())
	}

	route := &Route{
		method:      method,
		pattern:     pattern,
		compiled:    compiled,
		middlewares: append([]Middleware(nil), mw...),
		handler:     h,
	}

	t.mu.Lock()
	t.routes[method] = append(t.routes[method], route)
	t.mu.Unlock()

	return route
}

// match resolves a still-escaped pathname to a route and its extracted
// parameters. Returns ErrRouteNotFound when no route for the method
// matches; a wrong method is indistinguishable from a wrong path.
func (t *routeTable) match(method, path string) (*Route, Params, error) {
	segs := splitPath(path)

	t.mu.RLock()
	candidates := t.routes[method]
	t.mu.RUnlock()

	for _, route := range candidates {
		if params, ok := route.compiled.match(segs); ok {
			return route, params, nil
		}
	}

	return nil, nil, ErrRouteNotFound
}

// Router is the interface handlers and plugins use to declare routes.
// The verb set is closed by construction: arbitrary method strings
// cannot be registered.
type Router interface {
	// GET registers a handler for GET requests.
	GET(path string, h HandlerFunc, mw ...Middleware)

	// POST registers a handler for POST requests.
	POST(path string, h HandlerFunc, mw ...Middleware)

	// PUT registers a handler for PUT requests.
	PUT(path string, h HandlerFunc, mw ...Middleware)

	// PATCH registers a handler for PATCH requests.
	PATCH(path string, h HandlerFunc, mw ...Middleware)

	// DELETE registers a handler for DELETE requests.
	DELETE(path string, h HandlerFunc, mw ...Middleware)

	// HEAD registers a handler for HEAD requests.
	HEAD(path string, h HandlerFunc, mw ...Middleware)

	// OPTIONS registers a handler for OPTIONS requests.
	OPTIONS(path string, h HandlerFunc, mw ...Middleware)

	// Route creates a route group with a pattern prefix.
	// Middleware added with Use inside the group is scoped to the prefix.
	Route(prefix string, fn func(r Router))

	// Use appends middleware to the pipeline. At the top level the
	// middleware is global; inside a Route group it is scoped to the
	// group prefix.
	Use(mw ...Middleware)

	// UseAt appends middleware scoped to the given path prefix.
	// Scoped middleware runs for requests whose path equals the prefix
	// or sits below it, parents before nested scopes.
	UseAt(prefix string, mw ...Middleware)

	// Mount attaches a plain http.Handler at the given pattern for all
	// verbs, including everything below it. The handler writes directly
	// to the wire; the response builder switches to passthrough mode.
	Mount(pattern string, h http.Handler)
}

// routerScope implements Router against an App, carrying the pattern
// prefix of the enclosing Route groups.
type routerScope struct {
	app    *App
	prefix string
}

func (r *routerScope) GET(path string, h HandlerFunc, mw ...Middleware) {
	r.app.table.register(http.MethodGet, r.join(path), h, mw...)
}

func (r *routerScope) POST(path string, h HandlerFunc, mw ...Middleware) {
	r.app.table.register(http.MethodPost, r.join(path), h, mw...)
}

func (r *routerScope) PUT(path string, h HandlerFunc, mw ...Middleware) {
	r.app.table.register(http.MethodPut, r.join(path), h, mw...)
}

func (r *routerScope) PATCH(path string, h HandlerFunc, mw ...Middleware) {
	r.app.table.register(http.MethodPatch, r.join(path), h, mw...)
}

func (r *routerScope) DELETE(path string, h HandlerFunc, mw ...Middleware) {
	r.app.table.register(http.MethodDelete, r.join(path), h, mw...)
}

func (r *routerScope) HEAD(path string, h HandlerFunc, mw ...Middleware) {
	r.app.table.register(http.MethodHead, r.join(path), h, mw...)
}

func (r *routerScope) OPTIONS(path string, h HandlerFunc, mw ...Middleware) {
	r.app.table.register(http.MethodOptions, r.join(path), h, mw...)
}

func (r *routerScope) Route(prefix string, fn func(Router)) {
	fn(&routerScope{app: r.app, prefix: r.join(prefix)})
}

func (r *routerScope) Use(mw ...Middleware) {
	if r.prefix == "" {
		r.app.pipe.use(mw...)
		return
	}
	r.app.pipe.useAt(r.prefix, mw...)
}

func (r *routerScope) UseAt(prefix string, mw ...Middleware) {
	r.app.pipe.useAt(r.join(prefix), mw...)
}

func (r *routerScope) Mount(pattern string, h http.Handler) {
	mounted := r.app.mountHandler(h)
	for _, method := range mountMethods {
		r.app.table.register(method, r.join(pattern), mounted)
		r.app.table.register(method, r.join(pattern)+"/*", mounted)
	}
}

// mountMethods is the verb set mounted handlers answer to.
var mountMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodHead,
	http.MethodOptions,
}

// join combines the scope prefix with a declared path.
func (r *routerScope) join(path string) string {
	if r.prefix == "" {
		return path
	}
	if path == "" || path == "/" {
		return r.prefix
	}
	return strings.TrimSuffix(r.prefix, "/") + path
}
