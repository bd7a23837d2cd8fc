// Package module mounts self-contained HTTP sub-applications under a
// one-segment path prefix, with plain mux routes (health checks) as the
// fallback.
package module

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/beacon/pkg/middleware"
)

// Module serves an inner handler with its prefix removed from the path.
type Module struct {
	prefix  string
	handler http.Handler
}

// New wraps inner with mws once, at construction. The prefix must be a single
// segment such as "/api".
func New(prefix string, inner http.Handler, mws ...middleware.Middleware) (*Module, error) {
	if !strings.HasPrefix(prefix, "/") || len(prefix) < 2 || strings.Contains(prefix[1:], "/") {
		return nil, fmt.Errorf("module prefix %q must be a single segment like /api", prefix)
	}
	return &Module{
		prefix:  prefix,
		handler: middleware.Chain(inner, mws...),
	}, nil
}

func (m *Module) Prefix() string {
	return m.prefix
}

func (m *Module) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, m.prefix)
	if rest == "" {
		rest = "/"
	}
	m.handler.ServeHTTP(w, withPath(r, rest))
}

func withPath(r *http.Request, path string) *http.Request {
	out := r.Clone(r.Context())
	u := *r.URL
	u.Path = path
	u.RawPath = ""
	out.URL = &u
	return out
}

// Router dispatches on the first path segment. Trailing slashes are dropped
// before matching.
type Router struct {
	modules map[string]*Module
	native  *http.ServeMux
}

func NewRouter() *Router {
	return &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
	}
}

func (r *Router) HandleNative(pattern string, h http.HandlerFunc) {
	r.native.HandleFunc(pattern, h)
}

func (r *Router) Mount(m *Module) {
	r.modules[m.prefix] = m
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		trimmed := strings.TrimRight(p, "/")
		if trimmed == "" {
			trimmed = "/"
		}
		req = withPath(req, trimmed)
	}

	if m, ok := r.modules[firstSegment(req.URL.Path)]; ok {
		m.ServeHTTP(w, req)
		return
	}
	r.native.ServeHTTP(w, req)
}

func firstSegment(path string) string {
	if len(path) < 2 {
		return path
	}
	if i := strings.IndexByte(path[1:], '/'); i >= 0 {
		return path[:i+1]
	}
	return path
}
