// Package routes declares a domain's HTTP surface as data so each handler
// can publish its routes and the API module can register them in one place.
package routes

import "net/http"

type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group is a set of routes sharing a path prefix.
type Group struct {
	Prefix string
	Routes []Route
}

// Pattern returns the ServeMux pattern for route r within g.
func (g Group) Pattern(r Route) string {
	return r.Method + " " + g.Prefix + r.Pattern
}

// Register adds every route of every group to mux. ServeMux panics on
// conflicting patterns, so a duplicate surfaces at startup.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		for _, r := range g.Routes {
			mux.HandleFunc(g.Pattern(r), r.Handler)
		}
	}
}
