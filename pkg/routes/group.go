package routes

import "net/http"

// Group is a set of routes sharing a prefix. Children inherit the prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Walk visits every route in groups depth-first with its full ServeMux
// pattern.
func Walk(groups []Group, fn func(pattern string, route Route)) {
	for _, g := range groups {
		walk("", g, fn)
	}
}

func walk(parent string, g Group, fn func(string, Route)) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		fn(r.pattern(prefix), r)
	}
	for _, child := range g.Children {
		walk(prefix, child, fn)
	}
}

// Register adds every route in groups to mux.
func Register(mux *http.ServeMux, groups ...Group) {
	Walk(groups, func(pattern string, r Route) {
		mux.HandleFunc(pattern, r.Handler)
	})
}

// Patterns lists the full patterns of every route in groups.
func Patterns(groups ...Group) []string {
	var out []string
	Walk(groups, func(pattern string, _ Route) {
		out = append(out, pattern)
	})
	return out
}
