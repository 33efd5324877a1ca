package datasethoster

import (
	"context"
	"fmt"
	"net/url"

	"github.com/metabrainz/datasethoster-go/record"
)

// Registry maps URL slugs to registered queries. Build one during startup,
// register every query the host wants to serve, then hand it to the HTTP
// handler. The registry is not synchronized: it must not be mutated once
// request handling begins, after which concurrent reads are safe.
type Registry struct {
	queries map[string]Query
	order   []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{queries: make(map[string]Query)}
}

// Register runs the query's one-time Setup and adds it to the registry. A
// Setup failure, an unusable slug, or an input/output prototype that cannot
// be expressed as a record schema all abort registration. Registering a
// second query under an existing slug silently replaces the first; last
// write wins.
func (r *Registry) Register(ctx context.Context, q Query) error {
	if err := q.Setup(ctx); err != nil {
		return fmt.Errorf("query setup failed: %w", err)
	}

	slug, _ := q.Names()
	if slug == "" {
		return fmt.Errorf("query slug must not be empty")
	}
	if url.PathEscape(slug) != slug {
		return fmt.Errorf("query slug %q is not URL-path-safe", slug)
	}

	// Derive the schemas now so a malformed prototype fails at startup
	// instead of on the first request.
	if _, err := record.Of(q.Inputs()); err != nil {
		return fmt.Errorf("query %q input prototype: %w", slug, err)
	}
	for _, out := range q.Outputs() {
		if _, err := record.Of(out); err != nil {
			return fmt.Errorf("query %q output prototype: %w", slug, err)
		}
	}

	if _, exists := r.queries[slug]; !exists {
		r.order = append(r.order, slug)
	}
	r.queries[slug] = q
	return nil
}

// Get resolves a slug to its registered query.
func (r *Registry) Get(slug string) (Query, bool) {
	q, ok := r.queries[slug]
	return q, ok
}

// Queries returns the registered queries in registration order.
func (r *Registry) Queries() []Query {
	out := make([]Query, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.queries[slug])
	}
	return out
}
