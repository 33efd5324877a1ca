package datasethoster

import (
	"context"
	"fmt"
)

// DefaultCount is the result window size applied to machine POST requests
// that do not supply an explicit count parameter.
const DefaultCount = 100

// RequestSource identifies which interface a fetch originated from. Queries
// may tailor behavior per source; in particular, pagination is only honored
// on SourceJSONPost.
type RequestSource int

const (
	// SourceWeb is the interactive web page.
	SourceWeb RequestSource = iota
	// SourceJSONGet is the machine GET interface.
	SourceJSONGet
	// SourceJSONPost is the machine POST (batch) interface.
	SourceJSONPost
)

func (s RequestSource) String() string {
	switch s {
	case SourceWeb:
		return "web"
	case SourceJSONGet:
		return "json_get"
	case SourceJSONPost:
		return "json_post"
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// Page is the pagination window for a batch fetch. The zero value means the
// request is not paginated; only the machine POST path carries a real window.
type Page struct {
	Offset int
	Count  int
}

// RedirectError signals that a query wants the caller redirected to another
// URL instead of receiving output records. It is control flow, not a
// failure: the interactive path answers with an HTTP redirect, while the
// machine paths report it as an unsupported outcome.
type RedirectError struct {
	URL string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("redirect to %s", e.URL)
}

// Query is the contract every hosted dataset query must satisfy. A Query is
// constructed and Setup() is invoked exactly once, during registration,
// before any request can reach it. It must not be mutated afterward; Fetch
// may be called from many requests concurrently, so any exclusive access to
// a backing resource must be serialized by the implementation.
type Query interface {
	// Setup performs one-time initialization, such as opening a backing
	// resource. A Setup failure aborts registration.
	Setup(ctx context.Context) error

	// Names returns the unique, URL-path-safe slug the query is mounted
	// under and its human-readable display name.
	Names() (slug, name string)

	// Introduction returns free text shown on the query's web page. It may
	// contain markup; it is passed through to presentation untouched.
	Introduction() string

	// Inputs returns a pointer to the input prototype struct. The record
	// schema derived from it governs validation of request parameters.
	Inputs() any

	// Outputs returns prototypes of the output shapes Fetch may yield. A
	// single Fetch call may interleave records of different declared shapes.
	Outputs() []any

	// Fetch runs the query. params holds one bound input record per request
	// item, each a value of the Inputs() struct type. page is meaningful
	// only when source is SourceJSONPost; ignoring it elsewhere is correct.
	// Returning a *RedirectError aborts normal output in favor of a
	// redirect. Any other error is terminal for the request.
	Fetch(ctx context.Context, params []any, source RequestSource, page Page) ([]any, error)
}
