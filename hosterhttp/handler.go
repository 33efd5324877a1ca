// Package hosterhttp exposes a Registry of dataset queries over HTTP. Every
// registered query is served as an interactive web page at /{slug} and as a
// machine interface at /{slug}/json (GET for single-input reads, POST for
// paginated batch reads), with the input and output shapes published as
// JSON Schema at /{slug}/schema.
package hosterhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/elnormous/contenttype"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"

	"github.com/metabrainz/datasethoster-go"
	"github.com/metabrainz/datasethoster-go/internal/logctx"
	"github.com/metabrainz/datasethoster-go/record"
)

var (
	_ http.Handler = (*Handler)(nil)

	jsonMediaType = contenttype.NewMediaType("application/json")
)

const paginationNotAllowed = "offset and count arguments are only supported for the POST method"

// Config carries the dependencies of a Handler.
type Config struct {
	// Registry resolves slugs to queries. Required; it must not be mutated
	// after the handler starts serving.
	Registry *datasethoster.Registry

	// LogHandler is an optional slog.Handler. If nil, logging is discarded.
	LogHandler slog.Handler

	// DefaultCount is the result window applied to POST requests without an
	// explicit count. Zero means datasethoster.DefaultCount.
	DefaultCount int
}

// Handler serves every query in a Registry. Each request is handled
// independently; the only shared state is the read-only registry, so the
// handler is safe for concurrent use.
type Handler struct {
	mux          *http.ServeMux
	log          *slog.Logger
	reg          *datasethoster.Registry
	tmpl         *templateSet
	defaultCount int
}

// NewHandler validates the config and builds the route table.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}

	logHandler := slog.DiscardHandler
	if cfg.LogHandler != nil {
		logHandler = cfg.LogHandler
	}

	defaultCount := cfg.DefaultCount
	if defaultCount <= 0 {
		defaultCount = datasethoster.DefaultCount
	}

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	h := &Handler{
		log:          slog.New(logctx.Handler{Handler: logHandler}),
		reg:          cfg.Registry,
		tmpl:         tmpl,
		defaultCount: defaultCount,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /{slug}", h.handleWeb)
	mux.HandleFunc("GET /{slug}/json", h.handleJSONGet)
	mux.HandleFunc("POST /{slug}/json", h.handleJSONPost)
	mux.HandleFunc("OPTIONS /{slug}/json", h.handlePreflight)
	mux.HandleFunc("GET /{slug}/schema", h.handleSchema)
	h.mux = mux

	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := logctx.WithRequestData(r.Context(), &logctx.RequestData{
		RequestID:  uuid.NewString(),
		Method:     r.Method,
		Path:       r.URL.Path,
		RemoteAddr: r.RemoteAddr,
	})
	h.mux.ServeHTTP(w, r.WithContext(ctx))
}

// handleIndex lists every hosted query.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Slug string
		Name string
	}
	var entries []entry
	for _, q := range h.reg.Queries() {
		slug, name := q.Names()
		entries = append(entries, entry{Slug: slug, Name: name})
	}
	h.renderPage(w, http.StatusOK, "index.html", entries)
}

// handleWeb serves the interactive page for one query. With no query
// parameters it only describes the query; with parameters it binds one
// input record, fetches and renders the grouped results. Pagination
// parameters are a user error here.
func (h *Handler) handleWeb(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	q, ok := h.reg.Get(slug)
	if !ok {
		h.renderError(w, http.StatusNotFound, notFoundMessage(slug))
		return
	}

	args := r.URL.Query()
	if hasPagination(args) {
		h.renderError(w, http.StatusBadRequest, paginationNotAllowed)
		return
	}

	schema, err := record.Of(q.Inputs())
	if err != nil {
		h.renderError(w, http.StatusInternalServerError, err.Error())
		return
	}

	page := &webPage{
		Slug:         slug,
		Name:         displayName(q),
		Introduction: template.HTML(q.Introduction()),
		Fields:       schema.Fields(),
		Args:         flattenArgs(args),
		JSONURL:      "/" + slug + "/json",
	}

	if len(args) > 0 {
		input, err := schema.BindQuery(args)
		if err != nil {
			h.renderError(w, http.StatusBadRequest, err.Error())
			return
		}

		ctx := logctx.WithQueryData(r.Context(), &logctx.QueryData{
			Slug:   slug,
			Source: datasethoster.SourceWeb.String(),
		})
		results, err := q.Fetch(ctx, []any{input}, datasethoster.SourceWeb, datasethoster.Page{})
		var redirect *datasethoster.RedirectError
		if errors.As(err, &redirect) {
			http.Redirect(w, r, redirect.URL, http.StatusFound)
			return
		}
		if err != nil {
			h.captureFetchFailure(r, err)
			// The interactive page is a trusted audience; showing the
			// diagnostic text is intentional.
			h.renderError(w, http.StatusInternalServerError, err.Error())
			return
		}

		blocks, err := datasethoster.GroupResults(results)
		if err != nil {
			h.captureFetchFailure(r, err)
			h.renderError(w, http.StatusInternalServerError, err.Error())
			return
		}
		page.Results = blocks

		// Pretty-print the bound input as a ready-to-paste POST body for
		// the machine interface.
		if pretty, err := json.MarshalIndent([]any{input}, "", "    "); err == nil {
			page.JSONPost = string(pretty)
		}
	}

	h.renderPage(w, http.StatusOK, "query.html", page)
}

// handleJSONGet serves a single-input machine read. Pagination parameters
// are not supported on GET; a fetch failure answers 500 with an empty JSON
// object so machine callers never see internals.
func (h *Handler) handleJSONGet(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	q, ok := h.reg.Get(slug)
	if !ok {
		h.writeJSONError(w, http.StatusNotFound, notFoundMessage(slug))
		return
	}

	args := r.URL.Query()
	if hasPagination(args) {
		h.writeJSONError(w, http.StatusBadRequest, paginationNotAllowed)
		return
	}

	schema, err := record.Of(q.Inputs())
	if err != nil {
		h.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	input, err := schema.BindQuery(args)
	if err != nil {
		h.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := logctx.WithQueryData(r.Context(), &logctx.QueryData{
		Slug:   slug,
		Source: datasethoster.SourceJSONGet.String(),
	})
	results, err := q.Fetch(ctx, []any{input}, datasethoster.SourceJSONGet, datasethoster.Page{})
	var redirect *datasethoster.RedirectError
	if errors.As(err, &redirect) {
		h.writeJSONError(w, http.StatusBadRequest, "redirects are only supported on the interactive page")
		return
	}
	if err != nil {
		h.captureFetchFailure(r, err)
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "{}")
		return
	}

	h.writeResults(w, results)
}

// handleJSONPost serves a batch machine read. The body is a JSON array of
// raw input objects bound all-or-nothing; offset and count query parameters
// default to 0 and the configured count.
func (h *Handler) handleJSONPost(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	q, ok := h.reg.Get(slug)
	if !ok {
		h.writeJSONError(w, http.StatusNotFound, notFoundMessage(slug))
		return
	}

	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		h.writeJSONError(w, http.StatusUnsupportedMediaType, "request body must be application/json")
		return
	}

	var items []map[string]any
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		h.writeJSONError(w, http.StatusBadRequest, "request body must be a JSON array of objects")
		return
	}

	schema, err := record.Of(q.Inputs())
	if err != nil {
		h.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	inputs, err := record.BindAll(schema, items)
	if err != nil {
		h.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := parsePage(r.URL.Query(), h.defaultCount)
	if err != nil {
		h.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := logctx.WithQueryData(r.Context(), &logctx.QueryData{
		Slug:   slug,
		Source: datasethoster.SourceJSONPost.String(),
	})
	results, err := q.Fetch(ctx, inputs, datasethoster.SourceJSONPost, page)
	var redirect *datasethoster.RedirectError
	if errors.As(err, &redirect) {
		h.writeJSONError(w, http.StatusBadRequest, "redirects are only supported on the interactive page")
		return
	}
	if err != nil {
		h.captureFetchFailure(r, err)
		// Same failure kind as the GET path but surfaced as 400 with an
		// error body. Observed behavior of the original service; machine
		// clients key off it.
		h.writeJSONError(w, http.StatusBadRequest, "query failed")
		return
	}

	h.writeResults(w, results)
}

// handleSchema publishes the query's input and output shapes as JSON
// Schema.
func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	q, ok := h.reg.Get(slug)
	if !ok {
		h.writeJSONError(w, http.StatusNotFound, notFoundMessage(slug))
		return
	}

	inSchema, err := record.Of(q.Inputs())
	if err != nil {
		h.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var outputs []*jsonschema.Schema
	for _, out := range q.Outputs() {
		s, err := record.Of(out)
		if err != nil {
			h.writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		outputs = append(outputs, s.JSONSchema())
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"inputs":  inSchema.JSONSchema(),
		"outputs": outputs,
	}); err != nil {
		h.log.ErrorContext(r.Context(), "failed to encode schema response", slog.String("err", err.Error()))
	}
}

func (h *Handler) captureFetchFailure(r *http.Request, err error) {
	sentry.CaptureException(err)
	h.log.ErrorContext(r.Context(), "query fetch failed", slog.String("err", err.Error()))
}

// writeResults serializes the raw output-record sequence as a JSON array,
// preserving record order. An empty sequence is an empty array, never null.
func (h *Handler) writeResults(w http.ResponseWriter, results []any) {
	if results == nil {
		results = []any{}
	}
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		h.log.Error("failed to encode results", slog.String("err", err.Error()))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, status int, msg string) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		h.log.Error("failed to encode error response", slog.String("err", err.Error()))
	}
}

func notFoundMessage(slug string) string {
	return fmt.Sprintf("Requested query '%s' is not hosted on this site.", slug)
}

func hasPagination(vals url.Values) bool {
	return vals.Has("offset") || vals.Has("count")
}

func parsePage(vals url.Values, defaultCount int) (datasethoster.Page, error) {
	page := datasethoster.Page{Offset: 0, Count: defaultCount}
	if vals.Has("offset") {
		n, err := strconv.Atoi(vals.Get("offset"))
		if err != nil || n < 0 {
			return page, fmt.Errorf("offset must be a non-negative integer")
		}
		page.Offset = n
	}
	if vals.Has("count") {
		n, err := strconv.Atoi(vals.Get("count"))
		if err != nil || n < 0 {
			return page, fmt.Errorf("count must be a non-negative integer")
		}
		page.Count = n
	}
	return page, nil
}

func flattenArgs(vals url.Values) map[string]string {
	out := make(map[string]string, len(vals))
	for key := range vals {
		out[key] = vals.Get(key)
	}
	return out
}

func displayName(q datasethoster.Query) string {
	_, name := q.Names()
	return name
}
