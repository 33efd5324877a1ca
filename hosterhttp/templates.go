package hosterhttp

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/metabrainz/datasethoster-go"
	"github.com/metabrainz/datasethoster-go/record"
)

//go:embed templates/*.html
var templateFS embed.FS

type templateSet struct {
	t *template.Template
}

func loadTemplates() (*templateSet, error) {
	t := template.New("").Funcs(template.FuncMap{
		// Freeform output lines and query introductions may carry markup
		// that is passed through to presentation untouched.
		"raw": func(v any) template.HTML { return template.HTML(fmt.Sprint(v)) },
	})
	t, err := t.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &templateSet{t: t}, nil
}

// webPage is the template context for one query's interactive page.
type webPage struct {
	Slug         string
	Name         string
	Introduction template.HTML
	Fields       []record.Field
	Args         map[string]string
	Results      []datasethoster.OutputBlock
	JSONURL      string
	JSONPost     string
}

func (h *Handler) renderPage(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.t.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error("failed to render template",
			slog.String("template", name),
			slog.String("err", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) renderError(w http.ResponseWriter, status int, msg string) {
	h.renderPage(w, status, "error.html", struct{ Error string }{Error: msg})
}
