package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"go.uber.org/zap"

	"github.com/aleksaelezovic/vocabs/pkg/rdf"
	"github.com/aleksaelezovic/vocabs/pkg/vocab"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "templates/layout.html"

// page is the data every template receives.
type page struct {
	Title     string
	CSRFToken string
	Flashes   []string
	Data      any
}

// parseTemplates parses each page together with the layout.
func parseTemplates(ns *rdf.NamespaceManager) (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"curie": func(iri string) string {
			return rdf.FormatN3(rdf.NewNamedNode(iri), ns)
		},
		"object": func(p vocab.Property) string {
			return rdf.FormatN3(p.Object(), ns)
		},
		"editValue": func(p vocab.Property) string {
			return p.ValueForEditing(ns)
		},
	}

	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		if p == layoutTemplate {
			continue
		}
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, layoutTemplate, p)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", p, err)
		}
		templates[p[len("templates/"):]] = t
	}
	return templates, nil
}

// render executes a page template into a buffer first so a template error
// still produces a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	t, ok := s.templates[name]
	if !ok {
		s.internalError(w, r, fmt.Errorf("template %s not found", name))
		return
	}

	p := page{
		Title:     title,
		CSRFToken: csrfToken(r),
		Flashes:   s.takeFlashes(w, r),
		Data:      data,
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, p); err != nil {
		s.internalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w) // #nosec G104 - client went away
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("Request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// writeJSON writes v as a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // #nosec G104 - client went away
}

// writeError writes a JSON error body for the machine-facing endpoints.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, map[string]any{
		"error": map[string]any{
			"code":    statusCode,
			"message": message,
		},
	})
}
