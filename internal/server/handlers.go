package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aleksaelezovic/vocabs/internal/forms"
	"github.com/aleksaelezovic/vocabs/pkg/rdf"
	"github.com/aleksaelezovic/vocabs/pkg/vocab"
)

const maxImportBytes = 10 << 20

// pathID parses the {id} URL parameter. Malformed ids are treated as
// missing objects.
func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// serviceError maps a service error to a response: ErrNotFound is a 404,
// anything else a logged 500.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, vocab.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	s.internalError(w, r, err)
}

func (s *Server) handlePrefixes(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "prefixes.html", "Prefixes", s.svc.Namespaces().Namespaces())
}

func (s *Server) handleListVocabularies(w http.ResponseWriter, r *http.Request) {
	vocabularies, err := s.svc.ListVocabularies(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "index.html", "Vocabularies", map[string]any{
		"Vocabularies": vocabularies,
	})
}

func (s *Server) handleCreateVocabulary(w http.ResponseWriter, r *http.Request) {
	uri := strings.TrimSpace(r.PostFormValue("vocabulary_uri"))
	if uri == "" {
		s.redirect(w, r, "/")
		return
	}

	v, err := s.svc.CreateVocabulary(r.Context(), uri)
	if err != nil {
		if errors.Is(err, vocab.ErrInvalidValue) {
			s.flash(w, r, fmt.Sprintf("Vocabulary was not created: %v.", err))
			s.redirect(w, r, "/")
			return
		}
		s.internalError(w, r, err)
		return
	}
	s.redirect(w, r, fmt.Sprintf("/vocabulary/%d", v.ID))
}

func (s *Server) handleShowVocabulary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	v, err := s.svc.GetVocabulary(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	terms, err := s.svc.ListTerms(r.Context(), id)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	predicates, err := s.svc.ListPredicates(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "vocabulary.html", v.URI, map[string]any{
		"Vocabulary": v,
		"Terms":      terms,
		"Predicates": predicates,
	})
}

func (s *Server) handleAddTerm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	v, err := s.svc.GetVocabulary(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	back := fmt.Sprintf("/vocabulary/%d", v.ID)
	name := strings.TrimSpace(r.PostFormValue("term_name"))
	if name == "" {
		s.redirect(w, r, back)
		return
	}

	rdfType := r.PostFormValue("rdf_type")
	if _, err := s.svc.AddTerm(r.Context(), v.ID, name, rdfType); err != nil {
		if errors.Is(err, vocab.ErrInvalidValue) {
			s.flash(w, r, fmt.Sprintf("Term %q was not created: %v.", name, err))
			s.redirect(w, r, back)
			return
		}
		s.serviceError(w, r, err)
		return
	}
	s.redirect(w, r, back)
}

func (s *Server) handleExportGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	format := rdf.NegotiateFormat(r.Header.Get("Accept"))
	if name := r.URL.Query().Get("format"); name != "" {
		f, err := rdf.ParseFormat(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}

	data, err := s.svc.Export(r.Context(), id, format)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.metrics.recordExport(string(format))

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data) // #nosec G104 - client went away
}

func (s *Server) handleImportGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.writeError(w, http.StatusNotFound, "vocabulary not found")
		return
	}
	if _, err := s.svc.GetVocabulary(r.Context(), id); err != nil {
		if errors.Is(err, vocab.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "vocabulary not found")
			return
		}
		s.internalError(w, r, err)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		s.writeError(w, http.StatusBadRequest, "Missing Content-Type header")
		return
	}
	parser, err := rdf.NewParser(contentType)
	if err != nil {
		s.writeError(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("Unsupported content type: %s. Supported types: %v", contentType, rdf.GetSupportedContentTypes()))
		return
	}

	triples, err := parser.Parse(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Parse error: %v", err))
		return
	}

	summary, err := s.svc.ImportGraph(r.Context(), id, triples)
	if err != nil {
		s.logger.Error("Graph import failed", zap.Uint("vocabulary_id", id), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Import failed")
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleShowTerm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	term, err := s.svc.GetTerm(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	properties, err := s.svc.ListProperties(r.Context(), id)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	predicates, err := s.svc.ListPredicates(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "term.html", term.Name, map[string]any{
		"Term":       term,
		"Properties": properties,
		"Predicates": predicates,
	})
}

func (s *Server) handleDeleteTerm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.svc.DeleteTerm(r.Context(), id); err != nil {
		s.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleShowProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	property, err := s.svc.GetProperty(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	term, err := s.svc.GetTerm(r.Context(), property.TermID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "property.html", "Property", map[string]any{
		"Property": property,
		"Term":     term,
	})
}

func (s *Server) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.svc.DeleteProperty(r.Context(), id); err != nil {
		s.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// renderPropertyForm shows the create/edit form with any field errors.
func (s *Server) renderPropertyForm(w http.ResponseWriter, r *http.Request, status int, title, action string, form *forms.PropertyForm, term vocab.Term) {
	s.render(w, r, status, "property_form.html", title, map[string]any{
		"Form":   form,
		"Action": action,
		"Term":   term,
	})
}

func newPropertyAction(form *forms.PropertyForm) string {
	return "/property/new?" + url.Values{
		forms.FieldPredicate: {form.Predicate},
		forms.FieldTerm:      {form.TermID},
	}.Encode()
}

func (s *Server) handleNewProperty(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	curie := strings.TrimSpace(query.Get(forms.FieldPredicate))
	termParam := strings.TrimSpace(query.Get(forms.FieldTerm))
	if curie == "" || termParam == "" {
		http.Error(w, "predicate and term_id are required", http.StatusBadRequest)
		return
	}

	termID, err := strconv.ParseUint(termParam, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	term, err := s.svc.GetTerm(r.Context(), uint(termID))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	predicate, err := s.svc.ResolvePredicate(r.Context(), curie)
	if err != nil {
		if errors.Is(err, vocab.ErrInvalidValue) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.serviceError(w, r, err)
		return
	}

	form := &forms.PropertyForm{
		TermID:    strconv.FormatUint(uint64(term.ID), 10),
		Predicate: rdf.FormatN3(rdf.NewNamedNode(predicate.URI), s.svc.Namespaces()),
	}
	s.renderPropertyForm(w, r, http.StatusOK, "New property", newPropertyAction(form), form, term)
}

func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := forms.NewPropertyForm(r.PostForm)
	action := newPropertyAction(form)
	if form.Blank() {
		s.redirect(w, r, action)
		return
	}

	input, err := form.Validate(r.Context(), s.svc, s.svc.Namespaces())
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	var term vocab.Term
	if form.Valid() {
		property, err := s.svc.CreateProperty(r.Context(), input.TermID, input.Predicate, input.Value)
		switch {
		case err == nil:
			s.redirect(w, r, fmt.Sprintf("/property/%d", property.ID))
			return
		case errors.Is(err, vocab.ErrNotFound):
			form.Errors = map[string]string{forms.FieldTerm: "Select a valid term."}
		case errors.Is(err, vocab.ErrInvalidValue):
			form.Errors = map[string]string{forms.FieldValue: err.Error()}
		default:
			s.internalError(w, r, err)
			return
		}
	} else if id, err := strconv.ParseUint(form.TermID, 10, 64); err == nil {
		term, _ = s.svc.GetTerm(r.Context(), uint(id))
	}

	s.renderPropertyForm(w, r, http.StatusBadRequest, "New property", action, form, term)
}

func (s *Server) handleEditProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	property, err := s.svc.GetProperty(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	term, err := s.svc.GetTerm(r.Context(), property.TermID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	ns := s.svc.Namespaces()
	form := &forms.PropertyForm{
		TermID:    strconv.FormatUint(uint64(property.TermID), 10),
		Predicate: rdf.FormatN3(rdf.NewNamedNode(property.Predicate.URI), ns),
		Value:     property.ValueForEditing(ns),
	}
	s.renderPropertyForm(w, r, http.StatusOK, "Edit property", fmt.Sprintf("/property/%d/edit", id), form, term)
}

// handleUpdateProperty changes only the value; the term and predicate of an
// existing property are fixed.
func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	property, err := s.svc.GetProperty(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	action := fmt.Sprintf("/property/%d/edit", id)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := forms.NewPropertyForm(r.PostForm)
	if form.Blank() {
		s.redirect(w, r, action)
		return
	}
	form.TermID = strconv.FormatUint(uint64(property.TermID), 10)
	form.Predicate = rdf.FormatN3(rdf.NewNamedNode(property.Predicate.URI), s.svc.Namespaces())

	input, err := form.Validate(r.Context(), s.svc, s.svc.Namespaces())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if form.Valid() {
		if _, err := s.svc.UpdateProperty(r.Context(), id, input.Value); err != nil {
			s.serviceError(w, r, err)
			return
		}
		s.redirect(w, r, fmt.Sprintf("/property/%d", id))
		return
	}

	term, err := s.svc.GetTerm(r.Context(), property.TermID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.renderPropertyForm(w, r, http.StatusBadRequest, "Edit property", action, form, term)
}

func (s *Server) handleListPredicates(w http.ResponseWriter, r *http.Request) {
	predicates, err := s.svc.ListPredicates(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "predicates.html", "Predicates", map[string]any{
		"Predicates":  predicates,
		"ObjectTypes": vocab.ObjectTypes,
	})
}

func (s *Server) handleCreatePredicate(w http.ResponseWriter, r *http.Request) {
	input := strings.TrimSpace(r.PostFormValue("new_predicate"))
	if input == "" {
		s.redirect(w, r, "/predicates")
		return
	}

	_, err := s.svc.CreatePredicate(r.Context(), input, r.PostFormValue("object_type"))
	switch {
	case err == nil:
	case errors.Is(err, vocab.ErrInvalidValue):
		s.flash(w, r, fmt.Sprintf("Predicate %q could not be resolved to an IRI.", input))
	case errors.Is(err, vocab.ErrInvalidObjectType):
		s.flash(w, r, "Choose an object type: URIRef or Literal.")
	default:
		s.internalError(w, r, err)
		return
	}
	s.redirect(w, r, "/predicates")
}
