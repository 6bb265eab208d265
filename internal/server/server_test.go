package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aleksaelezovic/vocabs/internal/config"
	"github.com/aleksaelezovic/vocabs/internal/storage/sqlite"
	"github.com/aleksaelezovic/vocabs/pkg/rdf"
	"github.com/aleksaelezovic/vocabs/pkg/vocab"
)

type testEnv struct {
	server *Server
	svc    *vocab.Service
}

func newTestEnv(t *testing.T, csrfEnabled bool, logger *zap.Logger) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(sqlite.DriverSQLite, filepath.Join(t.TempDir(), "vocabs_test.db"))
	require.NoError(t, err)
	require.NoError(t, sqlite.RunMigrations(ctx, db))
	repo := sqlite.NewRepository(db)
	t.Cleanup(func() { repo.Close() })

	ns, err := rdf.NewNamespaceManager(map[string]string{"ex": "http://example.org/"})
	require.NoError(t, err)

	if logger == nil {
		logger = zap.NewNop()
	}
	svc := vocab.NewService(repo, ns, logger)
	srv, err := NewServer(config.ServerConfig{CSRFEnabled: csrfEnabled}, "test-secret", svc, logger)
	require.NoError(t, err)

	return &testEnv{server: srv, svc: svc}
}

func (e *testEnv) do(t *testing.T, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

// sessionCookie returns the last session cookie set on the response.
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionName {
			found = c
		}
	}
	require.NotNil(t, found, "no session cookie set")
	return found
}

var csrfMeta = regexp.MustCompile(`<meta name="csrf-token" content="([^"]+)">`)

func (e *testEnv) mustVocabulary(t *testing.T, uri string) vocab.Vocabulary {
	t.Helper()
	v, err := e.svc.CreateVocabulary(context.Background(), uri)
	require.NoError(t, err)
	return v
}

func (e *testEnv) mustTerm(t *testing.T, v vocab.Vocabulary, name, rdfType string) vocab.Term {
	t.Helper()
	term, err := e.svc.AddTerm(context.Background(), v.ID, name, rdfType)
	require.NoError(t, err)
	return term
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, true, nil)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestPrefixes(t *testing.T) {
	env := newTestEnv(t, false, nil)

	rec := env.do(t, http.MethodGet, "/prefixes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "http://xmlns.com/foaf/0.1/")
	assert.Contains(t, body, "http://example.org/")
	assert.Less(t, strings.Index(body, "<code>dc:</code>"), strings.Index(body, "<code>xsd:</code>"), "prefixes are sorted")
}

func TestCreateVocabulary(t *testing.T) {
	env := newTestEnv(t, false, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/", url.Values{"vocabulary_uri": {"http://example.org/ns#"}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/vocabulary/1", rec.Header().Get("Location"))
	}

	all, err := env.svc.ListVocabularies(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	rec := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http://example.org/ns#")
}

func TestBlankInputRedirectsWithoutChanges(t *testing.T) {
	env := newTestEnv(t, false, nil)
	ctx := context.Background()
	v := env.mustVocabulary(t, "http://example.org/ns#")

	tests := []struct {
		target   string
		form     url.Values
		location string
	}{
		{"/", url.Values{"vocabulary_uri": {"  "}}, "/"},
		{"/vocabulary/1", url.Values{"term_name": {""}, "rdf_type": {"owl:Class"}}, "/vocabulary/1"},
		{"/predicates", url.Values{"new_predicate": {" "}, "object_type": {"Literal"}}, "/predicates"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.target, tt.form)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}

	vocabularies, err := env.svc.ListVocabularies(ctx)
	require.NoError(t, err)
	assert.Len(t, vocabularies, 1)
	terms, err := env.svc.ListTerms(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, terms)
	predicates, err := env.svc.ListPredicates(ctx)
	require.NoError(t, err)
	assert.Empty(t, predicates)
}

func TestShowVocabulary(t *testing.T) {
	env := newTestEnv(t, false, nil)
	v := env.mustVocabulary(t, "http://example.org/ns#")
	env.mustTerm(t, v, "Person", "owl:Class")

	rec := env.do(t, http.MethodGet, "/vocabulary/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/term/1")
	assert.Contains(t, rec.Body.String(), "rdf:type")

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/vocabulary/99", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/vocabulary/abc", nil).Code)
}

func TestAddTerm(t *testing.T) {
	env := newTestEnv(t, false, nil)
	ctx := context.Background()
	v := env.mustVocabulary(t, "http://example.org/ns#")

	rec := env.do(t, http.MethodPost, "/vocabulary/1", url.Values{"term_name": {"foo"}, "rdf_type": {"xsd:string"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/vocabulary/1", rec.Header().Get("Location"))

	terms, err := env.svc.ListTerms(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	props, err := env.svc.ListProperties(ctx, terms[0].ID)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, rdf.RDFType.IRI, props[0].Predicate.URI)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/vocabulary/99", url.Values{"term_name": {"foo"}}).Code)
}

func TestAddTerm_InvalidTypeFlashes(t *testing.T) {
	env := newTestEnv(t, false, nil)
	ctx := context.Background()
	v := env.mustVocabulary(t, "http://example.org/ns#")

	rec := env.do(t, http.MethodPost, "/vocabulary/1", url.Values{"term_name": {"foo"}, "rdf_type": {"nope:thing"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	terms, err := env.svc.ListTerms(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, terms)

	cookie := sessionCookie(t, rec)
	page := env.do(t, http.MethodGet, "/vocabulary/1", nil, cookie)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "was not created")

	// flashes are shown once
	again := env.do(t, http.MethodGet, "/vocabulary/1", nil, sessionCookie(t, page))
	assert.NotContains(t, again.Body.String(), "was not created")
}

func TestInvalidIRIInputFlashes(t *testing.T) {
	env := newTestEnv(t, false, nil)
	ctx := context.Background()

	rec := env.do(t, http.MethodPost, "/", url.Values{"vocabulary_uri": {"http://example.org/my vocab#"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	all, err := env.svc.ListVocabularies(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	page := env.do(t, http.MethodGet, "/", nil, sessionCookie(t, rec))
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Vocabulary was not created")

	v := env.mustVocabulary(t, "http://example.org/ns#")
	rec = env.do(t, http.MethodPost, "/vocabulary/1", url.Values{"term_name": {"foo bar"}, "rdf_type": {"owl:Class"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/vocabulary/1", rec.Header().Get("Location"))
	terms, err := env.svc.ListTerms(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, terms)

	page = env.do(t, http.MethodGet, "/vocabulary/1", nil, sessionCookie(t, rec))
	assert.Contains(t, page.Body.String(), "was not created")
	assert.Contains(t, page.Body.String(), "not allowed in an IRI")
}

func TestExportGraph(t *testing.T) {
	env := newTestEnv(t, false, nil)
	v := env.mustVocabulary(t, "http://example.org/ns#")
	env.mustTerm(t, v, "foo", "xsd:string")

	rec := env.do(t, http.MethodGet, "/vocabulary/1/graph", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/ld+json; charset=utf-8", rec.Header().Get("Content-Type"))

	var doc struct {
		Context map[string]string `json:"@context"`
		Graph   []map[string]any  `json:"@graph"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "http://www.w3.org/2001/XMLSchema#", doc.Context["xsd"])
	require.Len(t, doc.Graph, 1)
	assert.Equal(t, "xsd:string", doc.Graph[0]["@type"])

	ttl := env.do(t, http.MethodGet, "/vocabulary/1/graph?format=ttl", nil)
	require.Equal(t, http.StatusOK, ttl.Code)
	assert.Equal(t, "text/turtle; charset=utf-8", ttl.Header().Get("Content-Type"))
	assert.Contains(t, ttl.Body.String(), "a xsd:string")

	req := httptest.NewRequest(http.MethodGet, "/vocabulary/1/graph", nil)
	req.Header.Set("Accept", "application/n-triples")
	nt := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(nt, req)
	require.Equal(t, http.StatusOK, nt.Code)
	assert.Equal(t, "application/n-triples; charset=utf-8", nt.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/vocabulary/1/graph?format=rdfxml", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/vocabulary/99/graph", nil).Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.server.metrics.exports.WithLabelValues("jsonld")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.server.metrics.exports.WithLabelValues("ttl")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.server.metrics.exports.WithLabelValues("nt")))
}

func TestImportGraph(t *testing.T) {
	env := newTestEnv(t, false, nil)
	ctx := context.Background()
	v := env.mustVocabulary(t, "http://example.org/ns#")

	body := `{
		"@context": {
			"ex": "http://example.org/ns#",
			"owl": "http://www.w3.org/2002/07/owl#",
			"rdfs": "http://www.w3.org/2000/01/rdf-schema#"
		},
		"@graph": [
			{"@id": "ex:Person", "@type": "owl:Class", "rdfs:label": {"@value": "Person", "@language": "en"}},
			{"@id": "http://other.example/Thing", "@type": "owl:Class"}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/vocabulary/1/graph", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/ld+json")
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary vocab.ImportSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, vocab.ImportSummary{Terms: 1, Properties: 2, Skipped: 1}, summary)

	terms, err := env.svc.ListTerms(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, "Person", terms[0].Name)

	req = httptest.NewRequest(http.MethodPost, "/vocabulary/1/graph", strings.NewReader("<a>,<b>,<c>"))
	req.Header.Set("Content-Type", "text/csv")
	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/vocabulary/1/graph", strings.NewReader("<a> <b> ."))
	req.Header.Set("Content-Type", "text/turtle")
	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	turtle := "@prefix ex: <http://example.org/ns#> .\n" +
		"@prefix owl: <http://www.w3.org/2002/07/owl#> .\n\n" +
		"ex:Animal a owl:Class ;\n    ex:legs 4 .\n"
	req = httptest.NewRequest(http.MethodPost, "/vocabulary/1/graph", strings.NewReader(turtle))
	req.Header.Set("Content-Type", "text/turtle; charset=utf-8")
	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary = vocab.ImportSummary{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, vocab.ImportSummary{Terms: 1, Properties: 2}, summary)

	req = httptest.NewRequest(http.MethodPost, "/vocabulary/1/graph", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/ld+json")
	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cyclic := `{"@context": {"a": "b", "b": "a"}, "@id": "http://example.org/ns#X", "a": "v"}`
	req = httptest.NewRequest(http.MethodPost, "/vocabulary/1/graph", strings.NewReader(cyclic))
	req.Header.Set("Content-Type", "application/ld+json")
	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cyclic @context")
}

func TestTermAndDelete(t *testing.T) {
	env := newTestEnv(t, false, nil)
	ctx := context.Background()
	v := env.mustVocabulary(t, "http://example.org/ns#")
	term := env.mustTerm(t, v, "foo", "owl:Class")

	rec := env.do(t, http.MethodGet, "/term/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "owl:Class")

	rec = env.do(t, http.MethodDelete, "/term/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	props, err := env.svc.ListProperties(ctx, term.ID)
	require.NoError(t, err)
	assert.Empty(t, props)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/term/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/term/1", nil).Code)
}

func TestNewProperty(t *testing.T) {
	env := newTestEnv(t, false, nil)
	ctx := context.Background()
	v := env.mustVocabulary(t, "http://example.org/ns#")
	term := env.mustTerm(t, v, "Person", "")
	_, err := env.svc.CreatePredicate(ctx, "rdfs:label", "Literal")
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/property/new?term_id=1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/property/new?predicate=rdfs:label", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/property/new?predicate=rdfs:label&term_id=99", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/property/new?predicate=foaf:name&term_id=1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/property/new?predicate=nope:name&term_id=1", nil).Code)

	rec := env.do(t, http.MethodGet, "/property/new?predicate=rdfs:label&term_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="value"`)

	// blank value: back to the form, nothing stored
	rec = env.do(t, http.MethodPost, "/property/new", url.Values{"term_id": {"1"}, "predicate": {"rdfs:label"}, "value": {""}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/property/new?predicate=rdfs%3Alabel&term_id=1", rec.Header().Get("Location"))

	// malformed literal: form re-rendered with an error
	rec = env.do(t, http.MethodPost, "/property/new", url.Values{"term_id": {"1"}, "predicate": {"rdfs:label"}, "value": {`"open`}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="error"`)

	props, err := env.svc.ListProperties(ctx, term.ID)
	require.NoError(t, err)
	assert.Empty(t, props)

	rec = env.do(t, http.MethodPost, "/property/new", url.Values{"term_id": {"1"}, "predicate": {"rdfs:label"}, "value": {`"Person"@en`}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/property/1", rec.Header().Get("Location"))

	props, err = env.svc.ListProperties(ctx, term.ID)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "en", props[0].Language)

	rec = env.do(t, http.MethodGet, "/property/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rdfs:label")
}

func TestEditProperty(t *testing.T) {
	env := newTestEnv(t, false, nil)
	ctx := context.Background()
	v := env.mustVocabulary(t, "http://example.org/ns#")
	term := env.mustTerm(t, v, "Person", "")
	label, err := env.svc.CreatePredicate(ctx, "rdfs:label", "Literal")
	require.NoError(t, err)
	prop, err := env.svc.CreateProperty(ctx, term.ID, label, rdf.NewLiteralWithLanguage("Person", "en"))
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/property/1/edit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="&#34;Person&#34;@en"`)

	rec = env.do(t, http.MethodPost, "/property/1/edit", url.Values{"value": {"Human"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/property/1", rec.Header().Get("Location"))

	updated, err := env.svc.GetProperty(ctx, prop.ID)
	require.NoError(t, err)
	assert.Equal(t, "Human", updated.Value)
	assert.Empty(t, updated.Language)

	rec = env.do(t, http.MethodPost, "/property/1/edit", url.Values{"value": {`"bad`}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/property/1/edit", url.Values{"value": {" "}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/property/1/edit", rec.Header().Get("Location"))

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/property/99/edit", nil).Code)
}

func TestDeleteProperty(t *testing.T) {
	env := newTestEnv(t, false, nil)
	ctx := context.Background()
	v := env.mustVocabulary(t, "http://example.org/ns#")
	term := env.mustTerm(t, v, "Person", "owl:Class")

	props, err := env.svc.ListProperties(ctx, term.ID)
	require.NoError(t, err)
	require.Len(t, props, 1)

	rec := env.do(t, http.MethodDelete, "/property/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/property/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/property/1", nil).Code)
}

func TestCreatePredicate(t *testing.T) {
	env := newTestEnv(t, false, nil)
	ctx := context.Background()

	rec := env.do(t, http.MethodPost, "/predicates", url.Values{"new_predicate": {"foaf:name"}, "object_type": {"Literal"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/predicates", rec.Header().Get("Location"))

	predicates, err := env.svc.ListPredicates(ctx)
	require.NoError(t, err)
	require.Len(t, predicates, 1)
	assert.Equal(t, "http://xmlns.com/foaf/0.1/name", predicates[0].URI)
	assert.Equal(t, vocab.ObjectLiteral, predicates[0].ObjectType)

	rec = env.do(t, http.MethodPost, "/predicates", url.Values{"new_predicate": {"unknown:name"}, "object_type": {"Literal"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	page := env.do(t, http.MethodGet, "/predicates", nil, sessionCookie(t, rec))
	assert.Contains(t, page.Body.String(), "could not be resolved")

	rec = env.do(t, http.MethodPost, "/predicates", url.Values{"new_predicate": {"foaf:age"}, "object_type": {"Number"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	predicates, err = env.svc.ListPredicates(ctx)
	require.NoError(t, err)
	assert.Len(t, predicates, 1)
}

func TestCSRF(t *testing.T) {
	env := newTestEnv(t, true, nil)
	form := url.Values{"vocabulary_uri": {"http://example.org/ns#"}}

	rec := env.do(t, http.MethodPost, "/", form)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	page := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, page.Code)
	cookie := sessionCookie(t, page)
	match := csrfMeta.FindStringSubmatch(page.Body.String())
	require.Len(t, match, 2)
	token := match[1]

	bad := url.Values{"vocabulary_uri": {"http://example.org/ns#"}, "csrf_token": {"wrong"}}
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/", bad, cookie).Code)

	good := url.Values{"vocabulary_uri": {"http://example.org/ns#"}, "csrf_token": {token}}
	rec = env.do(t, http.MethodPost, "/", good, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, "/term/1", nil, cookie).Code)

	req := httptest.NewRequest(http.MethodDelete, "/term/1", nil)
	req.AddCookie(cookie)
	req.Header.Set("X-CSRFToken", token)
	del := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(del, req)
	assert.Equal(t, http.StatusNotFound, del.Code, "token accepted, term missing")
}

func TestRequestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	env := newTestEnv(t, false, zap.New(core))
	env.mustVocabulary(t, "http://example.org/ns#")

	req := httptest.NewRequest(http.MethodGet, "/vocabulary/1", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	entries := logs.FilterMessage("HTTP request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/vocabulary/{id}", fields["route"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "req-123", fields["request_id"])

	rec = env.do(t, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, false, nil)
	env.do(t, http.MethodGet, "/vocabulary/99", nil)

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `vocabs_http_requests_total{method="GET",route="/vocabulary/{id}",status="404"} 1`)
	assert.Contains(t, body, "vocabs_http_request_duration_seconds")
}
