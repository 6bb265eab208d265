package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"jsonld":                         FormatJSONLD,
		"JSON-LD":                        FormatJSONLD,
		"application/ld+json; charset=x": FormatJSONLD,
		"nt":                             FormatNTriples,
		"application/n-triples":          FormatNTriples,
		"ttl":                            FormatTurtle,
		"text/turtle":                    FormatTurtle,
	}
	for input, want := range tests {
		got, err := ParseFormat(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseFormat("rdfxml")
	assert.Error(t, err)
}

func TestNegotiateFormat(t *testing.T) {
	assert.Equal(t, FormatJSONLD, NegotiateFormat(""))
	assert.Equal(t, FormatJSONLD, NegotiateFormat("*/*"))
	assert.Equal(t, FormatJSONLD, NegotiateFormat("text/html,application/xhtml+xml"))
	assert.Equal(t, FormatTurtle, NegotiateFormat("text/turtle;q=0.9"))
	assert.Equal(t, FormatNTriples, NegotiateFormat("application/n-triples"))
}

func TestNewParser(t *testing.T) {
	p, err := NewParser("application/ld+json; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "application/ld+json", p.ContentType())

	p, err = NewParser("text/turtle")
	require.NoError(t, err)
	assert.Equal(t, "text/turtle", p.ContentType())

	p, err = NewParser("application/n-triples")
	require.NoError(t, err)
	assert.Equal(t, "application/n-triples", p.ContentType())

	_, err = NewParser("text/csv")
	assert.Error(t, err)
}

func TestSerializeTurtle(t *testing.T) {
	ns := testNamespaces(t)
	g := NewGraph()
	a := NewNamedNode("http://example.org/A")
	label := NewNamedNode("http://www.w3.org/2000/01/rdf-schema#label")
	g.Add(NewTriple(a, RDFType, NewNamedNode("http://www.w3.org/2002/07/owl#Class")))
	g.Add(NewTriple(a, label, NewLiteralWithLanguage("A", "en")))
	g.Add(NewTriple(a, label, NewLiteral("Ay")))
	g.Add(NewTriple(a, NewNamedNode("http://example.org/seeAlso"), NewNamedNode("http://other.example/x")))

	data, err := Serialize(g, FormatTurtle, ns)
	require.NoError(t, err)

	expected := "@prefix ex: <http://example.org/> .\n" +
		"@prefix owl: <http://www.w3.org/2002/07/owl#> .\n" +
		"@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .\n" +
		"@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .\n" +
		"\n" +
		"ex:A a owl:Class ;\n" +
		"    rdfs:label \"A\"@en, \"Ay\" ;\n" +
		"    ex:seeAlso <http://other.example/x> .\n"
	assert.Equal(t, expected, string(data))
}

func TestSerialize_NTriples(t *testing.T) {
	g := NewGraph()
	g.Add(NewTriple(NewNamedNode("http://example.org/s"), NewNamedNode("http://example.org/p"), NewLiteral("o")))

	data, err := Serialize(g, FormatNTriples, nil)
	require.NoError(t, err)
	assert.Equal(t, "<http://example.org/s> <http://example.org/p> \"o\" .\n", string(data))

	_, err = Serialize(g, Format("rdfxml"), nil)
	assert.Error(t, err)
}
