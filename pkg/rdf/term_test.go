package rdf

import (
	"testing"
)

func TestNamedNode_String(t *testing.T) {
	node := NewNamedNode("http://example.org/resource")
	expected := "<http://example.org/resource>"
	if node.String() != expected {
		t.Errorf("Expected %s, got %s", expected, node.String())
	}
}

func TestNamedNode_Equals(t *testing.T) {
	node1 := NewNamedNode("http://example.org/resource")
	node2 := NewNamedNode("http://example.org/resource")
	node3 := NewNamedNode("http://example.org/different")

	if !node1.Equals(node2) {
		t.Error("Expected equal NamedNodes to be equal")
	}
	if node1.Equals(node3) {
		t.Error("Expected different NamedNodes to not be equal")
	}
	if node1.Equals(NewLiteral("http://example.org/resource")) {
		t.Error("NamedNode should not equal Literal")
	}
}

func TestBlankNode_Equals(t *testing.T) {
	if !NewBlankNode("b1").Equals(NewBlankNode("b1")) {
		t.Error("Expected equal BlankNodes to be equal")
	}
	if NewBlankNode("b1").Equals(NewBlankNode("b2")) {
		t.Error("Expected different BlankNodes to not be equal")
	}
}

func TestLiteral_String(t *testing.T) {
	tests := []struct {
		name     string
		literal  *Literal
		expected string
	}{
		{"plain", NewLiteral("hello"), `"hello"`},
		{"language", NewLiteralWithLanguage("hello", "en"), `"hello"@en`},
		{"typed", NewIntegerLiteral(42), `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{"xsd string collapses", NewLiteralWithDatatype("hi", XSDString), `"hi"`},
		{"escapes", NewLiteral("a \"quoted\"\nline"), `"a \"quoted\"\nline"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.literal.String(); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestLiteral_Equals(t *testing.T) {
	if !NewLiteral("x").Equals(NewLiteral("x")) {
		t.Error("Expected equal plain literals to be equal")
	}
	if NewLiteral("x").Equals(NewLiteralWithLanguage("x", "en")) {
		t.Error("Plain literal should not equal language-tagged literal")
	}
	if NewLiteral("1").Equals(NewIntegerLiteral(1)) {
		t.Error("Plain literal should not equal typed literal")
	}
	if !NewIntegerLiteral(1).Equals(NewLiteralWithDatatype("1", XSDInteger)) {
		t.Error("Expected equal typed literals to be equal")
	}
}

func TestGraph_AddDeduplicates(t *testing.T) {
	g := NewGraph()
	s := NewNamedNode("http://example.org/s")
	p := NewNamedNode("http://example.org/p")

	if !g.Add(NewTriple(s, p, NewLiteral("o"))) {
		t.Fatal("Expected first add to change the graph")
	}
	if g.Add(NewTriple(s, p, NewLiteral("o"))) {
		t.Error("Expected duplicate add to be ignored")
	}
	if g.Len() != 1 {
		t.Errorf("Expected 1 triple, got %d", g.Len())
	}
}

func TestGraph_SubjectsAndIRIs(t *testing.T) {
	g := NewGraph()
	b := NewNamedNode("http://example.org/b")
	a := NewNamedNode("http://example.org/a")
	p := NewNamedNode("http://example.org/p")
	g.Add(NewTriple(b, p, NewIntegerLiteral(1)))
	g.Add(NewTriple(a, RDFType, NewNamedNode("http://example.org/Thing")))

	subjects := g.Subjects()
	if len(subjects) != 2 || !subjects[0].Equals(a) || !subjects[1].Equals(b) {
		t.Fatalf("Expected subjects [a b], got %v", subjects)
	}

	iris := g.IRIs()
	want := map[string]bool{
		"http://example.org/a":     true,
		"http://example.org/b":     true,
		"http://example.org/p":     true,
		"http://example.org/Thing": true,
		RDFType.IRI:                true,
		XSDInteger.IRI:             true,
	}
	if len(iris) != len(want) {
		t.Fatalf("Expected %d IRIs, got %v", len(want), iris)
	}
	for _, iri := range iris {
		if !want[iri] {
			t.Errorf("Unexpected IRI %s", iri)
		}
	}
}

func TestSerializeNTriples(t *testing.T) {
	g := NewGraph()
	s := NewNamedNode("http://example.org/s")
	g.Add(NewTriple(s, NewNamedNode("http://example.org/label"), NewLiteralWithLanguage("Tab\there", "EN")))
	g.Add(NewTriple(s, RDFType, NewNamedNode("http://example.org/Class")))

	expected := "<http://example.org/s> <http://example.org/label> \"Tab\\there\"@en .\n" +
		"<http://example.org/s> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/Class> .\n"
	if got := SerializeNTriples(g); got != expected {
		t.Errorf("Expected:\n%s\nGot:\n%s", expected, got)
	}
}
