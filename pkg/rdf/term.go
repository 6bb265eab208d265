package rdf

import (
	"fmt"
	"strconv"
)

// TermType represents the type of an RDF term
type TermType byte

const (
	TermTypeNamedNode TermType = iota + 1
	TermTypeBlankNode
	TermTypeLiteral
)

func (t TermType) String() string {
	switch t {
	case TermTypeNamedNode:
		return "iri"
	case TermTypeBlankNode:
		return "bnode"
	case TermTypeLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Term represents an RDF term (IRI, blank node, or literal)
type Term interface {
	Type() TermType
	String() string
	Equals(other Term) bool
}

// NamedNode represents an IRI
type NamedNode struct {
	IRI string
}

func NewNamedNode(iri string) *NamedNode {
	return &NamedNode{IRI: iri}
}

func (n *NamedNode) Type() TermType {
	return TermTypeNamedNode
}

func (n *NamedNode) String() string {
	return fmt.Sprintf("<%s>", n.IRI)
}

func (n *NamedNode) Equals(other Term) bool {
	if on, ok := other.(*NamedNode); ok {
		return n.IRI == on.IRI
	}
	return false
}

// BlankNode represents a blank node
type BlankNode struct {
	ID string
}

func NewBlankNode(id string) *BlankNode {
	return &BlankNode{ID: id}
}

func (b *BlankNode) Type() TermType {
	return TermTypeBlankNode
}

func (b *BlankNode) String() string {
	return fmt.Sprintf("_:%s", b.ID)
}

func (b *BlankNode) Equals(other Term) bool {
	if ob, ok := other.(*BlankNode); ok {
		return b.ID == ob.ID
	}
	return false
}

// Literal represents an RDF literal. Language and Datatype are mutually
// exclusive; a literal with neither is an xsd:string.
type Literal struct {
	Value    string
	Language string
	Datatype *NamedNode
}

func NewLiteral(value string) *Literal {
	return &Literal{Value: value}
}

func NewLiteralWithLanguage(value, language string) *Literal {
	return &Literal{Value: value, Language: language}
}

func NewLiteralWithDatatype(value string, datatype *NamedNode) *Literal {
	if datatype != nil && datatype.IRI == XSDString.IRI {
		return &Literal{Value: value}
	}
	return &Literal{Value: value, Datatype: datatype}
}

func (l *Literal) Type() TermType {
	return TermTypeLiteral
}

// String returns the N-Triples form of the literal.
func (l *Literal) String() string {
	return serializeLiteralCanonical(l)
}

func (l *Literal) Equals(other Term) bool {
	ol, ok := other.(*Literal)
	if !ok {
		return false
	}
	if l.Value != ol.Value || l.Language != ol.Language {
		return false
	}
	if l.Datatype == nil || ol.Datatype == nil {
		return l.Datatype == nil && ol.Datatype == nil
	}
	return l.Datatype.Equals(ol.Datatype)
}

// DatatypeIRI returns the datatype IRI or "" for plain and language-tagged
// literals.
func (l *Literal) DatatypeIRI() string {
	if l.Datatype == nil {
		return ""
	}
	return l.Datatype.IRI
}

// Triple represents an RDF triple (subject, predicate, object)
type Triple struct {
	Subject   Term
	Predicate *NamedNode
	Object    Term
}

func NewTriple(subject Term, predicate *NamedNode, object Term) *Triple {
	return &Triple{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}
}

func (t *Triple) String() string {
	return fmt.Sprintf("%s %s %s .", t.Subject, t.Predicate, t.Object)
}

func (t *Triple) Equals(other *Triple) bool {
	return t.Subject.Equals(other.Subject) &&
		t.Predicate.Equals(other.Predicate) &&
		t.Object.Equals(other.Object)
}

const (
	NamespaceRDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NamespaceXSD = "http://www.w3.org/2001/XMLSchema#"
)

var (
	RDFType = NewNamedNode(NamespaceRDF + "type")

	XSDString   = NewNamedNode(NamespaceXSD + "string")
	XSDInteger  = NewNamedNode(NamespaceXSD + "integer")
	XSDDecimal  = NewNamedNode(NamespaceXSD + "decimal")
	XSDDouble   = NewNamedNode(NamespaceXSD + "double")
	XSDBoolean  = NewNamedNode(NamespaceXSD + "boolean")
	XSDDateTime = NewNamedNode(NamespaceXSD + "dateTime")
	XSDDate     = NewNamedNode(NamespaceXSD + "date")
)

func NewIntegerLiteral(value int64) *Literal {
	return NewLiteralWithDatatype(strconv.FormatInt(value, 10), XSDInteger)
}

func NewBooleanLiteral(value bool) *Literal {
	return NewLiteralWithDatatype(strconv.FormatBool(value), XSDBoolean)
}
