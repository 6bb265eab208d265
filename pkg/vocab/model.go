package vocab

import (
	"fmt"
	"strings"
	"time"

	"github.com/aleksaelezovic/vocabs/pkg/rdf"
)

// ObjectType constrains the values a predicate's properties may hold.
type ObjectType string

const (
	ObjectURIRef  ObjectType = "URIRef"
	ObjectLiteral ObjectType = "Literal"
)

// ObjectTypes lists the accepted object types in display order.
var ObjectTypes = []ObjectType{ObjectURIRef, ObjectLiteral}

func (o ObjectType) Valid() bool {
	return o == ObjectURIRef || o == ObjectLiteral
}

// ParseObjectType accepts "URIRef" or "Literal".
func ParseObjectType(s string) (ObjectType, error) {
	o := ObjectType(strings.TrimSpace(s))
	if !o.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidObjectType, s)
	}
	return o, nil
}

// ObjectTypeOf infers the object type a predicate needs to hold term.
func ObjectTypeOf(term rdf.Term) ObjectType {
	if term.Type() == rdf.TermTypeLiteral {
		return ObjectLiteral
	}
	return ObjectURIRef
}

type Vocabulary struct {
	ID        uint
	URI       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Term struct {
	ID           uint
	VocabularyID uint
	Vocabulary   Vocabulary
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// URI is the term's IRI: the vocabulary URI followed by the term name.
func (t Term) URI() string {
	return t.Vocabulary.URI + t.Name
}

type Predicate struct {
	ID         uint
	URI        string
	ObjectType ObjectType
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Property is one predicate/value pair attached to a term. For URIRef
// predicates Value is the full IRI; for Literal predicates it is the lexical
// form, optionally qualified by Language or Datatype (never both).
type Property struct {
	ID          uint
	TermID      uint
	PredicateID uint
	Predicate   Predicate
	Value       string
	Language    string
	Datatype    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Object returns the RDF term the property's value denotes.
func (p Property) Object() rdf.Term {
	if p.Predicate.ObjectType == ObjectURIRef {
		return rdf.NewNamedNode(p.Value)
	}
	switch {
	case p.Language != "":
		return rdf.NewLiteralWithLanguage(p.Value, p.Language)
	case p.Datatype != "":
		return rdf.NewLiteralWithDatatype(p.Value, rdf.NewNamedNode(p.Datatype))
	default:
		return rdf.NewLiteral(p.Value)
	}
}

// ValueForEditing renders the value the way it is typed into the property
// form: a prefixed name or <iri> for references, a quoted literal when a
// language or datatype is attached, bare text otherwise.
func (p Property) ValueForEditing(ns *rdf.NamespaceManager) string {
	obj := p.Object()
	if lit, ok := obj.(*rdf.Literal); ok && lit.Language == "" && lit.Datatype == nil {
		if !strings.HasPrefix(lit.Value, `"`) && !strings.HasPrefix(lit.Value, "'") {
			return lit.Value
		}
	}
	return rdf.FormatN3(obj, ns)
}

// SetObject stores term as the property's value after checking it against
// the predicate's object type.
func (p *Property) SetObject(term rdf.Term) error {
	switch t := term.(type) {
	case *rdf.NamedNode:
		if p.Predicate.ObjectType != ObjectURIRef {
			return fmt.Errorf("%w: %s expects a literal", ErrInvalidValue, p.Predicate.URI)
		}
		p.Value, p.Language, p.Datatype = t.IRI, "", ""
	case *rdf.Literal:
		if p.Predicate.ObjectType != ObjectLiteral {
			return fmt.Errorf("%w: %s expects an IRI", ErrInvalidValue, p.Predicate.URI)
		}
		p.Value, p.Language, p.Datatype = t.Value, t.Language, ""
		if t.Language == "" && t.Datatype != nil {
			p.Datatype = t.Datatype.IRI
		}
	default:
		return fmt.Errorf("%w: %s values cannot be stored", ErrInvalidValue, term.Type())
	}
	return nil
}

// ImportSummary reports what a graph import changed.
type ImportSummary struct {
	Terms      int `json:"terms"`
	Properties int `json:"properties"`
	Skipped    int `json:"skipped"`
}
