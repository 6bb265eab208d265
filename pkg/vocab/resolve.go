package vocab

import (
	"fmt"
	"strings"

	"github.com/aleksaelezovic/vocabs/pkg/rdf"
)

// ResolveIRI turns user input into an absolute IRI. Input starting with
// http: or https: is taken as already absolute; anything else is read as a
// single N3 term (prefixed name or <iri>) and must denote an IRI.
func ResolveIRI(input string, ns *rdf.NamespaceManager) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", fmt.Errorf("%w: empty IRI", ErrInvalidValue)
	}
	if strings.HasPrefix(s, "http:") || strings.HasPrefix(s, "https:") {
		if !iriSafe(s) {
			return "", fmt.Errorf("%w: %q is not a valid IRI", ErrInvalidValue, s)
		}
		return s, nil
	}
	node, err := rdf.ParseIRI(s, ns)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return node.IRI, nil
}

// iriSafe reports whether s can appear between angle brackets in Turtle and
// N-Triples as written: no whitespace, control characters or <>"{}|^`\.
func iriSafe(s string) bool {
	for _, r := range s {
		if r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r) {
			return false
		}
	}
	return true
}

// ParseValue reads a property value typed into a form for a predicate of
// the given object type. References accept the same syntax as ResolveIRI.
// Literals accept a quoted N3 literal (with optional @lang or ^^datatype);
// any other text is taken verbatim as a plain literal.
func ParseValue(objectType ObjectType, input string, ns *rdf.NamespaceManager) (rdf.Term, error) {
	switch objectType {
	case ObjectURIRef:
		iri, err := ResolveIRI(input, ns)
		if err != nil {
			return nil, err
		}
		return rdf.NewNamedNode(iri), nil
	case ObjectLiteral:
		s := strings.TrimSpace(input)
		if s == "" {
			return nil, fmt.Errorf("%w: empty value", ErrInvalidValue)
		}
		if !strings.HasPrefix(s, `"`) && !strings.HasPrefix(s, "'") {
			return rdf.NewLiteral(s), nil
		}
		term, err := rdf.ParseN3(s, ns)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return term, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidObjectType, objectType)
	}
}
