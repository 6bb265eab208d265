package rdf

import (
	"fmt"
	"strings"
)

// SerializeNTriples writes the graph as N-Triples using the canonical term
// forms (RDF 1.1 escapes, xsd:string omitted). Input order is preserved.
func SerializeNTriples(g *Graph) string {
	var builder strings.Builder
	for _, triple := range g.Triples() {
		builder.WriteString(serializeTermCanonical(triple.Subject))
		builder.WriteString(" ")
		builder.WriteString(serializeTermCanonical(triple.Predicate))
		builder.WriteString(" ")
		builder.WriteString(serializeTermCanonical(triple.Object))
		builder.WriteString(" .\n")
	}
	return builder.String()
}

func serializeTermCanonical(term Term) string {
	switch t := term.(type) {
	case *NamedNode:
		return fmt.Sprintf("<%s>", t.IRI)
	case *BlankNode:
		return fmt.Sprintf("_:%s", t.ID)
	case *Literal:
		return serializeLiteralCanonical(t)
	default:
		return ""
	}
}

func serializeLiteralCanonical(lit *Literal) string {
	escaped := escapeString(lit.Value)

	if lit.Language != "" {
		return fmt.Sprintf(`"%s"@%s`, escaped, strings.ToLower(lit.Language))
	}
	if lit.Datatype != nil && lit.Datatype.IRI != XSDString.IRI {
		return fmt.Sprintf(`"%s"^^<%s>`, escaped, lit.Datatype.IRI)
	}
	return fmt.Sprintf(`"%s"`, escaped)
}

// escapeString applies the N-Triples string escapes: \t \b \n \r \f \" \\
// and \uXXXX for the remaining control characters.
func escapeString(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))

	for _, r := range s {
		switch r {
		case '\t':
			builder.WriteString(`\t`)
		case '\b':
			builder.WriteString(`\b`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\f':
			builder.WriteString(`\f`)
		case '"':
			builder.WriteString(`\"`)
		case '\\':
			builder.WriteString(`\\`)
		default:
			if r < 0x20 || r == 0x7F || r == 0xFFFE || r == 0xFFFF {
				builder.WriteString(fmt.Sprintf(`\u%04X`, r))
			} else {
				builder.WriteRune(r)
			}
		}
	}

	return builder.String()
}
