package rdf

import (
	"sort"
	"strings"
)

// SerializeTurtle writes the graph as Turtle with @prefix lines for the
// namespaces in context. Triples are grouped by subject; predicates keep
// their insertion order and repeated objects are joined with commas.
func SerializeTurtle(g *Graph, context map[string]string) string {
	c := newCompactor(context)
	var b strings.Builder

	prefixes := make([]string, 0, len(context))
	for p := range context {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, p := range prefixes {
		b.WriteString("@prefix " + p + ": <" + context[p] + "> .\n")
	}
	if len(prefixes) > 0 && g.Len() > 0 {
		b.WriteString("\n")
	}

	for i, subject := range g.Subjects() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(turtleTerm(subject, c))

		var order []string
		objects := make(map[string][]string)
		for _, t := range g.About(subject) {
			key := turtleTerm(t.Predicate, c)
			if t.Predicate.Equals(RDFType) {
				key = "a"
			}
			if _, ok := objects[key]; !ok {
				order = append(order, key)
			}
			objects[key] = append(objects[key], turtleTerm(t.Object, c))
		}

		for j, key := range order {
			if j == 0 {
				b.WriteString(" ")
			} else {
				b.WriteString(" ;\n    ")
			}
			b.WriteString(key + " " + strings.Join(objects[key], ", "))
		}
		b.WriteString(" .\n")
	}
	return b.String()
}

func turtleTerm(term Term, c *compactor) string {
	switch t := term.(type) {
	case *NamedNode:
		if short := c.compactIRI(t.IRI); short != t.IRI {
			if _, local, _ := strings.Cut(short, ":"); isSafeLocalName(local) {
				return short
			}
		}
		return "<" + t.IRI + ">"
	case *Literal:
		lexical := `"` + escapeString(t.Value) + `"`
		if t.Language != "" {
			return lexical + "@" + t.Language
		}
		if t.Datatype != nil && t.Datatype.IRI != XSDString.IRI {
			return lexical + "^^" + turtleTerm(t.Datatype, c)
		}
		return lexical
	default:
		return serializeTermCanonical(term)
	}
}
