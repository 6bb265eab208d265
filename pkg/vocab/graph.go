package vocab

import (
	"github.com/aleksaelezovic/vocabs/pkg/rdf"
)

// BuildGraph produces one subject per term with one triple per property.
// properties is keyed by term ID; terms without properties contribute
// nothing.
func BuildGraph(terms []Term, properties map[uint][]Property) *rdf.Graph {
	g := rdf.NewGraph()
	for _, term := range terms {
		subject := rdf.NewNamedNode(term.URI())
		for _, p := range properties[term.ID] {
			g.Add(rdf.NewTriple(subject, rdf.NewNamedNode(p.Predicate.URI), p.Object()))
		}
	}
	return g
}
