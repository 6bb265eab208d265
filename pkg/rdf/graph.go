package rdf

import "sort"

// Graph is an in-memory set of triples that keeps insertion order.
type Graph struct {
	triples []*Triple
	seen    map[string]struct{}
}

func NewGraph() *Graph {
	return &Graph{seen: make(map[string]struct{})}
}

// Add inserts a triple unless an equal one is already present. It reports
// whether the graph changed.
func (g *Graph) Add(t *Triple) bool {
	key := t.String()
	if _, ok := g.seen[key]; ok {
		return false
	}
	g.seen[key] = struct{}{}
	g.triples = append(g.triples, t)
	return true
}

func (g *Graph) Len() int {
	return len(g.triples)
}

// Triples returns the triples in insertion order. The slice must not be
// modified.
func (g *Graph) Triples() []*Triple {
	return g.triples
}

// Subjects returns the distinct subjects sorted by their N-Triples form.
func (g *Graph) Subjects() []Term {
	bySubject := make(map[string]Term)
	for _, t := range g.triples {
		bySubject[t.Subject.String()] = t.Subject
	}
	keys := make([]string, 0, len(bySubject))
	for k := range bySubject {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	subjects := make([]Term, len(keys))
	for i, k := range keys {
		subjects[i] = bySubject[k]
	}
	return subjects
}

// About returns the triples with the given subject in insertion order.
func (g *Graph) About(subject Term) []*Triple {
	var out []*Triple
	for _, t := range g.triples {
		if t.Subject.Equals(subject) {
			out = append(out, t)
		}
	}
	return out
}

// IRIs returns every IRI mentioned in the graph, including literal
// datatypes.
func (g *Graph) IRIs() []string {
	set := make(map[string]struct{})
	add := func(term Term) {
		switch v := term.(type) {
		case *NamedNode:
			set[v.IRI] = struct{}{}
		case *Literal:
			if v.Datatype != nil {
				set[v.Datatype.IRI] = struct{}{}
			}
		}
	}
	for _, t := range g.triples {
		add(t.Subject)
		add(t.Predicate)
		add(t.Object)
	}
	out := make([]string, 0, len(set))
	for iri := range set {
		out = append(out, iri)
	}
	sort.Strings(out)
	return out
}
