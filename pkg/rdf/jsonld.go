package rdf

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ContextFor returns the prefix -> namespace bindings of ns that are used by
// at least one IRI in the graph.
func ContextFor(g *Graph, ns *NamespaceManager) map[string]string {
	ctx := make(map[string]string)
	for _, iri := range g.IRIs() {
		prefix, ok := ns.PrefixFor(iri)
		if !ok {
			continue
		}
		if uri, ok := ns.Lookup(prefix); ok {
			ctx[prefix] = uri
		}
	}
	return ctx
}

// SerializeJSONLD writes the graph as a compacted JSON-LD document:
//
//	{"@context": {prefix: namespace}, "@graph": [node, ...]}
//
// Nodes are ordered by subject. rdf:type IRIs are written under @type,
// everything else under the compacted predicate IRI. Single values are
// written bare, repeated values as arrays.
func SerializeJSONLD(g *Graph, context map[string]string) ([]byte, error) {
	c := newCompactor(context)

	nodes := make([]map[string]any, 0)
	for _, subject := range g.Subjects() {
		node := map[string]any{"@id": c.compactSubject(subject)}
		var types []any
		values := make(map[string][]any)
		var order []string

		for _, t := range g.About(subject) {
			if t.Predicate.Equals(RDFType) {
				if iri, ok := t.Object.(*NamedNode); ok {
					types = append(types, c.compactIRI(iri.IRI))
					continue
				}
			}
			key := c.compactIRI(t.Predicate.IRI)
			if _, ok := values[key]; !ok {
				order = append(order, key)
			}
			values[key] = append(values[key], c.compactObject(t.Object))
		}

		if len(types) == 1 {
			node["@type"] = types[0]
		} else if len(types) > 1 {
			node["@type"] = types
		}
		for _, key := range order {
			if v := values[key]; len(v) == 1 {
				node[key] = v[0]
			} else {
				node[key] = v
			}
		}
		nodes = append(nodes, node)
	}

	doc := map[string]any{
		"@context": context,
		"@graph":   nodes,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error encoding JSON-LD: %w", err)
	}
	return data, nil
}

type compactor struct {
	prefixes []string
	context  map[string]string
}

func newCompactor(context map[string]string) *compactor {
	prefixes := make([]string, 0, len(context))
	for p := range context {
		prefixes = append(prefixes, p)
	}
	// Longest namespace first so nested namespaces win.
	sort.Slice(prefixes, func(i, j int) bool {
		ni, nj := context[prefixes[i]], context[prefixes[j]]
		if len(ni) != len(nj) {
			return len(ni) > len(nj)
		}
		return prefixes[i] < prefixes[j]
	})
	return &compactor{prefixes: prefixes, context: context}
}

func (c *compactor) compactIRI(iri string) string {
	for _, p := range c.prefixes {
		if ns := c.context[p]; strings.HasPrefix(iri, ns) && len(iri) > len(ns) {
			return p + ":" + iri[len(ns):]
		}
	}
	return iri
}

func (c *compactor) compactSubject(term Term) string {
	switch t := term.(type) {
	case *NamedNode:
		return c.compactIRI(t.IRI)
	case *BlankNode:
		return "_:" + t.ID
	default:
		return term.String()
	}
}

func (c *compactor) compactObject(term Term) any {
	switch t := term.(type) {
	case *NamedNode:
		return map[string]any{"@id": c.compactIRI(t.IRI)}
	case *BlankNode:
		return map[string]any{"@id": "_:" + t.ID}
	case *Literal:
		if t.Language != "" {
			return map[string]any{"@value": t.Value, "@language": t.Language}
		}
		if t.Datatype != nil && t.Datatype.IRI != XSDString.IRI {
			return map[string]any{"@value": t.Value, "@type": c.compactIRI(t.Datatype.IRI)}
		}
		return t.Value
	default:
		return term.String()
	}
}

// JSONLDParser reads the subset of JSON-LD that SerializeJSONLD produces
// plus the common hand-written forms:
//   - @context with prefix and term definitions (string or {"@id"})
//   - top-level object, array of objects or @graph
//   - @id, @type, value objects (@value with @language or @type)
//   - node references and nested node objects (blank nodes when no @id)
//   - native strings, numbers and booleans
//
// Remote contexts, @list, @set, @reverse and framing are not supported.
type JSONLDParser struct {
	blankNodes int
}

func NewJSONLDParser() *JSONLDParser {
	return &JSONLDParser{}
}

func (p *JSONLDParser) ContentType() string {
	return "application/ld+json"
}

// Parse parses a JSON-LD document into triples.
func (p *JSONLDParser) Parse(reader io.Reader) ([]*Triple, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading JSON-LD: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}

	var triples []*Triple
	switch v := doc.(type) {
	case map[string]any:
		ctx := p.readContext(v, nil)
		if graph, ok := v["@graph"].([]any); ok {
			for _, item := range graph {
				obj, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("unexpected @graph entry: %T", item)
				}
				nodeTriples, _, err := p.parseNode(obj, p.readContext(obj, ctx))
				if err != nil {
					return nil, err
				}
				triples = append(triples, nodeTriples...)
			}
			return triples, nil
		}
		triples, _, err = p.parseNode(v, ctx)
		if err != nil {
			return nil, err
		}
	case []any:
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("unexpected JSON-LD array entry: %T", item)
			}
			nodeTriples, _, err := p.parseNode(obj, p.readContext(obj, nil))
			if err != nil {
				return nil, err
			}
			triples = append(triples, nodeTriples...)
		}
	default:
		return nil, fmt.Errorf("unexpected JSON-LD structure: %T", doc)
	}
	return triples, nil
}

func (p *JSONLDParser) readContext(obj map[string]any, parent map[string]string) map[string]string {
	raw, ok := obj["@context"].(map[string]any)
	if !ok {
		return parent
	}
	ctx := make(map[string]string, len(parent)+len(raw))
	for k, v := range parent {
		ctx[k] = v
	}
	for k, v := range raw {
		switch def := v.(type) {
		case string:
			ctx[k] = def
		case map[string]any:
			if id, ok := def["@id"].(string); ok {
				ctx[k] = id
			}
		}
	}
	return ctx
}

func (p *JSONLDParser) parseNode(obj map[string]any, ctx map[string]string) ([]*Triple, Term, error) {
	var subject Term
	if id, ok := obj["@id"].(string); ok {
		term, err := p.idTerm(id, ctx)
		if err != nil {
			return nil, nil, err
		}
		subject = term
	} else {
		p.blankNodes++
		subject = NewBlankNode(fmt.Sprintf("b%d", p.blankNodes))
	}

	var triples []*Triple
	if rawType, ok := obj["@type"]; ok {
		for _, tv := range asSlice(rawType) {
			s, ok := tv.(string)
			if !ok {
				return nil, nil, fmt.Errorf("@type must be a string, got %T", tv)
			}
			typeIRI, err := expandIRI(s, ctx)
			if err != nil {
				return nil, nil, err
			}
			triples = append(triples, NewTriple(subject, RDFType, NewNamedNode(typeIRI)))
		}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		if !strings.HasPrefix(k, "@") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		predicateIRI, err := expandIRI(key, ctx)
		if err != nil {
			return nil, nil, err
		}
		predicate := NewNamedNode(predicateIRI)
		for _, value := range asSlice(obj[key]) {
			valueTriples, object, err := p.parseValue(value, ctx)
			if err != nil {
				return nil, nil, fmt.Errorf("property %s: %w", key, err)
			}
			triples = append(triples, NewTriple(subject, predicate, object))
			triples = append(triples, valueTriples...)
		}
	}
	return triples, subject, nil
}

func (p *JSONLDParser) parseValue(value any, ctx map[string]string) ([]*Triple, Term, error) {
	switch v := value.(type) {
	case string:
		return nil, NewLiteral(v), nil
	case bool:
		return nil, NewBooleanLiteral(v), nil
	case float64:
		if v == float64(int64(v)) {
			return nil, NewIntegerLiteral(int64(v)), nil
		}
		return nil, NewLiteralWithDatatype(strconv.FormatFloat(v, 'E', -1, 64), XSDDouble), nil
	case map[string]any:
		if raw, ok := v["@value"]; ok {
			lexical := fmt.Sprintf("%v", raw)
			if lang, ok := v["@language"].(string); ok {
				return nil, NewLiteralWithLanguage(lexical, lang), nil
			}
			if dt, ok := v["@type"].(string); ok {
				datatype, err := expandIRI(dt, ctx)
				if err != nil {
					return nil, nil, err
				}
				return nil, NewLiteralWithDatatype(lexical, NewNamedNode(datatype)), nil
			}
			return nil, NewLiteral(lexical), nil
		}
		if id, ok := v["@id"].(string); ok && len(v) == 1 {
			term, err := p.idTerm(id, ctx)
			return nil, term, err
		}
		return p.parseNode(v, ctx)
	default:
		return nil, nil, fmt.Errorf("unsupported JSON-LD value: %T", value)
	}
}

func (p *JSONLDParser) idTerm(id string, ctx map[string]string) (Term, error) {
	if strings.HasPrefix(id, "_:") {
		return NewBlankNode(id[2:]), nil
	}
	iri, err := expandIRI(id, ctx)
	if err != nil {
		return nil, err
	}
	return NewNamedNode(iri), nil
}

func asSlice(v any) []any {
	if arr, ok := v.([]any); ok {
		return arr
	}
	return []any{v}
}

// expandIRI expands a term or compact IRI using the context. Terms may be
// defined by other terms; a definition that leads back to itself is an
// error.
func expandIRI(iri string, ctx map[string]string) (string, error) {
	seen := make(map[string]bool)
	for !strings.Contains(iri, "://") {
		expanded, ok := ctx[iri]
		if !ok || expanded == iri {
			break
		}
		if seen[iri] {
			return "", fmt.Errorf("cyclic @context definition for %q", iri)
		}
		seen[iri] = true
		iri = expanded
	}
	if strings.Contains(iri, "://") {
		return iri, nil
	}
	if prefix, local, ok := strings.Cut(iri, ":"); ok {
		if ns, ok := ctx[prefix]; ok {
			return ns + local, nil
		}
	}
	return iri, nil
}
