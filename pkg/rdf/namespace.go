package rdf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cayleygraph/quad/voc"
	rdfvoc "github.com/cayleygraph/quad/voc/rdf"
	rdfsvoc "github.com/cayleygraph/quad/voc/rdfs"
	"github.com/cayleygraph/quad/voc/schema"
)

// Namespace binds a prefix (without the trailing colon) to a namespace IRI.
type Namespace struct {
	Prefix string `json:"prefix" yaml:"prefix"`
	URI    string `json:"uri" yaml:"uri"`
}

// DefaultNamespaces are registered by NewNamespaceManager in addition to
// the vocabularies cayley registers on import.
var DefaultNamespaces = []Namespace{
	{Prefix: trimColon(rdfvoc.Prefix), URI: rdfvoc.NS},
	{Prefix: trimColon(rdfsvoc.Prefix), URI: rdfsvoc.NS},
	{Prefix: trimColon(schema.Prefix), URI: schema.NS},
	{Prefix: "xsd", URI: NamespaceXSD},
	{Prefix: "owl", URI: "http://www.w3.org/2002/07/owl#"},
	{Prefix: "xml", URI: "http://www.w3.org/XML/1998/namespace"},
	{Prefix: "foaf", URI: "http://xmlns.com/foaf/0.1/"},
	{Prefix: "dc", URI: "http://purl.org/dc/elements/1.1/"},
	{Prefix: "dcterms", URI: "http://purl.org/dc/terms/"},
	{Prefix: "skos", URI: "http://www.w3.org/2004/02/skos/core#"},
}

// NamespaceManager expands CURIEs and compacts IRIs against a fixed set of
// prefixes. It is safe for concurrent use once constructed.
type NamespaceManager struct {
	ns           *voc.Namespaces
	byPrefix     map[string]string
	longestFirst []voc.Namespace
}

// NewNamespaceManager builds a registry from the cayley global namespaces,
// DefaultNamespaces and extra (prefix -> IRI). Later entries replace
// earlier ones that use the same prefix or the same IRI.
func NewNamespaceManager(extra map[string]string) (*NamespaceManager, error) {
	byPrefix := make(map[string]string)
	byURI := make(map[string]string)
	bind := func(prefix, uri string) {
		if old, ok := byPrefix[prefix]; ok {
			delete(byURI, old)
		}
		if old, ok := byURI[uri]; ok {
			delete(byPrefix, old)
		}
		byPrefix[prefix] = uri
		byURI[uri] = prefix
	}

	for _, n := range voc.List() {
		bind(trimColon(n.Prefix), n.Full)
	}
	for _, n := range DefaultNamespaces {
		bind(n.Prefix, n.URI)
	}

	prefixes := make([]string, 0, len(extra))
	for p := range extra {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, p := range prefixes {
		if err := validatePrefix(p); err != nil {
			return nil, err
		}
		uri := strings.TrimSpace(extra[p])
		if !strings.Contains(uri, ":") {
			return nil, fmt.Errorf("namespace %q: %q is not an absolute IRI", p, uri)
		}
		bind(p, uri)
	}

	ns := new(voc.Namespaces)
	for prefix, uri := range byPrefix {
		ns.Register(voc.Namespace{Full: uri, Prefix: prefix + ":"})
	}

	// voc.Namespaces.ShortIRI walks a map, so nested namespaces would
	// compact nondeterministically.
	longestFirst := ns.List()
	sort.SliceStable(longestFirst, func(i, j int) bool {
		return len(longestFirst[i].Full) > len(longestFirst[j].Full)
	})

	return &NamespaceManager{ns: ns, byPrefix: byPrefix, longestFirst: longestFirst}, nil
}

// Expand turns prefix:local into a full IRI.
func (m *NamespaceManager) Expand(curie string) (string, error) {
	idx := strings.Index(curie, ":")
	if idx < 0 {
		return "", fmt.Errorf("%q is not a prefixed name", curie)
	}
	if _, ok := m.byPrefix[curie[:idx]]; !ok {
		return "", fmt.Errorf("unknown prefix %q", curie[:idx])
	}
	return m.ns.FullIRI(curie), nil
}

// Compact returns the prefix:local form of iri when a registered namespace
// matches. The longest matching namespace wins.
func (m *NamespaceManager) Compact(iri string) (string, bool) {
	for _, n := range m.longestFirst {
		if strings.HasPrefix(iri, n.Full) {
			return n.Prefix + iri[len(n.Full):], true
		}
	}
	return iri, false
}

// Lookup returns the namespace IRI bound to prefix.
func (m *NamespaceManager) Lookup(prefix string) (string, bool) {
	uri, ok := m.byPrefix[prefix]
	return uri, ok
}

// PrefixFor returns the prefix of the namespace that iri belongs to.
func (m *NamespaceManager) PrefixFor(iri string) (string, bool) {
	short, ok := m.Compact(iri)
	if !ok {
		return "", false
	}
	return short[:strings.Index(short, ":")], true
}

// Namespaces lists every binding sorted by prefix.
func (m *NamespaceManager) Namespaces() []Namespace {
	out := make([]Namespace, 0, len(m.byPrefix))
	for _, n := range m.ns.List() {
		out = append(out, Namespace{Prefix: trimColon(n.Prefix), URI: n.Full})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out
}

func validatePrefix(p string) error {
	if p == "" {
		return fmt.Errorf("empty namespace prefix")
	}
	for i, r := range p {
		if i == 0 && !isPNCharsBase(r) {
			return fmt.Errorf("invalid namespace prefix %q", p)
		}
		if !isPNChars(r) && r != '.' {
			return fmt.Errorf("invalid namespace prefix %q", p)
		}
	}
	if strings.HasSuffix(p, ".") {
		return fmt.Errorf("invalid namespace prefix %q", p)
	}
	return nil
}

func trimColon(prefix string) string {
	return strings.TrimSuffix(prefix, ":")
}
