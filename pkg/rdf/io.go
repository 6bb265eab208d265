package rdf

import (
	"fmt"
	"io"
	"strings"
)

// Format identifies an RDF serialization.
type Format string

const (
	FormatJSONLD   Format = "jsonld"
	FormatNTriples Format = "nt"
	FormatTurtle   Format = "ttl"
)

// MediaType returns the bare media type of the format.
func (f Format) MediaType() string {
	switch f {
	case FormatNTriples:
		return "application/n-triples"
	case FormatTurtle:
		return "text/turtle"
	default:
		return "application/ld+json"
	}
}

// ContentType returns the media type served for the format.
func (f Format) ContentType() string {
	return f.MediaType() + "; charset=utf-8"
}

// ParseFormat accepts a short name (jsonld, json-ld, nt, ntriples, ttl,
// turtle) or a media type.
func ParseFormat(s string) (Format, error) {
	switch normalizeMediaType(s) {
	case "jsonld", "json-ld", "application/ld+json":
		return FormatJSONLD, nil
	case "nt", "ntriples", "n-triples", "application/n-triples":
		return FormatNTriples, nil
	case "ttl", "turtle", "text/turtle", "application/x-turtle":
		return FormatTurtle, nil
	default:
		return "", fmt.Errorf("unsupported RDF format: %s", s)
	}
}

// NegotiateFormat picks a format from an Accept header, defaulting to
// JSON-LD.
func NegotiateFormat(acceptHeader string) Format {
	accept := strings.ToLower(acceptHeader)

	if strings.Contains(accept, "text/turtle") || strings.Contains(accept, "application/x-turtle") {
		return FormatTurtle
	}
	if strings.Contains(accept, "application/n-triples") {
		return FormatNTriples
	}
	return FormatJSONLD
}

// Serialize renders the graph in the given format, compacting IRIs with the
// prefixes of ns that the graph uses.
func Serialize(g *Graph, f Format, ns *NamespaceManager) ([]byte, error) {
	switch f {
	case FormatNTriples:
		return []byte(SerializeNTriples(g)), nil
	case FormatTurtle:
		return []byte(SerializeTurtle(g, ContextFor(g, ns))), nil
	case FormatJSONLD:
		return SerializeJSONLD(g, ContextFor(g, ns))
	default:
		return nil, fmt.Errorf("unsupported RDF format: %s", f)
	}
}

// RDFParser is the interface for parsing RDF documents into triples
type RDFParser interface {
	Parse(reader io.Reader) ([]*Triple, error)
	ContentType() string
}

// NewParser creates an RDF parser based on the content type
func NewParser(contentType string) (RDFParser, error) {
	switch normalizeMediaType(contentType) {
	case "application/ld+json", "application/json":
		return NewJSONLDParser(), nil
	case "text/turtle", "application/x-turtle":
		return NewTurtleParser(), nil
	case "application/n-triples", "text/plain":
		return NewNTriplesParser(), nil
	default:
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
}

// GetSupportedContentTypes returns the media types NewParser accepts
func GetSupportedContentTypes() []string {
	return []string{"application/ld+json", "application/json", "text/turtle", "application/n-triples"}
}

func normalizeMediaType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = strings.TrimSpace(ct[:idx])
	}
	return ct
}
