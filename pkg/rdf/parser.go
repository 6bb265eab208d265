package rdf

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// TurtleParser reads Turtle documents: @prefix/PREFIX directives, predicate
// lists (;), object lists (,) and the keyword a. N-Triples is read by the
// same parser since every N-Triples document is valid Turtle. Collections,
// blank node property lists and @base are not supported.
type TurtleParser struct {
	contentType string
}

// NewTurtleParser creates a parser for text/turtle
func NewTurtleParser() *TurtleParser {
	return &TurtleParser{contentType: "text/turtle"}
}

// NewNTriplesParser creates a parser for application/n-triples
func NewNTriplesParser() *TurtleParser {
	return &TurtleParser{contentType: "application/n-triples"}
}

func (p *TurtleParser) ContentType() string {
	return p.contentType
}

// Parse reads the whole document and returns its triples in document order.
func (p *TurtleParser) Parse(reader io.Reader) ([]*Triple, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	r := &n3Reader{input: string(data), prefixes: make(map[string]string)}
	r.length = len(r.input)

	var triples []*Triple
	for {
		r.skipSpaceAndComments()
		if r.pos >= r.length {
			break
		}

		if r.matchDirective("@prefix") || r.matchDirective("PREFIX") {
			if err := r.readPrefixDirective(); err != nil {
				return nil, r.documentError(err)
			}
			continue
		}

		statement, err := r.readStatement()
		if err != nil {
			return nil, r.documentError(err)
		}
		triples = append(triples, statement...)
	}
	return triples, nil
}

// documentError reports a syntax error by line instead of quoting the
// whole document.
func (r *n3Reader) documentError(err error) error {
	var syntaxErr *N3Error
	if !errors.As(err, &syntaxErr) {
		return err
	}
	line := 1 + strings.Count(r.input[:min(syntaxErr.Pos, r.length)], "\n")
	return fmt.Errorf("syntax error on line %d: %s", line, syntaxErr.Msg)
}

func (r *n3Reader) skipSpaceAndComments() {
	for r.pos < r.length {
		switch r.input[r.pos] {
		case ' ', '\t', '\n', '\r':
			r.pos++
		case '#':
			for r.pos < r.length && r.input[r.pos] != '\n' {
				r.pos++
			}
		default:
			return
		}
	}
}

// matchDirective reports whether the input continues with keyword followed
// by whitespace. The keyword is not consumed.
func (r *n3Reader) matchDirective(keyword string) bool {
	end := r.pos + len(keyword)
	if end >= r.length || !strings.EqualFold(r.input[r.pos:end], keyword) {
		return false
	}
	switch r.input[end] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// readPrefixDirective reads "@prefix p: <iri> ." or "PREFIX p: <iri>".
func (r *n3Reader) readPrefixDirective() error {
	sparqlStyle := r.input[r.pos] != '@'
	for r.pos < r.length && r.input[r.pos] != ' ' && r.input[r.pos] != '\t' && r.input[r.pos] != '\n' && r.input[r.pos] != '\r' {
		r.pos++
	}
	r.skipSpaceAndComments()

	start := r.pos
	for r.pos < r.length && r.input[r.pos] != ':' {
		ch, size := r.peekRune()
		if !isPNChars(ch) && ch != '.' {
			return r.errorf("invalid prefix name")
		}
		r.pos += size
	}
	if r.pos >= r.length {
		return r.errorf("expected ':' after prefix name")
	}
	name := r.input[start:r.pos]
	r.pos++ // ':'

	r.skipSpaceAndComments()
	if r.pos >= r.length || r.input[r.pos] != '<' {
		return r.errorf("expected an IRI for prefix %q", name)
	}
	iri, err := r.readIRIRef()
	if err != nil {
		return err
	}
	r.prefixes[name] = iri

	if sparqlStyle {
		return nil
	}
	r.skipSpaceAndComments()
	if !r.consume('.') {
		return r.errorf("expected '.' after @prefix directive")
	}
	return nil
}

func (r *n3Reader) consume(ch byte) bool {
	if r.pos < r.length && r.input[r.pos] == ch {
		r.pos++
		return true
	}
	return false
}

func (r *n3Reader) readStatementTerm(position string) (Term, error) {
	r.skipSpaceAndComments()
	if r.pos >= r.length {
		return nil, r.errorf("unexpected end of input, expected %s", position)
	}
	return r.readTerm()
}

// readStatement reads one subject with its predicate-object lists up to and
// including the closing '.'.
func (r *n3Reader) readStatement() ([]*Triple, error) {
	subject, err := r.readStatementTerm("subject")
	if err != nil {
		return nil, err
	}
	if subject.Type() == TermTypeLiteral {
		return nil, r.errorf("a literal cannot be a subject")
	}

	var triples []*Triple
	for {
		term, err := r.readStatementTerm("predicate")
		if err != nil {
			return nil, err
		}
		predicate, ok := term.(*NamedNode)
		if !ok {
			return nil, r.errorf("predicate must be an IRI, got a %s", term.Type())
		}

		for {
			object, err := r.readStatementTerm("object")
			if err != nil {
				return nil, err
			}
			triples = append(triples, NewTriple(subject, predicate, object))

			r.skipSpaceAndComments()
			if !r.consume(',') {
				break
			}
		}

		if !r.consume(';') {
			break
		}
		// a trailing ';' before '.' is allowed
		r.skipSpaceAndComments()
		for r.consume(';') {
			r.skipSpaceAndComments()
		}
		if r.pos < r.length && r.input[r.pos] == '.' {
			break
		}
	}

	r.skipSpaceAndComments()
	if !r.consume('.') {
		return nil, r.errorf("expected '.' at end of statement")
	}
	return triples, nil
}
