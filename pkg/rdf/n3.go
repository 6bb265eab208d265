package rdf

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// N3Error reports why a string is not a single N3 term.
type N3Error struct {
	Input string
	Pos   int
	Msg   string
}

func (e *N3Error) Error() string {
	return fmt.Sprintf("invalid N3 term %q at offset %d: %s", e.Input, e.Pos, e.Msg)
}

// ParseN3 reads exactly one N3 term: <iri>, "literal"[@lang|^^type],
// _:bnode, prefix:local, a number, true/false or the keyword a.
// Prefixed names are expanded with ns; ns may be nil when the input is not
// expected to contain any.
func ParseN3(input string, ns *NamespaceManager) (Term, error) {
	r := &n3Reader{input: strings.TrimSpace(input), ns: ns}
	r.length = len(r.input)
	if r.length == 0 {
		return nil, r.errorf("empty input")
	}

	term, err := r.readTerm()
	if err != nil {
		return nil, err
	}

	r.skipWhitespace()
	if r.pos < r.length {
		return nil, r.errorf("unexpected trailing input %q", r.input[r.pos:])
	}
	return term, nil
}

// ParseIRI is ParseN3 restricted to IRIs.
func ParseIRI(input string, ns *NamespaceManager) (*NamedNode, error) {
	term, err := ParseN3(input, ns)
	if err != nil {
		return nil, err
	}
	node, ok := term.(*NamedNode)
	if !ok {
		return nil, &N3Error{Input: input, Msg: fmt.Sprintf("expected an IRI, got a %s", term.Type())}
	}
	return node, nil
}

// FormatN3 renders a term the way a user would type it: prefixed names where
// a namespace is known, angle-bracketed IRIs otherwise.
func FormatN3(term Term, ns *NamespaceManager) string {
	switch t := term.(type) {
	case *NamedNode:
		return formatIRI(t.IRI, ns)
	case *BlankNode:
		return "_:" + t.ID
	case *Literal:
		lexical := `"` + escapeString(t.Value) + `"`
		if t.Language != "" {
			return lexical + "@" + t.Language
		}
		if t.Datatype != nil && t.Datatype.IRI != XSDString.IRI {
			return lexical + "^^" + formatIRI(t.Datatype.IRI, ns)
		}
		return lexical
	default:
		return ""
	}
}

func formatIRI(iri string, ns *NamespaceManager) string {
	if ns != nil {
		if short, ok := ns.Compact(iri); ok && isSafeLocalName(short[strings.Index(short, ":")+1:]) {
			return short
		}
	}
	return "<" + iri + ">"
}

type n3Reader struct {
	input  string
	pos    int
	length int
	ns     *NamespaceManager

	// prefixes holds the @prefix bindings of a document being read. When
	// set, prefixed names resolve against it instead of ns and terms may be
	// followed directly by statement punctuation.
	prefixes map[string]string
}

func (r *n3Reader) errorf(format string, args ...any) *N3Error {
	return &N3Error{Input: r.input, Pos: r.pos, Msg: fmt.Sprintf(format, args...)}
}

func (r *n3Reader) skipWhitespace() {
	for r.pos < r.length {
		switch r.input[r.pos] {
		case ' ', '\t', '\n', '\r':
			r.pos++
		default:
			return
		}
	}
}

func (r *n3Reader) peekRune() (rune, int) {
	if r.pos >= r.length {
		return 0, 0
	}
	return utf8.DecodeRuneInString(r.input[r.pos:])
}

func (r *n3Reader) readTerm() (Term, error) {
	ch := r.input[r.pos]
	switch {
	case ch == '<':
		iri, err := r.readIRIRef()
		if err != nil {
			return nil, err
		}
		return NewNamedNode(iri), nil
	case ch == '"' || ch == '\'':
		return r.readLiteral()
	case ch == '_' && r.pos+1 < r.length && r.input[r.pos+1] == ':':
		return r.readBlankNode()
	case ch == '+' || ch == '-' || ch == '.' || (ch >= '0' && ch <= '9'):
		return r.readNumber()
	}

	if word, ok := r.readKeyword(); ok {
		switch word {
		case "true":
			return NewBooleanLiteral(true), nil
		case "false":
			return NewBooleanLiteral(false), nil
		case "a":
			return RDFType, nil
		}
	}

	iri, err := r.readPrefixedName()
	if err != nil {
		return nil, err
	}
	return NewNamedNode(iri), nil
}

// readKeyword consumes a bare word only when it is one of the N3 keywords
// and is not followed by a colon.
func (r *n3Reader) readKeyword() (string, bool) {
	for _, kw := range []string{"true", "false", "a"} {
		end := r.pos + len(kw)
		if !strings.HasPrefix(r.input[r.pos:], kw) {
			continue
		}
		if end < r.length {
			next, _ := utf8.DecodeRuneInString(r.input[end:])
			if next == ':' || isPNChars(next) || next == '.' {
				continue
			}
		}
		r.pos = end
		return kw, true
	}
	return "", false
}

func (r *n3Reader) readIRIRef() (string, error) {
	start := r.pos
	r.pos++ // '<'

	var iri strings.Builder
	for r.pos < r.length {
		ch := r.input[r.pos]
		switch {
		case ch == '>':
			r.pos++
			value := iri.String()
			if !strings.Contains(value, ":") {
				r.pos = start
				return "", r.errorf("IRI %q is not absolute", value)
			}
			return value, nil
		case ch == '\\':
			if r.pos+1 >= r.length || (r.input[r.pos+1] != 'u' && r.input[r.pos+1] != 'U') {
				return "", r.errorf("invalid escape in IRI")
			}
			s, err := r.readUnicodeEscape()
			if err != nil {
				return "", err
			}
			iri.WriteString(s)
		case ch <= 0x20 || strings.IndexByte(`<"{}|^`+"`", ch) >= 0:
			return "", r.errorf("invalid character %q in IRI", ch)
		default:
			iri.WriteByte(ch)
			r.pos++
		}
	}
	return "", r.errorf("unterminated IRI")
}

func (r *n3Reader) readUnicodeEscape() (string, error) {
	r.pos++ // '\'
	digits := 4
	if r.input[r.pos] == 'U' {
		digits = 8
	}
	r.pos++
	if r.pos+digits > r.length {
		return "", r.errorf("incomplete unicode escape")
	}
	hex := r.input[r.pos : r.pos+digits]
	for i := 0; i < len(hex); i++ {
		if !isHexDigit(hex[i]) {
			return "", r.errorf("invalid hex digits %q in unicode escape", hex)
		}
	}
	cp, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return "", r.errorf("invalid unicode escape %q", hex)
	}
	if (cp >= 0xD800 && cp <= 0xDFFF) || cp > 0x10FFFF {
		return "", r.errorf("invalid code point U+%04X", cp)
	}
	r.pos += digits
	return string(rune(cp)), nil
}

func (r *n3Reader) readLiteral() (Term, error) {
	quote := r.input[r.pos]
	delim := string(quote)
	if strings.HasPrefix(r.input[r.pos:], strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}
	r.pos += len(delim)

	var value strings.Builder
	closed := false
	for r.pos < r.length {
		if strings.HasPrefix(r.input[r.pos:], delim) {
			r.pos += len(delim)
			closed = true
			break
		}
		ch := r.input[r.pos]
		if ch == '\\' {
			if r.pos+1 >= r.length {
				return nil, r.errorf("unterminated escape sequence")
			}
			switch esc := r.input[r.pos+1]; esc {
			case 'n':
				value.WriteByte('\n')
			case 't':
				value.WriteByte('\t')
			case 'r':
				value.WriteByte('\r')
			case 'b':
				value.WriteByte('\b')
			case 'f':
				value.WriteByte('\f')
			case '"', '\'', '\\':
				value.WriteByte(esc)
			case 'u', 'U':
				s, err := r.readUnicodeEscape()
				if err != nil {
					return nil, err
				}
				value.WriteString(s)
				continue
			default:
				return nil, r.errorf("invalid escape sequence \\%c", esc)
			}
			r.pos += 2
			continue
		}
		if len(delim) == 1 && (ch == '\n' || ch == '\r') {
			return nil, r.errorf("line break in short string")
		}
		value.WriteByte(ch)
		r.pos++
	}
	if !closed {
		return nil, r.errorf("unterminated string literal")
	}

	if r.pos < r.length && r.input[r.pos] == '@' {
		r.pos++
		start := r.pos
		for r.pos < r.length {
			c := r.input[r.pos]
			if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (r.pos > start && (c == '-' || (c >= '0' && c <= '9'))) {
				r.pos++
				continue
			}
			break
		}
		lang := r.input[start:r.pos]
		if lang == "" || strings.HasSuffix(lang, "-") {
			return nil, r.errorf("invalid language tag %q", lang)
		}
		return NewLiteralWithLanguage(value.String(), lang), nil
	}

	if strings.HasPrefix(r.input[r.pos:], "^^") {
		r.pos += 2
		if r.pos >= r.length {
			return nil, r.errorf("missing datatype after ^^")
		}
		var datatype string
		var err error
		if r.input[r.pos] == '<' {
			datatype, err = r.readIRIRef()
		} else {
			datatype, err = r.readPrefixedName()
		}
		if err != nil {
			return nil, err
		}
		return NewLiteralWithDatatype(value.String(), NewNamedNode(datatype)), nil
	}

	return NewLiteral(value.String()), nil
}

func (r *n3Reader) readBlankNode() (Term, error) {
	r.pos += 2 // '_:'
	start := r.pos
	for r.pos < r.length {
		ch, size := r.peekRune()
		if r.pos == start {
			if !isPNCharsU(ch) && !(ch >= '0' && ch <= '9') {
				break
			}
		} else if !isPNChars(ch) && ch != '.' {
			break
		}
		r.pos += size
	}
	for r.pos > start && r.input[r.pos-1] == '.' {
		r.pos--
	}
	if r.pos == start {
		return nil, r.errorf("empty blank node label")
	}
	return NewBlankNode(r.input[start:r.pos]), nil
}

func (r *n3Reader) readNumber() (Term, error) {
	start := r.pos
	if r.input[r.pos] == '+' || r.input[r.pos] == '-' {
		r.pos++
	}
	intDigits := r.skipDigits()
	fracDigits := 0
	hasDot := false
	if r.pos < r.length && r.input[r.pos] == '.' {
		hasDot = true
		r.pos++
		fracDigits = r.skipDigits()
	}
	hasExp := false
	if r.pos < r.length && (r.input[r.pos] == 'e' || r.input[r.pos] == 'E') {
		hasExp = true
		r.pos++
		if r.pos < r.length && (r.input[r.pos] == '+' || r.input[r.pos] == '-') {
			r.pos++
		}
		if r.skipDigits() == 0 {
			r.pos = start
			return nil, r.errorf("malformed exponent")
		}
	}

	lexical := r.input[start:r.pos]
	switch {
	case intDigits == 0 && fracDigits == 0:
		r.pos = start
		return nil, r.errorf("malformed number")
	case hasExp:
		return NewLiteralWithDatatype(lexical, XSDDouble), nil
	case hasDot && fracDigits == 0 && r.prefixes != nil && intDigits > 0:
		// "42." ends a statement
		r.pos--
		return NewLiteralWithDatatype(r.input[start:r.pos], XSDInteger), nil
	case hasDot:
		if fracDigits == 0 {
			r.pos = start
			return nil, r.errorf("decimal %q has no fraction digits", lexical)
		}
		return NewLiteralWithDatatype(lexical, XSDDecimal), nil
	default:
		return NewLiteralWithDatatype(lexical, XSDInteger), nil
	}
}

func (r *n3Reader) skipDigits() int {
	n := 0
	for r.pos < r.length && r.input[r.pos] >= '0' && r.input[r.pos] <= '9' {
		r.pos++
		n++
	}
	return n
}

func (r *n3Reader) readPrefixedName() (string, error) {
	start := r.pos
	for r.pos < r.length && r.input[r.pos] != ':' {
		ch, size := r.peekRune()
		if r.pos == start && !isPNCharsBase(ch) {
			return "", r.errorf("unexpected character %q", ch)
		}
		if !isPNChars(ch) && ch != '.' {
			return "", r.errorf("unexpected character %q in prefix", ch)
		}
		r.pos += size
	}
	if r.pos >= r.length {
		r.pos = start
		return "", r.errorf("%q is neither an IRI, a literal nor a prefixed name", r.input[start:])
	}
	prefix := r.input[start:r.pos]
	r.pos++ // ':'

	localStart := r.pos
	for r.pos < r.length {
		ch, size := r.peekRune()
		if ch <= 0x20 || strings.ContainsRune(`<>"{}|^`+"`", ch) {
			break
		}
		if r.prefixes != nil && (ch == ';' || ch == ',') {
			break
		}
		r.pos += size
	}
	if r.prefixes != nil {
		for r.pos > localStart && r.input[r.pos-1] == '.' {
			r.pos--
		}
	}
	local := r.input[localStart:r.pos]

	if r.prefixes != nil {
		base, ok := r.prefixes[prefix]
		if !ok {
			r.pos = start
			return "", r.errorf("undefined prefix %q", prefix)
		}
		return base + local, nil
	}
	if r.ns == nil {
		r.pos = start
		return "", r.errorf("prefixed name %s:%s used without a namespace registry", prefix, local)
	}
	iri, err := r.ns.Expand(prefix + ":" + local)
	if err != nil {
		r.pos = start
		return "", r.errorf("%v", err)
	}
	return iri, nil
}

// isPNCharsBase reports PN_CHARS_BASE membership (Turtle grammar).
func isPNCharsBase(r rune) bool {
	return (r >= 'A' && r <= 'Z') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 0x00C0 && r <= 0x00D6) ||
		(r >= 0x00D8 && r <= 0x00F6) ||
		(r >= 0x00F8 && r <= 0x02FF) ||
		(r >= 0x0370 && r <= 0x037D) ||
		(r >= 0x037F && r <= 0x1FFF) ||
		(r >= 0x200C && r <= 0x200D) ||
		(r >= 0x2070 && r <= 0x218F) ||
		(r >= 0x2C00 && r <= 0x2FEF) ||
		(r >= 0x3001 && r <= 0xD7FF) ||
		(r >= 0xF900 && r <= 0xFDCF) ||
		(r >= 0xFDF0 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0xEFFFF)
}

func isPNCharsU(r rune) bool {
	return isPNCharsBase(r) || r == '_'
}

func isPNChars(r rune) bool {
	return isPNCharsU(r) ||
		r == '-' ||
		(r >= '0' && r <= '9') ||
		r == 0x00B7 ||
		(r >= 0x0300 && r <= 0x036F) ||
		(r >= 0x203F && r <= 0x2040)
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// isSafeLocalName reports whether local can be written after a prefix
// without escapes.
func isSafeLocalName(local string) bool {
	for i, r := range local {
		if i == 0 && (r == '-' || r == '.') {
			return false
		}
		if !isPNChars(r) && r != '.' && r != ':' {
			return false
		}
	}
	return !strings.HasSuffix(local, ".")
}
