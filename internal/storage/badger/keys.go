package badger

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// table namespaces keys inside the single badger keyspace.
type table byte

const (
	// sequence counters: table byte -> last issued id
	tableSequence table = iota

	// records: id -> JSON
	tableVocabulary
	tableTerm
	tablePredicate
	tableProperty

	// unique indexes: hash -> id
	tableVocabularyURI
	tableTermName
	tablePredicateURI
	tablePropertyValue

	// secondary indexes: parent id + child id -> empty
	tableVocabularyTerms
	tableTermProperties
)

func (t table) String() string {
	switch t {
	case tableSequence:
		return "sequence"
	case tableVocabulary:
		return "vocabulary"
	case tableTerm:
		return "term"
	case tablePredicate:
		return "predicate"
	case tableProperty:
		return "property"
	case tableVocabularyURI:
		return "vocabulary_uri"
	case tableTermName:
		return "term_name"
	case tablePredicateURI:
		return "predicate_uri"
	case tablePropertyValue:
		return "property_value"
	case tableVocabularyTerms:
		return "vocabulary_terms"
	case tableTermProperties:
		return "term_properties"
	default:
		return "unknown"
	}
}

// prefixKey adds the table prefix to key.
func prefixKey(t table, key []byte) []byte {
	result := make([]byte, 1+len(key))
	result[0] = byte(t)
	copy(result[1:], key)
	return result
}

// idKey encodes an id big-endian so keys sort numerically.
func idKey(ids ...uint) []byte {
	key := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.BigEndian.PutUint64(key[i*8:], uint64(id))
	}
	return key
}

func decodeID(b []byte) uint {
	return uint(binary.BigEndian.Uint64(b))
}

// hashKey computes the 128-bit xxh3 hash of the length-prefixed parts,
// optionally scoped under a parent id. Callers compare the record an index
// entry points at with their input before trusting a hit.
func hashKey(parent uint, parts ...string) []byte {
	h := xxh3.New()
	var size [binary.MaxVarintLen64]byte
	for _, p := range parts {
		n := binary.PutUvarint(size[:], uint64(len(p)))
		_, _ = h.Write(size[:n])
		_, _ = h.WriteString(p)
	}
	sum := h.Sum128()

	key := make([]byte, 0, 24)
	if parent != 0 {
		key = append(key, idKey(parent)...)
	}
	key = binary.BigEndian.AppendUint64(key, sum.Hi)
	key = binary.BigEndian.AppendUint64(key, sum.Lo)
	return key
}
