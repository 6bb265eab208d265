package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aleksaelezovic/vocabs/pkg/vocab"
)

type vocabularyRecord struct {
	ID        uint      `json:"id"`
	URI       string    `json:"uri"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type termRecord struct {
	ID           uint      `json:"id"`
	VocabularyID uint      `json:"vocabulary_id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type predicateRecord struct {
	ID         uint      `json:"id"`
	URI        string    `json:"uri"`
	ObjectType string    `json:"object_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type propertyRecord struct {
	ID          uint      `json:"id"`
	TermID      uint      `json:"term_id"`
	PredicateID uint      `json:"predicate_id"`
	Value       string    `json:"value"`
	Language    string    `json:"language,omitempty"`
	Datatype    string    `json:"datatype,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r vocabularyRecord) model() vocab.Vocabulary {
	return vocab.Vocabulary{ID: r.ID, URI: r.URI, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func (r predicateRecord) model() vocab.Predicate {
	return vocab.Predicate{
		ID:         r.ID,
		URI:        r.URI,
		ObjectType: vocab.ObjectType(r.ObjectType),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// Repository implements vocab.Repository on an embedded badger database.
// Records are stored as JSON under big-endian ids; uniqueness constraints
// are kept as xxh3-hashed index keys.
type Repository struct {
	s *store
}

var _ vocab.Repository = (*Repository)(nil)

// Open opens (or creates) a badger database in dir.
func Open(dir string) (*Repository, error) {
	s, err := openStore(dir)
	if err != nil {
		return nil, err
	}
	return &Repository{s: s}, nil
}

func (r *Repository) Close() error {
	return r.s.Close()
}

func now() time.Time {
	return time.Now().UTC()
}

func notFound(err error, what string, id any) error {
	if errors.Is(err, errKeyNotFound) {
		return fmt.Errorf("%s %v: %w", what, id, vocab.ErrNotFound)
	}
	return err
}

func (r *Repository) GetOrCreateVocabulary(ctx context.Context, uri string) (vocab.Vocabulary, bool, error) {
	var rec vocabularyRecord
	created := false
	err := r.s.update(ctx, func(t *txn) error {
		created = false
		key := hashKey(0, uri)
		id, ok, err := t.lookup(tableVocabularyURI, key)
		if err != nil {
			return err
		}
		if ok {
			return t.vocabularyAt(id, uri, &rec)
		}

		if id, err = t.nextID(tableVocabulary); err != nil {
			return err
		}
		ts := now()
		rec = vocabularyRecord{ID: id, URI: uri, CreatedAt: ts, UpdatedAt: ts}
		if err := t.setJSON(tableVocabulary, id, rec); err != nil {
			return err
		}
		created = true
		return t.set(tableVocabularyURI, key, idKey(id))
	})
	if err != nil {
		return vocab.Vocabulary{}, false, err
	}
	return rec.model(), created, nil
}

func (r *Repository) GetVocabulary(ctx context.Context, id uint) (vocab.Vocabulary, error) {
	var rec vocabularyRecord
	err := r.s.view(ctx, func(t *txn) error {
		return t.getJSON(tableVocabulary, id, &rec)
	})
	if err != nil {
		return vocab.Vocabulary{}, notFound(err, "vocabulary", id)
	}
	return rec.model(), nil
}

func (r *Repository) GetVocabularyByURI(ctx context.Context, uri string) (vocab.Vocabulary, error) {
	var rec vocabularyRecord
	err := r.s.view(ctx, func(t *txn) error {
		id, ok, err := t.lookup(tableVocabularyURI, hashKey(0, uri))
		if err != nil {
			return err
		}
		if !ok {
			return errKeyNotFound
		}
		return t.vocabularyAt(id, uri, &rec)
	})
	if err != nil {
		return vocab.Vocabulary{}, notFound(err, "vocabulary", uri)
	}
	return rec.model(), nil
}

// vocabularyAt loads the vocabulary a URI index entry points at.
func (t *txn) vocabularyAt(id uint, uri string, rec *vocabularyRecord) error {
	if err := t.getJSON(tableVocabulary, id, rec); err != nil {
		return err
	}
	if rec.URI != uri {
		return fmt.Errorf("vocabulary %q: %w", uri, errIndexCollision)
	}
	return nil
}

func (r *Repository) ListVocabularies(ctx context.Context) ([]vocab.Vocabulary, error) {
	result := make([]vocab.Vocabulary, 0)
	err := r.s.view(ctx, func(t *txn) error {
		return t.scan(tableVocabulary, nil, true, func(_, value []byte) error {
			var rec vocabularyRecord
			if err := jsonDecode(value, &rec); err != nil {
				return err
			}
			result = append(result, rec.model())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (t *txn) loadTerm(id uint) (vocab.Term, error) {
	var rec termRecord
	if err := t.getJSON(tableTerm, id, &rec); err != nil {
		return vocab.Term{}, err
	}
	var v vocabularyRecord
	if err := t.getJSON(tableVocabulary, rec.VocabularyID, &v); err != nil {
		return vocab.Term{}, err
	}
	return vocab.Term{
		ID:           rec.ID,
		VocabularyID: rec.VocabularyID,
		Vocabulary:   v.model(),
		Name:         rec.Name,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}

func (r *Repository) GetOrCreateTerm(ctx context.Context, vocabularyID uint, name string) (vocab.Term, bool, error) {
	var term vocab.Term
	created := false
	err := r.s.update(ctx, func(t *txn) error {
		created = false
		var v vocabularyRecord
		if err := t.getJSON(tableVocabulary, vocabularyID, &v); err != nil {
			return notFound(err, "vocabulary", vocabularyID)
		}

		key := hashKey(vocabularyID, name)
		id, ok, err := t.lookup(tableTermName, key)
		if err != nil {
			return err
		}
		if !ok {
			if id, err = t.nextID(tableTerm); err != nil {
				return err
			}
			ts := now()
			rec := termRecord{ID: id, VocabularyID: vocabularyID, Name: name, CreatedAt: ts, UpdatedAt: ts}
			if err := t.setJSON(tableTerm, id, rec); err != nil {
				return err
			}
			if err := t.set(tableTermName, key, idKey(id)); err != nil {
				return err
			}
			if err := t.set(tableVocabularyTerms, idKey(vocabularyID, id), nil); err != nil {
				return err
			}
			created = true
		}
		term, err = t.loadTerm(id)
		if err == nil && (term.VocabularyID != vocabularyID || term.Name != name) {
			return fmt.Errorf("term %q: %w", name, errIndexCollision)
		}
		return err
	})
	if err != nil {
		return vocab.Term{}, false, err
	}
	return term, created, nil
}

func (r *Repository) GetTerm(ctx context.Context, id uint) (vocab.Term, error) {
	var term vocab.Term
	err := r.s.view(ctx, func(t *txn) error {
		var err error
		term, err = t.loadTerm(id)
		return err
	})
	if err != nil {
		return vocab.Term{}, notFound(err, "term", id)
	}
	return term, nil
}

func (r *Repository) ListTerms(ctx context.Context, vocabularyID uint) ([]vocab.Term, error) {
	result := make([]vocab.Term, 0)
	err := r.s.view(ctx, func(t *txn) error {
		return t.scan(tableVocabularyTerms, idKey(vocabularyID), false, func(key, _ []byte) error {
			term, err := t.loadTerm(decodeID(key))
			if err != nil {
				return err
			}
			result = append(result, term)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *Repository) DeleteTerm(ctx context.Context, id uint) error {
	return r.s.update(ctx, func(t *txn) error {
		var rec termRecord
		if err := t.getJSON(tableTerm, id, &rec); err != nil {
			return notFound(err, "term", id)
		}

		var propertyIDs []uint
		err := t.scan(tableTermProperties, idKey(id), false, func(key, _ []byte) error {
			propertyIDs = append(propertyIDs, decodeID(key))
			return nil
		})
		if err != nil {
			return err
		}
		for _, pid := range propertyIDs {
			if err := t.deleteProperty(pid); err != nil {
				return err
			}
		}

		if err := t.delete(tableTermName, hashKey(rec.VocabularyID, rec.Name)); err != nil {
			return err
		}
		if err := t.delete(tableVocabularyTerms, idKey(rec.VocabularyID, id)); err != nil {
			return err
		}
		return t.delete(tableTerm, idKey(id))
	})
}

func (r *Repository) GetOrCreatePredicate(ctx context.Context, uri string, objectType vocab.ObjectType) (vocab.Predicate, bool, error) {
	var rec predicateRecord
	created := false
	err := r.s.update(ctx, func(t *txn) error {
		created = false
		key := hashKey(0, uri)
		id, ok, err := t.lookup(tablePredicateURI, key)
		if err != nil {
			return err
		}
		if ok {
			return t.predicateAt(id, uri, &rec)
		}

		if id, err = t.nextID(tablePredicate); err != nil {
			return err
		}
		ts := now()
		rec = predicateRecord{ID: id, URI: uri, ObjectType: string(objectType), CreatedAt: ts, UpdatedAt: ts}
		if err := t.setJSON(tablePredicate, id, rec); err != nil {
			return err
		}
		created = true
		return t.set(tablePredicateURI, key, idKey(id))
	})
	if err != nil {
		return vocab.Predicate{}, false, err
	}
	return rec.model(), created, nil
}

func (r *Repository) GetPredicate(ctx context.Context, id uint) (vocab.Predicate, error) {
	var rec predicateRecord
	err := r.s.view(ctx, func(t *txn) error {
		return t.getJSON(tablePredicate, id, &rec)
	})
	if err != nil {
		return vocab.Predicate{}, notFound(err, "predicate", id)
	}
	return rec.model(), nil
}

func (r *Repository) GetPredicateByURI(ctx context.Context, uri string) (vocab.Predicate, error) {
	var rec predicateRecord
	err := r.s.view(ctx, func(t *txn) error {
		id, ok, err := t.lookup(tablePredicateURI, hashKey(0, uri))
		if err != nil {
			return err
		}
		if !ok {
			return errKeyNotFound
		}
		return t.predicateAt(id, uri, &rec)
	})
	if err != nil {
		return vocab.Predicate{}, notFound(err, "predicate", uri)
	}
	return rec.model(), nil
}

// predicateAt loads the predicate a URI index entry points at.
func (t *txn) predicateAt(id uint, uri string, rec *predicateRecord) error {
	if err := t.getJSON(tablePredicate, id, rec); err != nil {
		return err
	}
	if rec.URI != uri {
		return fmt.Errorf("predicate %q: %w", uri, errIndexCollision)
	}
	return nil
}

func (r *Repository) ListPredicates(ctx context.Context) ([]vocab.Predicate, error) {
	result := make([]vocab.Predicate, 0)
	err := r.s.view(ctx, func(t *txn) error {
		return t.scan(tablePredicate, nil, true, func(_, value []byte) error {
			var rec predicateRecord
			if err := jsonDecode(value, &rec); err != nil {
				return err
			}
			result = append(result, rec.model())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool { return result[i].URI < result[j].URI })
	return result, nil
}

func propertyValueKey(p propertyRecord) []byte {
	return hashKey(p.TermID, fmt.Sprint(p.PredicateID), p.Value, p.Language, p.Datatype)
}

// sameValue reports whether two property records share the identity the
// value index is keyed on.
func sameValue(a, b propertyRecord) bool {
	return a.TermID == b.TermID &&
		a.PredicateID == b.PredicateID &&
		a.Value == b.Value &&
		a.Language == b.Language &&
		a.Datatype == b.Datatype
}

// releaseValueKey drops rec's value index entry when rec owns it. Another
// property of the same term holding the same value (left by an edit) takes
// the entry over.
func (t *txn) releaseValueKey(rec propertyRecord) error {
	key := propertyValueKey(rec)
	owner, ok, err := t.lookup(tablePropertyValue, key)
	if err != nil || !ok || owner != rec.ID {
		return err
	}

	var successor uint
	err = t.scan(tableTermProperties, idKey(rec.TermID), false, func(k, _ []byte) error {
		id := decodeID(k)
		if id == rec.ID || successor != 0 {
			return nil
		}
		var other propertyRecord
		if err := t.getJSON(tableProperty, id, &other); err != nil {
			return err
		}
		if sameValue(other, rec) {
			successor = id
		}
		return nil
	})
	if err != nil {
		return err
	}
	if successor != 0 {
		return t.set(tablePropertyValue, key, idKey(successor))
	}
	return t.delete(tablePropertyValue, key)
}

func (t *txn) loadProperty(id uint) (vocab.Property, error) {
	var rec propertyRecord
	if err := t.getJSON(tableProperty, id, &rec); err != nil {
		return vocab.Property{}, err
	}
	var pred predicateRecord
	if err := t.getJSON(tablePredicate, rec.PredicateID, &pred); err != nil {
		return vocab.Property{}, err
	}
	return vocab.Property{
		ID:          rec.ID,
		TermID:      rec.TermID,
		PredicateID: rec.PredicateID,
		Predicate:   pred.model(),
		Value:       rec.Value,
		Language:    rec.Language,
		Datatype:    rec.Datatype,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}, nil
}

func (t *txn) deleteProperty(id uint) error {
	var rec propertyRecord
	if err := t.getJSON(tableProperty, id, &rec); err != nil {
		return err
	}
	if err := t.releaseValueKey(rec); err != nil {
		return err
	}
	if err := t.delete(tableTermProperties, idKey(rec.TermID, id)); err != nil {
		return err
	}
	return t.delete(tableProperty, idKey(id))
}

func (r *Repository) GetOrCreateProperty(ctx context.Context, value vocab.Property) (vocab.Property, bool, error) {
	var prop vocab.Property
	created := false
	err := r.s.update(ctx, func(t *txn) error {
		created = false
		var term termRecord
		if err := t.getJSON(tableTerm, value.TermID, &term); err != nil {
			return notFound(err, "term", value.TermID)
		}
		var pred predicateRecord
		if err := t.getJSON(tablePredicate, value.PredicateID, &pred); err != nil {
			return notFound(err, "predicate", value.PredicateID)
		}

		rec := propertyRecord{
			TermID:      value.TermID,
			PredicateID: value.PredicateID,
			Value:       value.Value,
			Language:    value.Language,
			Datatype:    value.Datatype,
		}
		key := propertyValueKey(rec)
		id, ok, err := t.lookup(tablePropertyValue, key)
		if err != nil {
			return err
		}
		if !ok {
			if id, err = t.nextID(tableProperty); err != nil {
				return err
			}
			ts := now()
			rec.ID, rec.CreatedAt, rec.UpdatedAt = id, ts, ts
			if err := t.setJSON(tableProperty, id, rec); err != nil {
				return err
			}
			if err := t.set(tablePropertyValue, key, idKey(id)); err != nil {
				return err
			}
			if err := t.set(tableTermProperties, idKey(value.TermID, id), nil); err != nil {
				return err
			}
			created = true
		} else {
			var existing propertyRecord
			if err := t.getJSON(tableProperty, id, &existing); err != nil {
				return err
			}
			if !sameValue(existing, rec) {
				return fmt.Errorf("property value %q: %w", rec.Value, errIndexCollision)
			}
		}
		prop, err = t.loadProperty(id)
		return err
	})
	if err != nil {
		return vocab.Property{}, false, err
	}
	return prop, created, nil
}

func (r *Repository) UpdateProperty(ctx context.Context, value vocab.Property) (vocab.Property, error) {
	var prop vocab.Property
	err := r.s.update(ctx, func(t *txn) error {
		var rec propertyRecord
		if err := t.getJSON(tableProperty, value.ID, &rec); err != nil {
			return notFound(err, "property", value.ID)
		}
		if err := t.releaseValueKey(rec); err != nil {
			return err
		}
		rec.Value, rec.Language, rec.Datatype = value.Value, value.Language, value.Datatype
		rec.UpdatedAt = now()
		if err := t.setJSON(tableProperty, rec.ID, rec); err != nil {
			return err
		}
		key := propertyValueKey(rec)
		if _, taken, err := t.lookup(tablePropertyValue, key); err != nil {
			return err
		} else if !taken {
			if err := t.set(tablePropertyValue, key, idKey(rec.ID)); err != nil {
				return err
			}
		}
		var err error
		prop, err = t.loadProperty(rec.ID)
		return err
	})
	if err != nil {
		return vocab.Property{}, err
	}
	return prop, nil
}

func (r *Repository) GetProperty(ctx context.Context, id uint) (vocab.Property, error) {
	var prop vocab.Property
	err := r.s.view(ctx, func(t *txn) error {
		var err error
		prop, err = t.loadProperty(id)
		return err
	})
	if err != nil {
		return vocab.Property{}, notFound(err, "property", id)
	}
	return prop, nil
}

func (r *Repository) ListProperties(ctx context.Context, termID uint) ([]vocab.Property, error) {
	result := make([]vocab.Property, 0)
	err := r.s.view(ctx, func(t *txn) error {
		return t.scan(tableTermProperties, idKey(termID), false, func(key, _ []byte) error {
			prop, err := t.loadProperty(decodeID(key))
			if err != nil {
				return err
			}
			result = append(result, prop)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Repository) DeleteProperty(ctx context.Context, id uint) error {
	return r.s.update(ctx, func(t *txn) error {
		return notFound(t.deleteProperty(id), "property", id)
	})
}
