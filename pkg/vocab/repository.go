package vocab

import "context"

// Repository persists vocabularies, terms, predicates and properties.
// Lookups of missing rows return ErrNotFound. The GetOrCreate methods report
// whether a row was inserted.
type Repository interface {
	GetOrCreateVocabulary(ctx context.Context, uri string) (Vocabulary, bool, error)
	GetVocabulary(ctx context.Context, id uint) (Vocabulary, error)
	GetVocabularyByURI(ctx context.Context, uri string) (Vocabulary, error)
	ListVocabularies(ctx context.Context) ([]Vocabulary, error)

	GetOrCreateTerm(ctx context.Context, vocabularyID uint, name string) (Term, bool, error)
	GetTerm(ctx context.Context, id uint) (Term, error)
	ListTerms(ctx context.Context, vocabularyID uint) ([]Term, error)
	// DeleteTerm removes the term and all of its properties.
	DeleteTerm(ctx context.Context, id uint) error

	// GetOrCreatePredicate returns the existing predicate for uri unchanged,
	// whatever its object type, or inserts a new one.
	GetOrCreatePredicate(ctx context.Context, uri string, objectType ObjectType) (Predicate, bool, error)
	GetPredicate(ctx context.Context, id uint) (Predicate, error)
	GetPredicateByURI(ctx context.Context, uri string) (Predicate, error)
	ListPredicates(ctx context.Context) ([]Predicate, error)

	// GetOrCreateProperty matches on term, predicate, value, language and
	// datatype.
	GetOrCreateProperty(ctx context.Context, value Property) (Property, bool, error)
	UpdateProperty(ctx context.Context, value Property) (Property, error)
	GetProperty(ctx context.Context, id uint) (Property, error)
	ListProperties(ctx context.Context, termID uint) ([]Property, error)
	DeleteProperty(ctx context.Context, id uint) error

	Close() error
}
