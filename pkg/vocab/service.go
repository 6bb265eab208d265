package vocab

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aleksaelezovic/vocabs/pkg/rdf"
)

// Service implements the vocabulary use cases on top of a Repository.
type Service struct {
	repo   Repository
	ns     *rdf.NamespaceManager
	logger *zap.Logger
}

func NewService(repo Repository, ns *rdf.NamespaceManager, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		ns:     ns,
		logger: logger.Named("vocab-service"),
	}
}

// Namespaces returns the registry used to resolve prefixed names.
func (s *Service) Namespaces() *rdf.NamespaceManager {
	return s.ns
}

func (s *Service) ListVocabularies(ctx context.Context) ([]Vocabulary, error) {
	return s.repo.ListVocabularies(ctx)
}

func (s *Service) GetVocabulary(ctx context.Context, id uint) (Vocabulary, error) {
	return s.repo.GetVocabulary(ctx, id)
}

// CreateVocabulary returns the vocabulary for uri, inserting it on first use.
func (s *Service) CreateVocabulary(ctx context.Context, uri string) (Vocabulary, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Vocabulary{}, fmt.Errorf("%w: vocabulary URI is required", ErrInvalidValue)
	}
	if !strings.Contains(uri, ":") || !iriSafe(uri) {
		return Vocabulary{}, fmt.Errorf("%w: vocabulary URI %q is not an absolute IRI", ErrInvalidValue, uri)
	}

	v, created, err := s.repo.GetOrCreateVocabulary(ctx, uri)
	if err != nil {
		s.logger.Error("Failed to create vocabulary", zap.String("uri", uri), zap.Error(err))
		return Vocabulary{}, err
	}
	if created {
		s.logger.Info("Created vocabulary", zap.Uint("vocabulary_id", v.ID), zap.String("uri", v.URI))
	}
	return v, nil
}

func (s *Service) ListTerms(ctx context.Context, vocabularyID uint) ([]Term, error) {
	return s.repo.ListTerms(ctx, vocabularyID)
}

func (s *Service) GetTerm(ctx context.Context, id uint) (Term, error) {
	return s.repo.GetTerm(ctx, id)
}

// AddTerm get-or-creates the term name in the vocabulary. When rdfType is
// non-blank it is resolved first and attached as an rdf:type property; an
// unresolvable rdfType aborts before anything is written.
func (s *Service) AddTerm(ctx context.Context, vocabularyID uint, name, rdfType string) (Term, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Term{}, fmt.Errorf("%w: term name is required", ErrInvalidValue)
	}
	if !iriSafe(name) {
		return Term{}, fmt.Errorf("%w: term name %q contains characters not allowed in an IRI", ErrInvalidValue, name)
	}

	var typeIRI string
	if rdfType = strings.TrimSpace(rdfType); rdfType != "" {
		iri, err := ResolveIRI(rdfType, s.ns)
		if err != nil {
			return Term{}, fmt.Errorf("rdf:type %q: %w", rdfType, err)
		}
		typeIRI = iri
	}

	if _, err := s.repo.GetVocabulary(ctx, vocabularyID); err != nil {
		return Term{}, err
	}

	term, created, err := s.repo.GetOrCreateTerm(ctx, vocabularyID, name)
	if err != nil {
		s.logger.Error("Failed to create term",
			zap.Uint("vocabulary_id", vocabularyID),
			zap.String("name", name),
			zap.Error(err))
		return Term{}, err
	}
	if created {
		s.logger.Info("Created term", zap.Uint("term_id", term.ID), zap.String("uri", term.URI()))
	}

	if typeIRI != "" {
		predicate, _, err := s.repo.GetOrCreatePredicate(ctx, rdf.RDFType.IRI, ObjectURIRef)
		if err != nil {
			return Term{}, err
		}
		prop := Property{TermID: term.ID, PredicateID: predicate.ID, Predicate: predicate}
		if err := prop.SetObject(rdf.NewNamedNode(typeIRI)); err != nil {
			return Term{}, err
		}
		if _, _, err := s.repo.GetOrCreateProperty(ctx, prop); err != nil {
			s.logger.Error("Failed to attach rdf:type",
				zap.Uint("term_id", term.ID),
				zap.String("type", typeIRI),
				zap.Error(err))
			return Term{}, err
		}
	}
	return term, nil
}

// DeleteTerm removes the term together with its properties.
func (s *Service) DeleteTerm(ctx context.Context, id uint) error {
	if err := s.repo.DeleteTerm(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Deleted term", zap.Uint("term_id", id))
	return nil
}

func (s *Service) ListPredicates(ctx context.Context) ([]Predicate, error) {
	return s.repo.ListPredicates(ctx)
}

// CreatePredicate resolves input to an absolute IRI and get-or-creates a
// predicate for it. An existing predicate keeps its object type.
func (s *Service) CreatePredicate(ctx context.Context, input, objectType string) (Predicate, error) {
	ot, err := ParseObjectType(objectType)
	if err != nil {
		return Predicate{}, err
	}
	uri, err := ResolveIRI(input, s.ns)
	if err != nil {
		return Predicate{}, err
	}

	p, created, err := s.repo.GetOrCreatePredicate(ctx, uri, ot)
	if err != nil {
		s.logger.Error("Failed to create predicate", zap.String("uri", uri), zap.Error(err))
		return Predicate{}, err
	}
	switch {
	case created:
		s.logger.Info("Created predicate", zap.String("uri", uri), zap.String("object_type", string(ot)))
	case p.ObjectType != ot:
		s.logger.Warn("Predicate already declared with another object type",
			zap.String("uri", uri),
			zap.String("existing", string(p.ObjectType)),
			zap.String("requested", string(ot)))
	}
	return p, nil
}

// ResolvePredicate finds the predicate a prefixed name or IRI refers to.
func (s *Service) ResolvePredicate(ctx context.Context, input string) (Predicate, error) {
	uri, err := ResolveIRI(input, s.ns)
	if err != nil {
		return Predicate{}, err
	}
	return s.repo.GetPredicateByURI(ctx, uri)
}

func (s *Service) GetProperty(ctx context.Context, id uint) (Property, error) {
	return s.repo.GetProperty(ctx, id)
}

func (s *Service) ListProperties(ctx context.Context, termID uint) ([]Property, error) {
	return s.repo.ListProperties(ctx, termID)
}

// CreateProperty attaches value to the term after checking it against the
// predicate's object type.
func (s *Service) CreateProperty(ctx context.Context, termID uint, predicate Predicate, value rdf.Term) (Property, error) {
	if _, err := s.repo.GetTerm(ctx, termID); err != nil {
		return Property{}, err
	}
	prop := Property{TermID: termID, PredicateID: predicate.ID, Predicate: predicate}
	if err := prop.SetObject(value); err != nil {
		return Property{}, err
	}

	saved, _, err := s.repo.GetOrCreateProperty(ctx, prop)
	if err != nil {
		s.logger.Error("Failed to create property",
			zap.Uint("term_id", termID),
			zap.String("predicate", predicate.URI),
			zap.Error(err))
		return Property{}, err
	}
	return saved, nil
}

// UpdateProperty replaces the value of an existing property.
func (s *Service) UpdateProperty(ctx context.Context, id uint, value rdf.Term) (Property, error) {
	prop, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		return Property{}, err
	}
	if err := prop.SetObject(value); err != nil {
		return Property{}, err
	}

	saved, err := s.repo.UpdateProperty(ctx, prop)
	if err != nil {
		s.logger.Error("Failed to update property", zap.Uint("property_id", id), zap.Error(err))
		return Property{}, err
	}
	return saved, nil
}

func (s *Service) DeleteProperty(ctx context.Context, id uint) error {
	if err := s.repo.DeleteProperty(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Deleted property", zap.Uint("property_id", id))
	return nil
}

// Graph builds the RDF graph of a vocabulary's terms and properties.
func (s *Service) Graph(ctx context.Context, vocabularyID uint) (Vocabulary, *rdf.Graph, error) {
	v, err := s.repo.GetVocabulary(ctx, vocabularyID)
	if err != nil {
		return Vocabulary{}, nil, err
	}
	return s.graphOf(ctx, v)
}

// GraphByURI is Graph keyed by vocabulary URI.
func (s *Service) GraphByURI(ctx context.Context, uri string) (Vocabulary, *rdf.Graph, error) {
	v, err := s.repo.GetVocabularyByURI(ctx, strings.TrimSpace(uri))
	if err != nil {
		return Vocabulary{}, nil, err
	}
	return s.graphOf(ctx, v)
}

func (s *Service) graphOf(ctx context.Context, v Vocabulary) (Vocabulary, *rdf.Graph, error) {
	terms, err := s.repo.ListTerms(ctx, v.ID)
	if err != nil {
		return Vocabulary{}, nil, err
	}
	properties := make(map[uint][]Property, len(terms))
	for _, t := range terms {
		props, err := s.repo.ListProperties(ctx, t.ID)
		if err != nil {
			return Vocabulary{}, nil, err
		}
		properties[t.ID] = props
	}
	return v, BuildGraph(terms, properties), nil
}

// Export serializes a vocabulary's graph.
func (s *Service) Export(ctx context.Context, vocabularyID uint, format rdf.Format) ([]byte, error) {
	_, g, err := s.Graph(ctx, vocabularyID)
	if err != nil {
		return nil, err
	}
	return rdf.Serialize(g, format, s.ns)
}

// ImportGraph upserts triples into the vocabulary. Subjects that are IRIs
// under the vocabulary URI become terms; every other triple is skipped.
// Predicates are get-or-created with the object type of their first value;
// values that do not fit an existing predicate are skipped.
//
// Each triple is committed on its own. When a write fails, the triples before
// it stay imported and the returned summary counts them. Every write is a
// get-or-create, so importing the same graph again completes the import
// without duplicating anything.
func (s *Service) ImportGraph(ctx context.Context, vocabularyID uint, triples []*rdf.Triple) (ImportSummary, error) {
	var summary ImportSummary

	v, err := s.repo.GetVocabulary(ctx, vocabularyID)
	if err != nil {
		return summary, err
	}

	terms := make(map[string]Term)
	for _, t := range triples {
		subject, ok := t.Subject.(*rdf.NamedNode)
		if !ok || !strings.HasPrefix(subject.IRI, v.URI) || len(subject.IRI) == len(v.URI) {
			summary.Skipped++
			continue
		}
		if t.Object.Type() == rdf.TermTypeBlankNode {
			summary.Skipped++
			continue
		}

		name := subject.IRI[len(v.URI):]
		if !iriSafe(name) {
			summary.Skipped++
			continue
		}
		term, ok := terms[name]
		if !ok {
			var created bool
			term, created, err = s.repo.GetOrCreateTerm(ctx, v.ID, name)
			if err != nil {
				return summary, fmt.Errorf("failed to import term %s: %w", name, err)
			}
			terms[name] = term
			if created {
				summary.Terms++
			}
		}

		predicate, _, err := s.repo.GetOrCreatePredicate(ctx, t.Predicate.IRI, ObjectTypeOf(t.Object))
		if err != nil {
			return summary, fmt.Errorf("failed to import predicate %s: %w", t.Predicate.IRI, err)
		}
		prop := Property{TermID: term.ID, PredicateID: predicate.ID, Predicate: predicate}
		if err := prop.SetObject(t.Object); err != nil {
			if errors.Is(err, ErrInvalidValue) {
				summary.Skipped++
				continue
			}
			return summary, err
		}
		if _, created, err := s.repo.GetOrCreateProperty(ctx, prop); err != nil {
			return summary, fmt.Errorf("failed to import property: %w", err)
		} else if created {
			summary.Properties++
		}
	}

	s.logger.Info("Imported graph",
		zap.Uint("vocabulary_id", v.ID),
		zap.Int("terms", summary.Terms),
		zap.Int("properties", summary.Properties),
		zap.Int("skipped", summary.Skipped))
	return summary, nil
}
