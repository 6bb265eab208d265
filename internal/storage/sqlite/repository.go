package sqlite

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/aleksaelezovic/vocabs/pkg/vocab"
)

// Repository implements vocab.Repository with gorm.
type Repository struct {
	db *gorm.DB
}

var _ vocab.Repository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error, what string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %v: %w", what, id, vocab.ErrNotFound)
	}
	return err
}

func toVocabulary(m VocabularyModel) vocab.Vocabulary {
	return vocab.Vocabulary{ID: m.ID, URI: m.URI, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func toTerm(m TermModel) vocab.Term {
	return vocab.Term{
		ID:           m.ID,
		VocabularyID: m.VocabularyID,
		Vocabulary:   toVocabulary(m.Vocabulary),
		Name:         m.Name,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toPredicate(m PredicateModel) vocab.Predicate {
	return vocab.Predicate{
		ID:         m.ID,
		URI:        m.URI,
		ObjectType: vocab.ObjectType(m.ObjectType),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toProperty(m PropertyModel) vocab.Property {
	return vocab.Property{
		ID:          m.ID,
		TermID:      m.TermID,
		PredicateID: m.PredicateID,
		Predicate:   toPredicate(m.Predicate),
		Value:       m.Value,
		Language:    m.Language,
		Datatype:    m.Datatype,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (r *Repository) GetOrCreateVocabulary(ctx context.Context, uri string) (vocab.Vocabulary, bool, error) {
	var m VocabularyModel
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("uri = ?", uri).First(&m).Error
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		m = VocabularyModel{URI: uri}
		created = true
		return tx.Create(&m).Error
	})
	if err != nil {
		return vocab.Vocabulary{}, false, err
	}
	return toVocabulary(m), created, nil
}

func (r *Repository) GetVocabulary(ctx context.Context, id uint) (vocab.Vocabulary, error) {
	var m VocabularyModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return vocab.Vocabulary{}, notFound(err, "vocabulary", id)
	}
	return toVocabulary(m), nil
}

func (r *Repository) GetVocabularyByURI(ctx context.Context, uri string) (vocab.Vocabulary, error) {
	var m VocabularyModel
	if err := r.db.WithContext(ctx).Where("uri = ?", uri).First(&m).Error; err != nil {
		return vocab.Vocabulary{}, notFound(err, "vocabulary", uri)
	}
	return toVocabulary(m), nil
}

func (r *Repository) ListVocabularies(ctx context.Context) ([]vocab.Vocabulary, error) {
	rows := make([]VocabularyModel, 0)
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]vocab.Vocabulary, 0, len(rows))
	for _, m := range rows {
		result = append(result, toVocabulary(m))
	}
	return result, nil
}

func (r *Repository) GetOrCreateTerm(ctx context.Context, vocabularyID uint, name string) (vocab.Term, bool, error) {
	var m TermModel
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v VocabularyModel
		if err := tx.First(&v, vocabularyID).Error; err != nil {
			return notFound(err, "vocabulary", vocabularyID)
		}
		err := tx.Where("vocabulary_id = ? AND name = ?", vocabularyID, name).First(&m).Error
		if err == nil {
			m.Vocabulary = v
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		m = TermModel{VocabularyID: vocabularyID, Name: name}
		if err := tx.Omit("Vocabulary").Create(&m).Error; err != nil {
			return err
		}
		m.Vocabulary = v
		created = true
		return nil
	})
	if err != nil {
		return vocab.Term{}, false, err
	}
	return toTerm(m), created, nil
}

func (r *Repository) GetTerm(ctx context.Context, id uint) (vocab.Term, error) {
	var m TermModel
	if err := r.db.WithContext(ctx).Preload("Vocabulary").First(&m, id).Error; err != nil {
		return vocab.Term{}, notFound(err, "term", id)
	}
	return toTerm(m), nil
}

func (r *Repository) ListTerms(ctx context.Context, vocabularyID uint) ([]vocab.Term, error) {
	rows := make([]TermModel, 0)
	err := r.db.WithContext(ctx).
		Preload("Vocabulary").
		Where("vocabulary_id = ?", vocabularyID).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]vocab.Term, 0, len(rows))
	for _, m := range rows {
		result = append(result, toTerm(m))
	}
	return result, nil
}

func (r *Repository) DeleteTerm(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("term_id = ?", id).Delete(&PropertyModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&TermModel{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("term %d: %w", id, vocab.ErrNotFound)
		}
		return nil
	})
}

func (r *Repository) GetOrCreatePredicate(ctx context.Context, uri string, objectType vocab.ObjectType) (vocab.Predicate, bool, error) {
	var m PredicateModel
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("uri = ?", uri).First(&m).Error
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		m = PredicateModel{URI: uri, ObjectType: string(objectType)}
		created = true
		return tx.Create(&m).Error
	})
	if err != nil {
		return vocab.Predicate{}, false, err
	}
	return toPredicate(m), created, nil
}

func (r *Repository) GetPredicate(ctx context.Context, id uint) (vocab.Predicate, error) {
	var m PredicateModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return vocab.Predicate{}, notFound(err, "predicate", id)
	}
	return toPredicate(m), nil
}

func (r *Repository) GetPredicateByURI(ctx context.Context, uri string) (vocab.Predicate, error) {
	var m PredicateModel
	if err := r.db.WithContext(ctx).Where("uri = ?", uri).First(&m).Error; err != nil {
		return vocab.Predicate{}, notFound(err, "predicate", uri)
	}
	return toPredicate(m), nil
}

func (r *Repository) ListPredicates(ctx context.Context) ([]vocab.Predicate, error) {
	rows := make([]PredicateModel, 0)
	if err := r.db.WithContext(ctx).Order("uri ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]vocab.Predicate, 0, len(rows))
	for _, m := range rows {
		result = append(result, toPredicate(m))
	}
	return result, nil
}

func (r *Repository) GetOrCreateProperty(ctx context.Context, value vocab.Property) (vocab.Property, bool, error) {
	var m PropertyModel
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var term TermModel
		if err := tx.First(&term, value.TermID).Error; err != nil {
			return notFound(err, "term", value.TermID)
		}
		var predicate PredicateModel
		if err := tx.First(&predicate, value.PredicateID).Error; err != nil {
			return notFound(err, "predicate", value.PredicateID)
		}

		err := tx.Where("term_id = ? AND predicate_id = ? AND value = ? AND language = ? AND datatype = ?",
			value.TermID, value.PredicateID, value.Value, value.Language, value.Datatype).
			First(&m).Error
		if err == nil {
			m.Predicate = predicate
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		m = PropertyModel{
			TermID:      value.TermID,
			PredicateID: value.PredicateID,
			Value:       value.Value,
			Language:    value.Language,
			Datatype:    value.Datatype,
		}
		if err := tx.Omit("Predicate").Create(&m).Error; err != nil {
			return err
		}
		m.Predicate = predicate
		created = true
		return nil
	})
	if err != nil {
		return vocab.Property{}, false, err
	}
	return toProperty(m), created, nil
}

func (r *Repository) UpdateProperty(ctx context.Context, value vocab.Property) (vocab.Property, error) {
	var m PropertyModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Predicate").First(&m, value.ID).Error; err != nil {
			return notFound(err, "property", value.ID)
		}
		m.Value = value.Value
		m.Language = value.Language
		m.Datatype = value.Datatype
		return tx.Omit("Predicate").Save(&m).Error
	})
	if err != nil {
		return vocab.Property{}, err
	}
	return toProperty(m), nil
}

func (r *Repository) GetProperty(ctx context.Context, id uint) (vocab.Property, error) {
	var m PropertyModel
	if err := r.db.WithContext(ctx).Preload("Predicate").First(&m, id).Error; err != nil {
		return vocab.Property{}, notFound(err, "property", id)
	}
	return toProperty(m), nil
}

func (r *Repository) ListProperties(ctx context.Context, termID uint) ([]vocab.Property, error) {
	rows := make([]PropertyModel, 0)
	err := r.db.WithContext(ctx).
		Preload("Predicate").
		Where("term_id = ?", termID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]vocab.Property, 0, len(rows))
	for _, m := range rows {
		result = append(result, toProperty(m))
	}
	return result, nil
}

func (r *Repository) DeleteProperty(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&PropertyModel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("property %d: %w", id, vocab.ErrNotFound)
	}
	return nil
}
