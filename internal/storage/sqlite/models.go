package sqlite

import "time"

type VocabularyModel struct {
	ID        uint   `gorm:"primaryKey"`
	URI       string `gorm:"column:uri;not null;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (VocabularyModel) TableName() string { return "vocabularies" }

type TermModel struct {
	ID           uint            `gorm:"primaryKey"`
	VocabularyID uint            `gorm:"not null;index:idx_vocabulary_term,unique"`
	Vocabulary   VocabularyModel `gorm:"foreignKey:VocabularyID"`
	Name         string          `gorm:"not null;index:idx_vocabulary_term,unique"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (TermModel) TableName() string { return "terms" }

type PredicateModel struct {
	ID         uint   `gorm:"primaryKey"`
	URI        string `gorm:"column:uri;not null;uniqueIndex"`
	ObjectType string `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (PredicateModel) TableName() string { return "predicates" }

type PropertyModel struct {
	ID          uint           `gorm:"primaryKey"`
	TermID      uint           `gorm:"not null;index"`
	PredicateID uint           `gorm:"not null;index"`
	Predicate   PredicateModel `gorm:"foreignKey:PredicateID"`
	Value       string         `gorm:"not null"`
	Language    string         `gorm:"not null;default:''"`
	Datatype    string         `gorm:"not null;default:''"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PropertyModel) TableName() string { return "properties" }
