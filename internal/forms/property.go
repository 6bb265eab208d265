// Package forms validates user-submitted property values before they reach
// the service layer.
package forms

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/aleksaelezovic/vocabs/pkg/rdf"
	"github.com/aleksaelezovic/vocabs/pkg/vocab"
)

// Form field names.
const (
	FieldTerm      = "term_id"
	FieldPredicate = "predicate"
	FieldValue     = "value"
)

// PredicateResolver finds the predicate a prefixed name or IRI refers to.
type PredicateResolver interface {
	ResolvePredicate(ctx context.Context, input string) (vocab.Predicate, error)
}

// PropertyForm holds the raw fields of the property create/edit form and
// the errors found by Validate, keyed by field name.
type PropertyForm struct {
	TermID    string
	Predicate string
	Value     string
	Errors    map[string]string
}

// PropertyInput is a validated PropertyForm.
type PropertyInput struct {
	TermID    uint
	Predicate vocab.Predicate
	Value     rdf.Term
}

// NewPropertyForm reads the form fields from values.
func NewPropertyForm(values url.Values) *PropertyForm {
	return &PropertyForm{
		TermID:    strings.TrimSpace(values.Get(FieldTerm)),
		Predicate: strings.TrimSpace(values.Get(FieldPredicate)),
		Value:     values.Get(FieldValue),
	}
}

// Blank reports whether no value was submitted.
func (f *PropertyForm) Blank() bool {
	return strings.TrimSpace(f.Value) == ""
}

func (f *PropertyForm) addError(field, msg string) {
	if f.Errors == nil {
		f.Errors = make(map[string]string)
	}
	if _, ok := f.Errors[field]; !ok {
		f.Errors[field] = msg
	}
}

// Valid reports whether the last Validate found no errors.
func (f *PropertyForm) Valid() bool {
	return len(f.Errors) == 0
}

// Validate resolves the predicate and parses the value against its object
// type. Field errors are recorded on the form; a non-nil error is returned
// only when the resolver fails for reasons other than bad input.
func (f *PropertyForm) Validate(ctx context.Context, predicates PredicateResolver, ns *rdf.NamespaceManager) (PropertyInput, error) {
	f.Errors = nil
	var input PropertyInput

	id, err := strconv.ParseUint(f.TermID, 10, 64)
	if err != nil || id == 0 {
		f.addError(FieldTerm, "Select a valid term.")
	}
	input.TermID = uint(id)

	predicate, err := predicates.ResolvePredicate(ctx, f.Predicate)
	switch {
	case err == nil:
		input.Predicate = predicate
	case errors.Is(err, vocab.ErrInvalidValue), errors.Is(err, vocab.ErrNotFound):
		f.addError(FieldPredicate, "Select a valid predicate.")
	default:
		return input, err
	}

	if f.Blank() {
		f.addError(FieldValue, "This field is required.")
	} else if input.Predicate.ID != 0 {
		value, err := vocab.ParseValue(input.Predicate.ObjectType, f.Value, ns)
		if err != nil {
			f.addError(FieldValue, valueError(err))
		}
		input.Value = value
	}

	if !f.Valid() {
		return PropertyInput{}, nil
	}
	return input, nil
}

func valueError(err error) string {
	var n3Err *rdf.N3Error
	if errors.As(err, &n3Err) {
		return n3Err.Error()
	}
	return strings.TrimPrefix(err.Error(), vocab.ErrInvalidValue.Error()+": ")
}
