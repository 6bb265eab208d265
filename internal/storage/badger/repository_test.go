package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/vocabs/pkg/vocab"
)

func openTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestGetOrCreateProperty_NULInValues(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepository(t)

	v, _, err := repo.GetOrCreateVocabulary(ctx, "http://example.org/ns#")
	require.NoError(t, err)
	term, _, err := repo.GetOrCreateTerm(ctx, v.ID, "Thing")
	require.NoError(t, err)
	label, _, err := repo.GetOrCreatePredicate(ctx, "http://www.w3.org/2000/01/rdf-schema#label", vocab.ObjectLiteral)
	require.NoError(t, err)

	first, created, err := repo.GetOrCreateProperty(ctx, vocab.Property{
		TermID: term.ID, PredicateID: label.ID, Value: "a\x00", Datatype: "b",
	})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.GetOrCreateProperty(ctx, vocab.Property{
		TermID: term.ID, PredicateID: label.ID, Value: "a", Datatype: "\x00b",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "a", second.Value)
	assert.Equal(t, "\x00b", second.Datatype)
}

func TestIndexHitIsVerified(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepository(t)

	alpha, _, err := repo.GetOrCreateVocabulary(ctx, "http://alpha.example/")
	require.NoError(t, err)
	term, _, err := repo.GetOrCreateTerm(ctx, alpha.ID, "One")
	require.NoError(t, err)
	pred, _, err := repo.GetOrCreatePredicate(ctx, "http://alpha.example/p", vocab.ObjectLiteral)
	require.NoError(t, err)
	prop, _, err := repo.GetOrCreateProperty(ctx, vocab.Property{TermID: term.ID, PredicateID: pred.ID, Value: "x"})
	require.NoError(t, err)

	// point the index entries for other inputs at the existing records
	other := propertyRecord{TermID: term.ID, PredicateID: pred.ID, Value: "y"}
	require.NoError(t, repo.s.update(ctx, func(tx *txn) error {
		if err := tx.set(tableVocabularyURI, hashKey(0, "http://beta.example/"), idKey(alpha.ID)); err != nil {
			return err
		}
		if err := tx.set(tableTermName, hashKey(alpha.ID, "Two"), idKey(term.ID)); err != nil {
			return err
		}
		if err := tx.set(tablePredicateURI, hashKey(0, "http://alpha.example/q"), idKey(pred.ID)); err != nil {
			return err
		}
		return tx.set(tablePropertyValue, propertyValueKey(other), idKey(prop.ID))
	}))

	_, _, err = repo.GetOrCreateVocabulary(ctx, "http://beta.example/")
	assert.ErrorIs(t, err, errIndexCollision)
	_, err = repo.GetVocabularyByURI(ctx, "http://beta.example/")
	assert.ErrorIs(t, err, errIndexCollision)
	_, _, err = repo.GetOrCreateTerm(ctx, alpha.ID, "Two")
	assert.ErrorIs(t, err, errIndexCollision)
	_, _, err = repo.GetOrCreatePredicate(ctx, "http://alpha.example/q", vocab.ObjectLiteral)
	assert.ErrorIs(t, err, errIndexCollision)
	_, err = repo.GetPredicateByURI(ctx, "http://alpha.example/q")
	assert.ErrorIs(t, err, errIndexCollision)
	_, _, err = repo.GetOrCreateProperty(ctx, vocab.Property{TermID: term.ID, PredicateID: pred.ID, Value: "y"})
	assert.ErrorIs(t, err, errIndexCollision)
}
