package tfidf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comprendre/internal/domain"
)

func TestEmbedRequiresPrepare(t *testing.T) {
	e := NewEmbedder()
	_, err := e.Embed(context.Background(), "texte", domain.IntentDocument)
	assert.Error(t, err)
}

func TestPrepareEmptyCorpus(t *testing.T) {
	assert.Error(t, NewEmbedder().Prepare(nil))
}

func TestEmbedDeterministic(t *testing.T) {
	e := NewEmbedder()
	corpus := []string{
		"Le RSA socle est versé par la CAF.",
		"La prime d'activité complète les revenus.",
		"Les APL réduisent le loyer.",
	}
	require.NoError(t, e.Prepare(corpus))

	first, err := e.Embed(context.Background(), corpus[0], domain.IntentDocument)
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), corpus[0], domain.IntentQuery)
	require.NoError(t, err)
	assert.Equal(t, first, second, "symmetric model: intent must not change the vector")
}

func TestEmbedSimilarityMatchesSharedVocabulary(t *testing.T) {
	e := NewEmbedder()
	corpus := []string{
		"Le RSA socle est versé par la CAF chaque mois.",
		"Le loyer et les charges locatives du logement.",
	}
	require.NoError(t, e.Prepare(corpus))

	query, err := e.Embed(context.Background(), "montant RSA socle", domain.IntentQuery)
	require.NoError(t, err)
	rsa, err := e.Embed(context.Background(), corpus[0], domain.IntentDocument)
	require.NoError(t, err)
	logement, err := e.Embed(context.Background(), corpus[1], domain.IntentDocument)
	require.NoError(t, err)

	assert.Greater(t, dot(query, rsa), dot(query, logement))
}

func TestEmbedOutOfVocabularyIsZero(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"Le RSA socle est versé par la CAF."}))
	vec, err := e.Embed(context.Background(), "kilomètres parcourus", domain.IntentQuery)
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
