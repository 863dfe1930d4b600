package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adventurebuddha/internal/domain/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorePutListReplace(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put(FAQChunks()...))
	faq, err := s.List(SourceFAQ)
	require.NoError(t, err)
	assert.Len(t, faq, len(FAQChunks()))

	has, err := s.HasSource(SourceTrip)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.ReplaceSource(SourceTrip, []Chunk{{ID: "1", Text: "Ladakh bike expedition"}}))
	require.NoError(t, s.ReplaceSource(SourceTrip, []Chunk{{ID: "2", Text: "Goa beach camp"}}))
	trips, err := s.List(SourceTrip)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "2", trips[0].ID)
	assert.Equal(t, SourceTrip, trips[0].Source)

	_, err = s.Get(SourceTrip, "1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSearchTokenOverlap(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put(FAQChunks()...))

	res, err := Retriever{Store: s}.Search(context.Background(), SourceFAQ, "What is your cancellation refund policy?", 2)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "cancellation", res[0].ID)
	assert.LessOrEqual(t, len(res), 2)
}

type fixedEmbedder struct{ vec []float32 }

func (f fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

func TestSearchCosine(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put(
		Chunk{ID: "a", Source: SourceTrip, Text: "one", Embedding: []float32{1, 0}},
		Chunk{ID: "b", Source: SourceTrip, Text: "two", Embedding: []float32{0, 1}},
		Chunk{ID: "c", Source: SourceTrip, Text: "three", Embedding: []float32{0.6, 0.8}},
	))

	res, err := Retriever{Store: s, Embedder: fixedEmbedder{vec: []float32{0, 1}}}.Search(context.Background(), SourceTrip, "anything", 3)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "b", res[0].ID)
	assert.Equal(t, "c", res[1].ID)
}

func TestTripChunksSkipsUnpublished(t *testing.T) {
	chunks := TripChunks([]models.Trip{
		{ID: 1, Title: "Spiti", Status: models.TripStatusPublished, Price: 24999, Tags: []string{"himalaya"}},
		{ID: 2, Title: "Draft trip", Status: models.TripStatusDraft},
	})
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, "Rs. 24,999.00")
	assert.Contains(t, chunks[0].Text, "himalaya")
}
