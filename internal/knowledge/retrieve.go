package knowledge

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"
)

// Embedder turns texts into vectors. Implementations may be unavailable, in
// which case retrieval falls back to token overlap.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Scored struct {
	Chunk
	Score float64 `json:"score"`
}

type Retriever struct {
	Store    *Store
	Embedder Embedder
}

// Search returns up to k chunks of source with a positive score, best first.
func (r Retriever) Search(ctx context.Context, source, query string, k int) ([]Scored, error) {
	if r.Store == nil || k <= 0 || strings.TrimSpace(query) == "" {
		return []Scored{}, nil
	}
	chunks, err := r.Store.List(source)
	if err != nil {
		return nil, err
	}

	var qvec []float32
	if r.Embedder != nil && hasEmbeddings(chunks) {
		if vecs, err := r.Embedder.Embed(ctx, []string{query}); err == nil && len(vecs) == 1 {
			qvec = vecs[0]
		}
	}

	qtokens := tokenSet(query)
	scored := make([]Scored, 0, len(chunks))
	for _, c := range chunks {
		var s float64
		if qvec != nil && len(c.Embedding) == len(qvec) {
			s = Cosine(qvec, c.Embedding)
		} else {
			s = Overlap(qtokens, tokenSet(c.Title+" "+c.Text))
		}
		if s > 0 {
			scored = append(scored, Scored{Chunk: c, Score: s})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func hasEmbeddings(chunks []Chunk) bool {
	for _, c := range chunks {
		if len(c.Embedding) > 0 {
			return true
		}
	}
	return false
}

func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "to": true, "of": true, "in": true,
	"and": true, "or": true, "for": true, "on": true, "with": true, "what": true, "how": true,
	"do": true, "does": true, "i": true, "you": true, "my": true, "me": true, "can": true, "it": true,
}

func tokenSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(f) < 2 || stopwords[f] {
			continue
		}
		out[f] = true
	}
	return out
}

// Overlap is the share of query tokens present in the chunk.
func Overlap(query, chunk map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for t := range query {
		if chunk[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

// Context renders retrieved chunks for a prompt.
func Context(results []Scored) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if r.Title != "" {
			b.WriteString(r.Title)
			b.WriteString(":\n")
		}
		b.WriteString(r.Text)
	}
	return b.String()
}
