package retrieval

import (
	"context"
	"math"

	errx "github.com/hr-copilot-poc/server/internal/core/error"
	logx "github.com/hr-copilot-poc/server/pkg/logger"
)

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is an immutable in-memory vector index. Build it once, then Search
// concurrently; there is no mutation after construction.
type Index struct {
	embedder Embedder
	docs     []Document
	vectors  [][]float32
}

// BuildIndex embeds every document and returns the ready index.
func BuildIndex(ctx context.Context, embedder Embedder, docs []Document) (*Index, error) {
	vectors := make([][]float32, len(docs))
	for i, d := range docs {
		v, err := embedder.Embed(ctx, d.Text)
		if err != nil {
			return nil, errx.Upstream(err, "embedding service failed")
		}
		vectors[i] = v
	}
	logx.Info().Int("documents", len(docs)).Msg("retrieval index built")
	return &Index{embedder: embedder, docs: docs, vectors: vectors}, nil
}

// Search returns the k documents most similar to the query, best first.
// Relevance judgement is left to the caller; this is pure similarity.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 || len(ix.docs) == 0 {
		return nil, nil
	}
	qv, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errx.Upstream(err, "embedding service failed")
	}

	top := topK(qv, ix.vectors, k)
	out := make([]Document, 0, len(top))
	for _, i := range top {
		out = append(out, ix.docs[i])
	}
	return out, nil
}

// Len reports the number of indexed documents.
func (ix *Index) Len() int {
	return len(ix.docs)
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// topK returns indices of the k vectors most similar to query, best first.
// Selection sort is fine for small k.
func topK(query []float32, vectors [][]float32, k int) []int {
	type scored struct {
		idx   int
		score float32
	}
	scores := make([]scored, len(vectors))
	for i, v := range vectors {
		scores[i] = scored{idx: i, score: cosineSimilarity(query, v)}
	}

	for i := 0; i < k && i < len(scores); i++ {
		maxIdx := i
		for j := i + 1; j < len(scores); j++ {
			if scores[j].score > scores[maxIdx].score {
				maxIdx = j
			}
		}
		scores[i], scores[maxIdx] = scores[maxIdx], scores[i]
	}

	result := make([]int, 0, k)
	for i := 0; i < k && i < len(scores); i++ {
		result = append(result, scores[i].idx)
	}
	return result
}
