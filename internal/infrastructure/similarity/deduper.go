package similarity

import (
	"context"
	"fmt"
	"math"

	"SlateBuilder/internal/domain"
	"SlateBuilder/internal/ports"
)

// Deduper turns candidate titles into a near-duplicate predicate over
// candidate ids: two candidates are near-duplicates when their title
// embeddings reach the cosine-similarity threshold.
type Deduper struct {
	embedder  ports.Embedder
	threshold float64
}

var _ ports.Deduper = (*Deduper)(nil)

// NewDeduper wires an embedder with a similarity threshold in (0, 1].
func NewDeduper(embedder ports.Embedder, threshold float64) *Deduper {
	return &Deduper{embedder: embedder, threshold: threshold}
}

// BuildPredicate embeds every titled candidate once and closes the predicate
// over the resulting vectors. Candidates without a title, or pairs lacking a
// vector, are never flagged.
func (d *Deduper) BuildPredicate(ctx context.Context, pool []domain.Candidate) (ports.NearDuplicate, error) {
	texts := make([]string, 0, len(pool))
	ids := make([]string, 0, len(pool))
	for _, c := range pool {
		if c.Title == "" {
			continue
		}
		texts = append(texts, c.Title)
		ids = append(ids, c.ID)
	}
	if len(texts) < 2 {
		return nil, nil
	}

	vectors, err := d.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed candidate titles: %w", err)
	}

	byID := make(map[string][]float32, len(ids))
	for i, id := range ids {
		byID[id] = vectors[i]
	}

	threshold := d.threshold
	return func(aID, bID string) bool {
		a, okA := byID[aID]
		b, okB := byID[bID]
		if !okA || !okB {
			return false
		}
		return cosine(a, b) >= threshold
	}, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
