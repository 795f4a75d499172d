// Package similarity provides the embeddings-backed near-duplicate
// capability. It is optional: the pipeline runs without it, and any failure
// here degrades to "no predicate" rather than failing a slate build.
package similarity

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"SlateBuilder/internal/ports"
)

// OpenAIEmbedder maps texts to vectors via the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

var _ ports.Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder builds a client for the given API key and model name.
func NewOpenAIEmbedder(apiKey, model string) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  openai.EmbeddingModel(model),
	}
}

// Embed requests one vector per input text, preserving order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embeddings: index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// localDim is the vector width of the in-process embedder.
const localDim = 16

// LocalEmbedder is a deterministic in-process embedder with no external
// dependencies: character codes folded into a small fixed-width vector.
// It is coarse, but stable, cheap, and good enough to flag verbatim or
// near-verbatim titles; it also keeps tests and offline setups hermetic.
type LocalEmbedder struct{}

var _ ports.Embedder = LocalEmbedder{}

// Embed maps each text to its folded character histogram.
func (LocalEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, localDim)
		for j, r := range text {
			v[(j+int(r))%localDim] += float32(int(r)%10 + 1)
		}
		vectors[i] = v
	}
	return vectors, nil
}
