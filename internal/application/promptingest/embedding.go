// Package promptingest implements priority/batch prompt ingest (spec §4.5):
// embed incoming prompt texts, fold near-duplicates into existing prompts
// via nearest-neighbour search, and enqueue fresh work for each result.
package promptingest

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/rosklyar/prompts-volume-sub000/internal/config"
)

// EmbeddingService is the black-box collaborator spec §1/§9 carves out of
// scope: encode(texts[]) -> vectors[]. The ingest service depends only on
// this interface so the embedding backend can be swapped without touching
// dedup/enqueue logic.
type EmbeddingService interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIEmbeddingService is the default EmbeddingService, grounded on the
// teacher's LLM executor (internal/application/executor/node_executors.go):
// same client construction and per-call context, applied to the embeddings
// endpoint instead of chat completions.
type OpenAIEmbeddingService struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIEmbeddingService(cfg config.EmbeddingConfig) *OpenAIEmbeddingService {
	return &OpenAIEmbeddingService{
		client: openai.NewClient(cfg.APIKey),
		model:  openai.EmbeddingModel(cfg.Model),
	}
}

// Encode calls the embeddings endpoint once for the whole batch, preserving
// input order in the returned slice (spec §4.5 step 1, "Embed all texts in
// one batch").
func (s *OpenAIEmbeddingService) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: s.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response length mismatch: got %d, want %d", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
