package ai

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// EmbeddingClient wraps the Google Generative AI embedding model
// (text-embedding-004 by default).
type EmbeddingClient struct {
	client     *genai.Client
	model      string
	dimensions int
}

func NewEmbeddingClient(apiKey, model string, dimensions int) (*EmbeddingClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &EmbeddingClient{
		client:     client,
		model:      model,
		dimensions: dimensions,
	}, nil
}

// EmbedBatch embeds texts in a single batched API call and returns one
// vector per input, in input order.
func (ec *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	tracer := otel.Tracer("embedding-client")
	ctx, span := tracer.Start(ctx, "gemini.embed_batch")
	defer span.End()

	span.SetAttributes(
		attribute.Int("embedding.batch_size", len(texts)),
		attribute.String("embedding.model", ec.model),
	)

	if len(texts) == 0 {
		return nil, nil
	}

	em := ec.client.EmbeddingModel(ec.model)
	batch := em.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		span.SetAttributes(attribute.Bool("embedding.error", true))
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
		if ec.dimensions > 0 && len(emb.Values) != ec.dimensions {
			return nil, fmt.Errorf("unexpected embedding dimension for input %d: got %d, want %d", i, len(emb.Values), ec.dimensions)
		}
		vectors[i] = emb.Values
	}

	return vectors, nil
}

// Dimensions reports the expected vector width.
func (ec *EmbeddingClient) Dimensions() int {
	return ec.dimensions
}

func (ec *EmbeddingClient) Close() error {
	if ec.client != nil {
		return ec.client.Close()
	}
	return nil
}
