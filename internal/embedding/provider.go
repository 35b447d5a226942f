// Package embedding generates the vector embeddings the semantic cache and
// the stored thought rows are indexed by, generalized from the teacher's
// pkg/embedding.EmbeddingProvider.
package embedding

import "context"

type Provider interface {
	Generate(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
