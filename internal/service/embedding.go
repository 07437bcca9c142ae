package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/mediafind/internal/config"
)

const jinaEndpoint = "https://api.jina.ai/v1/embeddings"

// EmbeddingProvider is the external embedding model boundary: an image
// buffer in, a fixed-length float vector out. Returned vectors are
// pre-normalization; callers compute cosine similarity with explicit
// norms.
type EmbeddingProvider interface {
	EmbedImage(ctx context.Context, data []byte) ([]float32, error)
	Dimensions() int
	GetModel() string
}

// EmbeddingService generates image embeddings via a Jina-compatible
// multimodal embedding API.
type EmbeddingService struct {
	client     *resty.Client
	model      string
	dimensions int
	endpoint   string
}

// NewEmbeddingService creates a new embedding service.
// Parameters:
//   - cfg: embedding provider configuration.
// Returns:
//   - *EmbeddingService: initialized client.
func NewEmbeddingService(cfg *config.EmbeddingConfig) *EmbeddingService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	endpoint := jinaEndpoint
	if cfg.BaseURL != "" {
		endpoint = cfg.BaseURL + "/embeddings"
	}

	return &EmbeddingService{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		endpoint:   endpoint,
	}
}

// GetModel returns the model name being used.
func (s *EmbeddingService) GetModel() string {
	return s.model
}

// Dimensions returns the configured vector dimensionality.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// Jina API request/response structures
type jinaImageInput struct {
	Image string `json:"image"`
}

type jinaRequest struct {
	Model         string           `json:"model"`
	Dimensions    int              `json:"dimensions,omitempty"`
	Input         []jinaImageInput `json:"input"`
	EmbeddingType string           `json:"embedding_type,omitempty"`
}

type jinaResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Detail string `json:"detail,omitempty"`
}

// EmbedImage generates an embedding for a single image buffer.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - data: raw image bytes.
// Returns:
//   - []float32: embedding vector of Dimensions() length.
//   - error: non-nil if the API call fails. Callers treat this as a
//     soft per-frame failure, never a pipeline abort.
func (s *EmbeddingService) EmbedImage(ctx context.Context, data []byte) ([]float32, error) {
	req := jinaRequest{
		Model:         s.model,
		Dimensions:    s.dimensions,
		Input:         []jinaImageInput{{Image: base64.StdEncoding.EncodeToString(data)}},
		EmbeddingType: "float",
	}

	var resp jinaResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return nil, fmt.Errorf("failed to call embedding API: %w", err)
	}

	if httpResp.StatusCode() != 200 {
		if resp.Detail != "" {
			return nil, fmt.Errorf("embedding API error: %s", resp.Detail)
		}
		return nil, fmt.Errorf("embedding API error: status %d", httpResp.StatusCode())
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	embedding := resp.Data[0].Embedding
	if s.dimensions > 0 && len(embedding) != s.dimensions {
		return nil, fmt.Errorf("unexpected embedding dimension: got %d, expected %d", len(embedding), s.dimensions)
	}

	return embedding, nil
}
