package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HuggingFaceEmbeddings implements EmbeddingService using the HuggingFace
// Inference API feature-extraction pipeline.
type HuggingFaceEmbeddings struct {
	apiKey       string
	model        string
	endpoint     string
	waitForModel bool
	dimensions   int
	client       *http.Client
}

type hfRequest struct {
	Inputs  any               `json:"inputs"`
	Options *hfRequestOptions `json:"options,omitempty"`
}

type hfRequestOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

func init() {
	Register("huggingface", NewHuggingFace)
}

// NewHuggingFace creates a new HuggingFaceEmbeddings instance.
func NewHuggingFace(config Config) (EmbeddingService, error) {
	if config.HuggingFace == nil {
		return nil, fmt.Errorf("huggingface configuration is required")
	}
	if config.HuggingFace.Model == "" {
		return nil, fmt.Errorf("huggingface model is required")
	}

	endpoint := config.HuggingFace.Endpoint
	if endpoint == "" {
		endpoint = "https://api-inference.huggingface.co"
	}

	return &HuggingFaceEmbeddings{
		apiKey:       config.HuggingFace.APIKey,
		model:        config.HuggingFace.Model,
		endpoint:     endpoint,
		waitForModel: config.HuggingFace.WaitForModel,
		dimensions:   modelDimensions(config.HuggingFace.Model),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Embed generates an embedding for a single text.
func (h *HuggingFaceEmbeddings) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	embeddings, err := h.makeRequest(ctx, hfRequest{
		Inputs:  text,
		Options: &hfRequestOptions{WaitForModel: h.waitForModel},
	})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts.
func (h *HuggingFaceEmbeddings) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	return h.makeRequest(ctx, hfRequest{
		Inputs:  texts,
		Options: &hfRequestOptions{WaitForModel: h.waitForModel},
	})
}

// Dimensions returns the dimension size of the embeddings.
func (h *HuggingFaceEmbeddings) Dimensions() int {
	return h.dimensions
}

// ModelName returns the name of the embedding model.
func (h *HuggingFaceEmbeddings) ModelName() string {
	return h.model
}

// Close closes any resources held by the service.
func (h *HuggingFaceEmbeddings) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

func (h *HuggingFaceEmbeddings) makeRequest(ctx context.Context, reqBody hfRequest) ([][]float32, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", h.endpoint, h.model)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var embeddings [][]float32
	if err := json.Unmarshal(body, &embeddings); err != nil {
		// Single-input requests return a bare vector.
		var single []float32
		if err2 := json.Unmarshal(body, &single); err2 != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		embeddings = [][]float32{single}
	}

	return embeddings, nil
}

func modelDimensions(model string) int {
	knownDimensions := map[string]int{
		"sentence-transformers/all-MiniLM-L6-v2":  384,
		"sentence-transformers/all-MiniLM-L12-v2": 384,
		"sentence-transformers/all-mpnet-base-v2": 768,
		"BAAI/bge-small-en-v1.5":                  384,
		"BAAI/bge-large-en-v1.5":                  1024,
		"thenlper/gte-large":                      1024,
	}

	if dim, ok := knownDimensions[model]; ok {
		return dim
	}
	return 768
}
