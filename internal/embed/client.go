// Package embed calls an OpenAI-format embeddings API and provides the
// vector math used for retrieval and chunk clustering.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Embedder turns a batch of strings into vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Config for the embeddings client.
type Config struct {
	APIKey    string // falls back to env OPENAI_API_KEY
	BaseURL   string // default https://api.openai.com/v1
	Model     string // default text-embedding-3-small
	BatchSize int
	Timeout   time.Duration
}

// Client implements Embedder against the /embeddings endpoint. The OpenAI
// request format also covers vLLM, Ollama and similar servers.
type Client struct {
	cfg  Config
	http *http.Client
}

// New constructs a Client.
func New(cfg Config) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// EmbedBatch embeds texts, splitting into API batches of BatchSize.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float64, len(texts))
	for start := 0; start < len(texts); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(texts))
		vecs, err := c.call(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		copy(out[start:end], vecs)
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, batch []string) ([][]float64, error) {
	body, err := json.Marshal(embedRequest{Model: c.cfg.Model, Input: batch})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embeddings response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embeddings status %d: %s", resp.StatusCode, string(data))
	}

	var er embedResponse
	if err := json.Unmarshal(data, &er); err != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", err)
	}
	if len(er.Data) != len(batch) {
		return nil, fmt.Errorf("embeddings count mismatch: want %d, got %d", len(batch), len(er.Data))
	}
	vecs := make([][]float64, len(batch))
	for _, d := range er.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embeddings index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}
