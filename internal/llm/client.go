// Package llm wraps an OpenAI-compatible chat completions API behind the
// three call shapes the pipeline needs: free-text completion, structured
// extraction validated against a JSON schema, and vision table transcription.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/settlementwatch/settlement-pipeline/internal/metrics"
)

// Config for the OpenAI-compatible client.
type Config struct {
	APIKey      string // falls back to env OPENAI_API_KEY
	BaseURL     string // default https://api.openai.com/v1
	Model       string
	VisionModel string
	Temperature float32
	Timeout     time.Duration
}

// Client calls the chat completions endpoint.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New constructs a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Complete runs one free-text chat call and returns the reply content.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	return c.chat(ctx, body, "complete")
}

// ExtractStructured runs one structured-output chat call. The reply must be
// JSON conforming to schema; it is validated and then unmarshalled into out.
func (c *Client) ExtractStructured(ctx context.Context, system, user string, schema map[string]any, out any) error {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": system},
			{"role": "user", "content": user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + string(schemaJSON)},
		},
	}
	content, err := c.chat(ctx, body, "extract")
	if err != nil {
		return err
	}
	raw := []byte(strings.TrimSpace(content))
	if err := validateAgainstSchema(schema, raw); err != nil {
		return fmt.Errorf("structured output: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal structured output: %w", err)
	}
	return nil
}

// TranscribeTable runs one vision call over a rendered table image and
// returns the transcribed rows.
func (c *Client) TranscribeTable(ctx context.Context, png []byte) (ExpenseTranscript, error) {
	schema := ExpenseTableSchema()
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return ExpenseTranscript{}, fmt.Errorf("marshal schema: %w", err)
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	body := map[string]any{
		"model":           c.cfg.VisionModel,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": TableTranscriptionSystemPrompt},
			{"role": "user", "content": []map[string]any{
				{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
			}},
			{"role": "system", "content": "Return ONLY JSON that matches this schema:\n" + string(schemaJSON)},
		},
	}
	content, err := c.chat(ctx, body, "transcribe")
	if err != nil {
		return ExpenseTranscript{}, err
	}
	raw := []byte(strings.TrimSpace(content))
	if err := validateAgainstSchema(schema, raw); err != nil {
		return ExpenseTranscript{}, fmt.Errorf("transcription output: %w", err)
	}
	var out ExpenseTranscript
	if err := json.Unmarshal(raw, &out); err != nil {
		return ExpenseTranscript{}, fmt.Errorf("unmarshal transcription: %w", err)
	}
	return out, nil
}

func (c *Client) chat(ctx context.Context, body map[string]any, kind string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	metrics.LLMCalls.WithLabelValues(kind).Inc()

	raw, err := c.post(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", body)
	if err != nil {
		c.logger.Error("llm call failed",
			zap.String("kind", kind),
			zap.String("req_id", rid),
			zap.Error(err),
		)
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in chat response")
	}

	c.logger.Debug("llm call ok",
		zap.String("kind", kind),
		zap.String("req_id", rid),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return cc.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chat status %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}
