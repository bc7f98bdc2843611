// Package ollama implements the extraction and recipe-generation
// capabilities against a local Ollama chat endpoint, using the
// format=json structured-output mode.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"nutricoach"
)

type options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
}

// Client implements nutricoach.FieldExtractor and
// nutricoach.RecipeGenerator.
type Client struct {
	endpoint   string
	model      string
	httpClient nutricoach.HTTPClient
	options    options
}

type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	HTTPClient   nutricoach.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.BaseEndpoint == "" {
		return nil, fmt.Errorf("invalid base endpoint")
	}
	if opts.HTTPClient == nil {
		return nil, fmt.Errorf("invalid HTTP client")
	}

	return &Client{
		model:      opts.ModelID,
		httpClient: opts.HTTPClient,
		endpoint:   opts.BaseEndpoint + "/api/chat",
		options: options{
			Temperature:   0.2,
			TopP:          0.9,
			RepeatPenalty: 1.05,
			NumCtx:        16384,
		},
	}, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Format   string        `json:"format"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options,omitempty"`
}

type wireResponse struct {
	Message wireMessage `json:"message"`
	// other metadata omitted but available
}

// Extract runs the intake prompt and decodes the JSON reply.
func (c *Client) Extract(ctx context.Context, promptContext string) (nutricoach.Extraction, error) {
	var out nutricoach.Extraction
	if err := c.invokeJSON(ctx, collectSystemPrompt, promptContext, &out); err != nil {
		return nutricoach.Extraction{}, err
	}
	return out, nil
}

// GenerateRecipes runs the recipe prompt and decodes the JSON reply.
func (c *Client) GenerateRecipes(ctx context.Context, promptContext string) (nutricoach.RecipeSet, error) {
	var out nutricoach.RecipeSet
	if err := c.invokeJSON(ctx, recipesSystemPrompt, promptContext, &out); err != nil {
		return nutricoach.RecipeSet{}, err
	}
	return out, nil
}

// invokeJSON sends one chat request in JSON mode and unmarshals the
// model's message content into target.
func (c *Client) invokeJSON(ctx context.Context, systemPrompt, userPrompt string, target any) error {
	slog.Info("LLM_CLIENT: Invoked", "model", c.model, "prompt_len", len(userPrompt))

	reqBody := wireRequest{
		Model: c.model,
		Messages: []wireMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Format: "json",
		Stream: false,
		Options: c.options,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("LLM_CLIENT: %s: %s", resp.Status, string(body))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return fmt.Errorf("LLM_CLIENT: decode failed: %w", err)
	}

	if err := json.Unmarshal([]byte(wr.Message.Content), target); err != nil {
		slog.Warn("LLM_CLIENT: structured decode failed", "err", err, "content", wr.Message.Content)
		return fmt.Errorf("LLM_CLIENT: model returned malformed JSON: %w", err)
	}
	return nil
}
