// Package speech provides voice transcription for intake turns
// delivered as audio instead of text.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultModelID = "scribe_v1"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements nutricoach.Transcriber against the ElevenLabs
// speech-to-text API.
type Client struct {
	baseURL    string
	apiKey     string
	modelID    string
	httpClient doer
}

type ClientOpts struct {
	BaseURL    string
	APIKey     string
	ModelID    string
	HTTPClient doer
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("invalid API key")
	}
	if opts.HTTPClient == nil {
		return nil, fmt.Errorf("invalid HTTP client")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	return &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		modelID:    opts.ModelID,
		httpClient: opts.HTTPClient,
	}, nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe sends the audio bytes to the speech-to-text endpoint and
// returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio payload")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("model_id", c.modelID); err != nil {
		return "", err
	}
	part, err := mw.CreateFormFile("file", "audio.webm")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/speech-to-text", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription failed: %s: %s", resp.Status, string(respBody))
	}

	var tr transcriptionResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}
	return tr.Text, nil
}
