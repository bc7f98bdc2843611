package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"nutricoach"
)

// mockHTTPClient implements the HTTPClient interface for testing
type mockHTTPClient struct {
	response *http.Response
	err      error
	lastReq  *http.Request
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.lastReq = req
	return m.response, m.err
}

// createMockResponse creates a mock HTTP response
func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

// chatResponse wraps a content payload in the Ollama chat envelope.
func chatResponse(content any) string {
	inner, _ := json.Marshal(content)
	outer, _ := json.Marshal(map[string]any{
		"message": map[string]any{"role": "assistant", "content": string(inner)},
	})
	return string(outer)
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		opts    ClientOpts
		wantErr bool
	}{
		{
			name: "valid client creation",
			opts: ClientOpts{
				BaseEndpoint: "http://localhost:11434",
				ModelID:      "llama3.2",
				HTTPClient:   &mockHTTPClient{},
			},
			wantErr: false,
		},
		{
			name: "missing endpoint",
			opts: ClientOpts{
				ModelID:    "llama3.2",
				HTTPClient: &mockHTTPClient{},
			},
			wantErr: true,
		},
		{
			name: "missing HTTP client",
			opts: ClientOpts{
				BaseEndpoint: "http://localhost:11434",
				ModelID:      "llama3.2",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewClient(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if got.endpoint != "http://localhost:11434/api/chat" {
				t.Errorf("NewClient() endpoint = %v", got.endpoint)
			}
		})
	}
}

func TestClient_Extract(t *testing.T) {
	tests := []struct {
		name        string
		response    *http.Response
		mockErr     error
		want        nutricoach.Extraction
		wantErr     bool
		errContains string
	}{
		{
			name: "successful extraction",
			response: createMockResponse(200, chatResponse(map[string]any{
				"say":     "How tall are you?",
				"profile": map[string]any{"sex": "male", "age": 29},
				"goal":    map[string]any{"direction": "loss", "rate_category": "fast"},
			})),
			want: nutricoach.Extraction{
				Say:     "How tall are you?",
				Profile: nutricoach.Profile{Sex: nutricoach.SexMale, Age: 29},
				Goal:    nutricoach.Goal{Direction: nutricoach.DirectionLoss, RateCategory: nutricoach.RateFast},
			},
		},
		{
			name:        "HTTP error",
			response:    createMockResponse(500, `{"error": "Internal server error"}`),
			wantErr:     true,
			errContains: "LLM_CLIENT:",
		},
		{
			name:    "network error",
			mockErr: io.EOF,
			wantErr: true,
		},
		{
			name:        "model content is not JSON",
			response:    createMockResponse(200, `{"message": {"role": "assistant", "content": "sorry, no JSON"}}`),
			wantErr:     true,
			errContains: "malformed JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockHTTPClient{response: tt.response, err: tt.mockErr}
			client, err := NewClient(ClientOpts{
				BaseEndpoint: "http://localhost:11434",
				ModelID:      "llama3.2",
				HTTPClient:   mock,
			})
			if err != nil {
				t.Fatalf("NewClient() unexpected error = %v", err)
			}

			got, err := client.Extract(context.Background(), "Known state: {}. New user reply: hi")

			if tt.wantErr {
				if err == nil {
					t.Errorf("Extract() expected error but got none")
					return
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Extract() error = %v, expected to contain %v", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Errorf("Extract() unexpected error = %v", err)
				return
			}
			gotJSON, _ := json.Marshal(got)
			wantJSON, _ := json.Marshal(tt.want)
			if string(gotJSON) != string(wantJSON) {
				t.Errorf("Extract() = %s, want %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestClient_GenerateRecipes(t *testing.T) {
	response := createMockResponse(200, chatResponse(map[string]any{
		"say": "Here you go!",
		"breakfasts": []map[string]any{
			{"title": "Oatmeal Bowl", "calories_per_serving": 400, "ingredients": []map[string]any{
				{"name": "Rolled oats", "qty": 0.5, "unit": "cup"},
			}},
			{"title": "Yogurt Parfait", "calories_per_serving": 380},
		},
		"mains": []map[string]any{
			{"title": "Baked Salmon", "calories_per_serving": 650},
			{"title": "Turkey Tacos", "calories_per_serving": 600},
			{"title": "Veggie Stir Fry", "calories_per_serving": 550},
		},
	}))

	mock := &mockHTTPClient{response: response}
	client, err := NewClient(ClientOpts{
		BaseEndpoint: "http://localhost:11434",
		ModelID:      "llama3.2",
		HTTPClient:   mock,
	})
	if err != nil {
		t.Fatalf("NewClient() unexpected error = %v", err)
	}

	got, err := client.GenerateRecipes(context.Background(), "User profile and goal: {}. Generate the recipes now.")
	if err != nil {
		t.Fatalf("GenerateRecipes() unexpected error = %v", err)
	}

	if got.Say != "Here you go!" {
		t.Errorf("GenerateRecipes() say = %v", got.Say)
	}
	if len(got.Breakfasts) != 2 || len(got.Mains) != 3 {
		t.Errorf("GenerateRecipes() got %d breakfasts and %d mains", len(got.Breakfasts), len(got.Mains))
	}
	if got.Breakfasts[0].Title != "Oatmeal Bowl" {
		t.Errorf("GenerateRecipes() first breakfast = %v", got.Breakfasts[0].Title)
	}

	// Request shape: JSON mode, no streaming, system prompt first.
	body, _ := io.ReadAll(mock.lastReq.Body)
	var req wireRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("request body is not valid JSON: %v", err)
	}
	if req.Format != "json" {
		t.Errorf("request format = %v, want json", req.Format)
	}
	if req.Stream {
		t.Errorf("request stream = true, want false")
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
		t.Errorf("unexpected message layout: %+v", req.Messages)
	}
}
