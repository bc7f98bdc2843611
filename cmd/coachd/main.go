package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joeshaw/envdecode"

	"nutricoach"
	"nutricoach/capability/bedrock"
	"nutricoach/capability/ollama"
	"nutricoach/capability/rule"
	"nutricoach/coach"
	"nutricoach/grocery"
	"nutricoach/grocery/catalog"
	"nutricoach/speech"
)

func main() {
	ctx := context.Background()

	var serverConfig nutricoach.ServerConfig
	if err := envdecode.Decode(&serverConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var checkoutConfig nutricoach.CheckoutConfig
	if err := envdecode.Decode(&checkoutConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	extractor, recipes, err := newCapabilities(ctx, serverConfig)
	if err != nil {
		slog.Error("SETUP: Failed to create capability backend", "error", err)
		return
	}
	slog.Info("SETUP: Capability backend ready", "backend", serverConfig.Backend)

	connector, err := newConnector(serverConfig, checkoutConfig)
	if err != nil {
		slog.Error("SETUP: Failed to create grocery connector", "error", err)
		return
	}
	slog.Info("SETUP: Grocery connector ready", "mode", serverConfig.GroceryMode)

	checkout := grocery.NewCheckout(connector, checkoutConfig, nutricoach.NewStdoutCheckoutLogger())

	_, _, otelShutdown, err := nutricoach.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	coordinator := coach.NewCoordinator(coach.NewMemoryStore(), extractor, recipes, checkout)

	srv := &server{
		coordinator: coordinator,
		transcriber: newTranscriber(),
	}

	slog.Info("SETUP: Listening", "addr", serverConfig.Addr)
	if err := http.ListenAndServe(serverConfig.Addr, srv.routes()); err != nil {
		slog.Error("SETUP: Server stopped", "error", err)
	}
}

func newCapabilities(ctx context.Context, cfg nutricoach.ServerConfig) (nutricoach.FieldExtractor, nutricoach.RecipeGenerator, error) {
	switch cfg.Backend {
	case "bedrock":
		var modelConfig nutricoach.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			return nil, nil, err
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRetryMaxAttempts(5))
		if err != nil {
			return nil, nil, err
		}
		client := bedrock.NewClient(bedrockruntime.NewFromConfig(awsCfg), bedrock.ClientOptions{
			ModelID:     modelConfig.ModelID,
			MaxTokens:   modelConfig.MaxTokens,
			Temperature: modelConfig.Temperature,
			TopP:        modelConfig.TopP,
		})
		return client, client, nil

	case "ollama":
		var modelConfig nutricoach.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			return nil, nil, err
		}
		client, err := ollama.NewClient(ollama.ClientOpts{
			BaseEndpoint: cfg.BaseOllamaEndpoint,
			ModelID:      modelConfig.ModelID,
			HTTPClient:   http.DefaultClient,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil

	case "rule":
		client := rule.New()
		return client, client, nil

	default:
		return nil, nil, errors.New("unknown backend: " + cfg.Backend)
	}
}

func newConnector(serverConfig nutricoach.ServerConfig, checkoutConfig nutricoach.CheckoutConfig) (grocery.Connector, error) {
	switch serverConfig.GroceryMode {
	case "mcp":
		return grocery.NewMCPConnector(checkoutConfig), nil
	case "demo":
		return grocery.NewDemoConnector(catalog.NewFileState(serverConfig.CatalogPath)), nil
	default:
		return nil, errors.New("unknown grocery mode: " + serverConfig.GroceryMode)
	}
}

// newTranscriber returns nil when no API key is configured; voice
// requests then get a 503 instead of failing at startup.
func newTranscriber() nutricoach.Transcriber {
	var speechConfig nutricoach.SpeechConfig
	if err := envdecode.Decode(&speechConfig); err != nil || speechConfig.APIKey == "" {
		slog.Info("SETUP: Speech-to-text disabled, no API key configured")
		return nil
	}
	client, err := speech.NewClient(speech.ClientOpts{
		APIKey:     speechConfig.APIKey,
		ModelID:    speechConfig.ModelID,
		HTTPClient: http.DefaultClient,
	})
	if err != nil {
		slog.Warn("SETUP: Speech-to-text disabled", "error", err)
		return nil
	}
	slog.Info("SETUP: Speech-to-text enabled", "model", speechConfig.ModelID)
	return client
}

type server struct {
	coordinator *coach.Coordinator
	transcriber nutricoach.Transcriber
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /stage/1", s.handleStage1)
	mux.HandleFunc("POST /stage/2", s.handleStage2)
	mux.HandleFunc("POST /stage/3", s.handleStage3)
	mux.HandleFunc("POST /stage/3/stream", s.handleStage3Stream)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	return mux
}

type stageRequest struct {
	SessionID   string `json:"session_id"`
	Text        string `json:"text"`
	AudioBase64 string `json:"audio_base64,omitempty"`
}

type stageResponse struct {
	Say   string                `json:"say"`
	State nutricoach.CoachState `json:"state"`
}

// decodeTurn reads the request body and resolves the user's turn to
// text, transcribing audio when that's what was sent.
func (s *server) decodeTurn(w http.ResponseWriter, r *http.Request) (stageRequest, bool) {
	var req stageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return stageRequest{}, false
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return stageRequest{}, false
	}

	if req.AudioBase64 != "" {
		if s.transcriber == nil {
			writeError(w, http.StatusServiceUnavailable, "speech-to-text is not configured")
			return stageRequest{}, false
		}
		audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid audio_base64")
			return stageRequest{}, false
		}
		text, err := s.transcriber.Transcribe(r.Context(), audio)
		if err != nil {
			slog.Error("HANDLER: Transcription failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "transcription failed")
			return stageRequest{}, false
		}
		req.Text = text
	}

	return req, true
}

func (s *server) handleStage1(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeTurn(w, r)
	if !ok {
		return
	}
	result, err := s.coordinator.SubmitIntake(r.Context(), req.SessionID, req.Text)
	if err != nil {
		writeCoachError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stageResponse{Say: result.Say, State: result.State})
}

func (s *server) handleStage2(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeTurn(w, r)
	if !ok {
		return
	}
	result, err := s.coordinator.SubmitPreferences(r.Context(), req.SessionID, req.Text)
	if err != nil {
		writeCoachError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stageResponse{Say: result.Say, State: result.State})
}

func (s *server) handleStage3(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	resp, err := s.coordinator.GeneratePlan(r.Context(), req.SessionID)
	if err != nil {
		writeCoachError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleStage3Stream(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	events, err := s.coordinator.GeneratePlanStream(r.Context(), req.SessionID)
	if err != nil {
		writeCoachError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	for event := range events {
		if err := enc.Encode(event); err != nil {
			slog.Error("HANDLER: Stream write failed", "error", err)
			// keep draining so the producer can finish and close
			for range events {
			}
			return
		}
		flusher.Flush()
	}
}

func (s *server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.coordinator.ResetSession(r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func writeCoachError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coach.ErrInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, coach.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("HANDLER: Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("HANDLER: Response encode failed", "error", err)
	}
}
