package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

	"nutricoach"
	"nutricoach/capability/bedrock"
	"nutricoach/coach"
	"nutricoach/grocery"
	"nutricoach/grocery/catalog"
)

// Params drives a one-shot run: both conversation turns arrive up
// front and the handler walks all three stages in a single invocation.
type Params struct {
	SessionID  string `json:"session_id"`
	IntakeText string `json:"intake_text"`
	PrefsText  string `json:"prefs_text"`
}

type Results struct {
	Output nutricoach.PlanResponse `json:"output"`
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		var modelConfig nutricoach.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		var checkoutConfig nutricoach.CheckoutConfig
		if err := envdecode.Decode(&checkoutConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		// S3 config from env
		s3Bucket := os.Getenv("ARTIFACTS_S3_BUCKET")
		catalogKey := os.Getenv("ARTIFACTS_CATALOG_S3_KEY")
		if s3Bucket == "" || catalogKey == "" {
			return Results{}, fmt.Errorf("missing S3 config: ARTIFACTS_S3_BUCKET and ARTIFACTS_CATALOG_S3_KEY must be set")
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}

		catalogState := catalog.NewS3State(s3.NewFromConfig(awsCfg), s3Bucket, catalogKey)
		checkout := grocery.NewCheckout(
			grocery.NewDemoConnector(catalogState),
			checkoutConfig,
			nutricoach.NewStdoutCheckoutLogger(),
		)
		slog.Info("SETUP: S3 catalog state initialized", "bucket", s3Bucket, "key", catalogKey)

		client := bedrock.NewClient(bedrockruntime.NewFromConfig(awsCfg), bedrock.ClientOptions{
			ModelID:     modelConfig.ModelID,
			MaxTokens:   modelConfig.MaxTokens,
			Temperature: modelConfig.Temperature,
			TopP:        modelConfig.TopP,
		})

		_, _, otelShutdown, err := nutricoach.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return Results{}, err
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		coordinator := coach.NewCoordinator(coach.NewMemoryStore(), client, client, checkout)

		sessionID := params.SessionID
		if sessionID == "" {
			sessionID = "lambda"
		}

		if _, err := coordinator.SubmitIntake(ctx, sessionID, params.IntakeText); err != nil {
			slog.Error("RESULT: Intake stage failed", "error", err)
			return Results{}, err
		}
		if _, err := coordinator.SubmitPreferences(ctx, sessionID, params.PrefsText); err != nil {
			slog.Error("RESULT: Preferences stage failed", "error", err)
			return Results{}, err
		}
		output, err := coordinator.GeneratePlan(ctx, sessionID)
		if err != nil {
			slog.Error("RESULT: Plan stage failed", "error", err)
			return Results{}, err
		}

		return Results{Output: output}, nil
	}

	lambda.Start(fn)
}
