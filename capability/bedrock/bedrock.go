// Package bedrock implements the extraction and recipe-generation
// capabilities on the AWS Bedrock Converse API. Structured output is
// obtained by forcing a single recording tool whose input schema is the
// shape we want back; the model "calls" the tool and we read its input.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"nutricoach"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const (
	// defaultModelID is an inference profile ID or ARN, not the
	// foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	defaultMaxTokens = 2048

	// Low temperature and top_p keep outputs deterministic and
	// consistent, which is what structured extraction wants.
	defaultTemperature = 0.2
	defaultTopP        = 0.9
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type ClientOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// Client implements nutricoach.FieldExtractor and
// nutricoach.RecipeGenerator.
type Client struct {
	brc  bedrockRuntimeClient
	opts ClientOptions
}

func NewClient(brc bedrockRuntimeClient, opts ClientOptions) *Client {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Client{brc: brc, opts: opts}
}

// Extract runs the intake prompt and decodes the recorded fields.
func (c *Client) Extract(ctx context.Context, promptContext string) (nutricoach.Extraction, error) {
	var out nutricoach.Extraction
	if err := c.invokeStructured(ctx, collectSystemPrompt, promptContext, recordIntakeTool(), &out); err != nil {
		return nutricoach.Extraction{}, err
	}
	return out, nil
}

// GenerateRecipes runs the recipe prompt and decodes the recipe set.
func (c *Client) GenerateRecipes(ctx context.Context, promptContext string) (nutricoach.RecipeSet, error) {
	var out nutricoach.RecipeSet
	if err := c.invokeStructured(ctx, recipesSystemPrompt, promptContext, recordRecipesTool(), &out); err != nil {
		return nutricoach.RecipeSet{}, err
	}
	return out, nil
}

// invokeStructured performs one Converse call with a forced tool choice
// and unmarshals the tool-use input into target.
func (c *Client) invokeStructured(ctx context.Context, systemPrompt, userPrompt string, tool Tool, target any) error {
	slog.Info("LLM_CLIENT: Invoked", "tool", tool.Name, "prompt_len", len(userPrompt))

	spec, err := buildToolSpec(tool)
	if err != nil {
		return err
	}

	in := &bedrockruntime.ConverseInput{
		ModelId: &c.opts.ModelID,
		System:  []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: systemPrompt}},
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: userPrompt}},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.opts.MaxTokens),
			Temperature: aws.Float32(c.opts.Temperature),
			TopP:        aws.Float32(c.opts.TopP),
		},
		ToolConfig: &types.ToolConfiguration{
			Tools: []types.Tool{&types.ToolMemberToolSpec{Value: spec}},
			ToolChoice: &types.ToolChoiceMemberTool{
				Value: types.SpecificToolChoice{Name: aws.String(tool.Name)},
			},
		},
	}

	out, err := c.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("LLM_CLIENT: Bedrock Claude invoke failed", "error", err)
		return fmt.Errorf("bedrock converse failed: %w", err)
	}

	slog.Info("LLM_CLIENT: Bedrock Claude invoke succeeded",
		"stop_reason", out.StopReason,
		"input_tokens", aws.ToInt32(out.Usage.InputTokens),
		"output_tokens", aws.ToInt32(out.Usage.OutputTokens),
	)

	raw, err := toolInputFromOutput(out, tool.Name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode structured output: %w", err)
	}
	return nil
}

// buildToolSpec constructs a ToolSpecification for a tool.
// Pre-marshal the schema to JSON so its custom MarshalJSON runs before
// the document system sees it.
func buildToolSpec(t Tool) (types.ToolSpecification, error) {
	schemaJSON, err := json.Marshal(t.InputSchema)
	if err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to marshal tool schema for %s: %w", t.Name, err)
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to unmarshal tool schema for %s: %w", t.Name, err)
	}

	return types.ToolSpecification{
		Name:        aws.String(t.Name),
		Description: aws.String(t.Description),
		InputSchema: &types.ToolInputSchemaMemberJson{
			Value: document.NewLazyDocument(schemaMap),
		},
	}, nil
}

// toolInputFromOutput pulls the forced tool call's input out of the
// Converse response as raw JSON. MarshalSmithyDocument works on both
// lazy and wire-decoded documents.
func toolInputFromOutput(out *bedrockruntime.ConverseOutput, toolName string) ([]byte, error) {
	if out == nil || out.Output == nil {
		return nil, fmt.Errorf("empty converse output")
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, fmt.Errorf("unexpected converse output type %T", out.Output)
	}

	for _, cb := range msg.Value.Content {
		tu, ok := cb.(*types.ContentBlockMemberToolUse)
		if !ok {
			continue
		}
		if aws.ToString(tu.Value.Name) != toolName {
			continue
		}
		raw, err := tu.Value.Input.MarshalSmithyDocument()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tool input: %w", err)
		}
		return raw, nil
	}

	return nil, fmt.Errorf("model did not call tool %q", toolName)
}
