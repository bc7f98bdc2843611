package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"nutricoach"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConverseClient struct {
	output *bedrockruntime.ConverseOutput
	err    error
	lastIn *bedrockruntime.ConverseInput
}

func (m *mockConverseClient) Converse(ctx context.Context, in *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.lastIn = in
	return m.output, m.err
}

// toolUseOutput builds a Converse output whose message carries one tool
// use block with the given input.
func toolUseOutput(toolName string, input map[string]any) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		StopReason: types.StopReasonToolUse,
		Usage:      &types.TokenUsage{InputTokens: aws.Int32(100), OutputTokens: aws.Int32(50)},
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{
				Role: types.ConversationRoleAssistant,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberToolUse{
						Value: types.ToolUseBlock{
							ToolUseId: aws.String("tu-1"),
							Name:      aws.String(toolName),
							Input:     document.NewLazyDocument(input),
						},
					},
				},
			},
		},
	}
}

func TestClient_Extract(t *testing.T) {
	t.Run("decodes the forced tool input", func(t *testing.T) {
		mock := &mockConverseClient{output: toolUseOutput("record_intake", map[string]any{
			"say": "How tall are you?",
			"profile": map[string]any{
				"sex": "male", "age": 29, "weight_kg": 82.0,
			},
			"goal": map[string]any{"direction": "loss", "rate_category": "fast"},
		})}
		client := NewClient(mock, ClientOptions{})

		out, err := client.Extract(context.Background(), "Known state: {}. New user reply: hi")
		require.NoError(t, err)

		assert.Equal(t, "How tall are you?", out.Say)
		assert.Equal(t, nutricoach.SexMale, out.Profile.Sex)
		assert.Equal(t, 29, out.Profile.Age)
		assert.Equal(t, 82.0, out.Profile.WeightKG)
		assert.Equal(t, nutricoach.RateFast, out.Goal.RateCategory)

		// The request forces the recording tool.
		require.NotNil(t, mock.lastIn)
		assert.Equal(t, defaultModelID, aws.ToString(mock.lastIn.ModelId))
		require.NotNil(t, mock.lastIn.ToolConfig)
		choice, ok := mock.lastIn.ToolConfig.ToolChoice.(*types.ToolChoiceMemberTool)
		require.True(t, ok)
		assert.Equal(t, "record_intake", aws.ToString(choice.Value.Name))
	})

	t.Run("converse failure", func(t *testing.T) {
		mock := &mockConverseClient{err: errors.New("throttled")}
		client := NewClient(mock, ClientOptions{})

		_, err := client.Extract(context.Background(), "hi")
		assert.ErrorContains(t, err, "bedrock converse failed")
	})

	t.Run("model answered in text instead of calling the tool", func(t *testing.T) {
		mock := &mockConverseClient{output: &bedrockruntime.ConverseOutput{
			StopReason: types.StopReasonEndTurn,
			Usage:      &types.TokenUsage{InputTokens: aws.Int32(10), OutputTokens: aws.Int32(10)},
			Output: &types.ConverseOutputMemberMessage{
				Value: types.Message{
					Role:    types.ConversationRoleAssistant,
					Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: "Sure!"}},
				},
			},
		}}
		client := NewClient(mock, ClientOptions{})

		_, err := client.Extract(context.Background(), "hi")
		assert.ErrorContains(t, err, "did not call tool")
	})
}

func TestClient_GenerateRecipes(t *testing.T) {
	mock := &mockConverseClient{output: toolUseOutput("record_recipes", map[string]any{
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
	})}
	client := NewClient(mock, ClientOptions{ModelID: "custom-model", MaxTokens: 1024})

	out, err := client.GenerateRecipes(context.Background(), "User profile and goal: {}. Generate the recipes now.")
	require.NoError(t, err)

	assert.Equal(t, "Here you go!", out.Say)
	require.Len(t, out.Breakfasts, 2)
	require.Len(t, out.Mains, 3)
	assert.Equal(t, "Oatmeal Bowl", out.Breakfasts[0].Title)
	assert.Equal(t, 400, out.Breakfasts[0].CaloriesPerServing)
	require.Len(t, out.Breakfasts[0].Ingredients, 1)
	assert.Equal(t, "Rolled oats", out.Breakfasts[0].Ingredients[0].Name)

	assert.Equal(t, "custom-model", aws.ToString(mock.lastIn.ModelId))
	assert.Equal(t, int32(1024), aws.ToInt32(mock.lastIn.InferenceConfig.MaxTokens))
}

func TestBuildToolSpec(t *testing.T) {
	spec, err := buildToolSpec(recordIntakeTool())
	require.NoError(t, err)
	assert.Equal(t, "record_intake", aws.ToString(spec.Name))

	schema, ok := spec.InputSchema.(*types.ToolInputSchemaMemberJson)
	require.True(t, ok)

	raw, err := schema.Value.MarshalSmithyDocument()
	require.NoError(t, err)

	var schemaMap map[string]any
	require.NoError(t, json.Unmarshal(raw, &schemaMap))
	assert.Equal(t, "object", schemaMap["type"])

	props, ok := schemaMap["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "say")
	assert.Contains(t, props, "profile")
	assert.Contains(t, props, "goal")
	assert.Contains(t, props, "prefs")
}
