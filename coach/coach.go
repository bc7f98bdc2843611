// Package coach implements the staged conversation state machine:
// intake (profile + goal) -> preferences (food likes) -> plan ready
// (recipes, shopping list, cart link). Transitions are one-directional;
// re-submitted text updates the same session record but nothing is ever
// rolled back.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nutricoach"

	"go.opentelemetry.io/otel"
)

// Error kinds for the stage API. ErrInput maps to a 400-equivalent,
// ErrUnavailable to a 503-equivalent.
var (
	ErrInput       = errors.New("input error")
	ErrUnavailable = errors.New("service unavailable")
)

// CheckoutRunner is the checkout pipeline as the coordinator sees it:
// best-effort, returns only a cart URL, never an error.
type CheckoutRunner interface {
	Run(ctx context.Context, ingredients []nutricoach.Ingredient, progress nutricoach.ProgressFunc) string
}

// StageResult is the reply from the intake and preferences stages.
type StageResult struct {
	Say   string                `json:"say"`
	State nutricoach.CoachState `json:"state"`
}

// Coordinator advances sessions through the coaching stages, delegating
// free-text understanding and recipe generation to the configured
// capabilities and invoking calorie math and aggregation at the right
// transitions.
type Coordinator struct {
	store     StateStore
	extractor nutricoach.FieldExtractor
	recipes   nutricoach.RecipeGenerator
	checkout  CheckoutRunner
}

// NewCoordinator initializes a new coordinator.
func NewCoordinator(store StateStore, extractor nutricoach.FieldExtractor, recipes nutricoach.RecipeGenerator, checkout CheckoutRunner) *Coordinator {
	return &Coordinator{
		store:     store,
		extractor: extractor,
		recipes:   recipes,
		checkout:  checkout,
	}
}

// state returns the session's state, creating an empty record on first
// reference.
func (c *Coordinator) state(sessionID string) *nutricoach.CoachState {
	if state, ok := c.store.Get(sessionID); ok {
		return state
	}
	state := &nutricoach.CoachState{}
	c.store.Put(sessionID, state)
	return state
}

// runExtract delegates one user reply to the field-extraction
// capability and merges the returned fields into the session state.
// Fields the capability did not infer never clear existing values.
func (c *Coordinator) runExtract(ctx context.Context, state *nutricoach.CoachState, text string) (string, error) {
	prompt := "Known state: " + state.Summary() + ". New user reply: " + text
	out, err := c.extractor.Extract(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: field extraction failed: %v", ErrUnavailable, err)
	}
	state.Profile.Merge(out.Profile)
	state.Goal.Merge(out.Goal)
	state.Prefs.Merge(out.Prefs)
	return out.Say, nil
}

// SubmitIntake processes one intake reply. When the merge completes
// both profile and goal for the first time, targets are computed once
// and the reply is replaced by the deterministic calorie summary.
func (c *Coordinator) SubmitIntake(ctx context.Context, sessionID, text string) (StageResult, error) {
	ctx, span := otel.Tracer(nutricoach.TracerNameCoach).Start(ctx, "Coordinator.SubmitIntake")
	defer span.End()

	if text == "" {
		return StageResult{}, fmt.Errorf("%w: provide text", ErrInput)
	}

	state := c.state(sessionID)
	say, err := c.runExtract(ctx, state, text)
	if err != nil {
		return StageResult{}, err
	}

	if state.Profile.Complete() && state.Goal.Complete() && !state.TargetsComputed() {
		if err := state.ComputeTargets(); err != nil {
			return StageResult{}, fmt.Errorf("%w: %v", ErrInput, err)
		}
		slog.Info("COACH: Targets computed", "session", sessionID, "tdee", state.TDEE, "target", state.TargetCalories)
		say = fmt.Sprintf(
			"Great. Maintenance is about %d kcal/day. Target is roughly %d kcal/day. "+
				"Tell me two breakfasts and three lunch or dinner ideas you enjoy.",
			state.TDEE, state.TargetCalories,
		)
	}

	c.store.Put(sessionID, state)
	return StageResult{Say: say, State: *state}, nil
}

// SubmitPreferences processes one preferences reply. Intake must be
// complete first. When prefs reach the completion threshold the reply
// is replaced by a fixed ready-to-plan message.
func (c *Coordinator) SubmitPreferences(ctx context.Context, sessionID, text string) (StageResult, error) {
	ctx, span := otel.Tracer(nutricoach.TracerNameCoach).Start(ctx, "Coordinator.SubmitPreferences")
	defer span.End()

	state := c.state(sessionID)
	if !state.Profile.Complete() || !state.Goal.Complete() {
		return StageResult{}, fmt.Errorf("%w: complete intake first", ErrInput)
	}
	if text == "" {
		return StageResult{}, fmt.Errorf("%w: provide text", ErrInput)
	}

	say, err := c.runExtract(ctx, state, text)
	if err != nil {
		return StageResult{}, err
	}

	if state.Prefs.Complete() {
		say = "Awesome, I have your preferences. Ready to build this week's plan and shopping list?"
	}

	c.store.Put(sessionID, state)
	return StageResult{Say: say, State: *state}, nil
}

// checkPlanReady validates the generate-plan preconditions. Missing
// targets are computed here; a failing computation is a client error
// rather than a silent default.
func (c *Coordinator) checkPlanReady(state *nutricoach.CoachState) error {
	if !state.Profile.Complete() || !state.Goal.Complete() {
		return fmt.Errorf("%w: profile and goal are incomplete", ErrInput)
	}
	if !state.TargetsComputed() {
		if err := state.ComputeTargets(); err != nil {
			return fmt.Errorf("%w: %v", ErrInput, err)
		}
	}
	if !state.Prefs.Complete() {
		return fmt.Errorf("%w: food preferences are incomplete", ErrInput)
	}
	return nil
}

// runPlan generates recipes, aggregates the shopping list, runs the
// checkout, and stores plan and cart URL on the session. Checkout
// failures are absorbed into the returned cart URL, never surfaced.
func (c *Coordinator) runPlan(ctx context.Context, sessionID string, state *nutricoach.CoachState, progress nutricoach.ProgressFunc) (nutricoach.PlanResponse, error) {
	progress.Emit(nutricoach.ProgressEvent{Type: nutricoach.EventStatus, Message: "Generating personalized recipes..."})

	prompt := "User profile and goal: " + state.Summary() + ". Generate the recipes now."
	out, err := c.recipes.GenerateRecipes(ctx, prompt)
	if err != nil {
		return nutricoach.PlanResponse{}, fmt.Errorf("%w: recipe generation failed: %v", ErrUnavailable, err)
	}

	progress.Emit(nutricoach.ProgressEvent{
		Type:       nutricoach.EventRecipes,
		Message:    "Recipes ready.",
		Breakfasts: recipeTitles(out.Breakfasts),
		Mains:      recipeTitles(out.Mains),
	})

	state.Plan = &nutricoach.WeekPlan{
		Breakfasts:     out.Breakfasts,
		Mains:          out.Mains,
		TargetCalories: state.TargetCalories,
		TDEE:           state.TDEE,
	}

	shoppingList := nutricoach.AggregateIngredients(append(append([]nutricoach.Recipe{}, out.Breakfasts...), out.Mains...))

	progress.Emit(nutricoach.ProgressEvent{
		Type:    nutricoach.EventStatus,
		Message: fmt.Sprintf("Preparing grocery list with %d ingredients...", len(shoppingList)),
	})

	cartURL := c.checkout.Run(ctx, shoppingList, progress)
	state.CartURL = cartURL
	c.store.Put(sessionID, state)

	say := out.Say
	if say == "" {
		say = "Plan ready. Here's your grocery list and cart link."
	}

	progress.Emit(nutricoach.ProgressEvent{Type: nutricoach.EventStatus, Message: "Plan generation complete."})
	if cartURL != "" {
		progress.Emit(nutricoach.ProgressEvent{Type: nutricoach.EventStatus, Message: "Cart link ready."})
	}

	return nutricoach.PlanResponse{
		Say:          say,
		Plan:         state.Plan,
		ShoppingList: shoppingList,
		CartURL:      cartURL,
	}, nil
}

// GeneratePlan runs the full plan-generation stage synchronously.
func (c *Coordinator) GeneratePlan(ctx context.Context, sessionID string) (nutricoach.PlanResponse, error) {
	ctx, span := otel.Tracer(nutricoach.TracerNameCoach).Start(ctx, "Coordinator.GeneratePlan")
	defer span.End()

	state := c.state(sessionID)
	if err := c.checkPlanReady(state); err != nil {
		return nutricoach.PlanResponse{}, err
	}
	return c.runPlan(ctx, sessionID, state, nil)
}

// GeneratePlanStream runs plan generation in a producer goroutine and
// returns the ordered event stream. Precondition failures surface as an
// immediate error instead of a stream. The channel always ends with
// exactly one complete event; on internal failure an error event
// precedes it.
func (c *Coordinator) GeneratePlanStream(ctx context.Context, sessionID string) (<-chan nutricoach.ProgressEvent, error) {
	state := c.state(sessionID)
	if err := c.checkPlanReady(state); err != nil {
		return nil, err
	}

	events := make(chan nutricoach.ProgressEvent)
	// Sends race the consumer going away; aborting on ctx lets the
	// producer finish and close the channel instead of blocking forever.
	emit := func(event nutricoach.ProgressEvent) {
		select {
		case events <- event:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(events)

		ctx, span := otel.Tracer(nutricoach.TracerNameCoach).Start(ctx, "Coordinator.GeneratePlanStream")
		defer span.End()

		emit(nutricoach.ProgressEvent{Type: nutricoach.EventStatus, Message: "Starting plan generation..."})

		payload, err := c.runPlan(ctx, sessionID, state, emit)
		if err != nil {
			slog.Error("COACH: Streaming plan generation failed", "session", sessionID, "error", err)
			emit(nutricoach.ProgressEvent{Type: nutricoach.EventError, Message: err.Error()})
		} else {
			emit(nutricoach.ProgressEvent{Type: nutricoach.EventFinal, Payload: &payload})
		}
		emit(nutricoach.ProgressEvent{Type: nutricoach.EventComplete})
	}()

	return events, nil
}

// ResetSession removes the session's state entirely. Unknown session
// ids are not an error.
func (c *Coordinator) ResetSession(sessionID string) {
	c.store.Delete(sessionID)
}

func recipeTitles(recipes []nutricoach.Recipe) []string {
	titles := make([]string, 0, len(recipes))
	for _, r := range recipes {
		titles = append(titles, r.Title)
	}
	return titles
}
