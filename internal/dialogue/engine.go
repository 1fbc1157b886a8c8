package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pageza/alchemorsel-bot/internal/logger"
	"github.com/pageza/alchemorsel-bot/internal/metrics"
	"github.com/pageza/alchemorsel-bot/internal/models"
	"github.com/pageza/alchemorsel-bot/internal/service"
)

// Archiver stores a copy of a saved recipe outside the database
type Archiver interface {
	ArchiveRecipe(ctx context.Context, userID int64, recipeID uint, body string) error
}

// Options tunes an Engine. Every field is optional.
type Options struct {
	AskDisliked bool
	Archiver    Archiver
	Metrics     *metrics.Metrics
	Validate    *validator.Validate
}

// Engine runs the onboarding and recipe dialogues. Each call handles one
// user turn and persists the session between turns.
type Engine struct {
	sessions    SessionStore
	prefs       service.IPreferenceService
	recipes     service.IRecipeService
	generator   service.LLMServiceInterface
	archiver    Archiver
	metrics     *metrics.Metrics
	validate    *validator.Validate
	askDisliked bool
}

// NewEngine creates a dialogue engine
func NewEngine(
	sessions SessionStore,
	prefs service.IPreferenceService,
	recipes service.IRecipeService,
	generator service.LLMServiceInterface,
	opts Options,
) *Engine {
	validate := opts.Validate
	if validate == nil {
		validate = validator.New()
	}
	return &Engine{
		sessions:    sessions,
		prefs:       prefs,
		recipes:     recipes,
		generator:   generator,
		archiver:    opts.Archiver,
		metrics:     opts.Metrics,
		validate:    validate,
		askDisliked: opts.AskDisliked,
	}
}

// StartOnboarding begins the onboarding dialogue, replacing any active one
func (e *Engine) StartOnboarding(ctx context.Context, userID int64) ([]Reply, error) {
	s := &Session{UserID: userID, Flow: FlowOnboarding, Step: int(StepDiet)}
	if err := e.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	return []Reply{onboardingSteps[StepDiet].promptReply()}, nil
}

// StartRecipe begins the recipe dialogue, replacing any active one
func (e *Engine) StartRecipe(ctx context.Context, userID int64) ([]Reply, error) {
	s := &Session{UserID: userID, Flow: FlowRecipe, Step: int(StepCuisine)}
	if err := e.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	return []Reply{recipeSteps[StepCuisine].promptReply()}, nil
}

// Cancel aborts the active dialogue without persisting anything
func (e *Engine) Cancel(ctx context.Context, userID int64) ([]Reply, error) {
	s, err := e.sessions.Load(ctx, userID)
	if errors.Is(err, ErrNoSession) {
		return []Reply{{Text: TextNothingToCancel, RemoveKeyboard: true}}, nil
	}
	if err != nil {
		return nil, err
	}
	return e.cancel(ctx, s)
}

// HandleInput feeds one free-text answer to the active dialogue. It returns
// ErrNoSession when no dialogue is active.
func (e *Engine) HandleInput(ctx context.Context, userID int64, text string) ([]Reply, error) {
	s, err := e.sessions.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	input := strings.TrimSpace(text)
	switch s.Flow {
	case FlowOnboarding:
		return e.handleOnboarding(ctx, s, input)
	case FlowRecipe:
		return e.handleRecipe(ctx, s, input)
	default:
		// Unknown flow in storage, drop it
		_ = e.sessions.Delete(ctx, userID)
		return nil, ErrNoSession
	}
}

func (e *Engine) cancel(ctx context.Context, s *Session) ([]Reply, error) {
	if err := e.sessions.Delete(ctx, s.UserID); err != nil {
		return nil, err
	}
	e.metrics.DialogueCancelled(string(s.Flow))
	logger.Debug(ctx).Str("flow", string(s.Flow)).Int("step", s.Step).Msg("Dialogue cancelled")

	text := TextRecipeCancelled
	if s.Flow == FlowOnboarding {
		text = TextOnboardingCancelled
	}
	return []Reply{{Text: text, RemoveKeyboard: true}}, nil
}

func (e *Engine) invalid(ctx context.Context, s *Session, step choiceStep, input string) []Reply {
	e.metrics.InvalidChoice(string(s.Flow))
	logger.Debug(ctx).Str("flow", string(s.Flow)).Int("step", s.Step).Str("input", input).Msg("Invalid choice")
	return []Reply{step.invalidReply()}
}

// nextOnboarding returns the step after current, or onboardingStepCount when done
func (e *Engine) nextOnboarding(current OnboardingStep) OnboardingStep {
	next := current + 1
	if next == StepDisliked && !e.askDisliked {
		next++
	}
	return next
}

func (e *Engine) handleOnboarding(ctx context.Context, s *Session, input string) ([]Reply, error) {
	current := OnboardingStep(s.Step)
	if current < 0 || current >= onboardingStepCount {
		_ = e.sessions.Delete(ctx, s.UserID)
		return nil, fmt.Errorf("onboarding session at unknown step %d", s.Step)
	}
	step := onboardingSteps[current]

	switch classify(step, input) {
	case inputCancel:
		return e.cancel(ctx, s)
	case inputInvalid:
		return e.invalid(ctx, s, step, input), nil
	case inputValid:
		step.apply(&s.Data, input)
	}

	next := e.nextOnboarding(current)
	if next < onboardingStepCount {
		s.Step = int(next)
		if err := e.sessions.Save(ctx, s); err != nil {
			return nil, err
		}
		return []Reply{onboardingSteps[next].promptReply()}, nil
	}
	return e.finishOnboarding(ctx, s)
}

func (e *Engine) finishOnboarding(ctx context.Context, s *Session) ([]Reply, error) {
	prefs := &models.UserPreferences{
		UserID:              s.UserID,
		DietaryRestrictions: s.Data.Dietary,
		SkillLevel:          models.SkillLevel(s.Data.Skill),
		DislikedIngredients: s.Data.Disliked,
		BudgetRange:         models.BudgetRange(s.Data.Budget),
	}
	if err := e.validate.Struct(prefs); err != nil {
		return nil, fmt.Errorf("invalid preferences: %w", err)
	}

	// Session is kept on failure so the user can answer the last step again
	if err := e.prefs.SetPreferences(ctx, prefs); err != nil {
		return nil, err
	}
	if err := e.sessions.Delete(ctx, s.UserID); err != nil {
		return nil, err
	}

	e.metrics.DialogueCompleted(string(FlowOnboarding))
	logger.Info(ctx).Msg("Preferences saved")
	return []Reply{{Text: TextOnboardingSaved, RemoveKeyboard: true}}, nil
}

func (e *Engine) handleRecipe(ctx context.Context, s *Session, input string) ([]Reply, error) {
	current := RecipeStep(s.Step)
	if current < 0 || current >= recipeStepCount {
		_ = e.sessions.Delete(ctx, s.UserID)
		return nil, fmt.Errorf("recipe session at unknown step %d", s.Step)
	}

	if current == StepIngredients {
		if isCancel(input) {
			return e.cancel(ctx, s)
		}
		return e.finishRecipe(ctx, s, ParseIngredients(input))
	}

	step := recipeSteps[current]
	switch classify(step, input) {
	case inputCancel:
		return e.cancel(ctx, s)
	case inputInvalid:
		return e.invalid(ctx, s, step, input), nil
	case inputValid:
		step.apply(&s.Data, input)
	}

	next := current + 1
	s.Step = int(next)
	if err := e.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	if next == StepIngredients {
		return []Reply{{Text: TextIngredientsPrompt, RemoveKeyboard: true}}, nil
	}
	return []Reply{recipeSteps[next].promptReply()}, nil
}

func (e *Engine) finishRecipe(ctx context.Context, s *Session, ingredients []string) ([]Reply, error) {
	// The dialogue ends here whatever happens next; a failed generation
	// means starting over with /recipe.
	if err := e.sessions.Delete(ctx, s.UserID); err != nil {
		return nil, err
	}

	req := &models.RecipeRequest{
		UserID:               s.UserID,
		Cuisine:              s.Data.Cuisine,
		MealType:             s.Data.Meal,
		Servings:             s.Data.Servings,
		TimeLimit:            s.Data.TimeLimit,
		AvailableIngredients: ingredients,
	}
	if err := e.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid recipe request: %w", err)
	}
	if err := e.recipes.LogRecipeRequest(ctx, req); err != nil {
		return nil, err
	}

	prefs, err := e.prefs.GetPreferences(ctx, s.UserID)
	if err != nil {
		return nil, err
	}

	text, err := e.generator.Generate(ctx, service.BuildPrompt(req, prefs))
	if err != nil {
		e.metrics.GenerationFailed()
		return nil, err
	}

	recipeID, err := e.recipes.SaveRecipe(ctx, s.UserID, RecipeTitle(text), text)
	if err != nil {
		return nil, err
	}

	if e.archiver != nil {
		if err := e.archiver.ArchiveRecipe(ctx, s.UserID, recipeID, text); err != nil {
			logger.Error(ctx).Err(err).Uint("recipe_id", recipeID).Msg("Failed to archive recipe")
		}
	}

	e.metrics.RecipeGenerated()
	e.metrics.DialogueCompleted(string(FlowRecipe))
	logger.Info(ctx).Uint("recipe_id", recipeID).Str("cuisine", req.Cuisine).Msg("Recipe generated")

	return []Reply{
		{Text: text},
		{
			Text:   TextFavoritePrompt,
			Button: &Button{Label: FavoriteButtonLabel, Payload: FavoritePayload(recipeID)},
		},
	}, nil
}
