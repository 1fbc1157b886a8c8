package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/alchemorsel-bot/internal/dialogue"
	"github.com/pageza/alchemorsel-bot/internal/logger"
	"github.com/pageza/alchemorsel-bot/internal/metrics"
	"github.com/pageza/alchemorsel-bot/internal/models"
	"github.com/pageza/alchemorsel-bot/internal/service"
)

// Replies sent by the dispatcher outside the dialogues
const (
	// TextWelcome answers /start and /help
	TextWelcome = "👋 Welcome to Recipe Bot!\n\n" +
		"/onboard — Set your preferences (dietary restrictions, skill level, disliked ingredients, budget)\n" +
		"/recipe — Generate a recipe (you'll pick cuisine, meal type, servings, time, ingredients)\n" +
		"/preferences — View your saved preferences\n" +
		"/favorites — List your favorite recipes\n" +
		"/specific <name> — Show a saved recipe\n" +
		"/clear_favorites — Remove all favorites\n" +
		"/cancel — Stop the current dialogue\n" +
		"/help — Show this menu again"
	// TextNoDialogue answers free text when no dialogue is waiting for it
	TextNoDialogue     = "I'm not waiting for an answer right now. Use /recipe to get a recipe or /help to see all commands."
	TextUnknownCommand = "Unknown command. Use /help to see what I can do."

	// Favorites listing and /specific
	TextNoFavorites      = "You have no favorite recipes yet."
	TextFavoritesHeader  = "⭐ Your favorite recipes:"
	TextSpecificUsage    = "Usage: /specific <recipe name>"
	TextFavoritesCleared = "🗑️ All favorites cleared."
	TextNothingToClear   = "You have no favorites to clear."

	// Favorite button outcomes
	TextFavoriteSaved  = "⭐ Saved to your favorites!"
	TextFavoriteFailed = "❌ Could not save this recipe to favorites."

	textRecipeNotFoundFmt = "No saved recipe named \"%s\". Use /favorites to see your favorites."
)

// Dispatcher maps gateway events to dialogue turns and store reads
type Dispatcher struct {
	engine  *dialogue.Engine
	prefs   service.IPreferenceService
	recipes service.IRecipeService
	metrics *metrics.Metrics
}

// NewDispatcher creates a new Dispatcher instance
func NewDispatcher(engine *dialogue.Engine, prefs service.IPreferenceService, recipes service.IRecipeService, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		engine:  engine,
		prefs:   prefs,
		recipes: recipes,
		metrics: m,
	}
}

func text(s string) []dialogue.Reply {
	return []dialogue.Reply{{Text: s}}
}

// HandleCommand runs a slash command. Dialogue commands start or stop a
// dialogue; the rest are single-shot reads that leave any dialogue untouched.
func (d *Dispatcher) HandleCommand(ctx context.Context, userID int64, command, args string) ([]dialogue.Reply, error) {
	switch strings.ToLower(command) {
	case "start", "help":
		return text(TextWelcome), nil
	case "onboard":
		return d.engine.StartOnboarding(ctx, userID)
	case "recipe":
		return d.engine.StartRecipe(ctx, userID)
	case "cancel":
		return d.engine.Cancel(ctx, userID)
	case "preferences":
		return d.showPreferences(ctx, userID)
	case "favorites":
		return d.showFavorites(ctx, userID)
	case "specific":
		return d.showRecipe(ctx, userID, args)
	case "clear_favorites":
		return d.clearFavorites(ctx, userID)
	default:
		return text(TextUnknownCommand), nil
	}
}

// HandleText feeds free text to the active dialogue
func (d *Dispatcher) HandleText(ctx context.Context, userID int64, msg string) ([]dialogue.Reply, error) {
	replies, err := d.engine.HandleInput(ctx, userID, msg)
	if errors.Is(err, dialogue.ErrNoSession) {
		return text(TextNoDialogue), nil
	}
	return replies, err
}

// HandleCallback handles an inline button tap. Only the favorite payload is
// known; any failure is reported to the user as a generic message.
func (d *Dispatcher) HandleCallback(ctx context.Context, userID int64, payload string) dialogue.Reply {
	recipeID, err := dialogue.ParseFavoritePayload(payload)
	if err != nil {
		logger.Warn(ctx).Str("payload", payload).Msg("Unknown callback payload")
		return dialogue.Reply{Text: TextFavoriteFailed}
	}

	ok, err := d.recipes.SetFavorite(ctx, userID, recipeID, true)
	if err != nil {
		logger.Error(ctx).Err(err).Uint("recipe_id", recipeID).Msg("Failed to mark favorite")
		return dialogue.Reply{Text: TextFavoriteFailed}
	}
	if !ok {
		return dialogue.Reply{Text: TextFavoriteFailed}
	}

	d.metrics.FavoriteMarked()
	return dialogue.Reply{Text: TextFavoriteSaved}
}

// FormatPreferences renders preferences for /preferences
func FormatPreferences(p *models.UserPreferences) string {
	return fmt.Sprintf("Dietary: %s\nSkill: %s\nDisliked: %s\nBudget: %s THB",
		strings.Join(p.DietaryRestrictions, ", "),
		p.SkillLevel,
		strings.Join(p.DislikedIngredients, ", "),
		p.BudgetRange,
	)
}

func (d *Dispatcher) showPreferences(ctx context.Context, userID int64) ([]dialogue.Reply, error) {
	prefs, err := d.prefs.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	return text(FormatPreferences(prefs)), nil
}

func (d *Dispatcher) showFavorites(ctx context.Context, userID int64) ([]dialogue.Reply, error) {
	names, err := d.recipes.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(TextFavoritesHeader)
	n := 0
	for _, name := range names {
		// Older rows may still carry their numbering
		if name = service.CleanRecipeName(name); name == "" {
			continue
		}
		n++
		fmt.Fprintf(&sb, "\n%d. %s", n, name)
	}
	if n == 0 {
		return text(TextNoFavorites), nil
	}
	return text(sb.String()), nil
}

func (d *Dispatcher) showRecipe(ctx context.Context, userID int64, args string) ([]dialogue.Reply, error) {
	name := service.CleanRecipeName(args)
	if name == "" {
		return text(TextSpecificUsage), nil
	}

	body, err := d.recipes.GetRecipe(ctx, userID, name)
	if errors.Is(err, service.ErrRecipeNotFound) {
		return text(fmt.Sprintf(textRecipeNotFoundFmt, name)), nil
	}
	if err != nil {
		return nil, err
	}
	return text(body), nil
}

func (d *Dispatcher) clearFavorites(ctx context.Context, userID int64) ([]dialogue.Reply, error) {
	cleared, err := d.recipes.ClearFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cleared {
		return text(TextNothingToClear), nil
	}
	return text(TextFavoritesCleared), nil
}
