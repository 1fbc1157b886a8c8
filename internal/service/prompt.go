package service

import (
	"fmt"
	"strings"

	"github.com/pageza/alchemorsel-bot/internal/models"
)

// PantryStaples are assumed to be on hand in every kitchen
var PantryStaples = []string{"salt", "black pepper", "cooking oil", "sugar", "garlic", "water"}

// CuisinePantry lists extra staples assumed for a cuisine, keyed by exact name
var CuisinePantry = map[string][]string{
	"Thai":    {"fish sauce", "oyster sauce", "jasmine rice", "lime", "chili flakes"},
	"Italian": {"olive oil", "dried oregano", "dried basil", "pasta", "parmesan"},
	"Mexican": {"cumin", "chili powder", "tortillas", "canned beans", "lime"},
	"Indian":  {"cumin seeds", "turmeric", "garam masala", "ginger", "basmati rice"},
}

const systemPrompt = "You are a practical home-cooking assistant. Write recipes that respect the user's constraints exactly."

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}

// BuildPrompt renders a recipe request and the user's preferences into the
// text sent to the generator
func BuildPrompt(req *models.RecipeRequest, prefs *models.UserPreferences) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Create a %s recipe for %d servings that takes at most %d minutes in total, in %s cuisine.\n\n",
		req.MealType, req.Servings, req.TimeLimit, req.Cuisine)

	sb.WriteString("Pantry staples (always available, do not list them under ingredients to buy): ")
	sb.WriteString(strings.Join(PantryStaples, ", "))
	sb.WriteString(".\n")
	sb.WriteString("Cuisine pantry (also available): ")
	sb.WriteString(joinOr(CuisinePantry[req.Cuisine], "none"))
	sb.WriteString(".\n\n")

	sb.WriteString("Dietary restrictions: ")
	sb.WriteString(joinOr(prefs.DietaryRestrictions, "none"))
	sb.WriteString(".\n")
	sb.WriteString("Disliked ingredients (never use): ")
	sb.WriteString(joinOr(prefs.DislikedIngredients, "none"))
	sb.WriteString(".\n")
	sb.WriteString("Ingredients I have: ")
	sb.WriteString(joinOr(req.AvailableIngredients, "none"))
	sb.WriteString(".\n")
	fmt.Fprintf(&sb, "Cooking skill level: %s.\n", prefs.SkillLevel)
	fmt.Fprintf(&sb, "Budget: %s THB.\n\n", prefs.BudgetRange)

	sb.WriteString("Reply in markdown with these numbered sections:\n")
	sb.WriteString("1. Title (the recipe name alone on the first line)\n")
	sb.WriteString("2. Total time\n")
	sb.WriteString("3. Ingredients to buy, with quantities\n")
	sb.WriteString("4. Numbered steps\n")
	sb.WriteString("5. Serving tips\n")
	sb.WriteString("6. Nutrition estimate per serving\n")
	sb.WriteString("7. Budget breakdown in THB\n")

	return sb.String()
}
