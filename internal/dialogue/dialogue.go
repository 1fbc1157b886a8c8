package dialogue

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Flow names a dialogue
type Flow string

const (
	FlowNone       Flow = ""
	FlowOnboarding Flow = "onboarding"
	FlowRecipe     Flow = "recipe"
)

// OnboardingStep is a state of the onboarding dialogue
type OnboardingStep int

const (
	StepDiet OnboardingStep = iota
	StepSkill
	StepDisliked
	StepBudget
	onboardingStepCount
)

// RecipeStep is a state of the recipe dialogue
type RecipeStep int

const (
	StepCuisine RecipeStep = iota
	StepMeal
	StepServings
	StepTime
	StepIngredients
	recipeStepCount
)

var (
	DietChoices     = []string{"None", "Vegetarian", "Vegan", "Gluten-Free", "Dairy-Free", "Nut-Free"}
	SkillChoices    = []string{"Beginner", "Intermediate", "Advanced"}
	DislikeChoices  = []string{"Cilantro", "Anchovies", "Onions", "None"}
	BudgetChoices   = []string{"100-200", "200-500", "500-1000"}
	CuisineChoices  = []string{"Thai", "Italian", "Mexican", "Indian", "Other"}
	MealChoices     = []string{"Breakfast", "Lunch", "Dinner", "Snack"}
	ServingsChoices = []string{"1", "2", "4", "6+"}
	TimeChoices     = []string{"15", "30", "45", "60"}
)

// noneChoice is the explicit "nothing" answer on list-valued steps
const noneChoice = "None"

const (
	TextOnboardingSaved     = "✅ Preferences saved! Use /onboard anytime to update."
	TextOnboardingCancelled = "Onboarding canceled. Use /onboard to start again."
	TextRecipeCancelled     = "Recipe canceled. Use /recipe to try again."
	TextNothingToCancel     = "Nothing to cancel."
	TextIngredientsPrompt   = "📋 List your ingredients (comma-separated):"
	TextFavoritePrompt      = "Like this recipe?"
	FavoriteButtonLabel     = "⭐ Save to favorites"
	UntitledRecipe          = "Untitled Recipe"
)

// Button is an inline button whose payload comes back as a callback
type Button struct {
	Label   string
	Payload string
}

// Reply is one outgoing message. Keyboard offers constrained choices,
// RemoveKeyboard hides a previous one and Button attaches an inline action.
type Reply struct {
	Text           string
	Keyboard       []string
	RemoveKeyboard bool
	Button         *Button
}

// choiceStep describes a constrained-choice state
type choiceStep struct {
	prompt  string
	invalid string
	choices []string
	apply   func(d *SessionData, choice string)
}

func (c choiceStep) accepts(input string) bool {
	for _, choice := range c.choices {
		if input == choice {
			return true
		}
	}
	return false
}

func (c choiceStep) promptReply() Reply {
	return Reply{Text: c.prompt, Keyboard: c.choices}
}

func (c choiceStep) invalidReply() Reply {
	return Reply{Text: c.invalid, Keyboard: c.choices}
}

// listChoice maps a single choice to a list, with "None" as the empty list
func listChoice(choice string) []string {
	if choice == noneChoice {
		return []string{}
	}
	return []string{choice}
}

var onboardingSteps = [onboardingStepCount]choiceStep{
	StepDiet: {
		prompt:  "🔧 Onboarding: Select your dietary restriction:",
		invalid: "Please choose a dietary restriction from the keyboard.",
		choices: DietChoices,
		apply:   func(d *SessionData, c string) { d.Dietary = listChoice(c) },
	},
	StepSkill: {
		prompt:  "👩‍🍳 What is your cooking skill level?",
		invalid: "Please choose a skill level from the keyboard.",
		choices: SkillChoices,
		apply:   func(d *SessionData, c string) { d.Skill = c },
	},
	StepDisliked: {
		prompt:  "❌ Which ingredient do you dislike?",
		invalid: "Please choose an ingredient to dislike.",
		choices: DislikeChoices,
		apply:   func(d *SessionData, c string) { d.Disliked = listChoice(c) },
	},
	StepBudget: {
		prompt:  "💰 What is your budget range in THB?",
		invalid: "Please select a budget range.",
		choices: BudgetChoices,
		apply:   func(d *SessionData, c string) { d.Budget = c },
	},
}

// recipeSteps covers the constrained steps; StepIngredients is free text
var recipeSteps = [StepIngredients]choiceStep{
	StepCuisine: {
		prompt:  "🍽️ What cuisine?",
		invalid: "Choose a cuisine from the keyboard.",
		choices: CuisineChoices,
		apply:   func(d *SessionData, c string) { d.Cuisine = c },
	},
	StepMeal: {
		prompt:  "⏰ What meal type?",
		invalid: "Select a meal type from the keyboard.",
		choices: MealChoices,
		apply:   func(d *SessionData, c string) { d.Meal = c },
	},
	StepServings: {
		prompt:  "👥 How many servings?",
		invalid: "Select servings from the keyboard.",
		choices: ServingsChoices,
		apply:   func(d *SessionData, c string) { d.Servings, _ = ParseServings(c) },
	},
	StepTime: {
		prompt:  "⏱️ Max cook time (minutes)?",
		invalid: "Select a time limit from the keyboard.",
		choices: TimeChoices,
		apply:   func(d *SessionData, c string) { d.TimeLimit, _ = strconv.Atoi(c) },
	},
}

// inputClass is how an answer is treated by the current step
type inputClass int

const (
	inputCancel inputClass = iota
	inputValid
	inputInvalid
)

func isCancel(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "cancel", "/cancel":
		return true
	}
	return false
}

func classify(step choiceStep, input string) inputClass {
	switch {
	case isCancel(input):
		return inputCancel
	case step.accepts(input):
		return inputValid
	default:
		return inputInvalid
	}
}

// ParseServings reads a servings choice, treating a trailing suffix such as
// the "+" in "6+" as absent
func ParseServings(choice string) (int, error) {
	digits := strings.TrimRightFunc(strings.TrimSpace(choice), func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("invalid servings %q: %w", choice, err)
	}
	return n, nil
}

// ParseIngredients splits on commas and trims each token. Empty tokens are kept.
func ParseIngredients(text string) []string {
	parts := strings.Split(text, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// RecipeTitle takes the first line of generated text as the recipe title
func RecipeTitle(text string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	title := strings.TrimLeft(first, "#* \t")
	title = strings.TrimSpace(strings.TrimRight(title, "* \t\r"))
	if title == "" {
		return UntitledRecipe
	}
	return title
}

const favoritePrefix = "fav|"

// ErrBadPayload is returned for callback data that is not a favorite payload
var ErrBadPayload = errors.New("unrecognized callback payload")

// FavoritePayload encodes a recipe id for the favorite button
func FavoritePayload(recipeID uint) string {
	return favoritePrefix + strconv.FormatUint(uint64(recipeID), 10)
}

// ParseFavoritePayload decodes a payload made by FavoritePayload
func ParseFavoritePayload(payload string) (uint, error) {
	raw, ok := strings.CutPrefix(payload, favoritePrefix)
	if !ok {
		return 0, ErrBadPayload
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrBadPayload
	}
	return uint(id), nil
}
