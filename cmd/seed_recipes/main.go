package main

import (
	"context"
	"flag"
	"time"

	"github.com/pageza/alchemorsel-bot/config"
	"github.com/pageza/alchemorsel-bot/internal/database"
	"github.com/pageza/alchemorsel-bot/internal/dialogue"
	"github.com/pageza/alchemorsel-bot/internal/logger"
	"github.com/pageza/alchemorsel-bot/internal/models"
	"github.com/pageza/alchemorsel-bot/internal/service"
)

type seedRecipe struct {
	Name     string
	Body     string
	Favorite bool
}

var demoRecipes = []seedRecipe{
	{
		Name: "Pad Kra Pao Gai",
		Body: "# Pad Kra Pao Gai\n\n" +
			"Ingredients: chicken thigh, holy basil, garlic, bird's eye chili, oyster sauce, fish sauce, rice.\n\n" +
			"1. Pound garlic and chili.\n2. Stir-fry with minced chicken over high heat.\n" +
			"3. Season, toss in basil and serve over rice with a fried egg.\n\n" +
			"Budget breakdown: about 120 THB.",
		Favorite: true,
	},
	{
		Name: "Tom Kha Tofu",
		Body: "# Tom Kha Tofu\n\n" +
			"Ingredients: tofu, coconut milk, galangal, lemongrass, kaffir lime leaves, mushrooms, lime.\n\n" +
			"1. Simmer aromatics in coconut milk.\n2. Add tofu and mushrooms.\n3. Finish with lime juice.\n\n" +
			"Budget breakdown: about 150 THB.",
	},
	{
		Name: "Spaghetti Aglio e Olio",
		Body: "# Spaghetti Aglio e Olio\n\n" +
			"Ingredients: spaghetti, garlic, olive oil, chili flakes, parsley.\n\n" +
			"1. Cook pasta.\n2. Gently fry garlic and chili in olive oil.\n3. Toss with pasta water and parsley.\n\n" +
			"Budget breakdown: about 180 THB.",
	},
}

// generated recipes cycle through these requests
var seedRequests = []models.RecipeRequest{
	{Cuisine: "Thai", MealType: "Dinner", Servings: 2, TimeLimit: 30},
	{Cuisine: "Italian", MealType: "Lunch", Servings: 4, TimeLimit: 45},
	{Cuisine: "Mexican", MealType: "Dinner", Servings: 2, TimeLimit: 60},
	{Cuisine: "Indian", MealType: "Dinner", Servings: 4, TimeLimit: 60},
	{Cuisine: "Other", MealType: "Breakfast", Servings: 1, TimeLimit: 15},
}

func main() {
	userID := flag.Int64("user", 1, "Chat user id to seed")
	generate := flag.Int("generate", 0, "Number of extra recipes to generate with the LLM")
	flag.Parse()

	cfg, err := config.LoadCommandConfig()
	if err != nil {
		logger.Init("recipe-bot-seed", true)
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init("recipe-bot-seed", cfg.Env.ConsoleLogs())
	logger.SetLevel(cfg.LogLevel)
	log := logger.Logger

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := database.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	ctx := logger.ContextWithUser(context.Background(), *userID)
	prefs := service.NewPreferenceService(db)
	recipes := service.NewRecipeService(db)

	user := &models.UserPreferences{
		UserID:              *userID,
		DietaryRestrictions: []string{"Nut-Free"},
		SkillLevel:          models.SkillIntermediate,
		DislikedIngredients: []string{"Cilantro"},
		BudgetRange:         models.Budget100To200,
	}
	if err := prefs.SetPreferences(ctx, user); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed preferences")
	}

	for _, r := range demoRecipes {
		id, err := recipes.SaveRecipe(ctx, *userID, r.Name, r.Body)
		if err != nil {
			log.Error().Err(err).Str("name", r.Name).Msg("Failed to save recipe")
			continue
		}
		if r.Favorite {
			if _, err := recipes.SetFavorite(ctx, *userID, id, true); err != nil {
				log.Error().Err(err).Uint("recipe_id", id).Msg("Failed to mark favorite")
			}
		}
		log.Info().Uint("recipe_id", id).Str("name", r.Name).Msg("Seeded recipe")
	}

	if *generate > 0 {
		generateRecipes(ctx, cfg, prefs, recipes, *userID, *generate)
	}

	log.Info().Int64("user_id", *userID).Msg("Seeding complete")
}

func generateRecipes(ctx context.Context, cfg *config.Config, prefs *service.PreferenceService, recipes *service.RecipeService, userID int64, n int) {
	log := logger.WithContext(ctx)

	llm, err := service.NewLLMService(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create LLM service")
	}
	p, err := prefs.GetPreferences(ctx, userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load preferences")
	}

	for i := 0; i < n; i++ {
		req := seedRequests[i%len(seedRequests)]
		req.UserID = userID
		if err := recipes.LogRecipeRequest(ctx, &req); err != nil {
			log.Error().Err(err).Msg("Failed to log recipe request")
			continue
		}

		text, err := llm.Generate(ctx, service.BuildPrompt(&req, p))
		if err != nil {
			log.Error().Err(err).Str("cuisine", req.Cuisine).Msg("Failed to generate recipe")
			continue
		}

		id, err := recipes.SaveRecipe(ctx, userID, dialogue.RecipeTitle(text), text)
		if err != nil {
			log.Error().Err(err).Msg("Failed to save generated recipe")
			continue
		}
		log.Info().Uint("recipe_id", id).Str("cuisine", req.Cuisine).Msg("Generated recipe")

		// Small delay between calls to avoid rate limiting
		time.Sleep(2 * time.Second)
	}
}
