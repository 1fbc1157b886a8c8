package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the bot's Prometheus counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	RecipesGenerated   prometheus.Counter
	GenerationFailures prometheus.Counter
	DialoguesCompleted *prometheus.CounterVec
	DialoguesCancelled *prometheus.CounterVec
	InvalidChoices     *prometheus.CounterVec
	FavoritesMarked    prometheus.Counter
}

// New creates the counters and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecipesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recipebot_recipes_generated_total",
			Help: "Total number of recipes generated and saved",
		}),
		GenerationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recipebot_generation_failures_total",
			Help: "Total number of failed calls to the recipe generator",
		}),
		DialoguesCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipebot_dialogues_completed_total",
				Help: "Total number of dialogues that reached their final step",
			},
			[]string{"flow"},
		),
		DialoguesCancelled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipebot_dialogues_cancelled_total",
				Help: "Total number of dialogues cancelled by the user",
			},
			[]string{"flow"},
		),
		InvalidChoices: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipebot_invalid_choices_total",
				Help: "Total number of answers outside the offered choices",
			},
			[]string{"flow"},
		),
		FavoritesMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recipebot_favorites_marked_total",
			Help: "Total number of recipes marked as favorite",
		}),
	}

	reg.MustRegister(
		m.RecipesGenerated,
		m.GenerationFailures,
		m.DialoguesCompleted,
		m.DialoguesCancelled,
		m.InvalidChoices,
		m.FavoritesMarked,
	)
	return m
}

func (m *Metrics) RecipeGenerated() {
	if m != nil {
		m.RecipesGenerated.Inc()
	}
}

func (m *Metrics) GenerationFailed() {
	if m != nil {
		m.GenerationFailures.Inc()
	}
}

func (m *Metrics) DialogueCompleted(flow string) {
	if m != nil {
		m.DialoguesCompleted.WithLabelValues(flow).Inc()
	}
}

func (m *Metrics) DialogueCancelled(flow string) {
	if m != nil {
		m.DialoguesCancelled.WithLabelValues(flow).Inc()
	}
}

func (m *Metrics) InvalidChoice(flow string) {
	if m != nil {
		m.InvalidChoices.WithLabelValues(flow).Inc()
	}
}

func (m *Metrics) FavoriteMarked() {
	if m != nil {
		m.FavoritesMarked.Inc()
	}
}
