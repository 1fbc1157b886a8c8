package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pageza/alchemorsel-bot/internal/dialogue"
	"github.com/pageza/alchemorsel-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.sent = append(s.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func newTestGateway(t *testing.T) (*Telegram, *fakeSender, *fixture) {
	f := newFixture(t)
	s := &fakeSender{}
	return &Telegram{sender: s, dispatcher: f.dispatcher, queues: newUserQueues()}, s, f
}

func commandUpdate(text string) tgbotapi.Update {
	cmd, _, _ := strings.Cut(text, " ")
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: testUser},
		Chat:     &tgbotapi.Chat{ID: 100},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func textUpdate(text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: testUser},
		Chat: &tgbotapi.Chat{ID: 100},
		Text: text,
	}}
}

func TestTelegramGateway(t *testing.T) {
	ctx := context.Background()

	t.Run("should send a one-time keyboard for dialogue steps", func(t *testing.T) {
		gw, s, _ := newTestGateway(t)
		gw.handleUpdate(ctx, commandUpdate("/onboard"))

		require.Len(t, s.sent, 1)
		assert.Equal(t, int64(100), s.sent[0].ChatID)
		markup, ok := s.sent[0].ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
		require.True(t, ok)
		assert.True(t, markup.OneTimeKeyboard)
		require.Len(t, markup.Keyboard, len(dialogue.DietChoices))
		assert.Equal(t, "Vegan", markup.Keyboard[2][0].Text)
	})

	t.Run("should route free text into the dialogue", func(t *testing.T) {
		gw, s, _ := newTestGateway(t)
		gw.handleUpdate(ctx, commandUpdate("/recipe"))
		gw.handleUpdate(ctx, textUpdate("Thai"))

		require.Len(t, s.sent, 2)
		assert.Equal(t, "⏰ What meal type?", s.sent[1].Text)
	})

	t.Run("should pass command arguments", func(t *testing.T) {
		gw, s, f := newTestGateway(t)
		f.favorite(t, "Pad Thai")
		gw.handleUpdate(ctx, commandUpdate("/specific Pad Thai"))

		require.Len(t, s.sent, 1)
		assert.Equal(t, "body of Pad Thai", s.sent[0].Text)
	})

	t.Run("should answer and handle favorite callbacks", func(t *testing.T) {
		gw, s, f := newTestGateway(t)
		id, err := f.recipes.SaveRecipe(ctx, testUser, "Pad Thai", "body")
		require.NoError(t, err)

		gw.handleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			From:    &tgbotapi.User{ID: testUser},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 100}},
			Data:    dialogue.FavoritePayload(id),
		}})

		require.Len(t, s.requests, 1)
		cb, ok := s.requests[0].(tgbotapi.CallbackConfig)
		require.True(t, ok)
		assert.Equal(t, "cb-1", cb.CallbackQueryID)
		require.Len(t, s.sent, 1)
		assert.Equal(t, TextFavoriteSaved, s.sent[0].Text)
	})

	t.Run("should not feed text-less messages to the dialogue", func(t *testing.T) {
		gw, s, f := newTestGateway(t)
		gw.handleUpdate(ctx, commandUpdate("/recipe"))
		for _, in := range []string{"Thai", "Dinner", "2", "30"} {
			gw.handleUpdate(ctx, textUpdate(in))
		}

		sticker := textUpdate("")
		sticker.Message.Sticker = &tgbotapi.Sticker{FileID: "sticker-1"}
		gw.handleUpdate(ctx, sticker)

		assert.Equal(t, TextTextOnly, s.sent[len(s.sent)-1].Text)
		f.llm.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)

		var count int64
		require.NoError(t, f.db.Model(&models.RecipeRequest{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("should send a generic error when a turn fails", func(t *testing.T) {
		gw, s, f := newTestGateway(t)
		f.llm.On("Generate", mock.Anything, mock.Anything).Return("", assert.AnError).Once()
		gw.handleUpdate(ctx, commandUpdate("/recipe"))
		for _, in := range []string{"Thai", "Dinner", "2", "30", "rice"} {
			gw.handleUpdate(ctx, textUpdate(in))
		}

		assert.Equal(t, TextGenericError, s.sent[len(s.sent)-1].Text)
		f.llm.AssertExpectations(t)
	})
}

func TestTelegramOrdering(t *testing.T) {
	gw, s, _ := newTestGateway(t)
	ctx := context.Background()

	gw.enqueue(ctx, commandUpdate("/recipe"))
	for _, in := range []string{"Thai", "Dinner", "2", "30"} {
		gw.enqueue(ctx, textUpdate(in))
	}
	gw.queues.wait()

	require.Len(t, s.sent, 5)
	assert.Equal(t, "🍽️ What cuisine?", s.sent[0].Text)
	assert.Equal(t, "⏰ What meal type?", s.sent[1].Text)
	assert.Equal(t, dialogue.TextIngredientsPrompt, s.sent[4].Text)
}

func TestRenderReply(t *testing.T) {
	t.Run("should attach inline button", func(t *testing.T) {
		msgs := renderReply(1, dialogue.Reply{Text: "Like it?", Button: &dialogue.Button{Label: "⭐", Payload: "fav|3"}})
		require.Len(t, msgs, 1)
		markup, ok := msgs[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		require.True(t, ok)
		require.NotNil(t, markup.InlineKeyboard[0][0].CallbackData)
		assert.Equal(t, "fav|3", *markup.InlineKeyboard[0][0].CallbackData)
	})

	t.Run("should remove keyboard", func(t *testing.T) {
		msgs := renderReply(1, dialogue.Reply{Text: "done", RemoveKeyboard: true})
		_, ok := msgs[0].ReplyMarkup.(tgbotapi.ReplyKeyboardRemove)
		assert.True(t, ok)
	})

	t.Run("should put markup on the last chunk only", func(t *testing.T) {
		long := strings.Repeat("a", MaxMessageLength+10)
		msgs := renderReply(1, dialogue.Reply{Text: long, Keyboard: []string{"x"}})
		require.Len(t, msgs, 2)
		assert.Nil(t, msgs[0].ReplyMarkup)
		assert.NotNil(t, msgs[1].ReplyMarkup)
	})
}

func TestSplitMessage(t *testing.T) {
	t.Run("should keep short text whole", func(t *testing.T) {
		assert.Equal(t, []string{"hello"}, SplitMessage("hello", 10))
		assert.Equal(t, []string{""}, SplitMessage("", 10))
	})

	t.Run("should count runes not bytes", func(t *testing.T) {
		text := strings.Repeat("ต", 15)
		chunks := SplitMessage(text, 10)
		require.Len(t, chunks, 2)
		assert.Equal(t, 10, utf8.RuneCountInString(chunks[0]))
		assert.Equal(t, text, strings.Join(chunks, ""))
	})

	t.Run("should prefer newline boundaries", func(t *testing.T) {
		text := "line one\nline two\nline three"
		chunks := SplitMessage(text, 12)
		assert.Equal(t, "line one\n", chunks[0])
		assert.Equal(t, text, strings.Join(chunks, ""))
		for _, c := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(c), 12)
		}
	})
}

func TestUserQueues(t *testing.T) {
	t.Run("should run one user's jobs in push order", func(t *testing.T) {
		q := newUserQueues()
		var mu sync.Mutex
		var got []int
		for i := 0; i < 200; i++ {
			q.push(testUser, func() {
				mu.Lock()
				got = append(got, i)
				mu.Unlock()
			})
		}
		q.wait()

		require.Len(t, got, 200)
		for i, v := range got {
			require.Equal(t, i, v)
		}
		assert.Empty(t, q.pending)
	})

	t.Run("should run different users concurrently", func(t *testing.T) {
		q := newUserQueues()
		release := make(chan struct{})
		done := make(chan struct{})

		q.push(1, func() { <-release })
		q.push(2, func() { close(done) })

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("second user blocked behind the first")
		}
		close(release)
		q.wait()
	})

	t.Run("should restart a worker after its queue drained", func(t *testing.T) {
		q := newUserQueues()
		ran := 0
		q.push(testUser, func() { ran++ })
		q.wait()
		q.push(testUser, func() { ran++ })
		q.wait()
		assert.Equal(t, 2, ran)
	})
}
