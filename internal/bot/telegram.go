package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pageza/alchemorsel-bot/internal/dialogue"
	"github.com/pageza/alchemorsel-bot/internal/logger"
)

// MaxMessageLength is Telegram's limit on message text, in characters
const MaxMessageLength = 4096

const (
	// TextGenericError is sent when a turn fails on a storage or generation fault
	TextGenericError = "⚠️ Something went wrong. Please try again."

	// TextTextOnly answers messages without text, such as photos or stickers
	TextTextOnly = "I can only read text messages. Please type your answer."
)

// sender is the part of tgbotapi.BotAPI used to talk back to users
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Telegram connects the dispatcher to the Telegram Bot API
type Telegram struct {
	api        *tgbotapi.BotAPI
	sender     sender
	dispatcher *Dispatcher
	queues     *userQueues
}

// NewTelegram authorizes the bot token and creates the gateway
func NewTelegram(token string, dispatcher *Dispatcher) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Logger.Info().Str("username", api.Self.UserName).Msg("Authorized on Telegram")

	return &Telegram{
		api:        api,
		sender:     api,
		dispatcher: dispatcher,
		queues:     newUserQueues(),
	}, nil
}

// Start polls for updates until ctx is done, then waits for in-flight
// updates to finish
func (t *Telegram) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.api.GetUpdatesChan(u)

	// Handlers outlive the polling context so a shutdown does not cut a
	// database write in half
	handlerCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			t.queues.wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				t.queues.wait()
				return nil
			}
			t.enqueue(handlerCtx, update)
		}
	}
}

// enqueue hands the update to its user's queue. Updates of one user are
// handled one at a time in arrival order; different users run concurrently.
func (t *Telegram) enqueue(ctx context.Context, update tgbotapi.Update) {
	var from *tgbotapi.User
	switch {
	case update.CallbackQuery != nil:
		from = update.CallbackQuery.From
	case update.Message != nil:
		from = update.Message.From
	}
	if from == nil {
		return
	}
	t.queues.push(from.ID, func() { t.handleUpdate(ctx, update) })
}

// handleUpdate processes one update
func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		t.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		t.handleMessage(ctx, update.Message)
	}
}

func (t *Telegram) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	userID := msg.From.ID
	ctx = logger.ContextWithUser(ctx, userID)

	if msg.Text == "" {
		// Photos, stickers and the like carry no text to answer with
		t.sendReplies(ctx, msg.Chat.ID, []dialogue.Reply{{Text: TextTextOnly}})
		return
	}

	var (
		replies []dialogue.Reply
		err     error
	)
	if msg.IsCommand() {
		replies, err = t.dispatcher.HandleCommand(ctx, userID, msg.Command(), msg.CommandArguments())
	} else {
		replies, err = t.dispatcher.HandleText(ctx, userID, msg.Text)
	}
	if err != nil {
		logger.Error(ctx).Err(err).Msg("Failed to handle message")
		replies = []dialogue.Reply{{Text: TextGenericError}}
	}

	t.sendReplies(ctx, msg.Chat.ID, replies)
}

func (t *Telegram) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.From == nil {
		return
	}
	userID := callback.From.ID
	ctx = logger.ContextWithUser(ctx, userID)

	// Stop the client's loading indicator
	if _, err := t.sender.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to answer callback")
	}

	reply := t.dispatcher.HandleCallback(ctx, userID, callback.Data)

	chatID := userID
	if callback.Message != nil && callback.Message.Chat != nil {
		chatID = callback.Message.Chat.ID
	}
	t.sendReplies(ctx, chatID, []dialogue.Reply{reply})
}

func (t *Telegram) sendReplies(ctx context.Context, chatID int64, replies []dialogue.Reply) {
	for _, reply := range replies {
		for _, msg := range renderReply(chatID, reply) {
			if _, err := t.sender.Send(msg); err != nil {
				logger.Error(ctx).Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
				return
			}
		}
	}
}

// renderReply converts a reply into Telegram messages. Long text is split
// and any keyboard or button is attached to the last part.
func renderReply(chatID int64, reply dialogue.Reply) []tgbotapi.MessageConfig {
	chunks := SplitMessage(reply.Text, MaxMessageLength)
	msgs := make([]tgbotapi.MessageConfig, 0, len(chunks))
	for _, chunk := range chunks {
		msgs = append(msgs, tgbotapi.NewMessage(chatID, chunk))
	}

	last := &msgs[len(msgs)-1]
	switch {
	case reply.Button != nil:
		last.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(reply.Button.Label, reply.Button.Payload),
			),
		)
	case len(reply.Keyboard) > 0:
		// one button per row
		rows := make([][]tgbotapi.KeyboardButton, 0, len(reply.Keyboard))
		for _, option := range reply.Keyboard {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(option)))
		}
		markup := tgbotapi.NewReplyKeyboard(rows...)
		markup.OneTimeKeyboard = true
		markup.ResizeKeyboard = true
		last.ReplyMarkup = markup
	case reply.RemoveKeyboard:
		last.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	return msgs
}

// SplitMessage cuts text into chunks of at most limit runes, preferring to
// break after a newline. It always returns at least one chunk.
func SplitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// userQueues runs jobs in push order per user, with one worker per user
// that exits once its queue is empty
type userQueues struct {
	mu      sync.Mutex
	pending map[int64][]func()
	wg      sync.WaitGroup
}

func newUserQueues() *userQueues {
	return &userQueues{pending: make(map[int64][]func())}
}

func (q *userQueues) push(userID int64, job func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs, running := q.pending[userID]
	q.pending[userID] = append(jobs, job)
	if running {
		return
	}
	q.wg.Add(1)
	go q.drain(userID)
}

func (q *userQueues) drain(userID int64) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		jobs := q.pending[userID]
		if len(jobs) == 0 {
			delete(q.pending, userID)
			q.mu.Unlock()
			return
		}
		job := jobs[0]
		q.pending[userID] = jobs[1:]
		q.mu.Unlock()

		job()
	}
}

// wait blocks until every queued job has run
func (q *userQueues) wait() {
	q.wg.Wait()
}
