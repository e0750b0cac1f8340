package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/xaenox/support-bot/internal/assistant"
	"github.com/xaenox/support-bot/internal/history"
	"github.com/xaenox/support-bot/internal/markup"
	"github.com/xaenox/support-bot/internal/models"
	"github.com/xaenox/support-bot/internal/session"
	"github.com/xaenox/support-bot/internal/store"
	"go.uber.org/zap"
)

const maxTitleLength = 50

const (
	callbackNewAppeal   = "new_appeal"
	callbackOpenAppeal  = "open_appeal:"
	callbackCloseAppeal = "close_appeal:"
)

// replyFallback is shown whenever the assistant cannot produce an
// answer. It is also what gets persisted as the bot turn in that case.
const replyFallback = "Sorry, I can't answer your request right now. Please try again later."

// Responder generates a reply for the composed transcript.
type Responder interface {
	Respond(ctx context.Context, input string) (string, error)
}

// telegramAPI is the slice of *tgbotapi.BotAPI the bot uses; tests
// substitute a recording stub.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type Bot struct {
	api       telegramAPI
	store     store.Store
	history   *history.History
	assistant Responder
	sessions  session.Store
	logger    *zap.Logger
}

func New(token string, store store.Store, hist *history.History, responder Responder, sessions session.Store, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:       api,
		store:     store,
		history:   hist,
		assistant: responder,
		sessions:  sessions,
		logger:    logger,
	}, nil
}

func (b *Bot) Start() error {
	b.setCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		go b.handleUpdate(update)
	}

	return nil
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	ctx := context.Background()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	if message.Text == "" {
		return
	}

	sess := b.sessions.Get(message.From.ID)
	switch sess.State {
	case session.StateWaitingForTitle:
		b.handleAppealTitle(ctx, message)
	case session.StateHandlingAppeal:
		b.handleAppealMessage(ctx, message, sess)
	default:
		// Outside an appeal there is nothing to do with free text.
		b.logger.Debug("Ignoring message outside an appeal",
			zap.Int64("user_id", message.From.ID))
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(ctx, message)
	case "help":
		b.handleHelp(message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

// handleStart resets the session and renders the appeal picker.
func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	b.sessions.Clear(userID)

	appeals, err := b.store.ListOpenAppeals(ctx, userID)
	if err != nil {
		b.logger.Error("Failed to list open appeals",
			zap.Error(err),
			zap.Int64("user_id", userID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't load your appeals. Please try again later.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, appeal := range appeals {
		title := appeal.Title
		if title == "" {
			title = "Appeal " + appeal.ID
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(title, callbackOpenAppeal+appeal.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("New appeal", callbackNewAppeal),
	))

	text := "You have no open appeals. Create a new one:"
	if len(appeals) > 0 {
		text = "You have open appeals. Pick one to continue, or create a new one:"
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send appeal picker",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}

	b.sessions.Set(userID, session.Session{State: session.StateWaitingForInput})
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	b.sendMessage(message.Chat.ID, "I can answer your questions. Use /start to begin a conversation.")
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Acknowledge first so the client stops its spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Error("Failed to answer callback query", zap.Error(err))
	}

	userID := query.From.ID
	data := query.Data

	switch {
	case data == callbackNewAppeal:
		b.sessions.Set(userID, session.Session{State: session.StateWaitingForTitle})
		b.sendMessage(userID, fmt.Sprintf("Enter a title for your appeal (%d characters max):", maxTitleLength))

	case strings.HasPrefix(data, callbackOpenAppeal):
		appealID := strings.TrimPrefix(data, callbackOpenAppeal)
		b.sessions.Set(userID, session.Session{State: session.StateHandlingAppeal, AppealID: appealID})
		b.sendMessage(userID, fmt.Sprintf("Appeal %s is open. How can I help?", appealID))

	case strings.HasPrefix(data, callbackCloseAppeal):
		b.closeAppeal(ctx, userID, strings.TrimPrefix(data, callbackCloseAppeal))

	default:
		b.logger.Warn("Unknown callback data",
			zap.String("data", data),
			zap.Int64("user_id", userID))
	}
}

func (b *Bot) closeAppeal(ctx context.Context, userID int64, appealID string) {
	err := b.store.CloseAppeal(ctx, appealID)
	switch {
	case errors.Is(err, store.ErrAppealNotFound):
		b.sendErrorMessage(userID, "Appeal not found.")
	case err != nil:
		b.logger.Error("Failed to close appeal",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("appeal_id", appealID))
		b.sendErrorMessage(userID, "Failed to close the appeal. Please try again later.")
	default:
		b.sessions.Clear(userID)
		b.sendMessage(userID, "The appeal has been closed.")
	}
}

// handleAppealTitle validates the title and creates the appeal record.
// On a store failure the session stays in the title-entry state so the
// user can simply send the title again.
func (b *Bot) handleAppealTitle(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	title := message.Text

	if !validTitle(title) {
		b.sendMessage(message.Chat.ID,
			fmt.Sprintf("That title is too long. Please enter a title of %d characters or less.", maxTitleLength))
		return
	}

	appeal := models.Appeal{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Status:    models.AppealOpen,
		CreatedAt: time.Now(),
	}

	if err := b.store.CreateAppeal(ctx, appeal); err != nil {
		b.logger.Error("Failed to create appeal",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("title", title))
		b.sendErrorMessage(message.Chat.ID, "Failed to create the appeal. Please try again later.")
		return
	}

	b.sessions.Set(userID, session.Session{State: session.StateHandlingAppeal, AppealID: appeal.ID})
	b.sendMessage(message.Chat.ID, fmt.Sprintf("Appeal %q created. Describe your problem.", title))
}

func (b *Bot) handleAppealMessage(ctx context.Context, message *tgbotapi.Message, sess session.Session) {
	if sess.AppealID == "" {
		b.sendErrorMessage(message.Chat.ID, "No appeal is bound to this conversation. Use /start.")
		return
	}

	chunks, offerClose := b.respondInAppeal(ctx, message.From.ID, message.MessageID, message.Time(), sess.AppealID, message.Text)

	for _, chunk := range chunks {
		b.sendMarkdown(message.Chat.ID, chunk)
	}

	if offerClose {
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Close appeal", callbackCloseAppeal+sess.AppealID),
			),
		)
		msg := tgbotapi.NewMessage(message.Chat.ID, "Close this appeal?")
		msg.ReplyMarkup = keyboard
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Error("Failed to send close offer",
				zap.Error(err),
				zap.Int64("chat_id", message.Chat.ID))
		}
	}
}

// respondInAppeal runs the reply pipeline: load the transcript, call the
// model, persist both turns, and chunk the formatted reply. Persistence
// failures are swallowed downstream; the reply is always produced.
func (b *Bot) respondInAppeal(ctx context.Context, userID int64, messageID int, sentAt time.Time, appealID, input string) ([]string, bool) {
	transcript := b.history.Transcript(ctx, userID, appealID)
	transcript += "User: " + input + "\n"

	raw, err := b.assistant.Respond(ctx, transcript+"Bot:")
	if err != nil {
		b.logger.Error("Failed to generate reply",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("appeal_id", appealID))
		raw = replyFallback
	}

	// Both turns of the exchange share the triggering message id; the
	// bot turn is stamped now, after the user turn, so ascending
	// timestamp order reconstructs the exchange.
	b.history.Append(ctx, models.Turn{
		MessageID: messageID,
		UserID:    userID,
		AppealID:  appealID,
		Role:      models.RoleUser,
		Content:   input,
		Timestamp: sentAt,
	})
	b.history.Append(ctx, models.Turn{
		MessageID: messageID,
		UserID:    userID,
		AppealID:  appealID,
		Role:      models.RoleBot,
		Content:   raw,
		Timestamp: time.Now(),
	})

	chunks := markup.Split(markup.FormatBold(raw), markup.MaxMessageLength)
	return chunks, assistant.SignalsResolution(raw)
}

func validTitle(title string) bool {
	return utf8.RuneCountInString(title) <= maxTitleLength
}

func (b *Bot) setCommands() {
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start a conversation"},
		tgbotapi.BotCommand{Command: "help", Description: "Show help"},
	)
	if _, err := b.api.Request(commands); err != nil {
		b.logger.Error("Failed to set bot commands", zap.Error(err))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send markdown message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
