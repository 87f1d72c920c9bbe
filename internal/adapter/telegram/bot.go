package telegram

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/escalopa/arud-bot/internal/analysis"
	"github.com/escalopa/arud-bot/internal/application"
	"github.com/escalopa/arud-bot/internal/domain"
)

// maxDetailButtons caps the per-verse debug buttons under a result
const maxDetailButtons = 20

// Callback actions of the buttons under a result
const (
	callbackJSON    = "json"
	callbackReport  = "report"
	callbackDetails = "details"
)

// parseResultCallback reads "json:<id>", "report:<id>" or "details:<n>:<id>".
// The id may be empty.
func parseResultCallback(data string) (string, int, string, bool) {
	action, rest, _ := strings.Cut(data, ":")
	switch action {
	case callbackJSON, callbackReport:
		return action, 0, rest, true
	case callbackDetails:
		n, id, _ := strings.Cut(rest, ":")
		verse, err := strconv.Atoi(n)
		if err != nil {
			return "", 0, "", false
		}
		return action, verse, id, true
	default:
		return "", 0, "", false
	}
}

type Bot struct {
	api      *tgbotapi.BotAPI
	service  *application.AnalysisService
	i18n     domain.I18nPort
	logger   *zap.Logger
	commands map[string]CommandHandler
	cancel   context.CancelFunc
	handlers sync.WaitGroup
}

func NewBot(token string, service *application.AnalysisService, i18n domain.I18nPort, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bot := &Bot{
		api:      api,
		service:  service,
		i18n:     i18n,
		logger:   logger.Named("telegram"),
		commands: make(map[string]CommandHandler),
	}

	// Register commands
	bot.registerCommands()

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	b.logger.Info("authorized", zap.String("account", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handlers.Add(1)
			go func() {
				defer b.handlers.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// Stop stops polling and waits for running handlers
func (b *Bot) Stop() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.api.StopReceivingUpdates()
	b.handlers.Wait()
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	userID := b.getUserID(update)
	if userID == "" {
		return
	}

	lang := b.service.Language(ctx, userID)

	// Handle commands
	if update.Message != nil && update.Message.IsCommand() {
		b.handleCommand(ctx, update.Message, lang)
		return
	}

	// Handle uploaded poem files
	if update.Message != nil && update.Message.Document != nil {
		b.handleDocument(ctx, update.Message, userID, lang)
		return
	}

	// Handle callback queries (button presses)
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery, userID, lang)
		return
	}

	// Any other text is a poem
	if update.Message != nil && update.Message.Text != "" {
		b.analyzePoem(ctx, update.Message.Chat.ID, userID, lang, update.Message.Text)
		return
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, lang domain.Language) {
	cmd := msg.Command()

	handler, exists := b.commands[cmd]
	if !exists {
		b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "error.unknown_command"))
		return
	}

	handler(ctx, msg, lang)
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, userID string, lang domain.Language) {
	// Answer callback to remove loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Debug("answer callback failed", zap.Error(err))
	}
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	data := callback.Data

	switch {
	case strings.HasPrefix(data, "lang:"):
		newLang, ok := domain.ParseLanguage(strings.TrimPrefix(data, "lang:"))
		if !ok {
			return
		}
		if err := b.service.SetLanguage(ctx, userID, newLang); err != nil {
			b.logger.Error("set language failed", zap.String("user", userID), zap.Error(err))
			b.sendMessage(chatID, b.i18n.Get(lang, "error.generic"))
			return
		}
		b.editMessage(callback.Message, b.i18n.Get(newLang, "language.changed"))

	case strings.HasPrefix(data, "example:"):
		ex, ok := domain.LookupExample(strings.TrimPrefix(data, "example:"))
		if !ok {
			return
		}
		b.sendMessage(chatID, ex.Poem)
		b.analyzePoem(ctx, chatID, userID, lang, ex.Poem)

	default:
		action, verse, id, ok := parseResultCallback(data)
		if !ok {
			return
		}
		res, ok := b.lastResult(ctx, chatID, userID, lang)
		if !ok {
			return
		}
		if id != "" && id != res.ID {
			b.sendMessage(chatID, b.i18n.Get(lang, "analysis.stale"))
			return
		}
		b.sendResultExport(chatID, lang, res, action, verse)
	}
}

// sendResultExport answers a result button with the JSON document, the
// report document or the raw payload of one verse
func (b *Bot) sendResultExport(chatID int64, lang domain.Language, res *application.Result, action string, verse int) {
	switch action {
	case callbackJSON:
		var buf bytes.Buffer
		if err := analysis.WriteJSON(&buf, res.Analysis.Raw); err != nil {
			b.logger.Error("write json failed", zap.Error(err))
			b.sendMessage(chatID, b.i18n.Get(lang, "error.generic"))
			return
		}
		b.sendDocument(chatID, "arud-analysis.json", buf.Bytes())

	case callbackReport:
		var buf bytes.Buffer
		if err := analysis.WriteReport(&buf, res.Analysis, res.Summary(), res.InputLines); err != nil {
			b.logger.Error("write report failed", zap.Error(err))
			b.sendMessage(chatID, b.i18n.Get(lang, "error.generic"))
			return
		}
		b.sendDocument(chatID, "arud-report.txt", buf.Bytes())

	case callbackDetails:
		if verse < 1 || verse > len(res.Analysis.Verses) {
			b.sendMessage(chatID, b.i18n.Get(lang, "verse.no_details"))
			return
		}
		b.sendHTML(chatID, formatVerseJSON(b.i18n, lang, verse, res.Analysis.Verses[verse-1].Raw), nil)
	}
}

// analyzePoem runs one analysis and replies with the result or the error
func (b *Bot) analyzePoem(ctx context.Context, chatID int64, userID string, lang domain.Language, poem string) {
	verses, err := application.SplitVerses(poem, false)
	if err != nil {
		b.sendHTML(chatID, errorText(b.i18n, lang, err), nil)
		return
	}

	progress, err := b.api.Send(tgbotapi.NewMessage(chatID, b.i18n.Get(lang, "analysis.processing", len(verses))))
	if err != nil {
		b.logger.Warn("send progress failed", zap.Error(err))
	}
	b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

	res, err := b.service.Analyze(ctx, userID, poem)
	if progress.MessageID != 0 {
		b.api.Request(tgbotapi.NewDeleteMessage(chatID, progress.MessageID))
	}
	if err != nil {
		b.sendHTML(chatID, errorText(b.i18n, lang, err), nil)
		return
	}

	b.sendResult(chatID, lang, res)
}

func (b *Bot) sendResult(chatID int64, lang domain.Language, res *application.Result) {
	view := res.View()
	keyboard := b.resultKeyboard(lang, len(view.Verses), res.ID)
	b.sendHTML(chatID, formatResult(b.i18n, lang, view), &keyboard)
}

// resultKeyboard builds the buttons under a result. Each callback carries the
// analysis id so a button under an older result is not answered with a newer one.
func (b *Bot) resultKeyboard(lang domain.Language, verses int, id string) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.i18n.Get(lang, "button.json"), callbackJSON+":"+id),
			tgbotapi.NewInlineKeyboardButtonData(b.i18n.Get(lang, "button.report"), callbackReport+":"+id),
		),
	}

	var row []tgbotapi.InlineKeyboardButton
	for i := 1; i <= verses && i <= maxDetailButtons; i++ {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			b.i18n.Get(lang, "button.details", i),
			fmt.Sprintf("%s:%d:%s", callbackDetails, i, id),
		))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) lastResult(ctx context.Context, chatID int64, userID string, lang domain.Language) (*application.Result, bool) {
	res, ok := b.service.Last(ctx, userID)
	if !ok {
		b.sendMessage(chatID, b.i18n.Get(lang, "last.empty"))
	}
	return res, ok
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("send message failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

// sendHTML sends text in as many messages as needed; the keyboard goes on the last one
func (b *Bot) sendHTML(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	chunks := splitMessage(text, messageLimit)
	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		if keyboard != nil && i == len(chunks)-1 {
			msg.ReplyMarkup = *keyboard
		}
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Warn("send message failed", zap.Int64("chat", chatID), zap.Int("chunk", i), zap.Error(err))
			return
		}
	}
}

func (b *Bot) sendDocument(chatID int64, name string, data []byte) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	if _, err := b.api.Send(doc); err != nil {
		b.logger.Warn("send document failed", zap.Int64("chat", chatID), zap.String("name", name), zap.Error(err))
	}
}

func (b *Bot) editMessage(msg *tgbotapi.Message, text string) {
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, msg.MessageID, text)
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("edit message failed", zap.Error(err))
	}
}

func (b *Bot) getUserID(update tgbotapi.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return strconv.FormatInt(update.Message.From.ID, 10)
	}
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		return strconv.FormatInt(update.CallbackQuery.From.ID, 10)
	}
	return ""
}
