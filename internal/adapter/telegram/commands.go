package telegram

import (
	"context"
	"errors"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/escalopa/arud-bot/internal/domain"
)

type CommandHandler func(ctx context.Context, msg *tgbotapi.Message, lang domain.Language)

// registerCommands registers all bot commands
func (b *Bot) registerCommands() {
	b.commands = map[string]CommandHandler{
		"start":    b.commandStart,
		"help":     b.commandHelp,
		"language": b.commandLanguage,
		"last":     b.commandLast,
		"examples": b.commandExamples,
		"bahr":     b.commandBahr,
		"validate": b.commandValidate,
		"status":   b.commandStatus,
	}

	// Set bot commands for Telegram UI
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "examples", Description: "Analyse a sample poem"},
		{Command: "last", Description: "Show the last analysis"},
		{Command: "bahr", Description: "Meter information"},
		{Command: "validate", Description: "Check a single verse"},
		{Command: "status", Description: "Analysis service status"},
		{Command: "language", Description: "Change language"},
		{Command: "help", Description: "Show help"},
	}

	cmdConfig := tgbotapi.NewSetMyCommands(commands...)
	if _, err := b.api.Request(cmdConfig); err != nil {
		b.logger.Warn("set bot commands failed", zap.Error(err))
	}
}

func (b *Bot) commandStart(ctx context.Context, msg *tgbotapi.Message, lang domain.Language) {
	b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "welcome.message"))
	b.sendLanguageSelection(msg.Chat.ID, lang)
}

func (b *Bot) commandHelp(ctx context.Context, msg *tgbotapi.Message, lang domain.Language) {
	b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "help.message"))
}

func (b *Bot) commandLanguage(ctx context.Context, msg *tgbotapi.Message, lang domain.Language) {
	b.sendLanguageSelection(msg.Chat.ID, lang)
}

func (b *Bot) commandLast(ctx context.Context, msg *tgbotapi.Message, lang domain.Language) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	res, ok := b.lastResult(ctx, msg.Chat.ID, userID, lang)
	if !ok {
		return
	}
	b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "analysis.restored"))
	b.sendResult(msg.Chat.ID, lang, res)
}

func (b *Bot) commandExamples(ctx context.Context, msg *tgbotapi.Message, lang domain.Language) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ex := range domain.GetAllExamples() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.i18n.ExampleTitle(lang, ex), "example:"+ex.Key),
		))
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, b.i18n.Get(lang, "examples.select"))
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(reply); err != nil {
		b.logger.Warn("send examples failed", zap.Error(err))
	}
}

func (b *Bot) commandBahr(ctx context.Context, msg *tgbotapi.Message, lang domain.Language) {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "bahr.usage"))
		return
	}

	info, err := b.service.BahrInfo(ctx, name)
	if err != nil {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) {
			b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "bahr.unknown"))
			return
		}
		b.logger.Warn("bahr info failed", zap.String("name", name), zap.Error(err))
		b.sendHTML(msg.Chat.ID, errorText(b.i18n, lang, err), nil)
		return
	}

	text := b.i18n.Get(lang, "bahr.result",
		"<b>"+html.EscapeString(info.Name)+"</b>",
		"<code>"+html.EscapeString(info.Pattern)+"</code>",
	)
	b.sendHTML(msg.Chat.ID, text, nil)
}

func (b *Bot) commandValidate(ctx context.Context, msg *tgbotapi.Message, lang domain.Language) {
	verse := strings.TrimSpace(msg.CommandArguments())
	if verse == "" {
		b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "validate.usage"))
		return
	}

	ok, err := b.service.Validate(ctx, verse)
	if err != nil {
		b.sendHTML(msg.Chat.ID, errorText(b.i18n, lang, err), nil)
		return
	}
	if ok {
		b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "validate.valid"))
		return
	}
	b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "validate.invalid"))
}

func (b *Bot) commandStatus(ctx context.Context, msg *tgbotapi.Message, lang domain.Language) {
	status, err := b.service.Status(ctx)
	if err != nil {
		b.sendHTML(msg.Chat.ID, errorText(b.i18n, lang, err), nil)
		return
	}
	b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "status.result", status.Service, status.Version, status.Status))
}

func (b *Bot) sendLanguageSelection(chatID int64, currentLang domain.Language) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🇬🇧 English", "lang:en"),
			tgbotapi.NewInlineKeyboardButtonData("🇸🇦 العربية", "lang:ar"),
			tgbotapi.NewInlineKeyboardButtonData("🇫🇷 Français", "lang:fr"),
		),
	)

	msg := tgbotapi.NewMessage(chatID, b.i18n.Get(currentLang, "language.select"))
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("send language selection failed", zap.Error(err))
	}
}
