package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/escalopa/arud-bot/internal/domain"
)

// maxDocumentSize bounds uploaded poem files
const maxDocumentSize = 1 << 20

var downloadClient = &http.Client{Timeout: 30 * time.Second}

// isTextDocument reports whether an upload looks like a plain-text poem
func isTextDocument(doc *tgbotapi.Document) bool {
	if doc == nil || doc.FileSize > maxDocumentSize {
		return false
	}
	if strings.HasPrefix(doc.MimeType, "text/plain") {
		return true
	}
	return strings.EqualFold(filepath.Ext(doc.FileName), ".txt")
}

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message, userID string, lang domain.Language) {
	chatID := msg.Chat.ID
	if !isTextDocument(msg.Document) {
		b.sendMessage(chatID, b.i18n.Get(lang, "error.document"))
		return
	}

	poem, err := b.readDocument(ctx, msg.Document.FileID)
	if err != nil {
		b.logger.Warn("read document failed",
			zap.String("user", userID),
			zap.String("file", msg.Document.FileName),
			zap.Error(err),
		)
		b.sendMessage(chatID, b.i18n.Get(lang, "error.document"))
		return
	}

	b.analyzePoem(ctx, chatID, userID, lang, poem)
}

// readDocument downloads a file from Telegram and returns it as UTF-8 text
func (b *Bot) readDocument(ctx context.Context, fileID string) (string, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("get file url: %w", err)
	}

	data, err := downloadFile(ctx, fileURL)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8")
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

// downloadFile downloads at most maxDocumentSize bytes from fileURL
func downloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := downloadClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("file exceeds %d bytes", maxDocumentSize)
	}

	return data, nil
}
