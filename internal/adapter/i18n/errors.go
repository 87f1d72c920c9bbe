package i18n

import (
	"errors"

	"github.com/escalopa/arud-bot/internal/domain"
)

// ErrorMessage maps an error to the localized text shown to users.
// Server-supplied messages are passed through verbatim.
func ErrorMessage(tr domain.I18nPort, lang domain.Language, err error) string {
	var (
		tooMany      *domain.TooManyVersesError
		transportErr *domain.TransportError
		apiErr       *domain.APIError
	)

	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		return tr.Get(lang, "error.empty_input")
	case errors.As(err, &tooMany):
		return tr.Get(lang, "error.too_many_verses", domain.MaxVerses, tooMany.Count)
	case errors.Is(err, domain.ErrAnalysisInProgress):
		return tr.Get(lang, "error.in_progress")
	case errors.As(err, &transportErr):
		return tr.Get(lang, "error.connection")
	case errors.As(err, &apiErr):
		msg := apiErr.Message
		if msg == "" {
			msg = tr.Get(lang, "error.server")
		}
		return tr.Get(lang, "error.analysis_failed", msg)
	default:
		return tr.Get(lang, "error.generic")
	}
}
