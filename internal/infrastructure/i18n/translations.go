package i18n

import (
	"embed"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"remindbot/internal/ports/output"
)

//go:embed active.*.toml
var localeFS embed.FS

var _ output.Translator = (*Translator)(nil)

// Locales shipped with the bot.
var Locales = []string{"en", "ru"}

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
	logger          *slog.Logger
}

// NewTranslator builds a Translator with the given default locale (e.g. "en").
func NewTranslator(defaultLocale string, logger *slog.Logger) *Translator {
	logger = logger.With("component", "i18n")
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		logger.Warn("unknown default locale, using English", "locale", defaultLocale)
		tag = language.English
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, locale := range Locales {
		file := "active." + locale + ".toml"
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			logger.Error("failed to load translations", "file", file, "error", err)
		}
	}

	return &Translator{
		bundle:          bundle,
		defaultLanguage: tag,
		logger:          logger,
	}
}

// T renders the message identified by key for the given locale.
// If the key/locale is not found, it falls back to the default locale,
// then finally to the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	if key == "" {
		return ""
	}

	languages := []string{}
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, t.defaultLanguage.String())

	localizer := i18n.NewLocalizer(t.bundle, languages...)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		t.logger.Debug("localize failed", "key", key, "locales", languages, "error", err)
		if msg != "" {
			return msg
		}
		return key
	}
	return msg
}

// All returns key rendered in every shipped locale, keyed by locale.
func (t *Translator) All(key string, data map[string]any) map[string]string {
	out := make(map[string]string, len(Locales))
	for _, locale := range Locales {
		out[locale] = t.T(locale, key, data)
	}
	return out
}
