package utils

import (
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// SupportedLanguages lists the locales shipped with the application
var SupportedLanguages = []string{"en", "es"}

var (
	// Bundle is the global translation bundle
	Bundle *i18n.Bundle
	// Localizer is the default localizer
	Localizer *i18n.Localizer
)

// InitI18n loads active.<lang>.toml files from fsys
func InitI18n(fsys fs.FS) error {
	Bundle = i18n.NewBundle(language.English)
	Bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, lang := range SupportedLanguages {
		if _, err := Bundle.LoadMessageFileFS(fsys, "active."+lang+".toml"); err != nil {
			Log.Warn("Failed to load %s locale: %v", lang, err)
		}
	}

	Localizer = i18n.NewLocalizer(Bundle, language.English.String())

	Log.Debug("i18n system initialized")
	return nil
}

// NormalizeLanguage maps an arbitrary tag to a supported language
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, supported := range SupportedLanguages {
		if strings.HasPrefix(lang, supported) {
			return supported
		}
	}
	return "en"
}

// GetLocalizer returns a localizer for the specified language
func GetLocalizer(lang string) *i18n.Localizer {
	if Bundle == nil {
		return nil
	}
	return i18n.NewLocalizer(Bundle, NormalizeLanguage(lang))
}

// T translates a message ID, falling back to the ID itself
func T(localizer *i18n.Localizer, messageID string) string {
	if localizer == nil {
		return messageID
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID: messageID,
	})
	if err != nil {
		Log.Debug("Translation error for '%s': %v", messageID, err)
		return messageID
	}
	return msg
}

// TLang translates messageID for a language code
func TLang(lang, messageID string) string {
	return T(GetLocalizer(lang), messageID)
}

// Translations returns every message ID in ids translated for lang
func Translations(lang string, ids []string) map[string]string {
	localizer := GetLocalizer(lang)
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		out[id] = T(localizer, id)
	}
	return out
}
