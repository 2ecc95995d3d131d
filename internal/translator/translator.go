package translator

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

const (
	LanguageEn = "en"
	LanguageFr = "fr"
)

//go:embed translations/*.toml
var translationsFS embed.FS

var supportedLanguages = []language.Tag{
	language.English,
	language.French,
}

// Translator resolves message IDs into the language a client asked for.
// Unknown languages and missing messages fall back to English.
type Translator struct {
	bundle  *i18n.Bundle
	matcher language.Matcher
}

func New() (*Translator, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(translationsFS, "translations/*.toml")
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}

	for _, file := range files {
		_, err = bundle.LoadMessageFileFS(translationsFS, file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	return &Translator{
		bundle:  bundle,
		matcher: language.NewMatcher(supportedLanguages),
	}, nil
}

func MustNew() *Translator {
	t, err := New()
	if err != nil {
		panic(err)
	}
	return t
}

// Match picks the best supported language for an Accept-Language header.
func (t *Translator) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return LanguageEn
	}

	tag, _, _ := t.matcher.Match(tags...)
	base, _ := tag.Base()
	return base.String()
}

// Localize returns the message for messageID, or messageID itself when
// no catalog defines it.
func (t *Translator) Localize(lang, messageID string) string {
	localizer := i18n.NewLocalizer(t.bundle, lang, LanguageEn)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: messageID})
	if err != nil {
		return messageID
	}
	return msg
}
