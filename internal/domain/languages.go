package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Language — поддерживаемый язык практики. Набор закрыт.
type Language string

const (
	English    Language = "en"
	Spanish    Language = "es"
	French     Language = "fr"
	German     Language = "de"
	Italian    Language = "it"
	Portuguese Language = "pt"
	Japanese   Language = "ja"
	Chinese    Language = "zh"
)

type LanguageInfo struct {
	Code       Language `json:"code"`
	Name       string   `json:"name"`
	NativeName string   `json:"native_name"`
}

var supported = []LanguageInfo{
	{English, "English", "English"},
	{Spanish, "Spanish", "Español"},
	{French, "French", "Français"},
	{German, "German", "Deutsch"},
	{Italian, "Italian", "Italiano"},
	{Portuguese, "Portuguese", "Português"},
	{Japanese, "Japanese", "日本語"},
	{Chinese, "Chinese", "中文"},
}

func SupportedLanguages() []LanguageInfo {
	out := make([]LanguageInfo, len(supported))
	copy(out, supported)
	return out
}

// ParseLanguage принимает код ("es", "es-MX") или английское имя ("Spanish").
func ParseLanguage(raw string) (Language, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty language", ErrUnsupportedLanguage)
	}

	for _, l := range supported {
		if strings.EqualFold(s, l.Name) {
			return l.Code, nil
		}
	}

	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, raw)
	}
	base, _ := tag.Base()

	lang := Language(base.String())
	if _, err := lang.Info(); err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, raw)
	}
	return lang, nil
}

func (l Language) Info() (LanguageInfo, error) {
	switch l {
	case English, Spanish, French, German, Italian, Portuguese, Japanese, Chinese:
		for _, li := range supported {
			if li.Code == l {
				return li, nil
			}
		}
	}
	return LanguageInfo{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, string(l))
}

func (l Language) String() string { return string(l) }
