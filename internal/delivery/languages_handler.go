package delivery

import (
	"net/http"

	"github.com/Vovarama1992/lingobuddy/internal/domain"
)

type languageView struct {
	domain.LanguageInfo
	Voice domain.VoiceProfile `json:"voice"`
}

func ListLanguages(w http.ResponseWriter, _ *http.Request) {
	langs := domain.SupportedLanguages()
	out := make([]languageView, 0, len(langs))
	for _, l := range langs {
		v, err := domain.ResolveVoice(l.Code)
		if err != nil {
			continue
		}
		out = append(out, languageView{LanguageInfo: l, Voice: v})
	}
	writeJSON(w, http.StatusOK, out)
}
