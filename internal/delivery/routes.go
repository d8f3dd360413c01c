package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

type RouteConfig struct {
	RequestTimeout     time.Duration
	RateLimitPerMinute int
}

func RegisterRoutes(
	r chi.Router,
	hSpeech *SpeechHandler,
	hTranslate *TranslateHandler,
	hConv *ConversationHandler,
	cfg RouteConfig,
) {
	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/", func(pr chi.Router) {
		pr.Use(httputil.RecoverMiddleware, WithUser)
		if cfg.RequestTimeout > 0 {
			pr.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		pr.Get("/languages", ListLanguages)

		// --- внешние провайдеры: ограничиваем частоту ---
		pr.Group(func(g chi.Router) {
			if cfg.RateLimitPerMinute > 0 {
				g.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
			}

			// --- речь ---
			g.Post("/speech/transcribe", hSpeech.Transcribe)
			g.Post("/speech/generate-response", hSpeech.GenerateResponse)

			// --- перевод ---
			g.Post("/translate/split-text", hTranslate.SplitText)
			g.Post("/translate/word", hTranslate.Word)
		})

		// --- беседы ---
		pr.Group(func(g chi.Router) {
			g.Use(RequireUser)

			g.Post("/conversations", hConv.Create)
			g.Get("/conversations", hConv.List)
			g.Get("/conversations/{id}", hConv.Get)
			g.Delete("/conversations/{id}", hConv.Delete)
			g.Put("/interactions/{id}", hConv.UpdateInteraction)
		})
	})
}
