package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Vovarama1992/lingobuddy/internal/ai"
	"github.com/Vovarama1992/lingobuddy/internal/cache"
	"github.com/Vovarama1992/lingobuddy/internal/delivery"
	"github.com/Vovarama1992/lingobuddy/internal/domain"
	"github.com/Vovarama1992/lingobuddy/internal/error_notificator"
	"github.com/Vovarama1992/lingobuddy/internal/infra"
	"github.com/Vovarama1992/lingobuddy/internal/lease"
	"github.com/Vovarama1992/lingobuddy/internal/ports"
	"github.com/Vovarama1992/lingobuddy/internal/speech"
	"github.com/Vovarama1992/lingobuddy/internal/translation"
)

func main() {

	// =========================================================================
	// ENV / LOGGER
	// =========================================================================

	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// =========================================================================
	// STORAGE
	// =========================================================================

	var (
		conversationRepo ports.ConversationStore
		interactionRepo  ports.InteractionStore
	)

	switch driver := envOr("STORE_DRIVER", "postgres"); driver {
	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			log.Fatal("DATABASE_URL is not set")
		}
		db, err := infra.OpenPostgres(ctx, dsn)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer db.Close()
		conversationRepo = infra.NewConversationRepo(db)
		interactionRepo = infra.NewInteractionRepo(db)

	case "supabase":
		store, err := infra.NewSupabaseStore(os.Getenv("SUPABASE_URL"), os.Getenv("SUPABASE_SERVICE_KEY"))
		if err != nil {
			log.Fatalf("failed to init supabase: %v", err)
		}
		conversationRepo = store.Conversations()
		interactionRepo = store.Interactions()

	case "memory":
		store := infra.NewMemoryStore()
		conversationRepo = store.Conversations()
		interactionRepo = store.Interactions()

	default:
		log.Fatalf("unknown STORE_DRIVER %q", driver)
	}

	// =========================================================================
	// LEASE / CACHE
	// =========================================================================

	var (
		turnLease ports.TurnLease = lease.NewMemoryLease()
		kv        ports.Cache     = cache.NewMemoryCache()
	)

	if url := os.Getenv("REDIS_URL"); url != "" {
		rdb, err := cache.NewRedisClient(ctx, url)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		turnLease = lease.NewRedisLease(rdb)
		kv = cache.NewRedisCache(rdb, "lingobuddy:")
	} else {
		zl.Log(logger.LogEntry{Level: "warn", Message: "REDIS_URL not set, lease and cache are process-local", Service: "lingobuddy"})
	}

	// =========================================================================
	// ERROR NOTIFICATION
	// =========================================================================

	var errInfra error_notificator.Notificator
	if token := os.Getenv("TELEGRAM_ALERT_BOT_TOKEN"); token != "" {
		chatID, err := strconv.ParseInt(os.Getenv("TELEGRAM_ALERT_CHAT_ID"), 10, 64)
		if err != nil {
			log.Fatalf("invalid TELEGRAM_ALERT_CHAT_ID: %v", err)
		}
		tg, err := error_notificator.NewInfra(token, chatID)
		if err != nil {
			log.Fatalf("failed to init alert bot: %v", err)
		}
		errInfra = tg
	}
	errService := error_notificator.NewService(errInfra, zl)

	// =========================================================================
	// CLIENTS (LLM / STT / TTS / S3)
	// =========================================================================

	openAIClient, err := ai.NewOpenAIClient()
	if err != nil {
		log.Fatalf("failed to init openai: %v", err)
	}

	var stt ports.Transcriber = openAIClient // Whisper
	if envOr("STT_PROVIDER", "whisper") == "deepgram" {
		dg, err := speech.NewDeepgramClient()
		if err != nil {
			log.Fatalf("failed to init deepgram: %v", err)
		}
		stt = dg
	}

	ttsClient, err := speech.NewElevenLabsClient()
	if err != nil {
		log.Fatalf("failed to init elevenlabs: %v", err)
	}

	var archive ports.AudioArchive
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		s3Client, err := infra.NewS3Client(ctx, infra.S3Config{
			Endpoint:  endpoint,
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    os.Getenv("S3_REGION"),
			Insecure:  os.Getenv("S3_INSECURE") == "true",
		})
		if err != nil {
			log.Fatalf("failed to init s3: %v", err)
		}
		archive = domain.NewS3Service(s3Client)
	}

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	var counter domain.TokenCounter = domain.EstimateCounter{}
	if tc, err := domain.NewTiktokenCounter(openAIClient.Model()); err == nil {
		counter = tc
	} else {
		zl.Log(logger.LogEntry{Level: "warn", Message: "tiktoken unavailable, using estimate", Service: "lingobuddy", Error: err})
	}

	conversationService := domain.NewConversationService(conversationRepo, interactionRepo)
	interactionService := domain.NewInteractionService(interactionRepo)
	historyService := domain.NewHistoryService(interactionRepo, domain.HistoryOptions{
		MaxTurns:    envInt("HISTORY_MAX_TURNS", 20),
		TokenBudget: envInt("HISTORY_TOKEN_BUDGET", 6000),
	}, counter)

	speechService := speech.NewService(stt, ttsClient)
	aiService := ai.NewAiService(openAIClient)

	requestTimeout := envDuration("REQUEST_TIMEOUT", 90*time.Second)
	turnCfg := domain.TurnConfig{
		LeaseTTL:  envDuration("LEASE_TTL", 2*time.Minute),
		LeaseWait: envDuration("LEASE_WAIT", 10*time.Second),
	}
	if err := turnCfg.CheckRequestTimeout(requestTimeout); err != nil {
		log.Fatalf("config: %v", err)
	}

	turnService := domain.NewTurnService(
		conversationService,
		interactionRepo,
		interactionService,
		historyService,
		speechService,
		aiService,
		speechService,
		turnLease,
		archive,
		errService,
		zl,
		turnCfg,
	)

	translator := translation.NewCachedTranslator(
		translation.NewOpenAITranslator(openAIClient),
		kv,
		envDuration("TRANSLATION_CACHE_TTL", 24*time.Hour),
	)
	translationService := translation.NewService(translator)

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-Id"},
	}))

	// HANDLERS
	speechHandler := delivery.NewSpeechHandler(turnService, zl)
	translateHandler := delivery.NewTranslateHandler(translationService, zl)
	conversationHandler := delivery.NewConversationHandler(conversationService, interactionService, zl)

	// ROUTES
	delivery.RegisterRoutes(
		r,
		speechHandler,
		translateHandler,
		conversationHandler,
		delivery.RouteConfig{
			RequestTimeout:     requestTimeout,
			RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		},
	)

	// =========================================================================
	// START SERVER
	// =========================================================================

	addr := ":" + port
	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + addr,
		Service: "lingobuddy",
	})

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}
