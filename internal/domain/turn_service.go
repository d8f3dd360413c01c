package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/dustin/go-humanize"
	"github.com/rs/xid"

	"github.com/Vovarama1992/lingobuddy/internal/error_notificator"
	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

const leaseKeyPrefix = "turn:"

type TurnConfig struct {
	LeaseTTL  time.Duration
	LeaseWait time.Duration
	LeasePoll time.Duration
}

// CheckRequestTimeout: аренда должна пережить самый долгий запрос,
// иначе второй ход той же беседы стартует поверх ещё идущего первого
func (c TurnConfig) CheckRequestTimeout(requestTimeout time.Duration) error {
	ttl := c.withDefaults().LeaseTTL
	if requestTimeout > 0 && ttl <= requestTimeout {
		return fmt.Errorf("%w: lease ttl %s must exceed request timeout %s", ErrValidation, ttl, requestTimeout)
	}
	return nil
}

func (c TurnConfig) withDefaults() TurnConfig {
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = 2 * time.Minute
	}
	if c.LeaseWait < 0 {
		c.LeaseWait = 0
	}
	if c.LeasePoll <= 0 {
		c.LeasePoll = 50 * time.Millisecond
	}
	return c
}

type UtteranceInput struct {
	ConversationID string
	Audio          []byte
	Language       string
	// OwnerID пустой → владелец не проверяется
	OwnerID string
}

type UtteranceResult struct {
	Transcript    string
	InteractionID string
}

type ReplyInput struct {
	ConversationID string
	Text           string
	Language       string
	// ReplyTo — id реплики пользователя из SubmitUtterance (необязательно)
	ReplyTo string
	OwnerID string
}

type ReplyResult struct {
	ReplyText     string
	Audio         []byte
	InteractionID string
	AudioURL      string
}

// TurnService — конвейер одной реплики:
// Received → Transcribed → ContextAssembled → Generated → Synthesized → Persisted
type TurnService struct {
	conversations *ConversationService
	interactions  ports.InteractionStore
	recorder      ports.InteractionRecorder
	history       ports.HistoryAssembler

	stt ports.Transcriber
	gen ports.Generator
	tts ports.Synthesizer

	lease   ports.TurnLease
	archive ports.AudioArchive

	notifier error_notificator.Notificator
	log      *logger.ZapLogger
	cfg      TurnConfig
}

func NewTurnService(
	conversations *ConversationService,
	interactions ports.InteractionStore,
	recorder ports.InteractionRecorder,
	history ports.HistoryAssembler,
	stt ports.Transcriber,
	gen ports.Generator,
	tts ports.Synthesizer,
	lease ports.TurnLease,
	archive ports.AudioArchive,
	notifier error_notificator.Notificator,
	log *logger.ZapLogger,
	cfg TurnConfig,
) *TurnService {
	return &TurnService{
		conversations: conversations,
		interactions:  interactions,
		recorder:      recorder,
		history:       history,
		stt:           stt,
		gen:           gen,
		tts:           tts,
		lease:         lease,
		archive:       archive,
		notifier:      notifier,
		log:           log,
		cfg:           cfg.withDefaults(),
	}
}

// === фаза 1: транскрипт ===
func (s *TurnService) SubmitUtterance(ctx context.Context, in UtteranceInput) (*UtteranceResult, error) {
	if len(in.Audio) == 0 || strings.TrimSpace(in.ConversationID) == "" || strings.TrimSpace(in.Language) == "" {
		return nil, validationErr("audioFile, conversationId, and language are required")
	}

	lang, err := ParseLanguage(in.Language)
	if err != nil {
		return nil, err
	}

	conv, err := s.conversations.Load(ctx, in.ConversationID, in.OwnerID)
	if err != nil {
		return nil, err
	}

	turnID := xid.New().String()
	start := time.Now()
	s.info(fmt.Sprintf("[turn %s] >>> transcribe conversation=%s audio=%s", turnID, conv.ID, humanize.Bytes(uint64(len(in.Audio)))))

	text, err := s.stt.Transcribe(ctx, in.Audio, lang.String())
	if err != nil {
		return nil, s.fail(ctx, turnID, stageErr(StageTranscribe, err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		// пустой транскрипт — просим повторить, реплику не создаём
		s.warn(fmt.Sprintf("[turn %s] empty transcript", turnID), ErrEmptyTranscript)
		return nil, stageErr(StageTranscribe, ErrEmptyTranscript)
	}

	it, err := s.recorder.Create(ctx, conv.ID, text, ports.SenderUser)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, s.fail(ctx, turnID, stageErr(StagePersist, err))
	}

	s.info(fmt.Sprintf("[turn %s][%.1fs] transcribed interaction=%s", turnID, time.Since(start).Seconds(), it.ID))

	return &UtteranceResult{Transcript: it.Message, InteractionID: it.ID}, nil
}

// === фаза 2: ответ ===
func (s *TurnService) GenerateReply(ctx context.Context, in ReplyInput) (*ReplyResult, error) {
	if strings.TrimSpace(in.Text) == "" || strings.TrimSpace(in.ConversationID) == "" || strings.TrimSpace(in.Language) == "" {
		return nil, validationErr("text, conversationId, and language are required")
	}

	lang, err := ParseLanguage(in.Language)
	if err != nil {
		return nil, err
	}

	conv, err := s.conversations.Load(ctx, in.ConversationID, in.OwnerID)
	if err != nil {
		return nil, err
	}

	// язык беседы главнее языка запроса
	if cl, err := ParseLanguage(conv.Language); err == nil {
		lang = cl
	}

	profile, err := ResolveVoice(lang)
	if err != nil {
		return nil, err
	}

	if in.ReplyTo != "" {
		if err := s.checkReplyTo(ctx, conv.ID, in.ReplyTo); err != nil {
			return nil, err
		}
	}

	turnID := xid.New().String()
	start := time.Now()
	s.info(fmt.Sprintf("[turn %s] >>> reply conversation=%s lang=%s voice=%s", turnID, conv.ID, lang, profile.DisplayName))

	token, err := s.acquireLease(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	defer s.releaseLease(ctx, conv.ID, token)

	// 1) контекст
	if err := ctx.Err(); err != nil {
		return nil, stageErr(StageContext, err)
	}
	history, err := s.history.AssembleExcluding(ctx, conv.ID, in.ReplyTo)
	if err != nil {
		return nil, s.fail(ctx, turnID, stageErr(StageContext, err))
	}
	if in.ReplyTo == "" {
		history = dropTrailingUtterance(history, in.Text)
	}

	// 2) генерация
	if err := ctx.Err(); err != nil {
		return nil, stageErr(StageGenerate, err)
	}
	reply, err := s.gen.Reply(ctx, in.Text, lang.String(), history, profile.Gender, profile.DisplayName)
	if err != nil {
		return nil, s.fail(ctx, turnID, stageErr(StageGenerate, err))
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, s.fail(ctx, turnID, stageErr(StageGenerate, errors.New("empty reply")))
	}
	s.info(fmt.Sprintf("[turn %s][%.1fs] generated history=%d", turnID, time.Since(start).Seconds(), len(history)))

	// 3) синтез
	if err := ctx.Err(); err != nil {
		return nil, stageErr(StageSynthesize, err)
	}
	audio, err := s.tts.Speak(ctx, reply, profile.VoiceID)
	if err != nil {
		return nil, s.fail(ctx, turnID, stageErr(StageSynthesize, err))
	}
	if len(audio) == 0 {
		return nil, s.fail(ctx, turnID, stageErr(StageSynthesize, errors.New("empty audio")))
	}
	s.info(fmt.Sprintf("[turn %s][%.1fs] synthesized %s", turnID, time.Since(start).Seconds(), humanize.Bytes(uint64(len(audio)))))

	// 4) сохранение
	if err := ctx.Err(); err != nil {
		return nil, stageErr(StagePersist, err)
	}
	it, err := s.recorder.Create(ctx, conv.ID, reply, ports.SenderAI)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, s.fail(ctx, turnID, stageErr(StagePersist, err))
	}

	res := &ReplyResult{ReplyText: reply, Audio: audio, InteractionID: it.ID}

	if s.archive != nil {
		url, err := s.archive.SaveReplyAudio(ctx, conv.ID, it.ID, audio)
		if err != nil {
			s.warn(fmt.Sprintf("[turn %s] audio archive failed", turnID), err)
		} else {
			res.AudioURL = url
		}
	}

	s.info(fmt.Sprintf("[turn %s][%.1fs] done interaction=%s", turnID, time.Since(start).Seconds(), it.ID))
	return res, nil
}

// без явного ReplyTo последняя фраза пользователя в истории и есть текущий ввод
func dropTrailingUtterance(history []ports.ChatMessage, text string) []ports.ChatMessage {
	n := len(history)
	if n > 0 && history[n-1].Role == ports.RoleUser && history[n-1].Content == strings.TrimSpace(text) {
		return history[:n-1]
	}
	return history
}

func (s *TurnService) checkReplyTo(ctx context.Context, conversationID, replyTo string) error {
	it, err := s.interactions.Get(ctx, replyTo)
	if errors.Is(err, ports.ErrNoRows) {
		return validationErr("interaction %s not found", replyTo)
	}
	if err != nil {
		return stageErr(StageContext, fmt.Errorf("get interaction: %w", err))
	}
	if it.ConversationID != conversationID || it.Sender != ports.SenderUser {
		return validationErr("interaction %s is not a user turn of conversation %s", replyTo, conversationID)
	}
	return nil
}

// acquireLease ждёт не дольше LeaseWait, затем ErrTurnInProgress
func (s *TurnService) acquireLease(ctx context.Context, conversationID string) (string, error) {
	key := leaseKeyPrefix + conversationID
	deadline := time.Now().Add(s.cfg.LeaseWait)

	for {
		token, err := s.lease.Acquire(ctx, key, s.cfg.LeaseTTL)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ports.ErrLeaseHeld) {
			return "", stageErr(StageContext, fmt.Errorf("acquire lease: %w", err))
		}
		if !time.Now().Before(deadline) {
			return "", fmt.Errorf("%w: conversation %s", ErrTurnInProgress, conversationID)
		}

		select {
		case <-ctx.Done():
			return "", stageErr(StageContext, ctx.Err())
		case <-time.After(s.cfg.LeasePoll):
		}
	}
}

// releaseLease отвязан от отмены запроса, иначе беседа осталась бы занятой до TTL
func (s *TurnService) releaseLease(ctx context.Context, conversationID, token string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.lease.Release(rctx, leaseKeyPrefix+conversationID, token); err != nil {
		s.warn("[turn] lease release failed conversation="+conversationID, err)
	}
}

// fail логирует полную ошибку и уведомляет админа
func (s *TurnService) fail(ctx context.Context, turnID string, err error) error {
	s.log.Log(logger.LogEntry{
		Level:   "error",
		Message: fmt.Sprintf("[turn %s] failed", turnID),
		Service: "turn",
		Error:   err,
	})

	if s.notifier != nil && errors.Is(err, ErrService) && !errors.Is(err, context.Canceled) {
		var se *StageError
		stage := "turn"
		if errors.As(err, &se) {
			stage = string(se.Stage)
		}
		_ = s.notifier.Notify(context.WithoutCancel(ctx), stage, err, "turn "+turnID)
	}
	return err
}

func (s *TurnService) info(msg string) {
	s.log.Log(logger.LogEntry{Level: "info", Message: msg, Service: "turn"})
}

func (s *TurnService) warn(msg string, err error) {
	s.log.Log(logger.LogEntry{Level: "warn", Message: msg, Service: "turn", Error: err})
}
