package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"go.uber.org/zap"

	"github.com/Vovarama1992/lingobuddy/internal/infra"
	"github.com/Vovarama1992/lingobuddy/internal/lease"
	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

type fakeSTT struct {
	text string
	err  error
}

func (f *fakeSTT) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	return f.text, f.err
}

type genCall struct {
	text    string
	lang    string
	history []ports.ChatMessage
	gender  string
	name    string
}

type fakeGen struct {
	mu     sync.Mutex
	calls  []genCall
	reply  string
	err    error
	delay  time.Duration
	during func()

	active    int32
	maxActive int32
}

func (f *fakeGen) Reply(ctx context.Context, text, lang string, history []ports.ChatMessage, gender, name string) (string, error) {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		m := atomic.LoadInt32(&f.maxActive)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxActive, m, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, genCall{text, lang, history, gender, name})
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.during != nil {
		f.during()
	}
	return f.reply, f.err
}

func (f *fakeGen) last() genCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakeTTS struct {
	mu     sync.Mutex
	voices []string
	audio  []byte
	err    error
}

func (f *fakeTTS) Speak(ctx context.Context, text, voiceID string) ([]byte, error) {
	f.mu.Lock()
	f.voices = append(f.voices, voiceID)
	f.mu.Unlock()
	return f.audio, f.err
}

type fakeArchive struct{ saved []string }

func (f *fakeArchive) ObjectKey(conversationID, interactionID string) string {
	return conversationID + "/" + interactionID + ".mp3"
}

func (f *fakeArchive) SaveReplyAudio(ctx context.Context, conversationID, interactionID string, audio []byte) (string, error) {
	key := f.ObjectKey(conversationID, interactionID)
	f.saved = append(f.saved, key)
	return "https://audio.test/" + key, nil
}

type turnFixture struct {
	store   *infra.MemoryStore
	convs   *ConversationService
	stt     *fakeSTT
	gen     *fakeGen
	tts     *fakeTTS
	lease   *lease.MemoryLease
	archive *fakeArchive
	svc     *TurnService
}

func newTurnFixture(cfg TurnConfig) *turnFixture {
	return newTurnFixtureWithHistory(cfg, func(s ports.InteractionStore) ports.InteractionStore { return s })
}

// newTurnFixtureWithHistory позволяет подменить хранилище, из которого читается история
func newTurnFixtureWithHistory(cfg TurnConfig, wrap func(ports.InteractionStore) ports.InteractionStore) *turnFixture {
	store := infra.NewMemoryStore()
	f := &turnFixture{
		store:   store,
		convs:   NewConversationService(store.Conversations(), store.Interactions()),
		stt:     &fakeSTT{text: "hola"},
		gen:     &fakeGen{reply: "¡Hola! ¿Cómo estás?"},
		tts:     &fakeTTS{audio: []byte("ID3-mp3-bytes")},
		lease:   lease.NewMemoryLease(),
		archive: &fakeArchive{},
	}
	f.svc = NewTurnService(
		f.convs,
		store.Interactions(),
		NewInteractionService(store.Interactions()),
		NewHistoryService(wrap(store.Interactions()), HistoryOptions{}, nil),
		f.stt, f.gen, f.tts,
		f.lease,
		f.archive,
		nil,
		logger.NewZapLogger(zap.NewNop().Sugar()),
		cfg,
	)
	return f
}

func (f *turnFixture) conversation(t *testing.T, lang string) *ports.Conversation {
	t.Helper()
	c, err := f.convs.Create(context.Background(), "u1", lang, "")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	return c
}

func (f *turnFixture) interactions(t *testing.T, convID string) []ports.Interaction {
	t.Helper()
	list, err := f.store.Interactions().ListByConversation(context.Background(), convID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return list
}

func TestTurn_SubmitThenReply(t *testing.T) {
	f := newTurnFixture(TurnConfig{})
	conv := f.conversation(t, "es")
	ctx := context.Background()

	u, err := f.svc.SubmitUtterance(ctx, UtteranceInput{ConversationID: conv.ID, Audio: []byte{1, 2, 3}, Language: "es"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if u.Transcript != "hola" || u.InteractionID == "" {
		t.Fatalf("unexpected utterance result %+v", u)
	}

	r, err := f.svc.GenerateReply(ctx, ReplyInput{ConversationID: conv.ID, Text: "hola", Language: "es"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if r.ReplyText == "" || len(r.Audio) == 0 || r.InteractionID == "" || r.InteractionID == u.InteractionID {
		t.Fatalf("unexpected reply result %+v", r)
	}

	// текущая фраза не дублируется в истории
	if h := f.gen.last().history; len(h) != 0 {
		t.Fatalf("expected empty history, got %+v", h)
	}

	list := f.interactions(t, conv.ID)
	if len(list) != 2 || list[0].Sender != ports.SenderUser || list[1].Sender != ports.SenderAI {
		t.Fatalf("unexpected interactions %+v", list)
	}
	if list[1].Message != r.ReplyText {
		t.Fatalf("stored reply %q != returned %q", list[1].Message, r.ReplyText)
	}

	if r.AudioURL == "" || len(f.archive.saved) != 1 {
		t.Fatalf("reply audio not archived: %+v", r)
	}
}

func TestTurn_ReplyToExcludesUtterance(t *testing.T) {
	f := newTurnFixture(TurnConfig{})
	conv := f.conversation(t, "es")
	ctx := context.Background()

	first, _ := f.svc.SubmitUtterance(ctx, UtteranceInput{ConversationID: conv.ID, Audio: []byte{1}, Language: "es"})
	if _, err := f.svc.GenerateReply(ctx, ReplyInput{ConversationID: conv.ID, Text: "hola", Language: "es", ReplyTo: first.InteractionID}); err != nil {
		t.Fatalf("reply: %v", err)
	}

	f.stt.text = "me llamo Ana"
	second, _ := f.svc.SubmitUtterance(ctx, UtteranceInput{ConversationID: conv.ID, Audio: []byte{1}, Language: "es"})
	if _, err := f.svc.GenerateReply(ctx, ReplyInput{ConversationID: conv.ID, Text: "me llamo Ana", Language: "es", ReplyTo: second.InteractionID}); err != nil {
		t.Fatalf("reply: %v", err)
	}

	h := f.gen.last().history
	if len(h) != 2 || h[0].Content != "hola" || h[1].Role != ports.RoleAssistant {
		t.Fatalf("unexpected history %+v", h)
	}
}

func TestTurn_ReplyToMustBeUserTurnOfConversation(t *testing.T) {
	f := newTurnFixture(TurnConfig{})
	conv := f.conversation(t, "es")
	other := f.conversation(t, "es")
	ctx := context.Background()

	u, _ := f.svc.SubmitUtterance(ctx, UtteranceInput{ConversationID: other.ID, Audio: []byte{1}, Language: "es"})

	_, err := f.svc.GenerateReply(ctx, ReplyInput{ConversationID: conv.ID, Text: "hola", Language: "es", ReplyTo: u.InteractionID})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = f.svc.GenerateReply(ctx, ReplyInput{ConversationID: conv.ID, Text: "hola", Language: "es", ReplyTo: "missing"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.gen.calls) != 0 {
		t.Fatalf("generator must not run")
	}
}

func TestTurn_EmptyTranscriptCreatesNothing(t *testing.T) {
	f := newTurnFixture(TurnConfig{})
	conv := f.conversation(t, "es")
	f.stt.text = "   "

	_, err := f.svc.SubmitUtterance(context.Background(), UtteranceInput{ConversationID: conv.ID, Audio: []byte{1}, Language: "es"})
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected empty transcript, got %v", err)
	}
	if n := len(f.interactions(t, conv.ID)); n != 0 {
		t.Fatalf("expected no interactions, got %d", n)
	}
}

func TestTurn_VoiceProfileForFrench(t *testing.T) {
	f := newTurnFixture(TurnConfig{})
	conv := f.conversation(t, "fr")

	if _, err := f.svc.GenerateReply(context.Background(), ReplyInput{ConversationID: conv.ID, Text: "bonjour", Language: "fr"}); err != nil {
		t.Fatalf("reply: %v", err)
	}

	want, _ := ResolveVoice(French)
	call := f.gen.last()
	if call.gender != want.Gender || call.name != want.DisplayName || call.lang != "fr" {
		t.Fatalf("generator got %+v, want %+v", call, want)
	}
	if len(f.tts.voices) != 1 || f.tts.voices[0] != want.VoiceID {
		t.Fatalf("synthesizer got voices %v", f.tts.voices)
	}
}

func TestTurn_ConversationLanguageWins(t *testing.T) {
	f := newTurnFixture(TurnConfig{})
	conv := f.conversation(t, "de")

	if _, err := f.svc.GenerateReply(context.Background(), ReplyInput{ConversationID: conv.ID, Text: "hallo", Language: "en"}); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if f.gen.last().lang != "de" {
		t.Fatalf("expected conversation language, got %q", f.gen.last().lang)
	}
}

func TestTurn_Validation(t *testing.T) {
	f := newTurnFixture(TurnConfig{})
	conv := f.conversation(t, "es")
	ctx := context.Background()

	if _, err := f.svc.SubmitUtterance(ctx, UtteranceInput{ConversationID: conv.ID, Language: "es"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing audio: %v", err)
	}
	if _, err := f.svc.SubmitUtterance(ctx, UtteranceInput{ConversationID: conv.ID, Audio: []byte{1}, Language: "xx"}); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("bad language: %v", err)
	}
	if _, err := f.svc.SubmitUtterance(ctx, UtteranceInput{ConversationID: "missing", Audio: []byte{1}, Language: "es"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown conversation: %v", err)
	}
	if _, err := f.svc.GenerateReply(ctx, ReplyInput{ConversationID: conv.ID, Text: " ", Language: "es"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank text: %v", err)
	}
	if _, err := f.svc.GenerateReply(ctx, ReplyInput{ConversationID: conv.ID, Text: "hola", Language: "es", OwnerID: "u2"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign owner: %v", err)
	}
}

func TestTurn_StageFailuresPersistNothing(t *testing.T) {
	boom := errors.New("upstream 500")

	cases := []struct {
		name  string
		setup func(f *turnFixture)
		stage Stage
	}{
		{"transcribe", func(f *turnFixture) { f.stt.err = boom }, StageTranscribe},
		{"generate", func(f *turnFixture) { f.gen.err = boom }, StageGenerate},
		{"empty reply", func(f *turnFixture) { f.gen.reply = " " }, StageGenerate},
		{"synthesize", func(f *turnFixture) { f.tts.err = boom }, StageSynthesize},
		{"empty audio", func(f *turnFixture) { f.tts.audio = nil }, StageSynthesize},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newTurnFixture(TurnConfig{})
			conv := f.conversation(t, "es")
			tc.setup(f)

			var err error
			if tc.stage == StageTranscribe {
				_, err = f.svc.SubmitUtterance(context.Background(), UtteranceInput{ConversationID: conv.ID, Audio: []byte{1}, Language: "es"})
			} else {
				_, err = f.svc.GenerateReply(context.Background(), ReplyInput{ConversationID: conv.ID, Text: "hola", Language: "es"})
			}

			if !errors.Is(err, ErrService) {
				t.Fatalf("expected service error, got %v", err)
			}
			var se *StageError
			if !errors.As(err, &se) || se.Stage != tc.stage {
				t.Fatalf("expected stage %s, got %v", tc.stage, err)
			}
			if n := len(f.interactions(t, conv.ID)); n != 0 {
				t.Fatalf("expected nothing persisted, got %d", n)
			}

			// беседа не осталась занятой
			if tok, err := f.lease.Acquire(context.Background(), leaseKeyPrefix+conv.ID, time.Minute); err != nil {
				t.Fatalf("lease still held: %v", err)
			} else {
				_ = f.lease.Release(context.Background(), leaseKeyPrefix+conv.ID, tok)
			}
		})
	}
}

func TestTurn_CancelledMidPipeline(t *testing.T) {
	f := newTurnFixture(TurnConfig{})
	conv := f.conversation(t, "es")

	ctx, cancel := context.WithCancel(context.Background())
	f.gen.during = cancel

	_, err := f.svc.GenerateReply(ctx, ReplyInput{ConversationID: conv.ID, Text: "hola", Language: "es"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(f.tts.voices) != 0 {
		t.Fatalf("synthesis must not run after cancellation")
	}
	if n := len(f.interactions(t, conv.ID)); n != 0 {
		t.Fatalf("expected nothing persisted, got %d", n)
	}
	if _, err := f.lease.Acquire(context.Background(), leaseKeyPrefix+conv.ID, time.Minute); err != nil {
		t.Fatalf("lease not released after cancellation: %v", err)
	}
}

// slowHistoryStore задерживает чтение истории, расширяя окно гонки
type slowHistoryStore struct {
	ports.InteractionStore
	delay time.Duration
}

func (s slowHistoryStore) ListByConversation(ctx context.Context, conversationID string) ([]ports.Interaction, error) {
	list, err := s.InteractionStore.ListByConversation(ctx, conversationID)
	time.Sleep(s.delay)
	return list, err
}

func TestTurn_LeaseSerializesReplies(t *testing.T) {
	f := newTurnFixtureWithHistory(
		TurnConfig{LeaseWait: 5 * time.Second, LeasePoll: 5 * time.Millisecond},
		func(s ports.InteractionStore) ports.InteractionStore {
			return slowHistoryStore{InteractionStore: s, delay: 30 * time.Millisecond}
		},
	)
	conv := f.conversation(t, "es")

	const n = 5
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.GenerateReply(context.Background(), ReplyInput{ConversationID: conv.ID, Text: fmt.Sprintf("frase %d", i), Language: "es"})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("reply: %v", err)
		}
	}
	if m := atomic.LoadInt32(&f.gen.maxActive); m != 1 {
		t.Fatalf("expected at most one reply in flight, saw %d", m)
	}

	// каждый ответ видит историю с ответами всех предыдущих
	f.gen.mu.Lock()
	calls := append([]genCall(nil), f.gen.calls...)
	f.gen.mu.Unlock()
	if len(calls) != n {
		t.Fatalf("expected %d generation calls, got %d", n, len(calls))
	}
	seen := make(map[int]bool, n)
	for _, c := range calls {
		if seen[len(c.history)] {
			t.Fatalf("two replies were generated from the same history (len %d)", len(c.history))
		}
		seen[len(c.history)] = true
	}
	for k := 0; k < n; k++ {
		if !seen[k] {
			t.Fatalf("expected histories of length 0..%d, got %v", n-1, seen)
		}
	}

	if got := len(f.interactions(t, conv.ID)); got != n {
		t.Fatalf("expected %d ai interactions, got %d", n, got)
	}
}

func TestTurn_LeaseHeldFailsFast(t *testing.T) {
	f := newTurnFixture(TurnConfig{})
	conv := f.conversation(t, "es")
	ctx := context.Background()

	tok, err := f.lease.Acquire(ctx, leaseKeyPrefix+conv.ID, time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	_, err = f.svc.GenerateReply(ctx, ReplyInput{ConversationID: conv.ID, Text: "hola", Language: "es"})
	if !errors.Is(err, ErrTurnInProgress) {
		t.Fatalf("expected turn in progress, got %v", err)
	}

	_ = f.lease.Release(ctx, leaseKeyPrefix+conv.ID, tok)
	if _, err := f.svc.GenerateReply(ctx, ReplyInput{ConversationID: conv.ID, Text: "hola", Language: "es"}); err != nil {
		t.Fatalf("reply after release: %v", err)
	}
}

func TestTurn_OtherConversationsNotBlocked(t *testing.T) {
	f := newTurnFixture(TurnConfig{})
	a := f.conversation(t, "es")
	b := f.conversation(t, "es")
	ctx := context.Background()

	if _, err := f.lease.Acquire(ctx, leaseKeyPrefix+a.ID, time.Minute); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := f.svc.GenerateReply(ctx, ReplyInput{ConversationID: b.ID, Text: "hola", Language: "es"}); err != nil {
		t.Fatalf("reply in other conversation: %v", err)
	}
}

func TestTurnConfig_CheckRequestTimeout(t *testing.T) {
	cases := []struct {
		name    string
		cfg     TurnConfig
		timeout time.Duration
		wantErr bool
	}{
		{"defaults", TurnConfig{}, 90 * time.Second, false},
		{"ttl longer", TurnConfig{LeaseTTL: 3 * time.Minute}, 2 * time.Minute, false},
		{"ttl equal", TurnConfig{LeaseTTL: time.Minute}, time.Minute, true},
		{"ttl shorter", TurnConfig{LeaseTTL: 30 * time.Second}, 90 * time.Second, true},
		{"default ttl vs long timeout", TurnConfig{}, 5 * time.Minute, true},
		{"no timeout", TurnConfig{LeaseTTL: time.Second}, 0, false},
	}
	for _, tc := range cases {
		err := tc.cfg.CheckRequestTimeout(tc.timeout)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: err=%v, wantErr=%v", tc.name, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}
