package translation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode"

	"github.com/Vovarama1992/lingobuddy/internal/domain"
	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

type Segment struct {
	Text         string `json:"text"`
	Translation  string `json:"translation"`
	Hoverable    bool   `json:"hoverable"`
	PartOfSpeech string `json:"partOfSpeech,omitempty"`
}

type Result struct {
	Segments        []Segment `json:"segments"`
	FullTranslation string    `json:"textTranslation"`
}

type WordResult struct {
	OriginalWord   string  `json:"originalWord"`
	TranslatedWord string  `json:"translatedWord"`
	PartOfSpeech   string  `json:"partOfSpeech"`
	Confidence     float64 `json:"confidence"`
}

type Translator interface {
	ports.SegmentTranslator
	ports.WordTranslator
}

type Service struct {
	translator Translator
}

func NewService(t Translator) *Service {
	return &Service{translator: t}
}

func (s *Service) Segment(ctx context.Context, text, sourceLang, targetLang string) (*Result, error) {
	if text == "" || sourceLang == "" || targetLang == "" {
		return nil, fmt.Errorf("%w: text, sourceLanguage, and targetLanguage are required", domain.ErrValidation)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", domain.ErrValidation)
	}

	tr, err := s.translator.TranslateSegments(ctx, text, sourceLang, targetLang)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageTranslate, Err: err}
	}

	res := &Result{FullTranslation: tr.TextTranslation}

	if UsesWhitespace(text) {
		res.Segments = splitSpaced(text)
		attachTranslations(res.Segments, tr.Segments)
		return res, nil
	}

	segs, unmatched := alignUnspaced(text, tr.Segments)
	if unmatched > 0 {
		log.Printf("[translate] %d of %d segments not found in source text", unmatched, len(tr.Segments))
	}
	res.Segments = segs
	return res, nil
}

func (s *Service) TranslateWord(ctx context.Context, word, sourceLang, targetLang string) (*WordResult, error) {
	if word == "" || sourceLang == "" || targetLang == "" {
		return nil, fmt.Errorf("%w: word, sourceLanguage, and targetLanguage are required", domain.ErrValidation)
	}

	clean := CleanWord(word)
	if clean == "" {
		return nil, fmt.Errorf("%w: invalid word provided", domain.ErrValidation)
	}

	tr, err := s.translator.TranslateWord(ctx, clean, sourceLang, targetLang)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageTranslate, Err: err}
	}

	return &WordResult{
		OriginalWord:   word,
		TranslatedWord: tr.TranslatedWord,
		PartOfSpeech:   tr.PartOfSpeech,
		Confidence:     tr.Confidence,
	}, nil
}

// CleanWord: нижний регистр, без пунктуации; буквы любых алфавитов сохраняются
func CleanWord(word string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(word)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
