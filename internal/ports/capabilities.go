package ports

import "context"

// голос → текст
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

type Generator interface {
	Reply(ctx context.Context, userText, language string, history []ChatMessage, voiceGender, voiceName string) (string, error)
}

// текст → голос (mp3)
type Synthesizer interface {
	Speak(ctx context.Context, text, voiceID string) ([]byte, error)
}

type TranslatedSegment struct {
	Text         string `json:"text"`
	Translation  string `json:"translation"`
	PartOfSpeech string `json:"partOfSpeech,omitempty"`
}

type TranslatedText struct {
	Segments        []TranslatedSegment `json:"segments"`
	TextTranslation string              `json:"textTranslation"`
}

type SegmentTranslator interface {
	TranslateSegments(ctx context.Context, text, sourceLang, targetLang string) (*TranslatedText, error)
}

type WordTranslation struct {
	TranslatedWord string  `json:"translatedWord"`
	PartOfSpeech   string  `json:"partOfSpeech"`
	Confidence     float64 `json:"confidence"`
}

type WordTranslator interface {
	TranslateWord(ctx context.Context, word, sourceLang, targetLang string) (*WordTranslation, error)
}
