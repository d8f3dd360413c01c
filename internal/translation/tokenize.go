package translation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

// письменности без пробелов между словами
var unspacedScripts = []*unicode.RangeTable{
	unicode.Han,
	unicode.Hiragana,
	unicode.Katakana,
	unicode.Thai,
	unicode.Lao,
	unicode.Khmer,
	unicode.Myanmar,
}

// UsesWhitespace — false, если в тексте есть хоть один символ CJK/тайского и т.п.
func UsesWhitespace(text string) bool {
	for _, r := range text {
		if unicode.In(r, unspacedScripts...) {
			return false
		}
	}
	return true
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func punctOnly(s string) bool {
	for _, r := range s {
		if !isPunct(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// splitSpaced режет текст на пробельные участки, пунктуацию и слова.
// Склейка всех Text возвращает исходную строку.
func splitSpaced(text string) []Segment {
	var out []Segment

	i := 0
	for i < len(text) {
		r, _ := utf8.DecodeRuneInString(text[i:])
		space := unicode.IsSpace(r)

		j := i
		for j < len(text) {
			r2, n := utf8.DecodeRuneInString(text[j:])
			if unicode.IsSpace(r2) != space {
				break
			}
			j += n
		}

		run := text[i:j]
		if space {
			out = append(out, literal(run))
		} else {
			out = append(out, splitWord(run)...)
		}
		i = j
	}
	return out
}

// splitWord отделяет ведущую и хвостовую пунктуацию: "¡Hola!" → "¡" "Hola" "!"
func splitWord(run string) []Segment {
	if punctOnly(run) {
		return []Segment{literal(run)}
	}

	start := 0
	for start < len(run) {
		r, n := utf8.DecodeRuneInString(run[start:])
		if !isPunct(r) {
			break
		}
		start += n
	}

	end := len(run)
	for end > start {
		r, n := utf8.DecodeLastRuneInString(run[:end])
		if !isPunct(r) {
			break
		}
		end -= n
	}

	var out []Segment
	if start > 0 {
		out = append(out, literal(run[:start]))
	}
	out = append(out, Segment{Text: run[start:end], Hoverable: true})
	if end < len(run) {
		out = append(out, literal(run[end:]))
	}
	return out
}

func literal(s string) Segment {
	return Segment{Text: s, Hoverable: false}
}

// foldKey — ключ сравнения слов без учёта регистра и формы нормализации
func foldKey(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool { return isPunct(r) || unicode.IsSpace(r) })
	return cases.Fold().String(norm.NFC.String(s))
}

// attachTranslations проставляет переводы словам по ответу переводчика
func attachTranslations(segs []Segment, returned []ports.TranslatedSegment) {
	lookup := make(map[string]ports.TranslatedSegment, len(returned))
	for _, r := range returned {
		k := foldKey(r.Text)
		if k == "" {
			continue
		}
		if _, ok := lookup[k]; !ok {
			lookup[k] = r
		}
	}

	for i := range segs {
		if !segs[i].Hoverable {
			continue
		}
		if r, ok := lookup[foldKey(segs[i].Text)]; ok {
			segs[i].Translation = r.Translation
			segs[i].PartOfSpeech = r.PartOfSpeech
		}
	}
}

// alignUnspaced ищет каждый сегмент переводчика в исходном тексте
// прямым поиском от конца предыдущего совпадения. Промежутки идут
// непереводимыми литералами. Ненайденный сегмент в текст не вставляется,
// иначе склейка перестала бы совпадать с исходником; возвращается их число.
func alignUnspaced(text string, returned []ports.TranslatedSegment) ([]Segment, int) {
	var (
		out       []Segment
		cursor    int
		unmatched int
	)

	for _, r := range returned {
		needle := strings.TrimSpace(r.Text)
		if needle == "" {
			continue
		}

		idx := strings.Index(text[cursor:], needle)
		if idx < 0 {
			unmatched++
			continue
		}

		start := cursor + idx
		if start > cursor {
			out = append(out, literal(text[cursor:start]))
		}
		out = append(out, Segment{
			Text:         needle,
			Translation:  r.Translation,
			Hoverable:    !punctOnly(needle),
			PartOfSpeech: r.PartOfSpeech,
		})
		cursor = start + len(needle)
	}

	if cursor < len(text) {
		out = append(out, literal(text[cursor:]))
	}
	return out, unmatched
}
