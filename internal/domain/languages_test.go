package domain

import (
	"errors"
	"testing"
)

func TestParseLanguage(t *testing.T) {
	cases := map[string]Language{
		"es":      Spanish,
		"ES":      Spanish,
		"es-MX":   Spanish,
		"Spanish": Spanish,
		"french":  French,
		"zh-Hans": Chinese,
		"ja":      Japanese,
		" pt-BR ": Portuguese,
	}
	for in, want := range cases {
		got, err := ParseLanguage(in)
		if err != nil {
			t.Fatalf("ParseLanguage(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLanguage(%q) = %s, want %s", in, got, want)
		}
	}

	for _, in := range []string{"", "xx", "ko", "Klingon"} {
		if _, err := ParseLanguage(in); !errors.Is(err, ErrUnsupportedLanguage) {
			t.Fatalf("ParseLanguage(%q): expected unsupported, got %v", in, err)
		}
	}
}

func TestResolveVoice_AllSupported(t *testing.T) {
	for _, li := range SupportedLanguages() {
		p, err := ResolveVoice(li.Code)
		if err != nil {
			t.Fatalf("%s: %v", li.Code, err)
		}
		if p.VoiceID == "" || p.DisplayName == "" || (p.Gender != "male" && p.Gender != "female") {
			t.Fatalf("%s: incomplete profile %+v", li.Code, p)
		}
	}
}

func TestResolveVoice_French(t *testing.T) {
	p, err := ResolveVoiceCode("fr")
	if err != nil {
		t.Fatalf("resolve fr: %v", err)
	}
	if p.Gender != "female" || p.DisplayName != "Elli" || p.VoiceID != "MF3mGyEYCl7XYWbV9V6O" {
		t.Fatalf("unexpected french profile %+v", p)
	}
}

func TestResolveVoice_Unknown(t *testing.T) {
	if _, err := ResolveVoiceCode("xx"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected unsupported language, got %v", err)
	}
	if _, err := ResolveVoice(Language("ko")); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected unsupported language, got %v", err)
	}
}
