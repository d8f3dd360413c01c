package domain

import "fmt"

type VoiceProfile struct {
	VoiceID     string `json:"voiceId"`
	Gender      string `json:"gender"`
	DisplayName string `json:"displayName"`
}

// ResolveVoice — полная функция над поддерживаемыми языками.
// Голоса по умолчанию нет: неизвестный язык → ErrUnsupportedLanguage.
func ResolveVoice(lang Language) (VoiceProfile, error) {
	switch lang {
	case English:
		return VoiceProfile{VoiceID: "21m00Tcm4TlvDq8ikWAM", Gender: "female", DisplayName: "Rachel"}, nil
	case Spanish:
		return VoiceProfile{VoiceID: "ErXwobaYiN019PkySvjV", Gender: "male", DisplayName: "Antoni"}, nil
	case French:
		return VoiceProfile{VoiceID: "MF3mGyEYCl7XYWbV9V6O", Gender: "female", DisplayName: "Elli"}, nil
	case German:
		return VoiceProfile{VoiceID: "TxGEqnHWrfWFTfGW9XjX", Gender: "male", DisplayName: "Josh"}, nil
	case Italian:
		return VoiceProfile{VoiceID: "AZnzlk1XvdvUeBnXmlld", Gender: "female", DisplayName: "Domi"}, nil
	case Portuguese:
		return VoiceProfile{VoiceID: "pNInz6obpgDQGcFmaJgB", Gender: "male", DisplayName: "Adam"}, nil
	case Japanese:
		return VoiceProfile{VoiceID: "EXAVITQu4vr4xnSDxMaL", Gender: "female", DisplayName: "Bella"}, nil
	case Chinese:
		return VoiceProfile{VoiceID: "yoZ06aMxZJJ28mfd3POQ", Gender: "male", DisplayName: "Sam"}, nil
	}
	return VoiceProfile{}, fmt.Errorf("%w: no voice for %q", ErrUnsupportedLanguage, string(lang))
}

// ResolveVoiceCode — то же по сырому коду из запроса
func ResolveVoiceCode(code string) (VoiceProfile, error) {
	lang, err := ParseLanguage(code)
	if err != nil {
		return VoiceProfile{}, err
	}
	return ResolveVoice(lang)
}
