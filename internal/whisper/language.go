package whisper

import "strings"

// LanguageAuto is the reserved sentinel that requests automatic language
// detection from the audio itself.
const LanguageAuto = "auto"

// knownLanguages lists the ISO-639-1 codes whisper models were trained on.
// Codes outside this set degrade to auto-detection instead of erroring.
var knownLanguages = map[string]struct{}{
	"en": {}, "zh": {}, "de": {}, "es": {}, "ru": {}, "ko": {}, "fr": {},
	"ja": {}, "pt": {}, "tr": {}, "pl": {}, "ca": {}, "nl": {}, "ar": {},
	"sv": {}, "it": {}, "id": {}, "hi": {}, "fi": {}, "vi": {}, "he": {},
	"uk": {}, "el": {}, "ms": {}, "cs": {}, "ro": {}, "da": {}, "hu": {},
	"ta": {}, "no": {}, "th": {}, "ur": {}, "hr": {}, "bg": {}, "lt": {},
	"la": {}, "mi": {}, "ml": {}, "cy": {}, "sk": {}, "te": {}, "fa": {},
	"lv": {}, "bn": {}, "sr": {}, "az": {}, "sl": {}, "kn": {}, "et": {},
	"mk": {}, "br": {}, "eu": {}, "is": {}, "hy": {}, "ne": {}, "mn": {},
	"bs": {}, "kk": {}, "sq": {}, "sw": {}, "gl": {}, "mr": {}, "pa": {},
	"si": {}, "km": {}, "sn": {}, "yo": {}, "so": {}, "af": {}, "oc": {},
	"ka": {}, "be": {}, "tg": {}, "sd": {}, "gu": {}, "am": {}, "yi": {},
	"lo": {}, "uz": {}, "fo": {}, "ht": {}, "ps": {}, "tk": {}, "nn": {},
	"mt": {}, "sa": {}, "lb": {}, "my": {}, "bo": {}, "tl": {}, "mg": {},
	"as": {}, "tt": {}, "haw": {}, "ln": {}, "ha": {}, "ba": {}, "jw": {},
	"su": {},
}

// NormalizeLanguage maps a caller-supplied language code to what the engine
// accepts: "auto" (or empty, or whitespace) stays auto-detection, a known
// ISO-639-1 code passes through lowercased, and anything unrecognized falls
// back to auto-detection rather than failing the run.
func NormalizeLanguage(code string) string {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if trimmed == "" || trimmed == LanguageAuto {
		return LanguageAuto
	}
	if _, ok := knownLanguages[trimmed]; ok {
		return trimmed
	}
	return LanguageAuto
}

// KnownLanguage reports whether code is a language the models were trained on.
func KnownLanguage(code string) bool {
	_, ok := knownLanguages[strings.ToLower(strings.TrimSpace(code))]
	return ok
}
