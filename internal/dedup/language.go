package dedup

import "github.com/abadojack/whatlanggo"

// UnknownLanguage is returned when no language can be detected.
const UnknownLanguage = "unknown"

// WhatlangDetector detects languages with whatlanggo's trigram models.
type WhatlangDetector struct{}

// NewWhatlangDetector returns a detector backed by whatlanggo.
func NewWhatlangDetector() *WhatlangDetector {
	return &WhatlangDetector{}
}

// Detect returns an ISO 639-1 code, or UnknownLanguage.
func (WhatlangDetector) Detect(text string) string {
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		return UnknownLanguage
	}
	return code
}
