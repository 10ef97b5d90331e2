package textutil

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DeriveTitle cleans a raw clip title into display form: punctuation runs
// collapse to single spaces and the result is title-cased. An empty input
// falls back to a timestamped default so every catalog entry stays
// identifiable.
func DeriveTitle(raw string, at time.Time) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range raw {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		if at.IsZero() {
			at = time.Now()
		}
		return "Clip " + at.UTC().Format("2006-01-02 15:04:05")
	}
	return cases.Title(language.Und).String(title)
}
