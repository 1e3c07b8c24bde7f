package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func removeSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func removeControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeID trims an opaque identifier such as a patron, item, loan or hold id.
func SanitizeID(input string) string {
	return strings.TrimSpace(input)
}

// SanitizeBarcode drops every whitespace rune. Scanners often append a newline or tab.
func SanitizeBarcode(input string) string {
	return Pipeline{strings.TrimSpace, removeSpaces}.Apply(input)
}

// SanitizeNotes strips control characters and collapses whitespace.
func SanitizeNotes(input string) string {
	return Pipeline{removeControl, TrimAndNormalize}.Apply(input)
}
