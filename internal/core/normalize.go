package core

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeString returns the canonical comparison key for s: surrounding
// whitespace removed and lower-cased with Russian casing rules, so Cyrillic
// capitals fold the same way ASCII ones do. Inner whitespace is kept as is.
func NormalizeString(s string) string {
	return lower(strings.TrimSpace(s))
}

// Normalize returns the canonical key of a cell. Anything that is not a
// string (absent, blank, numeric, boolean) normalizes to "".
func Normalize(c Cell) string {
	if !c.IsText() {
		return ""
	}
	return NormalizeString(c.Value)
}

// lower folds s to lower case. A Caser keeps state between calls and must
// not be shared across goroutines, so one is created per call.
func lower(s string) string {
	if s == "" {
		return s
	}
	return cases.Lower(language.Russian).String(s)
}
