// Package mode classifies a search term into the strategy set it activates.
package mode

import "regexp"

// Mode selects which query strategies run for a search session.
// Classification happens once per search() and is held for the whole
// session; loadMore never re-classifies.
type Mode string

const (
	// Numeric activates the phone-prefix strategy only.
	Numeric Mode = "numeric"
	// Text activates identifier-prefix, name-prefix and contains-fallback.
	Text Mode = "text"
)

var allDigits = regexp.MustCompile(`^[0-9]+$`)

// Classify returns Numeric for all-digit terms, Text otherwise.
// The term must already be trimmed.
func Classify(term string) Mode {
	if allDigits.MatchString(term) {
		return Numeric
	}
	return Text
}

// String returns the mode name for logs and metrics labels.
func (m Mode) String() string { return string(m) }
