package sitemap

import "strings"

// ChangeFrequency is how frequently the page at a location is likely to change.
type ChangeFrequency string

const (
	Always  ChangeFrequency = "always"
	Hourly  ChangeFrequency = "hourly"
	Daily   ChangeFrequency = "daily"
	Weekly  ChangeFrequency = "weekly"
	Monthly ChangeFrequency = "monthly"
	Yearly  ChangeFrequency = "yearly"
	Never   ChangeFrequency = "never"
)

// Frequencies returns every valid change frequency, most frequent first.
func Frequencies() []ChangeFrequency {
	return []ChangeFrequency{Always, Hourly, Daily, Weekly, Monthly, Yearly, Never}
}

// ParseChangeFrequency normalizes value (trimmed, lower-cased) and reports whether
// it names a valid frequency.
func ParseChangeFrequency(value string) (ChangeFrequency, bool) {
	f := ChangeFrequency(strings.ToLower(strings.TrimSpace(value)))
	return f, f.IsValid()
}

// IsValid reports whether f is one of the sitemap protocol frequencies.
func (f ChangeFrequency) IsValid() bool {
	for _, known := range Frequencies() {
		if f == known {
			return true
		}
	}
	return false
}

func (f ChangeFrequency) String() string {
	return string(f)
}
