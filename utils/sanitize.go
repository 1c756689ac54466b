package utils

import "github.com/microcosm-cc/bluemonday"

// Check-in answers are plain free text, never markup, so the strict policy
// strips all tags rather than allowing UGC HTML through.
var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips HTML from free-text input before it reaches storage or a
// prompt.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
