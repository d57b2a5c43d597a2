package domain

import "unicode/utf8"

// MaxContentLength bounds post and comment content.
const MaxContentLength = 280

// ValidateContent checks publication content length bounds.
func ValidateContent(content string) error {
	if utf8.RuneCountInString(content) > MaxContentLength {
		return invalidLength("content", MaxContentLength)
	}
	return nil
}
