package utils

import "regexp"

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

// ValidateUsername checks the 3-30 chars letters/numbers/underscore/hyphen rule
func ValidateUsername(username string) bool {
	return usernameRe.MatchString(username)
}
