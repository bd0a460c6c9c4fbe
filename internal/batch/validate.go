package batch

import "regexp"

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidUsername reports whether u only uses letters, digits, '_', '.' and '-'.
func ValidUsername(u string) bool {
	return usernameRe.MatchString(u)
}
