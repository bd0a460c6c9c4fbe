package usermgr

import (
	"errors"
	"fmt"
	"unicode"
)

var ErrInvalidName = errors.New("invalid account name")

// checkName rejects names that cannot be stored as one field of a
// colon-separated row, or that would read back as a NIS compat entry.
func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if name[0] == '+' || name[0] == '-' {
		return fmt.Errorf("%w: %q starts with %q", ErrInvalidName, name, name[:1])
	}
	for _, r := range name {
		if r == ':' || r == ',' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, r)
		}
	}
	return nil
}
