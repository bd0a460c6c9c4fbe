package hostfs

import (
	"errors"
	"path/filepath"
	"strings"
)

// Well-known host file locations.
const (
	EtcPasswd = "/etc/passwd"
	EtcShadow = "/etc/shadow"
	EtcGroup  = "/etc/group"
)

var ErrInvalidPath = errors.New("invalid host path")

// Root is the directory the host filesystem is mounted at. "/" means the
// current filesystem is the host.
type Root string

// Abs maps an absolute host path (e.g. /home/alice) into the mounted tree
// (e.g. /host/home/alice).
func (r Root) Abs(abs string) (string, error) {
	if abs == "" || !strings.HasPrefix(abs, "/") {
		return "", ErrInvalidPath
	}
	clean := filepath.Clean(abs)
	base := string(r)
	if base == "" {
		base = "/"
	}
	return filepath.Join(base, strings.TrimPrefix(clean, "/")), nil
}
