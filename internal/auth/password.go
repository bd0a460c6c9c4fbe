package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"

	"github.com/hnrobert/lumprov/internal/usermgr"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserLocked         = errors.New("user is locked")
	ErrUnsupportedHash    = errors.New("unsupported password hash")
)

// Verifier checks passwords against a shadow file.
type Verifier struct {
	ShadowPath string
	// UseSu enables the su(1) fallback for hash schemes crypt cannot check.
	// Only meaningful when ShadowPath is the live host's /etc/shadow.
	UseSu bool
}

func (v *Verifier) Verify(username, password string) error {
	sh, err := usermgr.LoadShadow(v.ShadowPath)
	if err != nil {
		return err
	}
	se := sh.Find(username)
	if se == nil {
		return ErrInvalidCredentials
	}
	if se.Hash == "" || strings.HasPrefix(se.Hash, "!") || strings.HasPrefix(se.Hash, "*") {
		return ErrUserLocked
	}
	ok, err := verifyCrypt(se.Hash, password)
	if errors.Is(err, ErrUnsupportedHash) {
		if !v.UseSu {
			return fmt.Errorf("%w: %.3s", ErrUnsupportedHash, se.Hash)
		}
		ok, err = verifyWithSu(username, password)
	}
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}

func verifyCrypt(hash, password string) (bool, error) {
	crypters := []crypt.Crypter{
		sha512_crypt.New(),
		sha256_crypt.New(),
		md5_crypt.New(),
	}
	for _, c := range crypters {
		if err := c.Verify(hash, []byte(password)); err == nil {
			return true, nil
		}
	}
	// Ubuntu commonly uses yescrypt ($y$).
	if strings.HasPrefix(hash, "$y$") || strings.HasPrefix(hash, "$7$") || strings.HasPrefix(hash, "$2") {
		return false, ErrUnsupportedHash
	}
	return false, nil
}
