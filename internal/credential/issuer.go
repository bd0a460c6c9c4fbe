// Package credential generates account passwords, applies them through the
// identity store and records them in the credential file.
package credential

import (
	"fmt"
	"io"
	"time"

	"github.com/hnrobert/lumprov/internal/logger"
)

// PasswordSetter is the part of identity.Store the issuer needs.
type PasswordSetter interface {
	SetPassword(name, password string) error
}

// Verifier checks that a freshly set password is accepted by the system.
type Verifier interface {
	Verify(username, password string) error
}

// Sink persists issued credentials.
type Sink interface {
	Append(c Credential) error
}

type Issuer struct {
	Setter   PasswordSetter
	Sink     Sink
	Log      *logger.Logger
	Length   int
	Verifier Verifier
	Rand     io.Reader
	Now      func() time.Time
}

// Issue generates a password for username, applies it and appends it to the
// credential sink. Nothing is appended unless the password was applied (and
// verified, when a Verifier is set). Failures are logged once at ERROR.
func (i *Issuer) Issue(username string) (Credential, error) {
	length := i.Length
	if length == 0 {
		length = DefaultLength
	}
	pw, err := GeneratePassword(i.Rand, length)
	if err != nil {
		i.Log.Error("user %s: password generation failed: %v", username, err)
		return Credential{}, fmt.Errorf("generate password: %w", err)
	}
	if err := i.Setter.SetPassword(username, pw); err != nil {
		i.Log.Error("user %s: set password failed: %v", username, err)
		return Credential{}, fmt.Errorf("set password: %w", err)
	}
	if i.Verifier != nil {
		if err := i.Verifier.Verify(username, pw); err != nil {
			i.Log.Error("user %s: password verification failed: %v", username, err)
			return Credential{}, fmt.Errorf("verify password: %w", err)
		}
	}

	now := time.Now
	if i.Now != nil {
		now = i.Now
	}
	c := Credential{Username: username, Password: pw, IssuedAt: now()}
	if err := i.Sink.Append(c); err != nil {
		i.Log.Error("user %s: password set but not recorded: %v", username, err)
		return Credential{}, fmt.Errorf("record credential: %w", err)
	}
	i.Log.Info("user %s: password issued", username)
	return c, nil
}
