package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"os/user"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
)

var ErrAuthBackend = errors.New("auth backend error")

// SuTimeout bounds one su(1) verification.
var SuTimeout = 6 * time.Second

// verifyWithSu runs `su -c true <user>` as the user itself. Root never gets a
// password prompt from su, so the child drops to the target uid first and
// the password is typed into the PTY once su asks for it.
func verifyWithSu(username, password string) (bool, error) {
	if strings.TrimSpace(username) == "" {
		return false, ErrInvalidCredentials
	}
	u, err := user.Lookup(username)
	if err != nil {
		return false, fmt.Errorf("%w: lookup %s: %v", ErrAuthBackend, username, err)
	}
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return false, fmt.Errorf("%w: uid %q: %v", ErrAuthBackend, u.Uid, err)
	}
	gid, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return false, fmt.Errorf("%w: gid %q: %v", ErrAuthBackend, u.Gid, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), SuTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "su", "-s", "/bin/sh", "-c", "true", username)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{Uid: uint32(uid), Gid: uint32(gid)},
	}
	cmd.Dir = "/"
	f, err := pty.Start(cmd)
	if err != nil {
		return false, fmt.Errorf("%w: start su: %v", ErrAuthBackend, err)
	}
	defer func() { _ = f.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		answerPrompt(f, password)
	}()

	err = cmd.Wait()
	_ = f.Close()
	<-done

	if ctx.Err() != nil {
		return false, fmt.Errorf("%w: su timed out", ErrAuthBackend)
	}
	return err == nil, nil
}

// answerPrompt reads su output until it asks for a password, writes the
// password once and drains the rest.
func answerPrompt(rw io.ReadWriter, password string) {
	var seen bytes.Buffer
	buf := make([]byte, 1024)
	answered := false
	for {
		n, err := rw.Read(buf)
		if n > 0 && !answered {
			seen.Write(buf[:n])
			if strings.Contains(strings.ToLower(seen.String()), "password") {
				answered = true
				_, _ = io.WriteString(rw, password+"\n")
			}
		}
		if err != nil {
			return
		}
	}
}
