// Package usercmd is the command backend of the identity store. It drives
// the shadow-utils tools (getent, groupadd, useradd, usermod, chpasswd,
// chown) and never builds shell command lines.
package usercmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hnrobert/lumprov/internal/identity"
)

const DefaultTimeout = 30 * time.Second

// getent exits 2 when the key is not in the database.
const getentNotFound = 2

// Exec runs one command. stdin may be nil. It returns the process exit code
// alongside any error.
type Exec func(ctx context.Context, stdin []byte, name string, args ...string) (int, error)

type Runner struct {
	Timeout time.Duration
	Exec    Exec
}

func New() *Runner {
	return &Runner{Timeout: DefaultTimeout, Exec: execCommand}
}

func execCommand(ctx context.Context, stdin []byte, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	code := -1
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		code = ee.ExitCode()
	}
	s := strings.TrimSpace(stderr.String())
	if s == "" {
		return code, fmt.Errorf("%s: %w", name, err)
	}
	return code, fmt.Errorf("%s: %s", name, s)
}

func (r *Runner) run(stdin []byte, name string, args ...string) (int, error) {
	ctx := context.Background()
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	ex := r.Exec
	if ex == nil {
		ex = execCommand
	}
	return ex(ctx, stdin, name, args...)
}

func (r *Runner) lookup(db, key string) (bool, error) {
	code, err := r.run(nil, "getent", db, "--", key)
	if err == nil {
		return true, nil
	}
	if code == getentNotFound {
		return false, nil
	}
	return false, err
}

func (r *Runner) UserExists(name string) (bool, error) {
	return r.lookup("passwd", name)
}

func (r *Runner) GroupExists(name string) (bool, error) {
	return r.lookup("group", name)
}

func (r *Runner) CreateGroup(name string) error {
	_, err := r.run(nil, "groupadd", "--", name)
	return err
}

func (r *Runner) CreateUser(u identity.NewUser) error {
	args := []string{"--create-home"}
	if u.Home != "" {
		args = append(args, "--home-dir", u.Home)
	}
	if u.Shell != "" {
		args = append(args, "--shell", u.Shell)
	}
	if u.PrimaryGroup != "" {
		args = append(args, "--gid", u.PrimaryGroup)
	}
	if len(u.Groups) > 0 {
		args = append(args, "--groups", strings.Join(u.Groups, ","))
	}
	args = append(args, "--", u.Name)
	_, err := r.run(nil, "useradd", args...)
	return err
}

func (r *Runner) AddUserToGroups(name string, groups []string) error {
	if len(groups) == 0 {
		return nil
	}
	_, err := r.run(nil, "usermod", "--append", "--groups", strings.Join(groups, ","), "--", name)
	return err
}

func (r *Runner) SetPassword(username, password string) error {
	// chpasswd reads "user:pass" lines from stdin.
	line := fmt.Sprintf("%s:%s\n", username, password)
	_, err := r.run([]byte(line), "chpasswd")
	return err
}

func (r *Runner) EnsureHome(path string) error {
	return os.MkdirAll(path, 0700)
}

// SetOwnership uses chown(1) so names resolve through NSS.
func (r *Runner) SetOwnership(path, user, group string) error {
	_, err := r.run(nil, "chown", "--", user+":"+group, path)
	return err
}

func (r *Runner) SetPermissions(path string, mode os.FileMode) error {
	return os.Chmod(path, mode)
}

var _ identity.Store = (*Runner)(nil)
