// Package reconcile converges the identity store towards one input record:
// groups first, then the account, then its home directory.
package reconcile

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/hnrobert/lumprov/internal/batch"
	"github.com/hnrobert/lumprov/internal/identity"
	"github.com/hnrobert/lumprov/internal/logger"
)

const (
	DefaultHomeRoot = "/home"
	DefaultShell    = "/bin/bash"

	// HomeMode is applied to every provisioned home directory.
	HomeMode os.FileMode = 0700
)

type Reconciler struct {
	Store    identity.Store
	Log      *logger.Logger
	HomeRoot string
	Shell    string
}

// HomeDir is the home directory path for username.
func (r *Reconciler) HomeDir(username string) string {
	root := r.HomeRoot
	if root == "" {
		root = DefaultHomeRoot
	}
	return path.Join(root, username)
}

func (r *Reconciler) shell() string {
	if r.Shell == "" {
		return DefaultShell
	}
	return r.Shell
}

// Reconcile ensures the groups of req, creates or updates the account and
// normalizes its home directory. Every failure is logged once at ERROR by the
// step that hit it; the returned Outcome carries the same reason.
func (r *Reconciler) Reconcile(req batch.Request) Outcome {
	out := Outcome{Line: req.Line, Username: req.Username, Groups: req.Groups}

	for _, g := range distinct(append([]string{req.Username}, req.Groups...)) {
		if _, err := r.EnsureGroup(g); err != nil {
			return out.Fail(err.Error())
		}
	}

	exists, err := r.Store.UserExists(req.Username)
	if err != nil {
		r.Log.Error("user %s: lookup failed: %v", req.Username, err)
		return out.Fail(fmt.Sprintf("lookup user: %v", err))
	}

	home := r.HomeDir(req.Username)
	groups := distinct(req.Groups)
	if !exists {
		err := r.Store.CreateUser(identity.NewUser{
			Name:         req.Username,
			PrimaryGroup: req.Username,
			Groups:       groups,
			Home:         home,
			Shell:        r.shell(),
		})
		if err != nil {
			r.Log.Error("user %s: create failed: %v", req.Username, err)
			return out.Fail(fmt.Sprintf("create user: %v", err))
		}
		r.Log.Info("user %s: created (groups: %s, home: %s, shell: %s)", req.Username, joinGroups(groups), home, r.shell())
		out.Kind = Created
	} else {
		if len(groups) > 0 {
			if err := r.Store.AddUserToGroups(req.Username, groups); err != nil {
				r.Log.Error("user %s: adding groups %s failed: %v", req.Username, joinGroups(groups), err)
				return out.Fail(fmt.Sprintf("add groups: %v", err))
			}
			r.Log.Info("user %s: exists, added to groups %s", req.Username, joinGroups(groups))
		} else {
			r.Log.Info("user %s: exists, no groups to add", req.Username)
		}
		out.Kind = Updated
	}

	if err := r.normalizeHome(req.Username, home); err != nil {
		return out.Fail(err.Error())
	}
	return out
}

// normalizeHome runs on both the create and the update path so that
// pre-existing accounts get the same ownership and mode.
func (r *Reconciler) normalizeHome(username, home string) error {
	if err := r.Store.EnsureHome(home); err != nil {
		r.Log.Error("home %s: create failed: %v", home, err)
		return fmt.Errorf("ensure home %s: %w", home, err)
	}
	if err := r.Store.SetOwnership(home, username, username); err != nil {
		r.Log.Error("home %s: chown %s:%s failed: %v", home, username, username, err)
		return fmt.Errorf("chown home %s: %w", home, err)
	}
	if err := r.Store.SetPermissions(home, HomeMode); err != nil {
		r.Log.Error("home %s: chmod %04o failed: %v", home, HomeMode, err)
		return fmt.Errorf("chmod home %s: %w", home, err)
	}
	r.Log.Info("home %s: owner %s:%s, mode %04o", home, username, username, HomeMode)
	return nil
}

func distinct(in []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func joinGroups(groups []string) string {
	if len(groups) == 0 {
		return "none"
	}
	return strings.Join(groups, ",")
}
