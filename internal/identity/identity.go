// Package identity describes the OS user/group database as seen by the
// provisioning core.
//
// The core never shells out or edits /etc files itself. It asks a Store
// whether users and groups exist and tells it which mutations to apply.
// Concrete stores live in usercmd (system commands), usermgr (direct file
// edits under a host root) and identity/memory (tests).
package identity

import (
	"errors"
	"os"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrGroupNotFound = errors.New("group not found")
	ErrUserExists    = errors.New("user already exists")
	ErrGroupExists   = errors.New("group already exists")
)

// Query is the read-only side of a Store.
type Query interface {
	UserExists(name string) (bool, error)
	GroupExists(name string) (bool, error)
}

// Store applies identity mutations. Implementations are expected to be
// blocking and to report every failure as an error; callers do not retry.
type Store interface {
	Query

	CreateGroup(name string) error
	CreateUser(u NewUser) error
	// AddUserToGroups appends memberships. Existing memberships are kept.
	AddUserToGroups(name string, groups []string) error
	SetPassword(name, password string) error

	EnsureHome(path string) error
	SetOwnership(path, user, group string) error
	SetPermissions(path string, mode os.FileMode) error
}

// NewUser is a user creation request.
type NewUser struct {
	Name         string
	PrimaryGroup string
	Groups       []string
	Home         string
	Shell        string
}
