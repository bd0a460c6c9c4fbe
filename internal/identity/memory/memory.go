// Package memory is an in-memory identity.Store used by tests.
package memory

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/hnrobert/lumprov/internal/identity"
)

type User struct {
	Name     string
	Primary  string
	Groups   []string
	Home     string
	Shell    string
	Password string
}

type Home struct {
	Owner string
	Group string
	Mode  os.FileMode
}

// Store keeps users, groups and home directories in maps. Every call is
// appended to Calls as "Op name" so tests can assert ordering.
type Store struct {
	mu     sync.Mutex
	users  map[string]*User
	groups map[string]bool
	homes  map[string]*Home

	fail  map[string]error
	Calls []string
}

func New() *Store {
	return &Store{
		users:  map[string]*User{},
		groups: map[string]bool{},
		homes:  map[string]*Home{},
		fail:   map[string]error{},
	}
}

// FailOn makes the operation op ("CreateGroup", "CreateUser", ...) fail with
// err when called for target (a user, group or path name).
func (s *Store) FailOn(op, target string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op+" "+target] = err
}

// AddGroup seeds an existing group.
func (s *Store) AddGroup(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[name] = true
}

// AddUser seeds an existing user without touching groups or homes.
func (s *Store) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := u
	cp.Groups = append([]string(nil), u.Groups...)
	s.users[u.Name] = &cp
}

// SetHome seeds a pre-existing home directory.
func (s *Store) SetHome(path string, h Home) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := h
	s.homes[path] = &cp
}

func (s *Store) User(name string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[name]
	if !ok {
		return User{}, false
	}
	cp := *u
	cp.Groups = append([]string(nil), u.Groups...)
	return cp, true
}

func (s *Store) Home(path string) (Home, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.homes[path]
	if !ok {
		return Home{}, false
	}
	return *h, true
}

func (s *Store) HasGroup(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groups[name]
}

func (s *Store) Groups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.groups))
	for g := range s.groups {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

func (s *Store) record(op, target string) error {
	s.Calls = append(s.Calls, op+" "+target)
	return s.fail[op+" "+target]
}

func (s *Store) UserExists(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("UserExists", name); err != nil {
		return false, err
	}
	_, ok := s.users[name]
	return ok, nil
}

func (s *Store) GroupExists(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("GroupExists", name); err != nil {
		return false, err
	}
	return s.groups[name], nil
}

func (s *Store) CreateGroup(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("CreateGroup", name); err != nil {
		return err
	}
	if s.groups[name] {
		return fmt.Errorf("%w: %s", identity.ErrGroupExists, name)
	}
	s.groups[name] = true
	return nil
}

func (s *Store) CreateUser(u identity.NewUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("CreateUser", u.Name); err != nil {
		return err
	}
	if _, ok := s.users[u.Name]; ok {
		return fmt.Errorf("%w: %s", identity.ErrUserExists, u.Name)
	}
	if !s.groups[u.PrimaryGroup] {
		return fmt.Errorf("%w: %s", identity.ErrGroupNotFound, u.PrimaryGroup)
	}
	var groups []string
	for _, g := range u.Groups {
		if !s.groups[g] {
			return fmt.Errorf("%w: %s", identity.ErrGroupNotFound, g)
		}
		groups = appendUnique(groups, g)
	}
	s.users[u.Name] = &User{
		Name:    u.Name,
		Primary: u.PrimaryGroup,
		Groups:  groups,
		Home:    u.Home,
		Shell:   u.Shell,
	}
	return nil
}

func (s *Store) AddUserToGroups(name string, groups []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("AddUserToGroups", name); err != nil {
		return err
	}
	u, ok := s.users[name]
	if !ok {
		return fmt.Errorf("%w: %s", identity.ErrUserNotFound, name)
	}
	for _, g := range groups {
		if !s.groups[g] {
			return fmt.Errorf("%w: %s", identity.ErrGroupNotFound, g)
		}
	}
	for _, g := range groups {
		u.Groups = appendUnique(u.Groups, g)
	}
	return nil
}

func (s *Store) SetPassword(name, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("SetPassword", name); err != nil {
		return err
	}
	u, ok := s.users[name]
	if !ok {
		return fmt.Errorf("%w: %s", identity.ErrUserNotFound, name)
	}
	u.Password = password
	return nil
}

func (s *Store) EnsureHome(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("EnsureHome", path); err != nil {
		return err
	}
	if _, ok := s.homes[path]; !ok {
		s.homes[path] = &Home{Owner: "root", Group: "root", Mode: 0755}
	}
	return nil
}

func (s *Store) SetOwnership(path, user, group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("SetOwnership", path); err != nil {
		return err
	}
	h, ok := s.homes[path]
	if !ok {
		return fmt.Errorf("chown %s: %w", path, os.ErrNotExist)
	}
	if _, ok := s.users[user]; !ok {
		return fmt.Errorf("%w: %s", identity.ErrUserNotFound, user)
	}
	if !s.groups[group] {
		return fmt.Errorf("%w: %s", identity.ErrGroupNotFound, group)
	}
	h.Owner = user
	h.Group = group
	return nil
}

func (s *Store) SetPermissions(path string, mode os.FileMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("SetPermissions", path); err != nil {
		return err
	}
	h, ok := s.homes[path]
	if !ok {
		return fmt.Errorf("chmod %s: %w", path, os.ErrNotExist)
	}
	h.Mode = mode
	return nil
}

// CallsFor returns the recorded calls whose operation is op.
func (s *Store) CallsFor(op string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.Calls {
		if strings.HasPrefix(c, op+" ") {
			out = append(out, strings.TrimPrefix(c, op+" "))
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

var _ identity.Store = (*Store)(nil)
