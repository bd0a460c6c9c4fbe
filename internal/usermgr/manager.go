package usermgr

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/GehirnInc/crypt/sha512_crypt"

	"github.com/hnrobert/lumprov/internal/hostfs"
	"github.com/hnrobert/lumprov/internal/identity"
)

// FirstID is the lowest UID/GID handed out to provisioned accounts.
const FirstID = 1000

const saltChars = "./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Manager implements identity.Store on top of the host's passwd, shadow and
// group files.
type Manager struct {
	Root       hostfs.Root
	PasswdPath string
	ShadowPath string
	GroupPath  string

	now func() time.Time
}

func New(root hostfs.Root) (*Manager, error) {
	passwd, err := root.Abs(hostfs.EtcPasswd)
	if err != nil {
		return nil, err
	}
	shadow, err := root.Abs(hostfs.EtcShadow)
	if err != nil {
		return nil, err
	}
	group, err := root.Abs(hostfs.EtcGroup)
	if err != nil {
		return nil, err
	}
	return &Manager{Root: root, PasswdPath: passwd, ShadowPath: shadow, GroupPath: group, now: time.Now}, nil
}

func (m *Manager) LoadAll() (*PasswdFile, *ShadowFile, *GroupFile, error) {
	pw, err := LoadPasswd(m.PasswdPath)
	if err != nil {
		return nil, nil, nil, err
	}
	sh, err := LoadShadow(m.ShadowPath)
	if err != nil {
		return nil, nil, nil, err
	}
	gr, err := LoadGroup(m.GroupPath)
	if err != nil {
		return nil, nil, nil, err
	}
	return pw, sh, gr, nil
}

func (m *Manager) UserExists(name string) (bool, error) {
	pw, err := LoadPasswd(m.PasswdPath)
	if err != nil {
		return false, err
	}
	return pw.Find(name) != nil, nil
}

func (m *Manager) GroupExists(name string) (bool, error) {
	gr, err := LoadGroup(m.GroupPath)
	if err != nil {
		return false, err
	}
	return gr.Find(name) != nil, nil
}

func (m *Manager) CreateGroup(name string) error {
	gr, err := LoadGroup(m.GroupPath)
	if err != nil {
		return err
	}
	if err := gr.Add(GroupEntry{Name: name, Passwd: "x", GID: gr.NextGID(FirstID)}); err != nil {
		return err
	}
	return m.write(m.GroupPath, gr.Bytes(), 0644)
}

func (m *Manager) CreateUser(u identity.NewUser) error {
	pw, sh, gr, err := m.LoadAll()
	if err != nil {
		return err
	}
	if pw.Find(u.Name) != nil || sh.Find(u.Name) != nil {
		return fmt.Errorf("%w: %s", identity.ErrUserExists, u.Name)
	}
	primary := gr.Find(u.PrimaryGroup)
	if primary == nil {
		return fmt.Errorf("%w: %s", identity.ErrGroupNotFound, u.PrimaryGroup)
	}
	for _, g := range u.Groups {
		if err := gr.AddMember(g, u.Name); err != nil {
			return err
		}
	}
	if err := pw.Add(PasswdEntry{Name: u.Name, Passwd: "x", UID: pw.NextUID(FirstID), GID: primary.GID, Home: u.Home, Shell: u.Shell}); err != nil {
		return err
	}
	// Locked until SetPassword.
	if err := sh.Add(ShadowEntry{Name: u.Name, Hash: "!", LastChange: m.days(), Min: "0", Max: "99999", Warn: "7"}); err != nil {
		return err
	}
	if err := m.write(m.GroupPath, gr.Bytes(), 0644); err != nil {
		return err
	}
	if err := m.write(m.ShadowPath, sh.Bytes(), 0600); err != nil {
		return err
	}
	return m.write(m.PasswdPath, pw.Bytes(), 0644)
}

func (m *Manager) AddUserToGroups(name string, groups []string) error {
	pw, err := LoadPasswd(m.PasswdPath)
	if err != nil {
		return err
	}
	if pw.Find(name) == nil {
		return fmt.Errorf("%w: %s", identity.ErrUserNotFound, name)
	}
	gr, err := LoadGroup(m.GroupPath)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if err := gr.AddMember(g, name); err != nil {
			return err
		}
	}
	return m.write(m.GroupPath, gr.Bytes(), 0644)
}

// SetPassword stores a sha512-crypt hash of password.
func (m *Manager) SetPassword(name, password string) error {
	pw, sh, _, err := m.LoadAll()
	if err != nil {
		return err
	}
	if pw.Find(name) == nil {
		return fmt.Errorf("%w: %s", identity.ErrUserNotFound, name)
	}
	salt, err := newSalt()
	if err != nil {
		return err
	}
	hash, err := sha512_crypt.New().Generate([]byte(password), []byte(salt))
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	se := sh.Find(name)
	if se == nil {
		if err := sh.Add(ShadowEntry{Name: name, Min: "0", Max: "99999", Warn: "7"}); err != nil {
			return err
		}
		se = sh.Find(name)
	}
	se.Hash = hash
	se.LastChange = m.days()
	return m.write(m.ShadowPath, sh.Bytes(), 0600)
}

func (m *Manager) EnsureHome(path string) error {
	abs, err := m.Root.Abs(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(abs, 0700)
}

func (m *Manager) SetOwnership(path, user, group string) error {
	pw, _, gr, err := m.LoadAll()
	if err != nil {
		return err
	}
	pe := pw.Find(user)
	if pe == nil {
		return fmt.Errorf("%w: %s", identity.ErrUserNotFound, user)
	}
	ge := gr.Find(group)
	if ge == nil {
		return fmt.Errorf("%w: %s", identity.ErrGroupNotFound, group)
	}
	abs, err := m.Root.Abs(path)
	if err != nil {
		return err
	}
	return os.Chown(abs, pe.UID, ge.GID)
}

func (m *Manager) SetPermissions(path string, mode os.FileMode) error {
	abs, err := m.Root.Abs(path)
	if err != nil {
		return err
	}
	return os.Chmod(abs, mode)
}

// write keeps the mode of an existing file and falls back to def.
func (m *Manager) write(path string, data []byte, def os.FileMode) error {
	perm := def
	if st, err := os.Stat(path); err == nil {
		perm = st.Mode().Perm()
	}
	return hostfs.WriteFileAtomic(path, data, perm)
}

func (m *Manager) days() string {
	now := time.Now
	if m.now != nil {
		now = m.now
	}
	return strconv.FormatInt(now().Unix()/86400, 10)
}

func newSalt() (string, error) {
	b := make([]byte, 16)
	max := big.NewInt(int64(len(saltChars)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = saltChars[n.Int64()]
	}
	return "$6$" + string(b), nil
}

var _ identity.Store = (*Manager)(nil)
