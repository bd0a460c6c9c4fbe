package usermgr

import (
	"fmt"
)

type PasswdFile struct {
	t *table[PasswdEntry]
}

var passwdCodec = codec[PasswdEntry]{
	minFields: 7,
	decode: func(f []string) (PasswdEntry, error) {
		uid, err := atoi(f[2], "passwd.uid")
		if err != nil {
			return PasswdEntry{}, err
		}
		gid, err := atoi(f[3], "passwd.gid")
		if err != nil {
			return PasswdEntry{}, err
		}
		return PasswdEntry{Name: f[0], Passwd: f[1], UID: uid, GID: gid, Gecos: f[4], Home: f[5], Shell: f[6]}, nil
	},
	name: func(e *PasswdEntry) string { return e.Name },
	encode: func(e *PasswdEntry) string {
		return fmt.Sprintf("%s:%s:%d:%d:%s:%s:%s", e.Name, e.Passwd, e.UID, e.GID, e.Gecos, e.Home, e.Shell)
	},
}

func LoadPasswd(path string) (*PasswdFile, error) {
	t, err := loadTable(path, passwdCodec)
	if err != nil {
		return nil, err
	}
	return &PasswdFile{t: t}, nil
}

func (f *PasswdFile) Find(name string) *PasswdEntry {
	return f.t.find(name)
}

func (f *PasswdFile) Add(e PasswdEntry) error {
	if err := checkName(e.Name); err != nil {
		return err
	}
	if f.Find(e.Name) != nil {
		return fmt.Errorf("user already exists: %s", e.Name)
	}
	f.t.add(e)
	return nil
}

// NextUID returns one past the highest UID in [min, 60000), or min.
func (f *PasswdFile) NextUID(min int) int {
	max := min - 1
	for _, e := range f.t.entries() {
		if e.UID > max && e.UID < 60000 {
			max = e.UID
		}
	}
	return max + 1
}

func (f *PasswdFile) Bytes() []byte {
	return f.t.bytes()
}
