package usermgr

import (
	"fmt"
	"strings"

	"github.com/hnrobert/lumprov/internal/identity"
)

type GroupFile struct {
	t *table[GroupEntry]
}

var groupCodec = codec[GroupEntry]{
	minFields: 4,
	decode: func(f []string) (GroupEntry, error) {
		gid, err := atoi(f[2], "group.gid")
		if err != nil {
			return GroupEntry{}, err
		}
		var members []string
		if f[3] != "" {
			members = strings.Split(f[3], ",")
		}
		return GroupEntry{Name: f[0], Passwd: f[1], GID: gid, Members: members}, nil
	},
	name: func(e *GroupEntry) string { return e.Name },
	encode: func(e *GroupEntry) string {
		return fmt.Sprintf("%s:%s:%d:%s", e.Name, e.Passwd, e.GID, strings.Join(e.Members, ","))
	},
}

func LoadGroup(path string) (*GroupFile, error) {
	t, err := loadTable(path, groupCodec)
	if err != nil {
		return nil, err
	}
	return &GroupFile{t: t}, nil
}

func (f *GroupFile) Find(name string) *GroupEntry {
	return f.t.find(name)
}

func (f *GroupFile) FindByGID(gid int) *GroupEntry {
	for _, e := range f.t.entries() {
		if e.GID == gid {
			return e
		}
	}
	return nil
}

func (f *GroupFile) Add(e GroupEntry) error {
	if err := checkName(e.Name); err != nil {
		return err
	}
	if f.Find(e.Name) != nil {
		return fmt.Errorf("%w: %s", identity.ErrGroupExists, e.Name)
	}
	if f.FindByGID(e.GID) != nil {
		return fmt.Errorf("gid already exists: %d", e.GID)
	}
	f.t.add(e)
	return nil
}

// NextGID returns one past the highest GID in [min, 60000), or min.
func (f *GroupFile) NextGID(min int) int {
	max := min - 1
	for _, e := range f.t.entries() {
		if e.GID > max && e.GID < 60000 {
			max = e.GID
		}
	}
	return max + 1
}

// AddMember appends user to group; a user already listed is left alone.
func (f *GroupFile) AddMember(group, user string) error {
	if err := checkName(user); err != nil {
		return err
	}
	g := f.Find(group)
	if g == nil {
		return fmt.Errorf("%w: %s", identity.ErrGroupNotFound, group)
	}
	for _, m := range g.Members {
		if m == user {
			return nil
		}
	}
	g.Members = append(g.Members, user)
	return nil
}

func (f *GroupFile) IsMember(group, user string) bool {
	g := f.Find(group)
	if g == nil {
		return false
	}
	for _, m := range g.Members {
		if m == user {
			return true
		}
	}
	return false
}

func (f *GroupFile) Bytes() []byte {
	return f.t.bytes()
}
