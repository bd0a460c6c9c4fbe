package usermgr

import (
	"fmt"
	"strings"
)

type ShadowFile struct {
	t *table[ShadowEntry]
}

var shadowCodec = codec[ShadowEntry]{
	minFields: 2,
	decode: func(f []string) (ShadowEntry, error) {
		for len(f) < 9 {
			f = append(f, "")
		}
		return ShadowEntry{
			Name:       f[0],
			Hash:       f[1],
			LastChange: f[2],
			Min:        f[3],
			Max:        f[4],
			Warn:       f[5],
			Inactive:   f[6],
			Expire:     f[7],
			Reserved:   f[8],
		}, nil
	},
	name: func(e *ShadowEntry) string { return e.Name },
	encode: func(e *ShadowEntry) string {
		return strings.Join([]string{e.Name, e.Hash, e.LastChange, e.Min, e.Max, e.Warn, e.Inactive, e.Expire, e.Reserved}, ":")
	},
}

func LoadShadow(path string) (*ShadowFile, error) {
	t, err := loadTable(path, shadowCodec)
	if err != nil {
		return nil, err
	}
	return &ShadowFile{t: t}, nil
}

func (f *ShadowFile) Find(name string) *ShadowEntry {
	return f.t.find(name)
}

func (f *ShadowFile) Add(e ShadowEntry) error {
	if err := checkName(e.Name); err != nil {
		return err
	}
	if f.Find(e.Name) != nil {
		return fmt.Errorf("shadow entry already exists: %s", e.Name)
	}
	f.t.add(e)
	return nil
}

func (f *ShadowFile) Bytes() []byte {
	return f.t.bytes()
}
