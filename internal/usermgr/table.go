package usermgr

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/hnrobert/lumprov/internal/hostfs"
)

type row[T any] struct {
	raw   string
	entry *T
}

// table keeps every line of a colon-separated database in file order.
type table[T any] struct {
	rows   []row[T]
	name   func(*T) string
	encode func(*T) string
}

type codec[T any] struct {
	minFields int
	decode    func(fields []string) (T, error)
	name      func(*T) string
	encode    func(*T) string
}

func loadTable[T any](path string, c codec[T]) (*table[T], error) {
	b, err := hostfs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t := &table[T]{name: c.name, encode: c.encode}
	s := bufio.NewScanner(bytes.NewReader(b))
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		line := s.Text()
		trim := strings.TrimSpace(line)
		fields := strings.Split(line, ":")
		// Comments, NIS compat entries (+/-) and short rows are kept verbatim.
		if trim == "" || strings.ContainsAny(trim[:1], "#+-") || len(fields) < c.minFields {
			t.rows = append(t.rows, row[T]{raw: line})
			continue
		}
		e, err := c.decode(fields)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		t.rows = append(t.rows, row[T]{entry: &e})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *table[T]) entries() []*T {
	out := make([]*T, 0, len(t.rows))
	for i := range t.rows {
		if t.rows[i].entry != nil {
			out = append(out, t.rows[i].entry)
		}
	}
	return out
}

func (t *table[T]) find(name string) *T {
	for _, e := range t.entries() {
		if t.name(e) == name {
			return e
		}
	}
	return nil
}

func (t *table[T]) add(e T) {
	t.rows = append(t.rows, row[T]{entry: &e})
}

func (t *table[T]) bytes() []byte {
	var buf strings.Builder
	for _, r := range t.rows {
		if r.entry != nil {
			buf.WriteString(t.encode(r.entry))
		} else {
			buf.WriteString(r.raw)
		}
		buf.WriteByte('\n')
	}
	return []byte(buf.String())
}

func atoi(field, ctx string) (int, error) {
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("invalid int %q in %s: %w", field, ctx, err)
	}
	return n, nil
}
