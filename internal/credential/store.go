package credential

import (
	"fmt"
	"time"
)

// TimeLayout is the issuance timestamp format in the credential store.
const TimeLayout = "2006-01-02 15:04:05"

type Credential struct {
	Username string
	Password string
	IssuedAt time.Time
}

// Line renders c as a credential store entry.
func (c Credential) Line() string {
	return fmt.Sprintf("%s:%s  # %s", c.Username, c.Password, c.IssuedAt.Format(TimeLayout))
}

// LineSink is an append-only line writer, see hostfs.Appender.
type LineSink interface {
	Append(line string) error
}

// Store is the write-only credential file.
type Store struct {
	sink LineSink
}

func NewStore(sink LineSink) *Store {
	return &Store{sink: sink}
}

func (s *Store) Append(c Credential) error {
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("refusing to store incomplete credential for %q", c.Username)
	}
	return s.sink.Append(c.Line())
}
