package runner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/lumprov/internal/batch"
	"github.com/hnrobert/lumprov/internal/credential"
	"github.com/hnrobert/lumprov/internal/identity/memory"
	"github.com/hnrobert/lumprov/internal/logger"
	"github.com/hnrobert/lumprov/internal/reconcile"
)

type lines []string

func (l *lines) Append(line string) error {
	*l = append(*l, line)
	return nil
}

func (l lines) count(s string) int {
	n := 0
	for _, x := range l {
		if strings.Contains(x, s) {
			n++
		}
	}
	return n
}

var fixed = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type harness struct {
	store *memory.Store
	logs  *lines
	creds *lines
	ctl   *Controller
}

func newHarness(store *memory.Store) *harness {
	h := &harness{store: store, logs: &lines{}, creds: &lines{}}
	log := logger.New(h.logs, nil)
	log.SetClock(func() time.Time { return fixed })
	h.ctl = &Controller{
		Reconciler: &reconcile.Reconciler{Store: store, Log: log},
		Issuer: &credential.Issuer{
			Setter: store,
			Sink:   credential.NewStore(h.creds),
			Log:    log,
			Now:    func() time.Time { return fixed },
		},
		Log:   log,
		Now:   func() time.Time { return fixed },
		NewID: func() string { return "run-1" },
	}
	return h
}

func TestRun_Example(t *testing.T) {
	h := newHarness(memory.New())
	in := "alice; sudo,dev\n# comment\n\nbad user; x\ncarol;"

	sum, err := h.ctl.Run("users.txt", strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, sum.Entries, 3)
	assert.Equal(t, "alice", sum.Entries[0].Username)
	assert.Equal(t, "Created", sum.Entries[0].Outcome)
	assert.Equal(t, []string{"sudo", "dev"}, sum.Entries[0].Groups)
	assert.Equal(t, "Skipped", sum.Entries[1].Outcome)
	assert.Equal(t, 4, sum.Entries[1].Line)
	assert.Equal(t, "carol", sum.Entries[2].Username)
	assert.Equal(t, "Created", sum.Entries[2].Outcome)
	assert.Empty(t, sum.Entries[2].Groups)
	assert.Equal(t, 2, sum.Created)
	assert.Equal(t, 1, sum.Skipped)

	require.Len(t, *h.creds, 2)
	assert.True(t, strings.HasPrefix((*h.creds)[0], "alice:"))
	assert.True(t, strings.HasSuffix((*h.creds)[0], "  # 2026-03-14 09:30:00"))
	assert.True(t, strings.HasPrefix((*h.creds)[1], "carol:"))

	alice, ok := h.store.User("alice")
	require.True(t, ok)
	assert.Equal(t, []string{"sudo", "dev"}, alice.Groups)
	home, ok := h.store.Home("/home/alice")
	require.True(t, ok)
	assert.Equal(t, memory.Home{Owner: "alice", Group: "alice", Mode: 0700}, home)

	assert.Equal(t, 1, h.logs.count("[INFO] line 2: skipped (comment)"))
	assert.Equal(t, 1, h.logs.count("[INFO] line 3: skipped (empty)"))
	assert.Equal(t, 1, h.logs.count("[WARN] line 4: skipped (invalid username)"))
	last := (*h.logs)[len(*h.logs)-1]
	assert.Equal(t, "2026-03-14 09:30:00 [INFO] run run-1 complete: 3 records, 2 created, 0 updated, 1 skipped, 0 failed", last)
}

func TestRun_RerunUpdates(t *testing.T) {
	store := memory.New()
	_, err := newHarness(store).ctl.Run("users.txt", strings.NewReader("alice; sudo,dev\n"))
	require.NoError(t, err)

	h := newHarness(store)
	sum, err := h.ctl.Run("users.txt", strings.NewReader("alice; ops\n"))
	require.NoError(t, err)
	require.Len(t, sum.Entries, 1)
	assert.Equal(t, "Updated", sum.Entries[0].Outcome)

	alice, _ := store.User("alice")
	assert.ElementsMatch(t, []string{"sudo", "dev", "ops"}, alice.Groups)
	home, _ := store.Home("/home/alice")
	assert.Equal(t, memory.Home{Owner: "alice", Group: "alice", Mode: 0700}, home)
	require.Len(t, *h.creds, 1)
	assert.Equal(t, 1, h.logs.count("group ops: Created"))
	assert.Equal(t, 1, h.logs.count("group alice: AlreadyExists"))
}

func TestRun_SameInputTwiceIsUpdated(t *testing.T) {
	store := memory.New()
	in := "alice; sudo\nbob; dev\n"
	_, err := newHarness(store).ctl.Run("users.txt", strings.NewReader(in))
	require.NoError(t, err)
	sum, err := newHarness(store).ctl.Run("users.txt", strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Updated)
	assert.Zero(t, sum.Created)
}

func TestRun_RepeatedUsernameIsNotDeduplicated(t *testing.T) {
	h := newHarness(memory.New())
	sum, err := h.ctl.Run("users.txt", strings.NewReader("alice; a\nalice; b\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 1, sum.Updated)
	assert.Len(t, *h.creds, 2)
}

func TestRun_LineAccounting(t *testing.T) {
	store := memory.New()
	store.FailOn("CreateUser", "bob", errors.New("useradd: exit 9"))
	store.FailOn("CreateGroup", "broken", errors.New("groupadd: exit 4"))
	store.FailOn("SetPassword", "dave", errors.New("chpasswd: exit 1"))
	h := newHarness(store)

	in := strings.Join([]string{
		"alice; sudo",
		"bob; dev",
		"carol; broken",
		"no separator here",
		"# note",
		"",
		"dave;",
		"bad name; x",
		"erin; dev,ops",
	}, "\n")
	sum, err := h.ctl.Run("users.txt", strings.NewReader(in))
	require.NoError(t, err)

	records := 7
	successes := sum.Created + sum.Updated
	assert.Equal(t, records, h.logs.count("[ERROR]")+h.logs.count("[WARN]")+successes)
	assert.Equal(t, 3, sum.Failed)
	assert.Equal(t, 2, sum.Created)
	assert.Len(t, *h.creds, successes)

	_, ok := store.User("carol")
	assert.False(t, ok, "group failure must stop before the account is touched")
	for _, e := range sum.Entries {
		if e.Outcome == "Failed" {
			assert.NotEmpty(t, e.Reason)
		}
	}
}

func TestRun_OversizedLineIsSkipped(t *testing.T) {
	h := newHarness(memory.New())
	in := "alice;\n" + strings.Repeat("x", 2*batch.MaxLineBytes) + "\nbob; dev\ncarol;\n"

	sum, err := h.ctl.Run("users.txt", strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Created)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 2, sum.Entries[1].Line)
	assert.Equal(t, "line too long", sum.Entries[1].Reason)
	assert.Len(t, *h.creds, 3)
	assert.Equal(t, 1, h.logs.count("[WARN] line 2: skipped (line too long)"))
}

func TestPreflight(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "users.txt")
	require.NoError(t, os.WriteFile(input, []byte("alice;\n"), 0600))

	_, err := Preflight(1000, []string{input})
	assert.ErrorIs(t, err, ErrNotRoot)
	_, err = Preflight(1000, nil)
	assert.ErrorIs(t, err, ErrNotRoot, "privilege is checked first")
	_, err = Preflight(0, nil)
	assert.ErrorIs(t, err, ErrMissingInput)
	_, err = Preflight(0, []string{filepath.Join(dir, "missing.txt")})
	assert.ErrorIs(t, err, ErrInputNotFound)
	_, err = Preflight(0, []string{dir})
	assert.ErrorIs(t, err, ErrInputNotFound)

	got, err := Preflight(0, []string{input})
	require.NoError(t, err)
	assert.Equal(t, input, got)
}

func TestOpenSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lumprov")
	p := filepath.Join(dir, "credentials.txt")

	a, err := OpenSink(p)
	require.NoError(t, err)
	require.NoError(t, a.Append("alice:pw  # 2026-03-14 09:30:00"))
	require.NoError(t, a.Close())

	st, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, SinkDirMode, st.Mode().Perm())
	st, err = os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, SinkFileMode, st.Mode().Perm())

	require.NoError(t, os.Chmod(p, 0644))
	a, err = OpenSink(p)
	require.NoError(t, err)
	require.NoError(t, a.Close())
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "alice:pw  # 2026-03-14 09:30:00\n", string(b))
	st, _ = os.Stat(p)
	assert.Equal(t, SinkFileMode, st.Mode().Perm())
}
