package auth

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GehirnInc/crypt/sha512_crypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeShadow(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shadow")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600))
	return path
}

func TestVerifier(t *testing.T) {
	hash, err := sha512_crypt.New().Generate([]byte("S3cretPass"), []byte("$6$saltsalt"))
	require.NoError(t, err)

	path := writeShadow(t,
		"root:*:19000:0:99999:7:::",
		"alice:"+hash+":19000:0:99999:7:::",
		"bob:!:19000:0:99999:7:::",
		"carol:$y$j9T$abc$def:19000:0:99999:7:::",
	)
	v := &Verifier{ShadowPath: path}

	assert.NoError(t, v.Verify("alice", "S3cretPass"))
	assert.ErrorIs(t, v.Verify("alice", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, v.Verify("nobody", "x"), ErrInvalidCredentials)
	assert.ErrorIs(t, v.Verify("bob", "x"), ErrUserLocked)
	assert.ErrorIs(t, v.Verify("carol", "x"), ErrUnsupportedHash)
}

func TestVerifier_MissingShadow(t *testing.T) {
	v := &Verifier{ShadowPath: filepath.Join(t.TempDir(), "missing")}
	assert.Error(t, v.Verify("alice", "x"))
}

type promptRW struct {
	out     *bytes.Reader
	written bytes.Buffer
}

func (p *promptRW) Read(b []byte) (int, error)  { return p.out.Read(b) }
func (p *promptRW) Write(b []byte) (int, error) { return p.written.Write(b) }

func TestAnswerPrompt(t *testing.T) {
	rw := &promptRW{out: bytes.NewReader([]byte("Password: \r\nPassword again? "))}
	answerPrompt(rw, "hunter22")
	assert.Equal(t, "hunter22\n", rw.written.String())

	rw = &promptRW{out: bytes.NewReader([]byte("su: user does not exist"))}
	answerPrompt(rw, "hunter22")
	assert.Empty(t, rw.written.String())
}
