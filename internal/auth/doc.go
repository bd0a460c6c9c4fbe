// Package auth checks passwords against the host shadow database.
//
// The provisioner uses it to confirm that a freshly generated password was
// really applied before the password is written to the credential store.
// crypt(3) hashes ($1$, $5$, $6$) are verified in-process; other schemes
// (yescrypt, bcrypt) fall back to su(1) behind a PTY when allowed.
package auth
