// Package usermgr is the files backend of the identity store: it edits
// passwd, shadow and group directly under a host root.
//
// Intended for running inside a container with the host bind-mounted:
//   /host/etc/passwd
//   /host/etc/shadow
//   /host/etc/group
//   /host/home/...
//
// Unparsed lines (comments, NIS entries, malformed rows) are preserved
// verbatim. Every mutation is written back atomically.
package usermgr
