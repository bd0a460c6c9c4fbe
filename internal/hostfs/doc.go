// Package hostfs provides safe file helpers for the provisioner.
//
// Root maps absolute host paths under a mount point, for the files backend
// running in a container with the host bind-mounted:
//   /etc/passwd  -> /host/etc/passwd
//   /home/alice  -> /host/home/alice
//
// Appender is the append-only, owner-only sink used for the audit log and the
// credential store. Every Append is written, fsynced and unlocked before it
// returns.
package hostfs
