// Package batch reads the declarative provisioning input.
//
// One record per line:
//
//	username; group1,group2,...
//
// Blank lines and lines starting with '#' are ignored. Parsing is pure text
// handling; nothing here touches the identity store.
package batch
