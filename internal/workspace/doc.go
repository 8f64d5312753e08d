// Package workspace implements the init and clean commands that manage the
// per-user credentials directory.
package workspace
