// Package credentials resolves the registry API key and the wallet signing
// key from command flags, the process environment and the dotfile written by
// the init command.
package credentials
