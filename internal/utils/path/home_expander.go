package pathutils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant            = "~"
	forwardSlashConstant           = "/"
	homeUnavailableMessageConstant = "home directory could not be determined"
)

// ErrHomeDirectoryUnavailable indicates that no home directory is known for the current user.
var ErrHomeDirectoryUnavailable = errors.New(homeUnavailableMessageConstant)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander resolves "~" and "~/..." shortcuts in credential and
// configuration paths. The home directory is looked up once.
type HomeExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
	lookupOnce            sync.Once
	homeDirectory         string
	lookupError           error
}

// NewHomeExpander constructs a HomeExpander backed by os.UserHomeDir.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(nil)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom provider.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{homeDirectoryProvider: provider}
}

// HomeDirectory returns the resolved home directory or the lookup error.
func (expander *HomeExpander) HomeDirectory() (string, error) {
	if expander == nil {
		return "", ErrHomeDirectoryUnavailable
	}
	expander.lookupOnce.Do(func() {
		expander.homeDirectory, expander.lookupError = expander.homeDirectoryProvider()
		if expander.lookupError == nil && len(expander.homeDirectory) == 0 {
			expander.lookupError = ErrHomeDirectoryUnavailable
		}
	})
	return expander.homeDirectory, expander.lookupError
}

// Expand resolves a home shortcut, returning the input unchanged when it has
// none or when the home directory is unknown.
func (expander *HomeExpander) Expand(candidatePath string) string {
	expandedPath, expandError := expander.ExpandStrict(candidatePath)
	if expandError != nil {
		return candidatePath
	}
	return expandedPath
}

// ExpandStrict behaves like Expand but fails when a home shortcut cannot be resolved.
func (expander *HomeExpander) ExpandStrict(candidatePath string) (string, error) {
	relativePath, isShortcut := splitHomeShortcut(candidatePath)
	if !isShortcut {
		return candidatePath, nil
	}
	homeDirectory, homeError := expander.HomeDirectory()
	if homeError != nil {
		return "", homeError
	}
	if len(relativePath) == 0 {
		return homeDirectory, nil
	}
	return filepath.Join(homeDirectory, relativePath), nil
}

// splitHomeShortcut reports whether candidatePath is "~" or starts with "~"
// followed by a separator, and returns the remainder after the separator.
// "~user" forms are not shortcuts.
func splitHomeShortcut(candidatePath string) (string, bool) {
	if candidatePath == tildeSymbolConstant {
		return "", true
	}
	for _, separator := range []string{forwardSlashConstant, string(os.PathSeparator)} {
		if remainder, found := strings.CutPrefix(candidatePath, tildeSymbolConstant+separator); found {
			return remainder, true
		}
	}
	return "", false
}
