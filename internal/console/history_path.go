package console

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	homeDirectorySymbolConstant = "~"
	homeDirectoryPrefixConstant = "~/"
)

// HomeDirectoryProvider resolves the current user's home directory.
type HomeDirectoryProvider func() (string, error)

// ResolveHistoryPath expands a leading ~ in the configured history file path.
// An empty path disables history and is returned unchanged.
func ResolveHistoryPath(configuredPath string, homeDirectoryProvider HomeDirectoryProvider) string {
	trimmedPath := strings.TrimSpace(configuredPath)
	if len(trimmedPath) == 0 || !strings.HasPrefix(trimmedPath, homeDirectorySymbolConstant) {
		return trimmedPath
	}
	if trimmedPath != homeDirectorySymbolConstant && !strings.HasPrefix(trimmedPath, homeDirectoryPrefixConstant) {
		return trimmedPath
	}

	if homeDirectoryProvider == nil {
		homeDirectoryProvider = os.UserHomeDir
	}
	homeDirectory, homeError := homeDirectoryProvider()
	if homeError != nil || len(homeDirectory) == 0 {
		return trimmedPath
	}
	if trimmedPath == homeDirectorySymbolConstant {
		return homeDirectory
	}
	return filepath.Join(homeDirectory, strings.TrimPrefix(trimmedPath, homeDirectoryPrefixConstant))
}
