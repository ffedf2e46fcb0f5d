package types

import (
	"io/fs"
)

// FS is the filesystem interface required for zcc operations
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Exists(name string) bool

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
}

// Logger is the user-facing message sink the core reports progress through.
// It is distinct from the zerolog diagnostics in pkg/logging: these messages
// are meant for the person running the command.
type Logger interface {
	Info(format string, args ...interface{})
	Success(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// Prompter asks the user questions during interactive commands.
type Prompter interface {
	// Select returns one of options. defaultOption is preselected when it
	// is one of the options.
	Select(message string, options []string, defaultOption string) (string, error)

	// Confirm asks a yes/no question.
	Confirm(message string, defaultValue bool) (bool, error)
}
