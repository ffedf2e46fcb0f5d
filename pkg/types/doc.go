// Package types defines the capability interfaces the zcc core depends on:
// the filesystem (FS), the user-facing Logger and the interactive Prompter.
// Concrete implementations live in pkg/filesystem, pkg/logging and pkg/ui.
package types
