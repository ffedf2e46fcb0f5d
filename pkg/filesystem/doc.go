// Package filesystem provides filesystem implementations for zcc.
//
// This package contains implementations of the types.FS interface,
// including the standard OS filesystem and afero-backed test filesystems.
package filesystem
