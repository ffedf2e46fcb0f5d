// Package testutil provides utilities for testing zcc components.
//
// Key components:
//   - Env: an isolated in-memory project with global and template dirs
//   - PackBuilder: declarative pack setup builder
//   - File assertions against a types.FS
//
// Usage guidelines:
//   - Tests use the in-memory filesystem unless they exercise the OS layer
//   - All test data is defined inline, not in external files
//   - Each test builds its own Env; nothing is shared between tests
package testutil
