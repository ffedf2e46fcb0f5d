// Package components discovers the components available to a project.
//
// Components live in three scopes: the templates shipped with zcc
// (builtin), the user's global directory and the project's .zcc directory.
// Each scope walks one subdirectory per component type. When the same name
// exists in more than one scope, project wins over global, which wins over
// builtin.
package components
