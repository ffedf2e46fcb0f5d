package components

import (
	"path/filepath"
	"strings"

	"github.com/arthur-debert/zcc/pkg/errors"
)

// Type is a kind of component.
type Type string

const (
	TypeMode     Type = "mode"
	TypeWorkflow Type = "workflow"
	TypeAgent    Type = "agent"
	TypeScript   Type = "script"
	TypeHook     Type = "hook"
	TypeCommand  Type = "command"
	TypeTemplate Type = "template"
)

// AllTypes returns every component type in listing order.
func AllTypes() []Type {
	return []Type{TypeMode, TypeWorkflow, TypeAgent, TypeScript, TypeHook, TypeCommand, TypeTemplate}
}

// Dir returns the scope subdirectory holding this type.
func (t Type) Dir() string {
	return string(t) + "s"
}

// ParseType accepts singular or plural type names.
func ParseType(s string) (Type, error) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	for _, t := range AllTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", errors.Newf(errors.ErrInvalidInput, "unknown component type %q", s).
		WithDetail("valid", AllTypes())
}

// Scope names in precedence order, highest first.
const (
	ScopeProject = "project"
	ScopeGlobal  = "global"
	ScopeBuiltin = "builtin"
)

// Info describes one discovered component.
type Info struct {
	Name     string
	Type     Type
	Path     string
	Scope    string
	Metadata Metadata
}

// Description returns the "description" metadata value, if any.
func (i *Info) Description() string {
	if s, ok := i.Metadata["description"].(string); ok {
		return s
	}
	return ""
}

// componentName strips the extension from a component file name.
func componentName(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file))
}
