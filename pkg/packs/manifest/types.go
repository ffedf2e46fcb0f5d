package manifest

import (
	"fmt"
	"strings"
)

// ComponentType is the kind of artifact a pack can place in a project.
type ComponentType string

const (
	// ComponentMode is a behavioral template for the assistant.
	ComponentMode ComponentType = "mode"
	// ComponentWorkflow is a multi-step procedure.
	ComponentWorkflow ComponentType = "workflow"
	// ComponentAgent is a specialised agent definition.
	ComponentAgent ComponentType = "agent"
	// ComponentHook is a JSON hook definition.
	ComponentHook ComponentType = "hook"
)

// AllComponentTypes returns the pack component types in install order.
func AllComponentTypes() []ComponentType {
	return []ComponentType{ComponentMode, ComponentWorkflow, ComponentAgent, ComponentHook}
}

// Validate checks if the ComponentType is a valid value.
func (c ComponentType) Validate() error {
	switch c {
	case ComponentMode, ComponentWorkflow, ComponentAgent, ComponentHook:
		return nil
	case "":
		return fmt.Errorf("component type is required")
	default:
		return fmt.Errorf("invalid component type '%s' (must be mode, workflow, agent or hook)", c)
	}
}

// String returns the string representation of the ComponentType.
func (c ComponentType) String() string {
	return string(c)
}

// Dir returns the directory name components of this type live in, both
// inside a pack and inside the project state directory.
func (c ComponentType) Dir() string {
	return string(c) + "s"
}

// Ext returns the file extension of components of this type.
func (c ComponentType) Ext() string {
	if c == ComponentHook {
		return ".json"
	}
	return ".md"
}

// FileName returns the on-disk file name of a component.
func (c ComponentType) FileName(name string) string {
	return name + c.Ext()
}

// ParseComponentType parses singular or plural forms ("mode", "modes").
func ParseComponentType(s string) (ComponentType, error) {
	ct := ComponentType(strings.TrimSuffix(strings.ToLower(s), "s"))
	if err := ct.Validate(); err != nil {
		return "", err
	}
	return ct, nil
}

// ComponentRef declares one component inside a manifest.
type ComponentRef struct {
	Name        string `json:"name"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// Components groups component declarations by type.
type Components struct {
	Modes     []ComponentRef `json:"modes,omitempty"`
	Workflows []ComponentRef `json:"workflows,omitempty"`
	Agents    []ComponentRef `json:"agents,omitempty"`
	Hooks     []ComponentRef `json:"hooks,omitempty"`
}

// Of returns the declarations for one component type.
func (c Components) Of(t ComponentType) []ComponentRef {
	switch t {
	case ComponentMode:
		return c.Modes
	case ComponentWorkflow:
		return c.Workflows
	case ComponentAgent:
		return c.Agents
	case ComponentHook:
		return c.Hooks
	}
	return nil
}

// Configuration holds the project configuration a pack applies on install.
type Configuration struct {
	DefaultMode     string                 `json:"defaultMode,omitempty"`
	CustomCommands  map[string]string      `json:"customCommands,omitempty"`
	ProjectSettings map[string]interface{} `json:"projectSettings,omitempty"`
}

// IsEmpty reports whether the configuration has no side effects.
func (c *Configuration) IsEmpty() bool {
	return c == nil || (c.DefaultMode == "" && len(c.CustomCommands) == 0 && len(c.ProjectSettings) == 0)
}

// PostInstall carries what is shown to the user after installing.
type PostInstall struct {
	Message string `json:"message,omitempty"`
}

// Manifest is the parsed manifest.json of a pack.
type Manifest struct {
	Name           string         `json:"name"`
	Version        string         `json:"version"`
	Description    string         `json:"description"`
	Author         string         `json:"author"`
	Category       string         `json:"category,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	Dependencies   []string       `json:"dependencies,omitempty"`
	CompatibleWith []string       `json:"compatibleWith,omitempty"`
	Components     Components     `json:"components"`
	Configuration  *Configuration `json:"configuration,omitempty"`
	PostInstall    *PostInstall   `json:"postInstall,omitempty"`
}

// ComponentEntry is one declared component with its type.
type ComponentEntry struct {
	Type ComponentType
	Ref  ComponentRef
}

// AllComponents returns every declared component: modes, workflows, agents,
// then hooks, each in declaration order.
func (m *Manifest) AllComponents() []ComponentEntry {
	var entries []ComponentEntry
	for _, t := range AllComponentTypes() {
		for _, ref := range m.Components.Of(t) {
			entries = append(entries, ComponentEntry{Type: t, Ref: ref})
		}
	}
	return entries
}

// ComponentCount returns the number of declared components.
func (m *Manifest) ComponentCount() int {
	return len(m.AllComponents())
}

// HasTag reports whether the manifest carries tag.
func (m *Manifest) HasTag(tag string) bool {
	return contains(m.Tags, tag)
}

// IsCompatibleWith reports whether the manifest lists projectType.
func (m *Manifest) IsCompatibleWith(projectType string) bool {
	return contains(m.CompatibleWith, projectType)
}

// PostInstallMessage returns the post-install message or "".
func (m *Manifest) PostInstallMessage() string {
	if m.PostInstall == nil {
		return ""
	}
	return m.PostInstall.Message
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

// Structure is a loaded manifest together with where it was resolved from.
// Path may be a filesystem path, an URL or a VCS tree URL depending on the
// source.
type Structure struct {
	Manifest       *Manifest
	Path           string
	ComponentsPath string
}

// Name returns the manifest name.
func (s *Structure) Name() string {
	return s.Manifest.Name
}
