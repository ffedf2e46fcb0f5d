package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/zcc/pkg/packs/manifest"
	"github.com/arthur-debert/zcc/pkg/types"
	"github.com/stretchr/testify/require"
)

// PackBuilder declares a pack and writes it to a filesystem in the layout
// local sources read.
type PackBuilder struct {
	m        *manifest.Manifest
	contents map[string]string
	missing  map[string]bool
}

// NewPack starts a pack at version 1.0.0 with no components.
func NewPack(name string) *PackBuilder {
	return &PackBuilder{
		m: &manifest.Manifest{
			Name:        name,
			Version:     "1.0.0",
			Description: "Test pack " + name,
			Author:      "zcc tests",
		},
		contents: make(map[string]string),
		missing:  make(map[string]bool),
	}
}

// Version sets the manifest version.
func (b *PackBuilder) Version(v string) *PackBuilder {
	b.m.Version = v
	return b
}

// Author sets the manifest author.
func (b *PackBuilder) Author(a string) *PackBuilder {
	b.m.Author = a
	return b
}

// Category sets the manifest category.
func (b *PackBuilder) Category(c string) *PackBuilder {
	b.m.Category = c
	return b
}

// Tags sets the manifest tags.
func (b *PackBuilder) Tags(tags ...string) *PackBuilder {
	b.m.Tags = tags
	return b
}

// CompatibleWith sets the project types the pack declares support for.
func (b *PackBuilder) CompatibleWith(types ...string) *PackBuilder {
	b.m.CompatibleWith = types
	return b
}

// Deps sets the pack dependencies.
func (b *PackBuilder) Deps(deps ...string) *PackBuilder {
	b.m.Dependencies = deps
	return b
}

// Modes declares required modes.
func (b *PackBuilder) Modes(names ...string) *PackBuilder {
	return b.add(manifest.ComponentMode, names)
}

// Workflows declares required workflows.
func (b *PackBuilder) Workflows(names ...string) *PackBuilder {
	return b.add(manifest.ComponentWorkflow, names)
}

// Agents declares required agents.
func (b *PackBuilder) Agents(names ...string) *PackBuilder {
	return b.add(manifest.ComponentAgent, names)
}

// Hooks declares required hooks.
func (b *PackBuilder) Hooks(names ...string) *PackBuilder {
	return b.add(manifest.ComponentHook, names)
}

// Optional declares a non-required component.
func (b *PackBuilder) Optional(t manifest.ComponentType, name string) *PackBuilder {
	b.appendRef(t, manifest.ComponentRef{Name: name, Required: false})
	return b
}

// Content overrides the file content written for a component.
func (b *PackBuilder) Content(t manifest.ComponentType, name, content string) *PackBuilder {
	b.contents[string(t)+"/"+name] = content
	return b
}

// Missing declares a component in the manifest without writing its file.
func (b *PackBuilder) Missing(t manifest.ComponentType, name string) *PackBuilder {
	b.missing[string(t)+"/"+name] = true
	return b
}

// Configuration sets the configuration block.
func (b *PackBuilder) Configuration(c *manifest.Configuration) *PackBuilder {
	b.m.Configuration = c
	return b
}

// PostInstall sets the post-install message.
func (b *PackBuilder) PostInstall(msg string) *PackBuilder {
	b.m.PostInstall = &manifest.PostInstall{Message: msg}
	return b
}

func (b *PackBuilder) add(t manifest.ComponentType, names []string) *PackBuilder {
	for _, name := range names {
		b.appendRef(t, manifest.ComponentRef{Name: name, Required: true})
	}
	return b
}

func (b *PackBuilder) appendRef(t manifest.ComponentType, ref manifest.ComponentRef) {
	switch t {
	case manifest.ComponentMode:
		b.m.Components.Modes = append(b.m.Components.Modes, ref)
	case manifest.ComponentWorkflow:
		b.m.Components.Workflows = append(b.m.Components.Workflows, ref)
	case manifest.ComponentAgent:
		b.m.Components.Agents = append(b.m.Components.Agents, ref)
	case manifest.ComponentHook:
		b.m.Components.Hooks = append(b.m.Components.Hooks, ref)
	}
}

// Manifest returns the manifest built so far.
func (b *PackBuilder) Manifest() *manifest.Manifest {
	return b.m
}

// ComponentContent returns what WriteTo writes for a component.
func (b *PackBuilder) ComponentContent(t manifest.ComponentType, name string) string {
	if c, ok := b.contents[string(t)+"/"+name]; ok {
		return c
	}
	if t == manifest.ComponentHook {
		return fmt.Sprintf("{\n  \"name\": %q,\n  \"pack\": %q\n}\n", name, b.m.Name)
	}
	return fmt.Sprintf("---\nname: %s\ndescription: %s %s from %s\n---\n\n# %s\n", name, name, t, b.m.Name, name)
}

// WriteTo writes <root>/<name>/manifest.json and every component file.
func (b *PackBuilder) WriteTo(t *testing.T, fs types.FS, root string) string {
	t.Helper()

	packDir := filepath.Join(root, b.m.Name)
	data, err := manifest.Encode(b.m)
	require.NoError(t, err)
	WriteFile(t, fs, filepath.Join(packDir, manifest.FileName), string(data))

	for _, entry := range b.m.AllComponents() {
		key := string(entry.Type) + "/" + entry.Ref.Name
		if b.missing[key] {
			continue
		}
		path := filepath.Join(packDir, "components", entry.Type.Dir(), entry.Type.FileName(entry.Ref.Name))
		WriteFile(t, fs, path, b.ComponentContent(entry.Type, entry.Ref.Name))
	}
	return packDir
}
