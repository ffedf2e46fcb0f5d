package installer

import (
	"fmt"

	"github.com/arthur-debert/zcc/pkg/fileregistry"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
)

// Installed lists component names by type.
type Installed struct {
	Modes     []string `json:"modes"`
	Workflows []string `json:"workflows"`
	Agents    []string `json:"agents"`
	Hooks     []string `json:"hooks"`
}

func newInstalled() Installed {
	return Installed{Modes: []string{}, Workflows: []string{}, Agents: []string{}, Hooks: []string{}}
}

func (i *Installed) add(t manifest.ComponentType, name string) {
	switch t {
	case manifest.ComponentMode:
		i.Modes = append(i.Modes, name)
	case manifest.ComponentWorkflow:
		i.Workflows = append(i.Workflows, name)
	case manifest.ComponentAgent:
		i.Agents = append(i.Agents, name)
	case manifest.ComponentHook:
		i.Hooks = append(i.Hooks, name)
	}
}

// Total returns the number of listed components.
func (i Installed) Total() int {
	return len(i.Modes) + len(i.Workflows) + len(i.Agents) + len(i.Hooks)
}

// Result describes an install or uninstall. For uninstalls Installed lists
// what was removed and Preserved the modified files left on disk.
type Result struct {
	Pack      string                  `json:"pack"`
	Success   bool                    `json:"success"`
	Installed Installed               `json:"installed"`
	Errors    []string                `json:"errors"`
	Conflicts []fileregistry.Conflict `json:"conflicts,omitempty"`
	Preserved []string                `json:"preserved,omitempty"`
}

func newResult(pack string) *Result {
	return &Result{Pack: pack, Installed: newInstalled(), Errors: []string{}}
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) finish() *Result {
	r.Success = len(r.Errors) == 0
	return r
}

// FormatConflict renders a conflict as "path (owned by pack)".
func FormatConflict(c fileregistry.Conflict) string {
	return fmt.Sprintf("%s (owned by %s)", c.Path, c.ExistingPack)
}
