package registry

import (
	"context"
	"fmt"
	"strings"
)

// Resolution is the outcome of resolving a pack's transitive dependencies.
// Resolved is dependency-first and excludes the pack itself. Circular holds
// cycle paths such as "a -> b -> a".
type Resolution struct {
	Resolved []string
	Missing  []string
	Circular []string
}

// OK reports whether installation may proceed.
func (r Resolution) OK() bool {
	return len(r.Missing) == 0 && len(r.Circular) == 0
}

// ResolveDependencies walks name's dependencies depth first. A dependency
// met again while still on the traversal stack is a cycle; one no source can
// load is missing and is not descended into. A root that cannot be loaded is
// reported as missing.
func (r *Registry) ResolveDependencies(ctx context.Context, name string) Resolution {
	res := Resolution{Resolved: []string{}, Missing: []string{}, Circular: []string{}}

	root, err := r.LoadPack(ctx, name, "")
	if err != nil {
		res.Missing = append(res.Missing, name)
		return res
	}

	done := map[string]bool{}
	onStack := map[string]bool{name: true}
	stack := []string{name}
	reported := map[string]bool{}

	var visit func(dep string)
	visit = func(dep string) {
		if done[dep] {
			return
		}
		if onStack[dep] {
			cycle := cyclePath(stack, dep)
			if !reported[cycle] {
				reported[cycle] = true
				res.Circular = append(res.Circular, cycle)
			}
			return
		}

		loaded, err := r.LoadPack(ctx, dep, "")
		if err != nil {
			if !reported["missing:"+dep] {
				reported["missing:"+dep] = true
				res.Missing = append(res.Missing, dep)
			}
			return
		}

		onStack[dep] = true
		stack = append(stack, dep)
		for _, next := range loaded.Structure.Manifest.Dependencies {
			visit(next)
		}
		stack = stack[:len(stack)-1]
		delete(onStack, dep)

		done[dep] = true
		res.Resolved = append(res.Resolved, dep)
	}

	for _, dep := range root.Structure.Manifest.Dependencies {
		visit(dep)
	}
	return res
}

func cyclePath(stack []string, repeated string) string {
	start := 0
	for i, name := range stack {
		if name == repeated {
			start = i
			break
		}
	}
	path := append(append([]string{}, stack[start:]...), repeated)
	return strings.Join(path, " -> ")
}

// Validation is the human-readable form of a Resolution.
type Validation struct {
	Valid  bool
	Issues []string
}

// ValidateDependencies resolves name and describes every problem found.
func (r *Registry) ValidateDependencies(ctx context.Context, name string) Validation {
	res := r.ResolveDependencies(ctx, name)

	issues := []string{}
	for _, missing := range res.Missing {
		if missing == name {
			issues = append(issues, fmt.Sprintf("pack %q not found in any source", name))
			continue
		}
		issues = append(issues, fmt.Sprintf("missing dependency: %s", missing))
	}
	for _, cycle := range res.Circular {
		issues = append(issues, fmt.Sprintf("circular dependency: %s", cycle))
	}
	return Validation{Valid: len(issues) == 0, Issues: issues}
}
