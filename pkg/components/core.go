package components

import (
	"sort"
	"strings"

	"github.com/arthur-debert/zcc/pkg/paths"
	"github.com/arthur-debert/zcc/pkg/types"
	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
)

// Match scores.
const (
	ScoreExact     = 100
	ScorePrefix    = 80
	ScoreSubstring = 60
	ScoreFuzzyMax  = 50
	ScoreFuzzyMin  = 1
)

// MaxSuggestions caps GenerateSuggestions.
const MaxSuggestions = 5

// Core merges the project, global and builtin scopes.
type Core struct {
	scopes []*Scope
}

// NewCore composes scopes given highest precedence first.
func NewCore(scopes ...*Scope) *Core {
	return &Core{scopes: scopes}
}

// NewCoreForPaths builds the standard three scopes: the project state
// directory, the global directory and the templates directory.
func NewCoreForPaths(fs types.FS, p *paths.Paths) *Core {
	return NewCore(
		NewScope(fs, ScopeProject, p.StateDir()),
		NewScope(fs, ScopeGlobal, p.GlobalDir()),
		NewScope(fs, ScopeBuiltin, p.TemplatesDir()),
	)
}

// Scopes returns the scopes, highest precedence first.
func (c *Core) Scopes() []*Scope {
	return c.scopes
}

// Components returns the effective components of type t: one per name,
// taken from the highest precedence scope that has it. Sorted by name.
func (c *Core) Components(t Type) []*Info {
	seen := make(map[string]bool)
	result := []*Info{}
	for _, scope := range c.scopes {
		for _, info := range scope.Components(t) {
			if seen[info.Name] {
				continue
			}
			seen[info.Name] = true
			result = append(result, info)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// AllComponents returns the effective components of every type.
func (c *Core) AllComponents() []*Info {
	var all []*Info
	for _, t := range AllTypes() {
		all = append(all, c.Components(t)...)
	}
	return all
}

// Component resolves name by precedence.
func (c *Core) Component(t Type, name string) (*Info, bool) {
	for _, scope := range c.scopes {
		if info, ok := scope.Component(t, name); ok {
			return info, true
		}
	}
	return nil, false
}

// ClearCache clears every scope.
func (c *Core) ClearCache() {
	for _, scope := range c.scopes {
		scope.ClearCache()
	}
}

// candidates returns effective components of t, or of every type when t
// is empty.
func (c *Core) candidates(t Type) []*Info {
	if t == "" {
		return c.AllComponents()
	}
	return c.Components(t)
}

// FindOptions limit FindComponents. Zero MaxResults means no limit.
type FindOptions struct {
	MaxResults int
	MinScore   int
}

// Match is a scored component.
type Match struct {
	*Info
	Score int
}

// FindComponents ranks components of type t (all types when empty) against
// query: exact name 100, prefix 80, substring 60, then fuzzy matches scaled
// into 1..50. Comparison is case-insensitive. An empty query matches every
// component with score 0.
func (c *Core) FindComponents(query string, t Type, opts FindOptions) []Match {
	infos := c.candidates(t)
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(query))

	matches := []Match{}
	var rest []*Info
	for _, info := range infos {
		name := fold.String(info.Name)
		switch {
		case q == "":
			matches = append(matches, Match{Info: info})
		case name == q:
			matches = append(matches, Match{Info: info, Score: ScoreExact})
		case strings.HasPrefix(name, q):
			matches = append(matches, Match{Info: info, Score: ScorePrefix})
		case strings.Contains(name, q):
			matches = append(matches, Match{Info: info, Score: ScoreSubstring})
		default:
			rest = append(rest, info)
		}
	}
	if q != "" {
		matches = append(matches, fuzzyMatches(q, rest)...)
	}

	filtered := matches[:0]
	for _, m := range matches {
		if m.Score >= opts.MinScore {
			filtered = append(filtered, m)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Type < b.Type
	})
	if opts.MaxResults > 0 && len(filtered) > opts.MaxResults {
		filtered = filtered[:opts.MaxResults]
	}
	return filtered
}

// fuzzyMatches scores infos whose names contain q's characters in order,
// scaling raw scores linearly into ScoreFuzzyMin..ScoreFuzzyMax.
func fuzzyMatches(q string, infos []*Info) []Match {
	if len(infos) == 0 {
		return nil
	}
	fold := cases.Fold()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = fold.String(info.Name)
	}

	found := fuzzy.Find(q, names)
	if len(found) == 0 {
		return nil
	}
	lo, hi := found[0].Score, found[0].Score
	for _, f := range found {
		if f.Score < lo {
			lo = f.Score
		}
		if f.Score > hi {
			hi = f.Score
		}
	}

	matches := make([]Match, 0, len(found))
	for _, f := range found {
		score := ScoreFuzzyMax
		if hi > lo {
			score = ScoreFuzzyMin + (f.Score-lo)*(ScoreFuzzyMax-ScoreFuzzyMin)/(hi-lo)
		}
		matches = append(matches, Match{Info: infos[f.Index], Score: score})
	}
	return matches
}

// Conflict is a component name defined in more than one scope.
type Conflict struct {
	Type Type
	Name string
	// Scopes lists where the name is defined, highest precedence first.
	// The first entry is the one in effect.
	Scopes []string
}

// Winner returns the scope whose definition is in effect.
func (c Conflict) Winner() string {
	return c.Scopes[0]
}

// ComponentConflicts lists components shadowed by a higher scope, sorted
// by type then name.
func (c *Core) ComponentConflicts() []Conflict {
	var conflicts []Conflict
	for _, t := range AllTypes() {
		defined := make(map[string][]string)
		var order []string
		for _, scope := range c.scopes {
			for _, info := range scope.Components(t) {
				if _, ok := defined[info.Name]; !ok {
					order = append(order, info.Name)
				}
				defined[info.Name] = append(defined[info.Name], scope.Name())
			}
		}
		sort.Strings(order)
		for _, name := range order {
			if len(defined[name]) > 1 {
				conflicts = append(conflicts, Conflict{Type: t, Name: name, Scopes: defined[name]})
			}
		}
	}
	return conflicts
}

// GenerateSuggestions proposes component names of type t (all types when
// empty) close to query, for "did you mean" hints.
func (c *Core) GenerateSuggestions(query string, t Type) []string {
	var names []string
	seen := make(map[string]bool)
	for _, info := range c.candidates(t) {
		if !seen[info.Name] {
			seen[info.Name] = true
			names = append(names, info.Name)
		}
	}
	return Suggest(query, names)
}

// Suggest ranks names close to query. Names containing the query's letters
// in order come first, then near misses by edit distance. At most
// MaxSuggestions are returned.
func Suggest(query string, names []string) []string {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(query))
	if q == "" {
		return []string{}
	}

	type ranked struct {
		name     string
		distance int
	}
	byDistance := func(list []ranked) {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].distance != list[j].distance {
				return list[i].distance < list[j].distance
			}
			return list[i].name < list[j].name
		})
	}

	var inOrder, nearMisses []ranked
	picked := make(map[string]bool)
	for _, r := range fuzzysearch.RankFindFold(q, names) {
		inOrder = append(inOrder, ranked{r.Target, r.Distance})
		picked[r.Target] = true
	}

	limit := len(q)/3 + 1
	if limit < 2 {
		limit = 2
	}
	for _, name := range names {
		if picked[name] {
			continue
		}
		if d := fuzzysearch.LevenshteinDistance(q, fold.String(name)); d <= limit {
			nearMisses = append(nearMisses, ranked{name, d})
		}
	}
	byDistance(inOrder)
	byDistance(nearMisses)

	suggestions := []string{}
	for _, cand := range append(inOrder, nearMisses...) {
		if len(suggestions) == MaxSuggestions {
			break
		}
		suggestions = append(suggestions, cand.name)
	}
	return suggestions
}
