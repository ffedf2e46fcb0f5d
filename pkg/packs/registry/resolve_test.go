package registry

import (
	"context"
	"testing"

	"github.com/arthur-debert/zcc/pkg/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResolveDependencies(t *testing.T) {
	tests := []struct {
		name     string
		packs    []*testutil.PackBuilder
		root     string
		resolved []string
		missing  []string
		circular []string
	}{
		{
			name:     "no dependencies",
			packs:    []*testutil.PackBuilder{testutil.NewPack("solo")},
			root:     "solo",
			resolved: []string{},
			missing:  []string{},
			circular: []string{},
		},
		{
			name: "chain resolves dependency first",
			packs: []*testutil.PackBuilder{
				testutil.NewPack("a"),
				testutil.NewPack("b").Deps("a"),
				testutil.NewPack("c").Deps("b"),
			},
			root:     "c",
			resolved: []string{"a", "b"},
			missing:  []string{},
			circular: []string{},
		},
		{
			name: "diamond visits shared dependency once",
			packs: []*testutil.PackBuilder{
				testutil.NewPack("base"),
				testutil.NewPack("left").Deps("base"),
				testutil.NewPack("right").Deps("base"),
				testutil.NewPack("top").Deps("left", "right"),
			},
			root:     "top",
			resolved: []string{"base", "left", "right"},
			missing:  []string{},
			circular: []string{},
		},
		{
			name: "two cycle",
			packs: []*testutil.PackBuilder{
				testutil.NewPack("a").Deps("b"),
				testutil.NewPack("b").Deps("a"),
			},
			root:     "a",
			resolved: []string{"b"},
			missing:  []string{},
			circular: []string{"a -> b -> a"},
		},
		{
			name: "missing dependency is not descended",
			packs: []*testutil.PackBuilder{
				testutil.NewPack("app").Deps("ghost", "real"),
				testutil.NewPack("real"),
			},
			root:     "app",
			resolved: []string{"real"},
			missing:  []string{"ghost"},
			circular: []string{},
		},
		{
			name:     "missing root",
			root:     "nothing",
			resolved: []string{},
			missing:  []string{"nothing"},
			circular: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, reg := newRegistry(t, tt.packs...)

			res := reg.ResolveDependencies(context.Background(), tt.root)
			assert.Equal(t, tt.resolved, res.Resolved)
			assert.Equal(t, tt.missing, res.Missing)
			assert.Equal(t, tt.circular, res.Circular)
			assert.Equal(t, len(tt.missing) == 0 && len(tt.circular) == 0, res.OK())
		})
	}
}

func TestValidateDependencies(t *testing.T) {
	_, reg := newRegistry(t,
		testutil.NewPack("ok"),
		testutil.NewPack("app").Deps("ghost", "loop"),
		testutil.NewPack("loop").Deps("app"),
	)
	ctx := context.Background()

	v := reg.ValidateDependencies(ctx, "ok")
	assert.True(t, v.Valid)
	assert.Empty(t, v.Issues)

	v = reg.ValidateDependencies(ctx, "app")
	assert.False(t, v.Valid)
	assert.Equal(t, []string{
		"missing dependency: ghost",
		"circular dependency: app -> loop -> app",
	}, v.Issues)

	v = reg.ValidateDependencies(ctx, "nope")
	assert.False(t, v.Valid)
	assert.Equal(t, []string{`pack "nope" not found in any source`}, v.Issues)
}
