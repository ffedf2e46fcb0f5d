package manifest

import (
	"testing"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validManifest = `{
  "name": "essentials",
  "version": "1.2.0",
  "description": "Core modes and workflows",
  "author": "zcc",
  "category": "general",
  "tags": ["core", "starter"],
  "dependencies": ["base"],
  "compatibleWith": ["node", "go"],
  "components": {
    "modes": [
      {"name": "architect", "required": true},
      {"name": "engineer", "required": false, "description": "Builds things"}
    ],
    "workflows": [{"name": "review", "required": true}],
    "hooks": [{"name": "pre-commit", "required": false}]
  },
  "configuration": {
    "defaultMode": "architect",
    "customCommands": {"review": "Run the review workflow"},
    "projectSettings": {"autoFormat": true}
  },
  "postInstall": {"message": "Welcome to **essentials**"}
}`

func TestParseValidManifest(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	require.NoError(t, err)

	assert.Equal(t, "essentials", m.Name)
	assert.Equal(t, "1.2.0", m.Version)
	assert.Equal(t, []string{"base"}, m.Dependencies)
	assert.True(t, m.HasTag("core"))
	assert.False(t, m.HasTag("missing"))
	assert.True(t, m.IsCompatibleWith("go"))
	assert.Equal(t, "architect", m.Configuration.DefaultMode)
	assert.Equal(t, true, m.Configuration.ProjectSettings["autoFormat"])
	assert.Equal(t, "Welcome to **essentials**", m.PostInstallMessage())
	assert.Equal(t, 4, m.ComponentCount())
}

func TestAllComponentsOrder(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	require.NoError(t, err)

	var got []string
	for _, entry := range m.AllComponents() {
		got = append(got, entry.Type.String()+"/"+entry.Ref.Name)
	}
	assert.Equal(t, []string{"mode/architect", "mode/engineer", "workflow/review", "hook/pre-commit"}, got)
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"name": "broken",`))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidJSON))
}

func TestParseSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing_required_fields", `{"name": "x"}`},
		{"bad_name", `{"name": "../etc", "version": "1.0.0", "description": "", "author": "a", "components": {}}`},
		{"component_without_name", `{"name": "x", "version": "1.0.0", "description": "", "author": "a", "components": {"modes": [{"required": true}]}}`},
		{"unknown_component_bucket", `{"name": "x", "version": "1.0.0", "description": "", "author": "a", "components": {"scripts": []}}`},
		{"wrong_type", `{"name": "x", "version": "1.0.0", "description": "", "author": "a", "components": {}, "tags": "core"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidManifest), "got %v", err)
			assert.NotEmpty(t, errors.GetErrorDetails(err)["violations"])
		})
	}
}

func TestParseRejectsNonSemverVersion(t *testing.T) {
	_, err := Parse([]byte(`{"name": "x", "version": "latest", "description": "", "author": "a", "components": {}}`))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidManifest))
}

func TestValidateAndEncodeRoundTrip(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	require.NoError(t, err)
	require.NoError(t, Validate(m))

	data, err := Encode(m)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, m, again)
}

func TestComponentTypes(t *testing.T) {
	assert.Equal(t, "modes", ComponentMode.Dir())
	assert.Equal(t, "hooks", ComponentHook.Dir())
	assert.Equal(t, ".md", ComponentAgent.Ext())
	assert.Equal(t, ".json", ComponentHook.Ext())
	assert.Equal(t, "review.md", ComponentWorkflow.FileName("review"))

	ct, err := ParseComponentType("Workflows")
	require.NoError(t, err)
	assert.Equal(t, ComponentWorkflow, ct)

	_, err = ParseComponentType("script")
	assert.Error(t, err)
}

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, -1, CompareVersions("1.2.0", "1.10.0"))
	assert.Equal(t, 0, CompareVersions("1.0", "1.0.0"))
	assert.Equal(t, 1, CompareVersions("2.0.0", "1.9.9"))
}
