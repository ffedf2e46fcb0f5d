package sources

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/zcc/pkg/types"
	"github.com/stretchr/testify/require"
)

func manifestJSON(name string, deps ...string) string {
	depJSON := "[]"
	if len(deps) > 0 {
		depJSON = `["` + deps[0]
		for _, d := range deps[1:] {
			depJSON += `","` + d
		}
		depJSON += `"]`
	}
	return fmt.Sprintf(`{
  "name": %q,
  "version": "1.0.0",
  "description": "test pack %s",
  "author": "tests",
  "dependencies": %s,
  "components": {
    "modes": [{"name": "engineer", "required": true}]
  }
}`, name, name, depJSON)
}

func writeFile(t *testing.T, fs types.FS, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, fs.WriteFile(path, []byte(content), 0644))
}
