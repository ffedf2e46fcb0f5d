// Package manifest defines the starter pack manifest (manifest.json) and
// its validation.
package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FileName is the manifest file name at the root of every pack.
const FileName = "manifest.json"

const schemaURL = "manifest.schema.json"

//go:embed schema/manifest.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileErr     error
	compileOnce    sync.Once
)

// Schema returns the JSON Schema document manifests are validated against.
func Schema() []byte {
	return schemaBytes
}

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaBytes)); err != nil {
			compileErr = err
			return
		}
		compiledSchema, compileErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}

// Parse decodes and validates a manifest. Malformed JSON yields
// ErrInvalidJSON; a document that violates the schema or carries a
// non-semver version yields ErrInvalidManifest listing every violation.
func Parse(data []byte) (*Manifest, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidJSON, "manifest is not valid JSON")
	}

	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidManifest, "manifest does not match the expected structure")
	}

	if _, err := semver.NewVersion(m.Version); err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidManifest, "manifest version %q is not a semantic version", m.Version).
			WithDetail("pack", m.Name)
	}

	return &m, nil
}

// Validate checks an already decoded manifest against the schema.
func Validate(m *Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot encode manifest")
	}
	_, err = Parse(data)
	return err
}

// Encode renders a manifest as indented JSON.
func Encode(m *Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot encode manifest")
	}
	return append(data, '\n'), nil
}

func validateDocument(doc interface{}) error {
	s, err := schema()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "manifest schema does not compile")
	}

	err = s.Validate(doc)
	if err == nil {
		return nil
	}

	violations := []string{err.Error()}
	if ve, ok := err.(*jsonschema.ValidationError); ok {
		violations = leafViolations(ve)
	}

	return errors.Newf(errors.ErrInvalidManifest, "manifest failed validation: %s", strings.Join(violations, "; ")).
		WithDetail("violations", violations)
}

// leafViolations flattens a validation error tree into its leaf messages.
func leafViolations(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		location := ve.InstanceLocation
		if location == "" {
			location = "/"
		}
		return []string{fmt.Sprintf("%s: %s", location, ve.Message)}
	}

	var out []string
	for _, cause := range ve.Causes {
		out = append(out, leafViolations(cause)...)
	}
	sort.Strings(out)
	return out
}

// CompareVersions compares two manifest versions with semver precedence.
// Unparseable versions compare as strings.
func CompareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return va.Compare(vb)
}
