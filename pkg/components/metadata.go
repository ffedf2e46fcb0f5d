package components

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Metadata is the descriptive data of a component: its frontmatter, the
// document itself for JSON components, or basic file facts otherwise.
type Metadata map[string]interface{}

// Frontmatter delimiters.
const (
	yamlFence = "---"
	tomlFence = "+++"
)

// ParseMetadata extracts metadata from a component file. YAML ("---") and
// TOML ("+++") frontmatter and JSON object documents are parsed; anything
// else, including unparsable frontmatter, yields size, modTime and lines.
func ParseMetadata(path string, data []byte, info fs.FileInfo) Metadata {
	if filepath.Ext(path) == ".json" {
		var doc map[string]interface{}
		if err := json.Unmarshal(data, &doc); err == nil {
			return doc
		}
		return fallbackMetadata(data, info)
	}

	if block, ok := frontmatter(data, yamlFence); ok {
		meta := Metadata{}
		if err := yaml.Unmarshal(block, &meta); err == nil {
			return meta
		}
	} else if block, ok := frontmatter(data, tomlFence); ok {
		meta := Metadata{}
		if err := toml.Unmarshal(block, &meta); err == nil {
			return meta
		}
	}
	return fallbackMetadata(data, info)
}

// frontmatter returns the text between an opening fence on the first line
// and the next line consisting of the same fence.
func frontmatter(data []byte, fence string) ([]byte, bool) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	open := []byte(fence + "\n")
	if !bytes.HasPrefix(data, open) {
		return nil, false
	}
	rest := data[len(open):]
	if bytes.HasPrefix(rest, []byte(fence)) {
		return []byte{}, true
	}
	end := bytes.Index(rest, []byte("\n"+fence))
	if end < 0 {
		return nil, false
	}
	after := rest[end+1+len(fence):]
	if len(after) > 0 && after[0] != '\n' {
		return nil, false
	}
	return rest[:end], true
}

func fallbackMetadata(data []byte, info fs.FileInfo) Metadata {
	lines := bytes.Count(data, []byte("\n"))
	if len(data) > 0 && data[len(data)-1] != '\n' {
		lines++
	}
	meta := Metadata{
		"size":  int64(len(data)),
		"lines": lines,
	}
	if info != nil {
		meta["size"] = info.Size()
		meta["modTime"] = info.ModTime().UTC().Format(time.RFC3339)
	}
	return meta
}
