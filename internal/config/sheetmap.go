package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultSheetName is used when a SheetMap carries no default_sheet key
// and no path segment matches.
const defaultSheetName = "Sheet1"

// SheetMap resolves a leaf folder's path-parts tuple to the workbook
// sheet name it should read, per a nested, case-insensitive mapping
// loaded from YAML.
type SheetMap struct {
	root map[string]any
}

// LoadSheetMap reads a YAML file shaped as nested maps, where a node is
// either a further mapping or a leaf record with a "sheet" key. A
// top-level "default_sheet" key is the fallback when no path segment
// matches at any depth.
func LoadSheetMap(path string) (*SheetMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sheet map %s: %w", path, err)
	}

	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse sheet map %s: %w", path, err)
	}

	return &SheetMap{root: root}, nil
}

// NewSheetMap wraps an already-decoded mapping, useful for tests and for
// a caller that has no YAML file to load.
func NewSheetMap(root map[string]any) *SheetMap {
	return &SheetMap{root: root}
}

// Resolve walks pathParts against the mapping, case-insensitively,
// descending into a nested map at every matching segment. The "sheet"
// key of the deepest matched node that carries one wins; if no matched
// node carries one, the walk falls back to the top-level
// "default_sheet", or "Sheet1" if that is absent too.
func (m *SheetMap) Resolve(pathParts []string) string {
	if m == nil || m.root == nil {
		return defaultSheetName
	}

	node := m.root
	resolvedSheet := ""

	for _, part := range pathParts {
		next, ok := lookupCaseInsensitive(node, part)
		if !ok {
			break
		}
		var child map[string]any
		switch m := next.(type) {
		case map[string]any:
			child = m
		case map[any]any:
			// yaml.v3 decodes a mapping with a non-string key (such as
			// an unquoted 2024) this way.
			child = make(map[string]any, len(m))
			for k, v := range m {
				child[fmt.Sprint(k)] = v
			}
		}
		if child == nil {
			break
		}
		node = child
		if s, ok := sheetKey(node); ok {
			resolvedSheet = s
		}
	}

	if resolvedSheet != "" {
		return resolvedSheet
	}
	if s, ok := m.root["default_sheet"].(string); ok && s != "" {
		return s
	}
	return defaultSheetName
}

func sheetKey(node map[string]any) (string, bool) {
	for k, v := range node {
		if strings.EqualFold(k, "sheet") {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

func lookupCaseInsensitive(node map[string]any, part string) (any, bool) {
	for k, v := range node {
		if strings.EqualFold(k, part) {
			return v, true
		}
	}
	return nil, false
}
