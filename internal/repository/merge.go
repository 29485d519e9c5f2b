package repository

import (
	"strings"

	"github.com/joseph-ayodele/docintel/internal/entity"
)

// Patch is a field-level update keyed by dotted path ("w9Info.legalName").
// A nil value deletes the field.
type Patch map[string]any

// ApplyPatch merges patch into doc in place and returns it. Paths not named in the patch are untouched.
func ApplyPatch(doc entity.Document, patch Patch) entity.Document {
	if doc == nil {
		doc = entity.Document{}
	}
	for path, value := range patch {
		setPath(doc, strings.Split(path, "."), value)
	}
	return doc
}

func setPath(m map[string]any, parts []string, value any) {
	key := parts[0]
	if len(parts) == 1 {
		if value == nil {
			delete(m, key)
			return
		}
		m[key] = value
		return
	}

	child, ok := asMap(m[key])
	if !ok {
		if value == nil {
			return
		}
		child = map[string]any{}
	}
	setPath(child, parts[1:], value)
	m[key] = child
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case entity.Document:
		return map[string]any(t), true
	}
	return nil, false
}
