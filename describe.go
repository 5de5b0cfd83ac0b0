package params

import "fmt"

// FieldDescriptor describes one leaf of the tree: its dot path and the Go
// type of the stored value.
type FieldDescriptor struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// Describe flattens the tree into descriptors sorted by path. Sequences are
// reported as a single leaf typed after their first element; empty
// mappings are reported as leaves so they stay visible.
func (s *Store) Describe() []FieldDescriptor {
	descriptors := deriveFieldDescriptors(s.root(), "")
	if descriptors == nil {
		return []FieldDescriptor{}
	}
	return descriptors
}

// Paths returns the dot paths reported by Describe.
func (s *Store) Paths() []string {
	descriptors := s.Describe()
	paths := make([]string, len(descriptors))
	for i, descriptor := range descriptors {
		paths[i] = descriptor.Path
	}
	return paths
}

func deriveFieldDescriptors(value any, prefix string) []FieldDescriptor {
	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			if prefix == "" {
				return nil
			}
			return []FieldDescriptor{{Path: prefix, Type: "map[string]any"}}
		}
		var fields []FieldDescriptor
		for _, key := range sortedKeys(typed) {
			fields = append(fields, deriveFieldDescriptors(typed[key], joinPath(prefix, key))...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []FieldDescriptor{{Path: prefix, Type: "[]" + elementType}}
	default:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{Path: prefix, Type: typeName(typed)}}
	}
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}
