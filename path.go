package params

import (
	"sort"
	"strconv"
	"strings"
)

// PathSeparator splits a key into nested segments.
const PathSeparator = "."

func splitPath(key string) []string {
	return strings.Split(key, PathSeparator)
}

// lookup descends through mappings, and sequences by decimal index, without
// creating anything.
func lookup(root map[string]any, segments []string) (any, bool) {
	var node any = root
	for _, segment := range segments {
		switch current := node.(type) {
		case map[string]any:
			next, ok := current[segment]
			if !ok {
				return nil, false
			}
			node = next
		case []any:
			index, ok := parseIndex(segment, len(current))
			if !ok {
				return nil, false
			}
			node = current[index]
		default:
			return nil, false
		}
	}
	return node, true
}

// walk returns the mapping holding the final segment, replacing every
// missing or non-mapping intermediate value with a fresh mapping.
func walk(root map[string]any, segments []string) (map[string]any, string) {
	node := root
	last := len(segments) - 1
	for _, segment := range segments[:last] {
		child, ok := node[segment].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[segment] = child
		}
		node = child
	}
	return node, segments[last]
}

func parseIndex(segment string, length int) (int, bool) {
	index, err := strconv.Atoi(segment)
	if err != nil || index < 0 || index >= length {
		return 0, false
	}
	if strconv.Itoa(index) != segment {
		return 0, false
	}
	return index, true
}

// nextIndexKey picks the key an append uses on a mapping: one past the
// largest non-negative integer key, or "0".
func nextIndexKey(node map[string]any) string {
	next := 0
	for key := range node {
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 || strconv.Itoa(index) != key {
			continue
		}
		if index >= next {
			next = index + 1
		}
	}
	return strconv.Itoa(next)
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + PathSeparator + segment
}
