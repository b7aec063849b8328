package ansible

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// resolve follows alias nodes to their anchors.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// MapGet returns the value node for key in a mapping node, or nil.
func MapGet(n *yaml.Node, key string) *yaml.Node {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return resolve(n.Content[i+1])
		}
	}
	return nil
}

// MapKey returns the key node for key in a mapping node, or nil.
func MapKey(n *yaml.Node, key string) *yaml.Node {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i]
		}
	}
	return nil
}

// MapKeys returns the keys of a mapping node in document order.
func MapKeys(n *yaml.Node) []string {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keys = append(keys, n.Content[i].Value)
	}
	return keys
}

// ScalarString returns the value of a scalar node, or "" for anything else.
func ScalarString(n *yaml.Node) string {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

// StringList reads a scalar or a sequence of scalars. Comma-separated
// scalars are split, matching how Ansible reads tags.
func StringList(n *yaml.Node) []string {
	n = resolve(n)
	if n == nil {
		return nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		var out []string
		for part := range strings.SplitSeq(n.Value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if s := ScalarString(c); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Decode converts a node to plain Go values. Decoding failures yield nil.
func Decode(n *yaml.Node) any {
	n = resolve(n)
	if n == nil {
		return nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil
	}
	return v
}

// IsTruthy reports whether a scalar holds a YAML/Ansible true value.
func IsTruthy(n *yaml.Node) bool {
	switch strings.ToLower(ScalarString(n)) {
	case "true", "yes", "on", "1", "y":
		return true
	default:
		return false
	}
}
