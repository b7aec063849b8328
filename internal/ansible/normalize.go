package ansible

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// RawParamsKey holds the free-form part of a task's arguments.
const RawParamsKey = "_raw_params"

var (
	// ErrNoAction is set on tasks without a module or action.
	ErrNoAction = errors.New("no module/action detected in task")

	// ErrConflictingActions is set on tasks naming more than one module.
	ErrConflictingActions = errors.New("conflicting action statements")
)

// normalize fills Action and Args from the task mapping.
func normalize(t *Task) {
	var candidates []string
	for _, key := range MapKeys(t.Node) {
		if !IsTaskKeyword(key) {
			candidates = append(candidates, key)
		}
	}

	switch {
	case len(candidates) == 0:
		t.Err = ErrNoAction
		t.Args = map[string]any{}
		return
	case len(candidates) > 1:
		t.Err = fmt.Errorf("%w: %s", ErrConflictingActions, strings.Join(candidates, ", "))
	}

	key := candidates[0]
	value := MapGet(t.Node, key)
	if key == "action" || key == "local_action" {
		t.LocalAction = key == "local_action"
		t.Action, t.Args = actionValue(value)
	} else {
		t.Action = key
		t.Args = moduleArgs(key, value)
	}

	if extra, ok := Decode(MapGet(t.Node, "args")).(map[string]any); ok {
		for k, v := range extra {
			if _, set := t.Args[k]; !set {
				t.Args[k] = v
			}
		}
	}

	if t.Action == "" && t.Err == nil {
		t.Err = ErrNoAction
	}
}

// actionValue reads the value of an action/local_action key, which is either
// "module k=v ..." or a mapping with a "module" key.
func actionValue(n *yaml.Node) (string, map[string]any) {
	n = resolve(n)
	if n == nil {
		return "", map[string]any{}
	}

	switch n.Kind {
	case yaml.ScalarNode:
		module, rest, _ := strings.Cut(strings.TrimSpace(n.Value), " ")
		return module, ParseArgs(module, rest)
	case yaml.MappingNode:
		args, _ := Decode(n).(map[string]any)
		if args == nil {
			args = map[string]any{}
		}
		module, _ := args["module"].(string)
		delete(args, "module")
		return module, args
	default:
		return "", map[string]any{}
	}
}

// moduleArgs reads the value stored under a module key.
func moduleArgs(module string, n *yaml.Node) map[string]any {
	n = resolve(n)
	if n == nil {
		return map[string]any{}
	}

	switch n.Kind {
	case yaml.ScalarNode:
		return ParseArgs(module, n.Value)
	case yaml.MappingNode:
		args, _ := Decode(n).(map[string]any)
		if args == nil {
			args = map[string]any{}
		}
		return args
	default:
		return map[string]any{RawParamsKey: Decode(n)}
	}
}

// ParseArgs parses "k=v" style module arguments. For free-form modules only
// the well-known options are extracted and everything else is kept as raw
// params.
func ParseArgs(module, s string) map[string]any {
	args := map[string]any{}
	freeForm := IsFreeForm(module)

	var raw []string
	for _, tok := range SplitArgs(s) {
		key, val, ok := splitKV(tok)
		if ok && (!freeForm || freeFormParams[key]) {
			args[key] = unquote(val)
			continue
		}
		raw = append(raw, tok)
	}
	if len(raw) > 0 {
		args[RawParamsKey] = strings.Join(raw, " ")
	}
	return args
}

// splitKV splits a token of the form key=value where key is an identifier.
func splitKV(tok string) (string, string, bool) {
	key, val, found := strings.Cut(tok, "=")
	if !found || key == "" {
		return "", "", false
	}
	for _, r := range key {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", "", false
		}
	}
	return key, val, true
}

// SplitArgs splits s on whitespace, keeping quoted strings and Jinja2
// expressions together.
func SplitArgs(s string) []string {
	var (
		tokens []string
		cur    strings.Builder
		quote  rune
		depth  int
	)

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == '\\' && i+1 < len(runes) {
				i++
				cur.WriteRune(runes[i])
				continue
			}
			if r == quote {
				quote = 0
			}
		case r == '{' && i+1 < len(runes) && (runes[i+1] == '{' || runes[i+1] == '%' || runes[i+1] == '#'):
			depth++
			cur.WriteRune(r)
			cur.WriteRune(runes[i+1])
			i++
		case depth > 0 && (r == '}' || r == '%' || r == '#') && i+1 < len(runes) && runes[i+1] == '}':
			depth--
			cur.WriteRune(r)
			cur.WriteRune(runes[i+1])
			i++
		case depth == 0 && (r == '"' || r == '\''):
			quote = r
			cur.WriteRune(r)
		case depth == 0 && unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
