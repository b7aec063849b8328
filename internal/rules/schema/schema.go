// Package schema implements the schema rule, which validates structured
// Ansible files against embedded JSON schemas.
package schema

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/tinovyatkin/ansible-lint/internal/ansible"
	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
	"github.com/tinovyatkin/ansible-lint/internal/rules/configutil"
)

// ID is the rule identifier.
const ID = "schema"

//go:embed schemas/*.json
var schemaFS embed.FS

// schemaByKind maps a file kind to the embedded schema validating it.
var schemaByKind = map[lintable.Kind]string{
	lintable.KindMeta:         "meta",
	lintable.KindGalaxy:       "galaxy",
	lintable.KindRequirements: "requirements",
	lintable.KindConfig:       "ansible-lint-config",
	lintable.KindRoleArgSpec:  "arg_specs",
}

var compiled = sync.OnceValue(func() map[string]*jsonschema.Schema {
	c := jsonschema.NewCompiler()
	out := make(map[string]*jsonschema.Schema, len(schemaByKind))
	for _, name := range schemaByKind {
		data, err := schemaFS.ReadFile("schemas/" + name + ".json")
		if err != nil {
			panic(err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			panic(fmt.Errorf("schema %s: %w", name, err))
		}
		if err := c.AddResource(name+".json", doc); err != nil {
			panic(fmt.Errorf("schema %s: %w", name, err))
		}
	}
	for _, name := range schemaByKind {
		sch, err := c.Compile(name + ".json")
		if err != nil {
			panic(fmt.Errorf("schema %s: %w", name, err))
		}
		out[name] = sch
	}
	return out
})

// Rule implements schema.
type Rule struct{}

// New creates the rule.
func New() *Rule {
	return &Rule{}
}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		ID:               ID,
		ShortDescription: "Perform JSON Schema Validation for known lintable kinds.",
		Description:      "Returned errors will not include exact line numbers, but they will mention the schema name being used as a tag, like ``schema[playbook]``, ``schema[tasks]``.",
		Severity:         rules.SeverityVeryHigh,
		Tags:             []string{"core"},
		Link:             rules.DocURL(ID),
		Version:          "v6.1.0",
	}
}

// MatchYAML validates the file when its kind has a schema.
func (r *Rule) MatchYAML(_ *rules.RunContext, file *lintable.Lintable) []rules.MatchError {
	name, ok := schemaByKind[file.Kind()]
	if !ok {
		return nil
	}
	doc, err := file.Document()
	if err != nil {
		return nil
	}
	root := doc.Root()
	if root == nil {
		return nil
	}

	inst, err := configutil.JSONValue(ansible.Decode(root))
	if err != nil {
		return nil
	}
	verr := compiled()[name].Validate(inst)
	if verr == nil {
		return nil
	}

	tag := ID + "[" + name + "]"
	ve, ok := verr.(*jsonschema.ValidationError)
	if !ok {
		return []rules.MatchError{rules.NewMatch(r, rules.NewFileLocation(file.Path), verr.Error()).WithTag(tag)}
	}

	var out []rules.MatchError
	for _, leaf := range leaves(ve) {
		n := nodeAt(root, leaf.InstanceLocation)
		msg := fmt.Sprintf("%s %s", jsonPath(leaf.InstanceLocation), leaf.BasicOutput().Error.String())
		out = append(out, rules.NewMatch(r, rules.NewNodeLocation(file.Path, n), msg).
			WithTag(tag).
			WithDetails("Validated against "+name+".json"))
	}
	return out
}

// leaves returns the innermost validation errors, which carry the concrete
// reason for a failure.
func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

// jsonPath renders an instance location in the "$.a.b[0]" form.
func jsonPath(tokens []string) string {
	var sb strings.Builder
	sb.WriteString("$")
	for _, t := range tokens {
		if _, err := strconv.Atoi(t); err == nil {
			sb.WriteString("[" + t + "]")
			continue
		}
		sb.WriteString("." + t)
	}
	return sb.String()
}

// nodeAt follows an instance location through a YAML tree and returns the
// deepest node reached.
func nodeAt(root *yaml.Node, tokens []string) *yaml.Node {
	n := root
	for _, t := range tokens {
		var next *yaml.Node
		switch n.Kind {
		case yaml.MappingNode:
			next = ansible.MapGet(n, t)
		case yaml.SequenceNode:
			if i, err := strconv.Atoi(t); err == nil && i < len(n.Content) {
				next = n.Content[i]
			}
		}
		if next == nil {
			return n
		}
		n = next
	}
	return n
}

func init() {
	rules.Register(New())
}
