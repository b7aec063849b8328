package ansible

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkipsFromLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"shell: echo  # noqa no-changed-when", []string{"no-changed-when"}},
		{"shell: echo  # noqa: a b[c]", []string{"a", "b[c]"}},
		{"shell: echo  # noqa", nil},
		{"shell: echo  # a comment", nil},
		{"# noqa yaml[line-length]", []string{"yaml[line-length]"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, SkipsFromLine(tt.line))
		})
	}
}

func TestNoqaIgnoresBlockScalarBodies(t *testing.T) {
	src := `- name: Script
  shell: |
    echo "# noqa fake"
    true
  changed_when: false  # noqa real
`
	doc, err := Parse([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, map[int][]string{5: {"real"}}, doc.Noqa)
	assert.Equal(t, []string{"real"}, doc.AllSkips())
}

func TestNoqaIgnoresQuotedValues(t *testing.T) {
	src := `- name: Debug
  ansible.builtin.debug:
    msg: "see # noqa fake"
- name: Quoted with comment
  ansible.builtin.debug:
    msg: 'it''s # noqa fake'  # noqa: real
- name: Plain  # noqa name[casing]
`
	doc, err := Parse([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, map[int][]string{6: {"real"}, 7: {"name[casing]"}}, doc.Noqa)
}

func TestParseError(t *testing.T) {
	_, err := Parse([]byte("a: b\n  c: d\n"))
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Positive(t, perr.Line)
}

func TestParseMultipleDocuments(t *testing.T) {
	doc, err := Parse([]byte("---\na: 1\n---\nb: 2\n"))
	require.NoError(t, err)
	assert.Len(t, doc.Nodes, 2)
	assert.Equal(t, "1", ScalarString(MapGet(doc.Root(), "a")))
}

func TestEndLine(t *testing.T) {
	src := `key:
  nested: >
    folded
    text
other: 1
`
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, 5, doc.EndLine(doc.Root()))
	assert.Equal(t, 4, doc.EndLine(MapGet(doc.Root(), "key")))
}
