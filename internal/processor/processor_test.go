package processor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinovyatkin/ansible-lint/internal/ignore"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

type stubRule struct{ md rules.RuleMetadata }

func (r stubRule) Metadata() rules.RuleMetadata { return r.md }

func newMatch(file string, line int, id, tag string, ruleTags ...string) rules.MatchError {
	r := stubRule{md: rules.RuleMetadata{ID: id, ShortDescription: id, Tags: ruleTags}}
	m := rules.NewMatch(r, rules.NewLineLocation(file, line), "")
	if tag != "" {
		m = m.WithTag(tag)
	}
	return m
}

func TestDefaultChain(t *testing.T) {
	t.Parallel()

	ign, err := ignore.Parse(strings.NewReader("roles/*/tasks/*.yml no-changed-when\nold.yml all skip\n"))
	require.NoError(t, err)

	ctx := &Context{
		SkipList: []string{"yaml[line-length]", "fqcn"},
		WarnList: DefaultWarnList,
		Ignore:   ign,
	}
	in := []rules.MatchError{
		newMatch("site.yml", 9, "name", "name[casing]"),
		newMatch("site.yml", 2, "yaml", "yaml[line-length]"),
		newMatch("site.yml", 2, "yaml", "yaml[truthy]"),
		newMatch("site.yml", 4, "fqcn", "fqcn[action-core]"),
		newMatch("site.yml", 1, "load-failure", "load-failure[yaml]", "core", rules.TagUnskippable),
		newMatch("roles/web/tasks/main.yml", 3, "no-changed-when", ""),
		newMatch("roles/web/tasks/main.yml", 3, "no-changed-when", ""),
		newMatch("old.yml", 1, "name", "name[play]"),
		newMatch("site.yml", 5, "galaxy", "galaxy[version]", "experimental"),
	}

	out := Default().Process(in, ctx)

	var got []string
	for _, m := range out {
		got = append(got, m.File()+":"+m.Tag+":"+string(m.Level))
	}
	assert.Equal(t, []string{
		"roles/web/tasks/main.yml:no-changed-when:error",
		"site.yml:load-failure[yaml]:error",
		"site.yml:yaml[truthy]:error",
		"site.yml:galaxy[version]:warning",
		"site.yml:name[casing]:error",
	}, got)
	assert.True(t, out[0].Ignored)
	assert.False(t, out[2].Ignored)
}

func TestSkipListKeepsUnskippable(t *testing.T) {
	t.Parallel()

	ctx := &Context{SkipList: []string{"load-failure", "syntax-check[specific]"}}
	in := []rules.MatchError{
		newMatch("a.yml", 1, "load-failure", "", rules.TagUnskippable),
		newMatch("a.yml", 1, "syntax-check", "syntax-check[specific]", rules.TagUnskippable),
	}
	assert.Len(t, NewSkipListFilter().Process(in, ctx), 2)
}

func TestRelPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := &Context{ProjectDir: dir}
	assert.Equal(t, "roles/x/tasks/main.yml", ctx.RelPath(dir+"/roles/x/tasks/main.yml"))
	assert.Equal(t, "/elsewhere/site.yml", (&Context{ProjectDir: dir}).RelPath("/elsewhere/site.yml"))
	assert.Equal(t, "site.yml", (&Context{}).RelPath("site.yml"))
}

func TestProcessorsDoNotModifyInput(t *testing.T) {
	t.Parallel()

	in := []rules.MatchError{
		newMatch("b.yml", 1, "x", ""),
		newMatch("a.yml", 1, "x", "", "experimental"),
	}
	ctx := &Context{WarnList: DefaultWarnList}
	_ = Default().Process(in, ctx)

	assert.Equal(t, "b.yml", in[0].File())
	assert.Equal(t, rules.LevelError, in[1].Level)
}
