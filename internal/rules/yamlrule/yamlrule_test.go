package yamlrule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
	"github.com/tinovyatkin/ansible-lint/internal/testutil"
)

const vars = "---\n" +
	"key: value  \n" +
	"enabled: yes\n" +
	"flag: true\n" +
	"message: this line is definitely longer than thirty\n" +
	"urls:\n" +
	"  - https://example.com/a/very/long/path/that/cannot/break\n" +
	"quoted: 'no'\n" +
	"list:\n" +
	"  - on\n" +
	"# a very long comment line exceeding the thirty char limit\n"

func TestRule_Match(t *testing.T) {
	t.Parallel()

	file := testutil.File(t, "group_vars/all.yml", lintable.KindVars, vars)
	got := testutil.RunRule(t, New(), file, rules.WithRuleOptions(map[string]map[string]any{
		ID: {"max_line_length": 30},
	}))

	require.Len(t, got, 4)
	assert.Equal(t, []int{2, 3, 5, 10}, testutil.Lines(got))
	assert.Equal(t, []string{"yaml[trailing-spaces]", "yaml[truthy]", "yaml[line-length]", "yaml[truthy]"}, testutil.Tags(got))

	assert.Equal(t, 11, got[0].Column())
	assert.Equal(t, "truthy value should be one of [false, true]", got[1].Message)
	assert.Equal(t, 10, got[1].Column())
	assert.Equal(t, "line too long (51 > 30 characters)", got[2].Message)
	assert.Equal(t, 31, got[2].Column())
}

func TestRule_DefaultsAndAllowedValues(t *testing.T) {
	t.Parallel()

	file := testutil.File(t, "group_vars/all.yml", lintable.KindVars, vars)

	got := testutil.RunRule(t, New(), file)
	assert.Equal(t, []int{2, 3, 10}, testutil.Lines(got))

	got = testutil.RunRule(t, New(), file, rules.WithRuleOptions(map[string]map[string]any{
		ID: {"truthy_allowed_values": []any{"true", "false", "yes", "on"}},
	}))
	assert.Equal(t, []string{"yaml[trailing-spaces]"}, testutil.Tags(got))
}

func TestRule_ValidateConfig(t *testing.T) {
	t.Parallel()

	r := New()
	require.NoError(t, r.ValidateConfig(map[string]any{"max_line_length": 120}))
	require.NoError(t, r.ValidateConfig(map[string]any{"truthy_allowed_values": []any{"yes", "no"}}))
	require.Error(t, r.ValidateConfig(map[string]any{"max_line_length": "long"}))
	require.Error(t, r.ValidateConfig(map[string]any{"max_line_length": 0}))
	require.Error(t, r.ValidateConfig(map[string]any{"truthy_allowed_values": []any{"maybe"}}))
	require.Error(t, r.ValidateConfig(map[string]any{"indentation": 2}))
}
