package riskyshellpipe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/testutil"
)

func TestRule_MatchTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		task string
		want bool
	}{
		{"pipe without pipefail", "shell: cat /etc/hosts | grep localhost", true},
		{"pipe with pipefail", "shell: set -o pipefail && cat /etc/hosts | grep localhost", false},
		{"pipe with combined flags", "shell: set -eo pipefail; ls | wc -l", false},
		{"logical or is not a pipe", "shell: test -f /tmp/x || touch /tmp/x", false},
		{"quoted pipe", "shell: echo 'a | b'", false},
		{"ignore errors", "shell: ls | wc -l\n  ignore_errors: true", false},
		{"command module", "command: ls | wc -l", false},
		{"block scalar", "shell: |\n    ls \\\n      | wc -l", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			file := testutil.File(t, "tasks/main.yml", lintable.KindTasks, "---\n- name: Run\n  "+tt.task+"\n")
			got := testutil.RunRule(t, New(), file)
			if tt.want {
				assert.Equal(t, []string{ID}, testutil.Tags(got))
			} else {
				assert.Empty(t, got)
			}
		})
	}
}
