package name

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
	"github.com/tinovyatkin/ansible-lint/internal/testutil"
)

const playbook = `---
- hosts: all
  tasks:
    - ansible.builtin.debug:
        msg: unnamed
    - name: lowercase task
      ansible.builtin.debug:
        msg: hi
    - name: "{{ greeting }} everyone"
      ansible.builtin.debug:
        msg: hi
    - name: Trailing template {{ item }}
      ansible.builtin.debug:
        msg: hi
      loop: [1, 2]
- name: configure web  # noqa: name[casing]
  hosts: web
  tasks:
    - name: Good task
      ansible.builtin.debug:
        msg: ok
- ansible.builtin.import_playbook: other.yml
`

func TestRule_Playbook(t *testing.T) {
	t.Parallel()

	file := testutil.File(t, "site.yml", lintable.KindPlaybook, playbook)
	got := testutil.RunRule(t, New(), file)

	assert.Equal(t, []int{2, 4, 6, 9}, testutil.Lines(got))
	assert.Equal(t, []string{
		"name[play]",
		"name[missing]",
		"name[casing]",
		"name[template]",
	}, testutil.Tags(got))
}

func TestRule_TasksFile(t *testing.T) {
	t.Parallel()

	file := testutil.File(t, "roles/web/tasks/main.yml", lintable.KindTasks, `---
- name: Install
  ansible.builtin.package:
    name: nginx
- ansible.builtin.service:  # noqa: name[missing]
    name: nginx
`)
	assert.Empty(t, testutil.RunRule(t, New(), file))
}

func TestCheckName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want []string
	}{
		{"Install packages", nil},
		{"install packages", []string{"name[casing]"}},
		{"1st step", nil},
		{"Copy {{ file }}", nil},
		{"{{ prefix }} copy", []string{"name[template]"}},
		{"Ünicode start", nil},
	}
	r := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var tags []string
			for _, m := range r.checkName(tt.name, rules.NewLineLocation("site.yml", 1)) {
				tags = append(tags, m.Tag)
			}
			assert.Equal(t, tt.want, tags)
		})
	}
}
