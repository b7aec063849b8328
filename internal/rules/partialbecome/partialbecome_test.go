package partialbecome

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/testutil"
)

func TestRule_MatchPlay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		playbook  string
		wantLines []int
		wantTags  []string
	}{
		{
			name: "play become_user without become",
			playbook: `---
- name: Play
  hosts: all
  become_user: root
  tasks:
    - name: Task
      ansible.builtin.debug:
        msg: hi
`,
			wantLines: []int{2},
			wantTags:  []string{"partial-become[play]"},
		},
		{
			name: "task inherits become from play",
			playbook: `---
- name: Play
  hosts: all
  become: true
  tasks:
    - name: Task
      become_user: postgres
      ansible.builtin.command: psql -c 'select 1'
`,
		},
		{
			name: "task become_user without become",
			playbook: `---
- name: Play
  hosts: all
  tasks:
    - name: Task
      become_user: postgres
      ansible.builtin.command: psql -c 'select 1'
`,
			wantLines: []int{5},
			wantTags:  []string{"partial-become[task]"},
		},
		{
			name: "block become reaches nested tasks",
			playbook: `---
- name: Play
  hosts: all
  tasks:
    - name: Block
      become: true
      block:
        - name: Task
          become_user: postgres
          ansible.builtin.command: psql -c 'select 1'
    - name: Disabled
      become: false
      become_user: root
      ansible.builtin.command: id
`,
			wantLines: []int{11},
			wantTags:  []string{"partial-become[task]"},
		},
		{
			name: "noqa on task",
			playbook: `---
- name: Play
  hosts: all
  tasks:
    - name: Task  # noqa: partial-become[task]
      become_user: postgres
      ansible.builtin.command: psql -c 'select 1'
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			file := testutil.File(t, "site.yml", lintable.KindPlaybook, tt.playbook)
			got := testutil.RunRule(t, New(), file)
			if tt.wantLines == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.wantLines, testutil.Lines(got))
			assert.Equal(t, tt.wantTags, testutil.Tags(got))
		})
	}
}

func TestRule_IgnoresTaskFiles(t *testing.T) {
	t.Parallel()

	file := testutil.File(t, "tasks/main.yml", lintable.KindTasks, `---
- name: Task
  become_user: root
  ansible.builtin.command: id
`)
	assert.Empty(t, testutil.RunRule(t, New(), file))
}
