package rolename

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/testutil"
)

func TestRule_MatchDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"roles/Bad-Role/tasks/main.yml": "---\n",
		"roles/good_role/tasks/main.yml": "---\n",
		"roles/Renamed/tasks/main.yml":   "---\n",
		"roles/Renamed/meta/main.yml":    "---\ngalaxy_info:\n  role_name: renamed\n",
	})

	bad := lintable.New(filepath.Join(dir, "roles", "Bad-Role"))
	require.Equal(t, lintable.KindRole, bad.Kind())
	got := testutil.RunRule(t, New(), bad)
	require.Len(t, got, 1)
	assert.Equal(t, "Role name Bad-Role does not match ``^[a-z][a-z0-9_]*$`` pattern.", got[0].Message)
	assert.Equal(t, ID, got[0].Tag)

	assert.Empty(t, testutil.RunRule(t, New(), lintable.New(filepath.Join(dir, "roles", "good_role"))))
	assert.Empty(t, testutil.RunRule(t, New(), lintable.New(filepath.Join(dir, "roles", "Renamed"))))
}

func TestRule_Playbook(t *testing.T) {
	t.Parallel()

	file := testutil.File(t, "site.yml", lintable.KindPlaybook, `---
- name: Play
  hosts: all
  roles:
    - common
    - Web-Server
    - role: ../shared/base
    - role: acme.tools.Setup
    - "{{ dynamic_role }}"
  tasks:
    - name: Include by path
      ansible.builtin.include_role:
        name: roles/db
    - name: Include by name
      ansible.builtin.import_role:
        name: db
`)
	got := testutil.RunRule(t, New(), file)

	assert.Equal(t, []int{6, 7, 8, 11}, testutil.Lines(got))
	assert.Equal(t, []string{ID, "role-name[path]", ID, "role-name[path]"}, testutil.Tags(got))
}
