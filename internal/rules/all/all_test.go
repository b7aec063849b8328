package all

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

func TestAllRulesRegistered(t *testing.T) {
	t.Parallel()

	want := []string{
		"command-instead-of-module",
		"command-instead-of-shell",
		"fqcn",
		"load-failure",
		"name",
		"no-changed-when",
		"no-tabs",
		"partial-become",
		"risky-shell-pipe",
		"role-name",
		"schema",
		"syntax-check",
		"yaml",
	}
	var got []string
	for _, r := range rules.DefaultRegistry().All() {
		md := r.Metadata()
		got = append(got, md.ID)
		assert.NotEmpty(t, md.ShortDescription, md.ID)
		assert.NotEmpty(t, md.Tags, md.ID)
		assert.Equal(t, rules.DocURL(md.ID), md.Link, md.ID)
	}
	assert.Equal(t, want, got)
}
