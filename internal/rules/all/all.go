// Package all imports all rule packages to register them.
// Import this package with a blank identifier to enable all rules:
//
//	import _ "github.com/tinovyatkin/ansible-lint/internal/rules/all"
package all

import (
	// Import all rule packages to trigger their init() registration
	_ "github.com/tinovyatkin/ansible-lint/internal/rules/commandmodule"
	_ "github.com/tinovyatkin/ansible-lint/internal/rules/commandshell"
	_ "github.com/tinovyatkin/ansible-lint/internal/rules/fqcn"
	_ "github.com/tinovyatkin/ansible-lint/internal/rules/name"
	_ "github.com/tinovyatkin/ansible-lint/internal/rules/nochangedwhen"
	_ "github.com/tinovyatkin/ansible-lint/internal/rules/notabs"
	_ "github.com/tinovyatkin/ansible-lint/internal/rules/partialbecome"
	_ "github.com/tinovyatkin/ansible-lint/internal/rules/riskyshellpipe"
	_ "github.com/tinovyatkin/ansible-lint/internal/rules/rolename"
	_ "github.com/tinovyatkin/ansible-lint/internal/rules/schema"
	_ "github.com/tinovyatkin/ansible-lint/internal/rules/syntaxcheck"
	_ "github.com/tinovyatkin/ansible-lint/internal/rules/yamlrule"
)
