package ansible

import "strings"

// taskKeywords are task attributes that are never the action of a task.
// "action" and "local_action" carry the action and are handled separately.
var taskKeywords = map[string]bool{
	"name":               true,
	"args":               true,
	"async":              true,
	"become":             true,
	"become_exe":         true,
	"become_flags":       true,
	"become_method":      true,
	"become_user":        true,
	"changed_when":       true,
	"check_mode":         true,
	"collections":        true,
	"connection":         true,
	"debugger":           true,
	"delay":              true,
	"delegate_facts":     true,
	"delegate_to":        true,
	"diff":               true,
	"environment":        true,
	"failed_when":        true,
	"ignore_errors":      true,
	"ignore_unreachable": true,
	"listen":             true,
	"loop":               true,
	"loop_control":       true,
	"module_defaults":    true,
	"no_log":             true,
	"notify":             true,
	"poll":               true,
	"port":               true,
	"register":           true,
	"remote_user":        true,
	"retries":            true,
	"run_once":           true,
	"tags":               true,
	"throttle":           true,
	"timeout":            true,
	"until":              true,
	"vars":               true,
	"when":               true,
	"block":              true,
	"rescue":             true,
	"always":             true,
}

// IsTaskKeyword reports whether key is a task keyword rather than a module.
func IsTaskKeyword(key string) bool {
	if strings.HasPrefix(key, "with_") {
		return true
	}
	return taskKeywords[key]
}

// BlockSections are the keys of a block that hold nested tasks.
var BlockSections = []string{"block", "rescue", "always"}

// PlaySections are the keys of a play that hold task lists, in execution order.
var PlaySections = []string{"pre_tasks", "tasks", "post_tasks", "handlers"}

// freeFormModules accept a raw command string instead of key=value arguments.
var freeFormModules = map[string]bool{
	"command":         true,
	"shell":           true,
	"raw":             true,
	"script":          true,
	"win_command":     true,
	"win_shell":       true,
	"include_vars":    true,
	"include_tasks":   true,
	"import_tasks":    true,
	"include":         true,
	"import_playbook": true,
	"meta":            true,
}

// freeFormParams are the key=value options still parsed out of a free-form
// command line.
var freeFormParams = map[string]bool{
	"chdir":                true,
	"creates":              true,
	"removes":              true,
	"executable":           true,
	"stdin":                true,
	"stdin_add_newline":    true,
	"strip_empty_ends":     true,
	"expand_argument_vars": true,
}

// builtinPrefixes are collection prefixes stripped by ShortName.
var builtinPrefixes = []string{"ansible.builtin.", "ansible.legacy.", "ansible.windows."}

// ShortName strips the builtin collection prefix from a module name.
func ShortName(module string) string {
	for _, p := range builtinPrefixes {
		if rest, ok := strings.CutPrefix(module, p); ok {
			return rest
		}
	}
	return module
}

// IsFreeForm reports whether module takes a free-form command string.
func IsFreeForm(module string) bool {
	return freeFormModules[ShortName(module)]
}

// builtinModules are the modules shipped in ansible.builtin.
var builtinModules = map[string]bool{}

func init() {
	for _, m := range strings.Fields(`
		add_host apt apt_key apt_repository assemble assert async_status
		blockinfile command copy cron deb822_repository debconf debug dnf dnf5
		dpkg_selections expect fail fetch file find gather_facts get_url
		getent git group group_by hostname import_playbook import_role
		import_tasks include include_role include_tasks include_vars iptables
		known_hosts lineinfile meta mount_facts package package_facts pause
		ping pip raw reboot replace rpm_key script service service_facts
		set_fact set_stats setup shell slurp stat subversion systemd
		systemd_service sysvinit tempfile template unarchive uri user
		validate_argument_spec wait_for wait_for_connection yum_repository`) {
		builtinModules[m] = true
	}
}

// IsBuiltin reports whether module, without collection prefix, is part of
// ansible.builtin.
func IsBuiltin(module string) bool {
	return builtinModules[module]
}
