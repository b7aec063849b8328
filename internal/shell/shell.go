// Package shell inspects the command lines of command and shell tasks.
// It wraps mvdan.cc/sh/v3/syntax so rules can ask simple questions (which
// programs run, is there a pipe, is pipefail set) without walking the AST.
package shell

import (
	"bytes"
	"path"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Command is one simple command: the program and its words.
type Command struct {
	// Name is the program with any directory stripped.
	Name string
	// Args are the remaining words, unquoted when they are plain literals.
	Args []string
}

func parse(script string) (*syntax.File, error) {
	parser := syntax.NewParser(
		syntax.Variant(syntax.LangBash),
		syntax.KeepComments(false),
	)
	return parser.Parse(strings.NewReader(script), "")
}

// Commands returns the simple commands of script in source order.
func Commands(script string) []Command {
	prog, err := parse(script)
	if err != nil {
		return simpleCommands(script)
	}

	var cmds []Command
	syntax.Walk(prog, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		words := make([]string, 0, len(call.Args))
		for _, w := range call.Args {
			words = append(words, wordString(w))
		}
		cmds = append(cmds, Command{Name: path.Base(words[0]), Args: words[1:]})
		return true
	})
	return cmds
}

// CommandNames extracts all command names from a shell script.
func CommandNames(script string) []string {
	var names []string
	for _, c := range Commands(script) {
		names = append(names, c.Name)
	}
	return names
}

// ContainsCommand checks if a shell script contains a specific command.
func ContainsCommand(script, command string) bool {
	return slices.Contains(CommandNames(script), command)
}

// HasPipes reports whether script pipes one command into another. The
// logical operator || is not a pipe.
func HasPipes(script string) bool {
	prog, err := parse(script)
	if err != nil {
		return hasBarePipe(script)
	}

	found := false
	syntax.Walk(prog, func(node syntax.Node) bool {
		if bin, ok := node.(*syntax.BinaryCmd); ok && (bin.Op == syntax.Pipe || bin.Op == syntax.PipeAll) {
			found = true
		}
		return !found
	})
	return found
}

// SetsPipefail reports whether script runs "set -o pipefail", including
// combined forms such as "set -euo pipefail".
func SetsPipefail(script string) bool {
	for _, c := range Commands(script) {
		if c.Name != "set" {
			continue
		}
		for i, arg := range c.Args {
			if i+1 >= len(c.Args) || c.Args[i+1] != "pipefail" {
				continue
			}
			if len(arg) > 1 && (arg[0] == '-' || arg[0] == '+') && strings.HasSuffix(arg, "o") {
				return true
			}
		}
	}
	return false
}

// NeedsShell reports whether script uses features only a shell provides:
// more than one command, pipes, redirections, expansions, globs or
// backgrounding. A script that cannot be parsed needs a shell.
func NeedsShell(script string) bool {
	if strings.ContainsAny(script, "*?[]{}") {
		return true
	}
	prog, err := parse(script)
	if err != nil {
		return true
	}
	if len(prog.Stmts) != 1 {
		return len(prog.Stmts) > 1
	}

	stmt := prog.Stmts[0]
	if stmt.Background || stmt.Negated || stmt.Coprocess || len(stmt.Redirs) > 0 {
		return true
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Assigns) > 0 {
		return true
	}
	for _, w := range call.Args {
		if !isStatic(w) {
			return true
		}
	}
	return false
}

// isStatic reports whether a word expands to itself, without parameter,
// command or arithmetic expansion.
func isStatic(w *syntax.Word) bool {
	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.Lit, *syntax.SglQuoted:
		case *syntax.DblQuoted:
			for _, inner := range p.Parts {
				if _, ok := inner.(*syntax.Lit); !ok {
					return false
				}
			}
		default:
			return false
		}
	}
	return true
}

// wordString returns the value of a word with quotes removed when it is
// static, or its source text otherwise.
func wordString(w *syntax.Word) string {
	if isStatic(w) {
		var sb strings.Builder
		for _, part := range w.Parts {
			switch p := part.(type) {
			case *syntax.Lit:
				sb.WriteString(p.Value)
			case *syntax.SglQuoted:
				sb.WriteString(p.Value)
			case *syntax.DblQuoted:
				for _, inner := range p.Parts {
					sb.WriteString(inner.(*syntax.Lit).Value)
				}
			}
		}
		return sb.String()
	}

	var buf bytes.Buffer
	if err := syntax.NewPrinter().Print(&buf, w); err != nil {
		return ""
	}
	return buf.String()
}

// hasBarePipe looks for a single | in text that failed to parse.
func hasBarePipe(script string) bool {
	for i := 0; i < len(script); i++ {
		if script[i] != '|' {
			continue
		}
		if i+1 < len(script) && script[i+1] == '|' {
			i++
			continue
		}
		return true
	}
	return false
}

// simpleCommands is a fallback when parsing fails.
// It does basic word splitting to find potential command names.
func simpleCommands(script string) []Command {
	var cmds []Command

	const marker = "\x00"
	for _, sep := range []string{"&&", "||", ";", "|", "`", "$("} {
		script = strings.ReplaceAll(script, sep, marker)
	}
	script = strings.ReplaceAll(script, "(", marker)
	script = strings.ReplaceAll(script, ")", " ")
	script = strings.ReplaceAll(script, "\\\n", " ")
	script = strings.ReplaceAll(script, "\n", marker)

	for seq := range strings.SplitSeq(script, marker) {
		fields := strings.Fields(seq)
		// Skip environment variable assignments (FOO=bar)
		for len(fields) > 0 && strings.Contains(fields[0], "=") && !strings.HasPrefix(fields[0], "-") {
			fields = fields[1:]
		}
		if len(fields) == 0 {
			continue
		}
		cmds = append(cmds, Command{Name: path.Base(fields[0]), Args: fields[1:]})
	}
	return cmds
}
