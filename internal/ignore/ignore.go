// Package ignore reads and writes the ignore file, which lists known
// violations per path or glob.
//
// Each non-empty line that does not start with "#" has the form
//
//	<path-or-glob> <rule-id-or-tag> [<rule-id-or-tag>...] [skip]
//
// Matches listed without the trailing "skip" are reported as ignored and do
// not fail the run; with "skip" they are removed from the output.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// Names are the ignore file locations, relative to the project directory, in
// lookup order.
var Names = []string{
	".ansible-lint-ignore",
	".config/ansible-lint-ignore.txt",
	".config/ansible-lint-ignore",
}

// All is the rule name that matches every rule.
const All = "all"

// skipMarker is the trailing token that turns an entry into a removal.
const skipMarker = "skip"

// Action is what the ignore file says to do with a match.
type Action int

const (
	// Keep leaves the match unchanged.
	Keep Action = iota
	// Ignore marks the match as ignored.
	Ignore
	// Skip removes the match.
	Skip
)

// Entry is one line of the ignore file.
type Entry struct {
	Pattern string
	Rules   []string
	Skip    bool
	Line    int
}

// File is a loaded ignore file.
type File struct {
	// Path is where the file was read from, empty when none exists.
	Path string

	exact map[string][]Entry
	globs []Entry
}

// Load reads the first ignore file that exists under projectDir. Without one
// it returns an empty File. An existing empty file is valid and stops the
// lookup.
func Load(projectDir string) (*File, error) {
	for _, name := range Names {
		p := filepath.Join(projectDir, filepath.FromSlash(name))
		f, err := os.Open(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		file, err := Parse(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		file.Path = p
		return file, nil
	}
	return &File{}, nil
}

// Parse reads ignore entries from r.
func Parse(r io.Reader) (*File, error) {
	file := &File{exact: make(map[string][]Entry)}
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := sc.Text()
		if i := strings.Index(line, " #"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: missing rule id after %q", lineno, fields[0])
		}

		e := Entry{Pattern: normalize(fields[0]), Rules: fields[1:], Line: lineno}
		if n := len(e.Rules); n > 1 && e.Rules[n-1] == skipMarker {
			e.Rules = e.Rules[:n-1]
			e.Skip = true
		}
		if !doublestar.ValidatePattern(e.Pattern) {
			return nil, fmt.Errorf("line %d: invalid pattern %q", lineno, fields[0])
		}
		if isLiteral(e.Pattern) {
			file.exact[e.Pattern] = append(file.exact[e.Pattern], e)
		} else {
			file.globs = append(file.globs, e)
		}
	}
	return file, sc.Err()
}

func normalize(p string) string {
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(p)), "./")
}

func isLiteral(p string) bool {
	return !strings.ContainsAny(p, `*?[{\`)
}

// Empty reports whether the file has no entries.
func (f *File) Empty() bool {
	return f == nil || (len(f.exact) == 0 && len(f.globs) == 0)
}

// Lookup returns the action for a match of rule id or tag in path, which is
// relative to the project directory. Entries naming the path exactly take
// precedence over glob entries for the rules they list; the rules of all
// matching globs are combined.
func (f *File) Lookup(path, id, tag string) Action {
	if f.Empty() {
		return Keep
	}
	path = normalize(path)
	if a := resolve(f.exact[path], id, tag); a != Keep {
		return a
	}

	var matched []Entry
	for _, e := range f.globs {
		if ok, err := doublestar.Match(e.Pattern, path); err == nil && ok {
			matched = append(matched, e)
		}
	}
	return resolve(matched, id, tag)
}

// resolve combines entries naming the rule; a skip entry wins over an ignore
// entry.
func resolve(entries []Entry, id, tag string) Action {
	action := Keep
	for _, e := range entries {
		if !slices.Contains(e.Rules, id) && !slices.Contains(e.Rules, tag) && !slices.Contains(e.Rules, All) {
			continue
		}
		if e.Skip {
			return Skip
		}
		action = Ignore
	}
	return action
}

// Apply marks or removes matches listed in the file. relPath converts a
// match's file to the project-relative form used by the entries.
func (f *File) Apply(matches []rules.MatchError, relPath func(string) string) []rules.MatchError {
	if f.Empty() {
		return matches
	}
	out := make([]rules.MatchError, 0, len(matches))
	for _, m := range matches {
		switch f.Lookup(relPath(m.File()), m.RuleID, m.Tag) {
		case Skip:
			continue
		case Ignore:
			m = m.WithIgnored()
		}
		out = append(out, m)
	}
	return out
}

// Generate writes an ignore file listing every match, one line per file and
// tag, sorted.
func Generate(w io.Writer, matches []rules.MatchError, relPath func(string) string) error {
	seen := make(map[string]struct{})
	var lines []string
	for _, m := range matches {
		line := relPath(m.File()) + " " + m.Tag
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	slices.Sort(lines)

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# This file contains ignores rule violations for ansible-lint")
	for _, l := range lines {
		fmt.Fprintln(bw, l)
	}
	return bw.Flush()
}
