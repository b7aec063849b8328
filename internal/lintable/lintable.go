// Package lintable represents the files and directories under analysis.
//
// A Lintable is identified by its normalized path. Content and parsed YAML
// are loaded lazily, once, and shared by every rule that looks at the file.
package lintable

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/tinovyatkin/ansible-lint/internal/ansible"
)

// Lintable is one file, role or directory under analysis.
type Lintable struct {
	// Path is the normalized path: relative to the working directory when
	// the file lives below it, absolute otherwise, always forward slashes.
	Path string

	// Name is the path as given by the caller.
	Name string

	// Role is the name of the role owning this file, if any.
	Role string

	// Parent is the Lintable this one was discovered from, nil for the
	// entry points given on the command line.
	Parent *Lintable

	kind    Kind
	refined bool

	contentOnce sync.Once
	content     []byte
	contentErr  error

	docOnce sync.Once
	doc     *ansible.Document
	docErr  error

	kindOnce sync.Once
}

// Option customizes a Lintable.
type Option func(*Lintable)

// WithKind forces the kind instead of detecting it.
func WithKind(k Kind) Option {
	return func(l *Lintable) {
		l.kind = k
		l.refined = true
	}
}

// WithContent provides the content instead of reading it from disk.
func WithContent(content []byte) Option {
	return func(l *Lintable) {
		l.contentOnce.Do(func() {
			l.content = content
		})
	}
}

// WithParent records the Lintable that referenced this one.
func WithParent(p *Lintable) Option {
	return func(l *Lintable) {
		l.Parent = p
	}
}

// WithKinds sets the patterns used for kind detection.
func WithKinds(patterns []KindPattern) Option {
	return func(l *Lintable) {
		if l.refined {
			return
		}
		l.kind = detect(l.Path, patterns)
	}
}

// New creates a Lintable for name. The kind is detected from DefaultKinds
// unless an option overrides it.
func New(name string, opts ...Option) *Lintable {
	l := &Lintable{
		Name: name,
		Path: NormalizePath(name),
	}
	l.kind = detect(l.Path, DefaultKinds)
	for _, opt := range opts {
		opt(l)
	}
	l.Role = roleName(l.Path, l.kind)
	return l
}

func detect(p string, patterns []KindPattern) Kind {
	info, err := os.Stat(p)
	isDir := err == nil && info.IsDir()
	kind := DetectKind(p, isDir, patterns)
	if kind == KindUnknown && isDir && IsRoleDir(p) {
		kind = KindRole
	}
	return kind
}

// IsRoleDir reports whether dir looks like an Ansible role.
func IsRoleDir(dir string) bool {
	for _, sub := range []string{"tasks", "meta", "handlers"} {
		for _, name := range []string{"main.yml", "main.yaml"} {
			if _, err := os.Stat(filepath.Join(dir, sub, name)); err == nil {
				return true
			}
		}
	}
	return false
}

// Kind returns the kind of the Lintable. Generic YAML files whose top level
// is a list of plays are promoted to playbooks on first call.
func (l *Lintable) Kind() Kind {
	l.kindOnce.Do(func() {
		if l.kind != KindYAML || l.refined {
			return
		}
		doc, err := l.Document()
		if err != nil {
			return
		}
		if looksLikePlaybook(doc) {
			l.kind = KindPlaybook
		}
	})
	return l.kind
}

func looksLikePlaybook(doc *ansible.Document) bool {
	plays := ansible.Plays(doc)
	if len(plays) == 0 {
		return false
	}
	for _, p := range plays {
		if p.Get("hosts") == nil && !p.IsImport() {
			return false
		}
	}
	return true
}

// Content returns the raw bytes of the file, read once.
func (l *Lintable) Content() ([]byte, error) {
	l.contentOnce.Do(func() {
		l.content, l.contentErr = os.ReadFile(filepath.FromSlash(l.Path))
	})
	return l.content, l.contentErr
}

// Document returns the parsed YAML document, parsed once.
func (l *Lintable) Document() (*ansible.Document, error) {
	l.docOnce.Do(func() {
		content, err := l.Content()
		if err != nil {
			l.docErr = err
			return
		}
		l.doc, l.docErr = ansible.Parse(content)
	})
	return l.doc, l.docErr
}

// Lines returns the content split into lines.
func (l *Lintable) Lines() ([]string, error) {
	if l.Kind().IsYAML() {
		doc, err := l.Document()
		if err == nil {
			return doc.Lines, nil
		}
	}
	content, err := l.Content()
	if err != nil {
		return nil, err
	}
	return ansible.SplitLines(content), nil
}

// Dir returns the directory containing the Lintable. For roles and other
// directories it is the path itself.
func (l *Lintable) Dir() string {
	if l.Kind() == KindRole {
		return l.Path
	}
	return filepath.ToSlash(filepath.Dir(l.Path))
}

// Base returns the last path element.
func (l *Lintable) Base() string {
	return filepath.Base(l.Path)
}

// Exists reports whether the underlying path exists.
func (l *Lintable) Exists() bool {
	_, err := os.Stat(filepath.FromSlash(l.Path))
	return err == nil
}

// IsNotFound reports whether err means the Lintable does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func (l *Lintable) String() string {
	return l.Path + " (" + string(l.Kind()) + ")"
}

// NormalizePath returns name cleaned, with forward slashes, relative to the
// working directory when it lives below it.
func NormalizePath(name string) string {
	abs, err := filepath.Abs(name)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(name))
	}
	if wd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(wd, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(abs)
}

var roleSubdirs = []string{"tasks", "handlers", "meta", "vars", "defaults", "templates", "files"}

// roleName derives the owning role from a path.
func roleName(p string, kind Kind) string {
	if kind == KindRole {
		if abs, err := filepath.Abs(p); err == nil {
			return filepath.Base(abs)
		}
		return filepath.Base(p)
	}
	parts := strings.Split(p, "/")
	if i := slices.Index(parts, "roles"); i >= 0 && i+1 < len(parts)-1 {
		return parts[i+1]
	}
	if len(parts) >= 3 && slices.Contains(roleSubdirs, parts[len(parts)-2]) {
		return parts[len(parts)-3]
	}
	return ""
}
