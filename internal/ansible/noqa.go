package ansible

import (
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// NoqaMarker starts an inline skip comment.
const NoqaMarker = "# noqa"

// SkipsFromLine returns the rule ids and tags named by a "# noqa" comment on
// line. A bare "# noqa" names nothing and returns nil.
func SkipsFromLine(line string) []string {
	_, text, found := strings.Cut(line, NoqaMarker)
	if !found {
		return nil
	}
	text = strings.TrimLeft(text, " :")
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// noqaByLine collects noqa comments by line. Full-line comments are read
// from the raw text. Elsewhere the comment must be one the parser attached to
// a node starting on that line, so a marker inside a quoted value does not
// count. Lines in the body of a literal or folded block scalar are text, not
// comments, and are skipped.
func (d *Document) noqaByLine() map[int][]string {
	comments := make(map[int][]string)
	for _, root := range d.Nodes {
		Walk(root, func(n *yaml.Node) {
			if n.LineComment != "" {
				comments[n.Line] = append(comments[n.Line], n.LineComment)
			}
		})
	}

	out := make(map[int][]string)
	for i, line := range d.Lines {
		lineno := i + 1
		if d.InBlockScalar(lineno) || !strings.Contains(line, NoqaMarker) {
			continue
		}
		var skips []string
		switch {
		case strings.HasPrefix(strings.TrimSpace(line), "#"):
			skips = SkipsFromLine(line)
		case len(comments[lineno]) > 0:
			for _, c := range comments[lineno] {
				skips = append(skips, SkipsFromLine(c)...)
			}
		case !strings.ContainsAny(line[:strings.Index(line, NoqaMarker)], `"'`):
			// A comment the parser placed elsewhere, after unquoted text.
			skips = SkipsFromLine(line)
		}
		if len(skips) > 0 {
			out[lineno] = skips
		}
	}
	return out
}

// Walk visits n and every node below it in document order. Aliases are not
// followed, so shared anchors are visited once.
func Walk(n *yaml.Node, fn func(*yaml.Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Content {
		Walk(c, fn)
	}
}

func isBlockScalar(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0
}

// indexBlockScalars records the last body line of every block scalar ("|"
// and ">"). A body runs until the next node in document order, minus
// trailing blank or outdented lines.
func (d *Document) indexBlockScalars() {
	var (
		starts []int
		blocks []*yaml.Node
	)
	for _, root := range d.Nodes {
		Walk(root, func(n *yaml.Node) {
			starts = append(starts, n.Line)
			if isBlockScalar(n) {
				blocks = append(blocks, n)
			}
		})
	}
	slices.Sort(starts)

	d.blockEnd = make(map[*yaml.Node]int, len(blocks))
	for _, b := range blocks {
		next := len(d.Lines) + 1
		if idx, _ := slices.BinarySearch(starts, b.Line+1); idx < len(starts) {
			next = starts[idx]
		}
		end := min(next-1, len(d.Lines))
		indent := -1
		if b.Line < end {
			indent = indentOf(d.Lines[b.Line])
		}
		for end > b.Line {
			line := d.Lines[end-1]
			if strings.TrimSpace(line) != "" && indentOf(line) >= indent {
				break
			}
			end--
		}
		d.blockEnd[b] = end
	}
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// InBlockScalar reports whether line is inside the body of a block scalar.
func (d *Document) InBlockScalar(line int) bool {
	for b, end := range d.blockEnd {
		if line > b.Line && line <= end {
			return true
		}
	}
	return false
}

// EndLine returns the last source line covered by n.
func (d *Document) EndLine(n *yaml.Node) int {
	end := 0
	Walk(n, func(c *yaml.Node) {
		last := c.Line
		if e, ok := d.blockEnd[c]; ok {
			last = e
		}
		end = max(end, last)
	})
	return end
}
