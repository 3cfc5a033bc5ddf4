package chattemplate

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// DiagnosticKind names a fail-soft fallback taken while rendering.
type DiagnosticKind int

const (
	// UnterminatedTag is a `{%` with no `%}` anywhere after it.
	UnterminatedTag DiagnosticKind = iota + 1
	// UnknownTag is a complete `{% ... %}` tag that is not a loop tag.
	UnknownTag
	// UnclosedLoop is a loop-open tag never matched by `{% endfor %}`.
	UnclosedLoop
	// OrphanEndFor is a `{% endfor %}` outside any loop.
	OrphanEndFor
	// NestedLoop is a loop-open tag inside a loop body.
	NestedLoop
	// UnterminatedPlaceholder is a `{{` with no `}}` later in its line.
	UnterminatedPlaceholder
	// UnknownPlaceholder is a `{{ ... }}` naming neither message field.
	UnknownPlaceholder
)

func (k DiagnosticKind) String() string {
	switch k {
	case UnterminatedTag:
		return "unterminated tag"
	case UnknownTag:
		return "unknown tag"
	case UnclosedLoop:
		return "unclosed loop"
	case OrphanEndFor:
		return "endfor without loop"
	case NestedLoop:
		return "nested loop"
	case UnterminatedPlaceholder:
		return "unterminated placeholder"
	case UnknownPlaceholder:
		return "unknown placeholder"
	default:
		return fmt.Sprintf("DiagnosticKind(%d)", int(k))
	}
}

// Diagnostic locates one fail-soft fallback. Line and Column are 1-based and
// Column counts runes.
type Diagnostic struct {
	Kind   DiagnosticKind
	Offset int
	Line   int
	Column int
	Text   string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s %q", d.Line, d.Column, d.Kind, d.Text)
}

// StrictError is returned by RenderStrict when the template needed any
// fail-soft fallback.
type StrictError struct {
	Diagnostics []Diagnostic
}

func (e *StrictError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "chattemplate: %d fail-soft fallback", len(e.Diagnostics))
	if len(e.Diagnostics) != 1 {
		b.WriteString("s")
	}
	for i, d := range e.Diagnostics {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(d.String())
	}
	return b.String()
}

const snippetRunes = 40

type diagnostics struct {
	list []Diagnostic
}

// add is a no-op on a nil receiver so the plain render path pays nothing.
func (d *diagnostics) add(kind DiagnosticKind, offset int, text string) {
	if d == nil {
		return
	}
	d.list = append(d.list, Diagnostic{Kind: kind, Offset: offset, Text: snippet(text)})
}

// resolve orders the diagnostics by position and fills in line and column.
func (d *diagnostics) resolve(source string) []Diagnostic {
	out := slices.Clone(d.list)
	slices.SortStableFunc(out, func(a, b Diagnostic) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	for i := range out {
		before := source[:out[i].Offset]
		lineStart := strings.LastIndexByte(before, '\n') + 1
		out[i].Line = strings.Count(before, "\n") + 1
		out[i].Column = utf8.RuneCountInString(before[lineStart:]) + 1
	}
	return out
}

// snippet shortens s to at most snippetRunes runes without splitting one.
func snippet(s string) string {
	if utf8.RuneCountInString(s) <= snippetRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == snippetRunes {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
