package chattemplate

import "strings"

const (
	tagOpen  = "{%"
	tagClose = "%}"

	loopOpenStatement  = "for message in messages"
	loopCloseStatement = "endfor"
)

// FragmentKind classifies a piece of a segmented template.
type FragmentKind int

const (
	// Literal text, interpolated against the binding in scope.
	Literal FragmentKind = iota
	// LoopOpen is a `{% for message in messages %}` tag.
	LoopOpen
	// LoopClose is a `{% endfor %}` tag.
	LoopClose
	// Verbatim text follows an unterminated `{% for`, to the end of its line
	// or, when no `%}` follows at all, to the end of the template. It is
	// copied without interpolation.
	Verbatim
)

func (k FragmentKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case LoopOpen:
		return "loop-open"
	case LoopClose:
		return "loop-close"
	case Verbatim:
		return "verbatim"
	default:
		return "unknown"
	}
}

// Fragment is one segment of a template. Offset is the byte offset of Text
// in the template it was cut from.
type Fragment struct {
	Kind   FragmentKind
	Text   string
	Offset int
}

// Segment splits template into line fragments and tag fragments. A tag
// never spans lines. Concatenating the Text of every fragment yields
// template unchanged.
func Segment(template string) []Fragment {
	return segment(template, nil)
}

func segment(template string, diags *diagnostics) []Fragment {
	var frags []Fragment
	for offset := 0; offset < len(template); {
		n := strings.IndexByte(template[offset:], '\n') + 1
		if n == 0 {
			n = len(template) - offset
		}

		var verbatimFrom int
		frags, verbatimFrom = segmentLine(frags, template[offset:offset+n], offset, diags)
		if verbatimFrom >= 0 && !strings.Contains(template[verbatimFrom:], tagClose) {
			// A `{% for` that nothing closes: no tag can follow, so the rest
			// of the template is copied as written.
			return appendLines(frags, Verbatim, template[offset+n:], offset+n)
		}
		offset += n
	}
	return frags
}

// segmentLine appends the fragments of a single line. offset is the
// position of line in the template. When the line ends in an unterminated
// `{% for`, the template offset of that tag is returned, otherwise -1.
func segmentLine(frags []Fragment, line string, offset int, diags *diagnostics) ([]Fragment, int) {
	literalStart := 0
	flush := func(end int) {
		if end > literalStart {
			frags = append(frags, Fragment{Kind: Literal, Text: line[literalStart:end], Offset: offset + literalStart})
		}
		literalStart = end
	}

	pos := 0
	for {
		start := strings.Index(line[pos:], tagOpen)
		if start < 0 {
			break
		}
		start += pos

		end := strings.Index(line[start+len(tagOpen):], tagClose)
		if end < 0 {
			diags.add(UnterminatedTag, offset+start, line[start:])
			flush(start)
			if startsLoop(line[start+len(tagOpen):]) {
				frags = append(frags, Fragment{Kind: Verbatim, Text: line[start:], Offset: offset + start})
				return frags, offset + start
			}
			frags = append(frags, Fragment{Kind: Literal, Text: line[start:], Offset: offset + start})
			return frags, -1
		}
		closeAt := start + len(tagOpen) + end

		// The tag belongs to the last `{%` before its `%}`; earlier ones
		// stay in the literal run.
		for {
			next := strings.Index(line[start+len(tagOpen):closeAt], tagOpen)
			if next < 0 {
				break
			}
			diags.add(UnterminatedTag, offset+start, line[start:start+len(tagOpen)+next])
			start += len(tagOpen) + next
		}

		tagEnd := closeAt + len(tagClose)
		tag := line[start:tagEnd]
		kind := classifyTag(tag)
		if kind == Literal {
			diags.add(UnknownTag, offset+start, tag)
		}
		flush(start)
		frags = append(frags, Fragment{Kind: kind, Text: tag, Offset: offset + start})
		literalStart = tagEnd
		pos = tagEnd
	}
	flush(len(line))
	return frags, -1
}

// classifyTag reports the kind of a complete `{% ... %}` tag. Only the exact
// loop statements are recognised; anything else is literal.
func classifyTag(tag string) FragmentKind {
	inner := strings.TrimSpace(tag[len(tagOpen) : len(tag)-len(tagClose)])
	switch inner {
	case loopOpenStatement:
		return LoopOpen
	case loopCloseStatement:
		return LoopClose
	default:
		return Literal
	}
}

// startsLoop reports whether the text after an unterminated `{%` reads as
// the start of a for statement.
func startsLoop(inner string) bool {
	words := strings.Fields(inner)
	return len(words) > 0 && words[0] == "for"
}

// appendLines appends text as one fragment per line, keeping each line
// terminator with the line it ends.
func appendLines(frags []Fragment, kind FragmentKind, text string, offset int) []Fragment {
	for text != "" {
		n := strings.IndexByte(text, '\n') + 1
		if n == 0 {
			n = len(text)
		}
		frags = append(frags, Fragment{Kind: kind, Text: text[:n], Offset: offset})
		text = text[n:]
		offset += n
	}
	return frags
}
